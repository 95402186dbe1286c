package synthesis

import (
	"time"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

const (
	baseAmbientTemp  = 22.0
	ambientJitter    = 1.0
	minHumidity      = 50.0
	maxHumidity      = 60.0
	noRainfallMM     = 0.0
	weatherPrecision = 1
)

//GenerateWeather produces the ambient reference series for a window. Rainfall is always zero
//so that any moisture rise in the soil series is unexplained by rain.
func GenerateWeather(noise *Noise, location string, start time.Time, hours int) models.WeatherDocument {
	doc := models.WeatherDocument{Location: location, Forecast: []models.WeatherForecast{}}
	start = start.UTC().Truncate(time.Hour)

	for h := 0; h < hours; h++ {
		doc.Forecast = append(doc.Forecast, models.WeatherForecast{
			Timestamp:   start.Add(time.Duration(h) * time.Hour).Format(models.TimestampLayout),
			AmbientTemp: round(baseAmbientTemp+DiurnalTempShift(h)+noise.Uniform(-ambientJitter, ambientJitter), weatherPrecision),
			Humidity:    round(noise.Uniform(minHumidity, maxHumidity), weatherPrecision),
			RainfallMM:  noRainfallMM,
		})
	}

	return doc
}
