package synthesis

import (
	"time"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/anomaly"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//CleanValues computes the unperturbed, unrounded values of hour h for a baseline
func CleanValues(noise *Noise, b Baseline, hour int) models.Values {
	macro := MacroMoistureVariance(hour)

	return models.Values{
		SoilMoisture:    b.SoilMoisture + macro + noise.moisture(),
		EC:              b.EC + 0.02*macro + noise.ec(),
		SoilTemperature: b.SoilTemperature + DiurnalTempShift(hour) + noise.temperature(),
		PH:              b.PH + noise.ph(),
	}
}

//GenerateSeries produces one hourly reading per hour of the window starting at start.
//When profile is non nil it is applied to every hour before rounding.
func GenerateSeries(noise *Noise, b Baseline, start time.Time, hours int, profile anomaly.Profile) []models.Reading {
	if hours <= 0 {
		return []models.Reading{}
	}

	start = start.UTC().Truncate(time.Hour)
	readings := make([]models.Reading, 0, hours)

	for h := 0; h < hours; h++ {
		v := CleanValues(noise, b, h)

		if profile != nil {
			v = profile.Apply(v, anomaly.Tick{Hour: h, Window: hours}, noise.Rand())
		}

		readings = append(readings, models.Reading{
			Timestamp: start.Add(time.Duration(h) * time.Hour).Format(models.TimestampLayout),
			Values: models.Values{
				SoilMoisture:    round(v.SoilMoisture, 2),
				EC:              round(v.EC, 2),
				SoilTemperature: round(v.SoilTemperature, 2),
				PH:              round(v.PH, 2),
			},
		})
	}

	return readings
}
