package synthesis

import (
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/anomaly"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//Baseline is the expected clean level of each soil quantity within a zone
type Baseline struct {
	Zone int
	models.Values
}

//BaselineForZone derives the baseline of a zone. Every quantity grows strictly with the
//zone index so that no two zones share a baseline.
func BaselineForZone(zone int) Baseline {
	z := float64(zone)
	return Baseline{
		Zone: zone,
		Values: models.Values{
			SoilMoisture:    25.0 + z*2.0,
			EC:              1.0 + z*0.1,
			SoilTemperature: 20.0 + z*0.5,
			PH:              6.2 + z*0.1,
		},
	}
}

//CleanBand is the envelope a clean reading of the zone stays within over any window
func CleanBand(b Baseline, bounds Bounds) anomaly.Band {
	macro := 3.5

	return anomaly.Band{
		Lo: models.Values{
			SoilMoisture:    b.SoilMoisture - macro - bounds.Moisture,
			EC:              b.EC - 0.02*macro - bounds.EC,
			SoilTemperature: b.SoilTemperature + DiurnalTempShift(0) - bounds.Temperature,
			PH:              b.PH - bounds.PH,
		},
		Hi: models.Values{
			SoilMoisture:    b.SoilMoisture + macro + bounds.Moisture,
			EC:              b.EC + 0.02*macro + bounds.EC,
			SoilTemperature: b.SoilTemperature + DiurnalTempShift(23) + bounds.Temperature,
			PH:              b.PH + bounds.PH,
		},
	}
}
