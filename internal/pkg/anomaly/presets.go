package anomaly

import "github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"

func mustCatalog(entries ...Entry) *Catalog {
	c, err := NewCatalog(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

//KireapCatalog is the five zone deployment with one of each detector rule per zone pair.
//Drift reaches its total on the last hour of the window, so s_34 loses the full 18 over a
//12 hour window instead of the 8.25 a per window-hour step of 18/24 would give.
func KireapCatalog() *Catalog {
	return mustCatalog(
		// zone 2
		Entry{"s_12", Static{Values: models.Values{SoilMoisture: 26.0, EC: 1.1, SoilTemperature: 21.0, PH: 6.3}}},
		Entry{"s_15", Implausible{Field: SoilTemperature, Offset: 12.0, After: 10}},
		// zone 3
		Entry{"s_23", Spike{Hours: []int{5, 14, 20}, Ranges: []FieldRange{
			{Field: EC, Lo: 5.0, Hi: 8.0},
			{Field: PH, Lo: 2.0, Hi: 3.5},
		}}},
		Entry{"s_28", Implausible{Field: SoilMoisture, Offset: 45.0, Hours: []int{8, 9, 10}}},
		// zone 4
		Entry{"s_34", Drift{Field: SoilMoisture, Total: 18.0}},
		Entry{"s_37", PartialStatic{Field: SoilMoisture, Value: 31.5}},
		// zone 5
		Entry{"s_42", Deviation{Adjustments: []Adjustment{{Field: SoilMoisture, Offset: -15.0}}}},
		Entry{"s_48", MultiFailure{Every: 4, Adjustments: []Adjustment{
			{Field: SoilMoisture, Offset: 30.0},
			{Field: SoilTemperature, Offset: -15.0},
			{Field: EC, Scale: 4},
		}}},
	)
}

//Field6Catalog covers the single zone 6 deployment
func Field6Catalog() *Catalog {
	return mustCatalog(
		Entry{"s_56", Static{Values: models.Values{SoilMoisture: 37.5, EC: 1.6, SoilTemperature: 23.0, PH: 6.8}}},
		Entry{"s_57", Spike{Hours: []int{8, 16}, Ranges: []FieldRange{
			{Field: SoilMoisture, Lo: 95.0, Hi: 95.0},
			{Field: EC, Lo: 8.5, Hi: 8.5},
		}}},
		Entry{"s_58", Drift{Field: SoilMoisture, Total: 15.0}},
		Entry{"s_59", Deviation{Adjustments: []Adjustment{{Field: SoilMoisture, Offset: -18.0}}}},
	)
}

//DemoCatalog spreads warning level drifts and hard failures over five zones
func DemoCatalog() *Catalog {
	warning := func(id string) Entry {
		return Entry{id, Drift{Field: SoilMoisture, Total: -20.0}}
	}
	spike := func(id string) Entry {
		return Entry{id, SustainedSpike{From: 16, Ranges: []FieldRange{
			{Field: SoilMoisture, Lo: 88.0, Hi: 95.0},
			{Field: EC, Lo: 2.8, Hi: 3.5},
		}}}
	}
	frozen := func(id string) Entry {
		return Entry{id, Static{Values: models.Values{SoilMoisture: 42.0, EC: 1.1, SoilTemperature: 29.0, PH: 6.3}}}
	}

	return mustCatalog(
		warning("s_07"), warning("s_08"), spike("s_09"), frozen("s_10"),
		warning("s_17"), warning("s_18"), spike("s_19"),
		warning("s_27"), warning("s_28"), spike("s_29"),
		warning("s_38"), warning("s_39"), frozen("s_40"),
		warning("s_47"), warning("s_48"),
	)
}
