//Package anomaly holds the catalog of fault profiles injected into real-time sensor series.
//Every profile is a pure transform of a clean reading for a given hour.
package anomaly

import (
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//Category names the kind of fault a profile produces
type Category string

const (
	CategoryStatic               Category = "static"
	CategoryPartialStatic        Category = "partial-static"
	CategoryTemporalErratic      Category = "temporal-erratic"
	CategoryPhysicalImplausible  Category = "physical-implausible"
	CategoryDrift                Category = "drift"
	CategoryCrossSensorDeviation Category = "cross-sensor-deviation"
	CategoryMultiFailure         Category = "multi-failure"
)

//Field selects one of the four soil quantities
type Field string

const (
	SoilMoisture    Field = "soil_moisture"
	EC              Field = "ec"
	SoilTemperature Field = "soil_temperature"
	PH              Field = "ph"
)

func (f Field) valid() bool {
	switch f {
	case SoilMoisture, EC, SoilTemperature, PH:
		return true
	}
	return false
}

//Get reads the field from v
func (f Field) Get(v models.Values) float64 {
	switch f {
	case SoilMoisture:
		return v.SoilMoisture
	case EC:
		return v.EC
	case SoilTemperature:
		return v.SoilTemperature
	case PH:
		return v.PH
	}
	return 0
}

//Set returns a copy of v with the field replaced
func (f Field) Set(v models.Values, value float64) models.Values {
	switch f {
	case SoilMoisture:
		v.SoilMoisture = value
	case EC:
		v.EC = value
	case SoilTemperature:
		v.SoilTemperature = value
	case PH:
		v.PH = value
	}
	return v
}

//Rand is the part of *rand.Rand that the transforms draw from
type Rand interface {
	Float64() float64
}

//Tick locates a reading within its window
type Tick struct {
	Hour   int
	Window int
}

//Profile is a fault bound to exactly one sensor for a whole real-time window
type Profile interface {
	Category() Category
	Apply(v models.Values, t Tick, rng Rand) models.Values
}

//FieldRange is an out of band interval a spiking field jumps into. Lo == Hi pins the value.
type FieldRange struct {
	Field Field   `json:"field"`
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
}

func (r FieldRange) draw(rng Rand) float64 {
	if r.Hi <= r.Lo {
		return r.Lo
	}
	return r.Lo + rng.Float64()*(r.Hi-r.Lo)
}

//Adjustment rescales and then shifts a field. A zero Scale leaves the value unscaled.
type Adjustment struct {
	Field  Field   `json:"field"`
	Offset float64 `json:"offset,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

func (a Adjustment) apply(v models.Values) models.Values {
	scale := a.Scale
	if scale == 0 {
		scale = 1
	}
	return a.Field.Set(v, a.Field.Get(v)*scale+a.Offset)
}

func (a Adjustment) identity() bool {
	return a.Offset == 0 && (a.Scale == 0 || a.Scale == 1)
}

func adjust(v models.Values, adjustments []Adjustment) models.Values {
	for _, a := range adjustments {
		v = a.apply(v)
	}
	return v
}

func containsHour(hours []int, hour int) bool {
	for _, h := range hours {
		if h == hour {
			return true
		}
	}
	return false
}

//Static pins all four quantities, leaving zero variance
type Static struct {
	Values models.Values
}

func (p Static) Category() Category { return CategoryStatic }

func (p Static) Apply(_ models.Values, _ Tick, _ Rand) models.Values {
	return p.Values
}

//PartialStatic pins a single quantity while the others keep their natural noise
type PartialStatic struct {
	Field Field
	Value float64
}

func (p PartialStatic) Category() Category { return CategoryPartialStatic }

func (p PartialStatic) Apply(v models.Values, _ Tick, _ Rand) models.Values {
	return p.Field.Set(v, p.Value)
}

//Spike throws fields out of band at the listed hours only
type Spike struct {
	Hours  []int
	Ranges []FieldRange
}

func (p Spike) Category() Category { return CategoryTemporalErratic }

func (p Spike) Apply(v models.Values, t Tick, rng Rand) models.Values {
	if !containsHour(p.Hours, t.Hour) {
		return v
	}
	for _, r := range p.Ranges {
		v = r.Field.Set(v, r.draw(rng))
	}
	return v
}

//SustainedSpike throws fields out of band from hour From until the end of the window
type SustainedSpike struct {
	From   int
	Ranges []FieldRange
}

func (p SustainedSpike) Category() Category { return CategoryTemporalErratic }

func (p SustainedSpike) Apply(v models.Values, t Tick, rng Rand) models.Values {
	if t.Hour < p.From {
		return v
	}
	for _, r := range p.Ranges {
		v = r.Field.Set(v, r.draw(rng))
	}
	return v
}

//Implausible adds an offset large enough to break a cross-signal physical bound, such as
//soil far warmer than air or moisture rising without rain. With Hours set it is active at
//those hours, otherwise for every hour after After (use -1 for the whole window).
type Implausible struct {
	Field  Field
	Offset float64
	After  int
	Hours  []int
}

func (p Implausible) Category() Category { return CategoryPhysicalImplausible }

func (p Implausible) active(hour int) bool {
	if len(p.Hours) > 0 {
		return containsHour(p.Hours, hour)
	}
	return hour > p.After
}

func (p Implausible) Apply(v models.Values, t Tick, _ Rand) models.Values {
	if !p.active(t.Hour) {
		return v
	}
	return p.Field.Set(v, p.Field.Get(v)+p.Offset)
}

//Drift ramps a field linearly away from its baseline so that the last hour of the window
//is offset by exactly -Total. A negative Total drifts upwards.
type Drift struct {
	Field Field
	Total float64
}

func (p Drift) Category() Category { return CategoryDrift }

//Offset returns the amount subtracted at the given tick
func (p Drift) Offset(t Tick) float64 {
	if t.Window <= 1 {
		return p.Total
	}
	return p.Total / float64(t.Window-1) * float64(t.Hour)
}

func (p Drift) Apply(v models.Values, t Tick, _ Rand) models.Values {
	return p.Field.Set(v, p.Field.Get(v)-p.Offset(t))
}

//Deviation detaches a sensor from its zone peers with a constant offset or scale while the
//noise shape stays intact
type Deviation struct {
	Adjustments []Adjustment
}

func (p Deviation) Category() Category { return CategoryCrossSensorDeviation }

func (p Deviation) Apply(v models.Values, _ Tick, _ Rand) models.Values {
	return adjust(v, p.Adjustments)
}

//MultiFailure applies several adjustments at once every Every hours
type MultiFailure struct {
	Every       int
	Adjustments []Adjustment
}

func (p MultiFailure) Category() Category { return CategoryMultiFailure }

func (p MultiFailure) Apply(v models.Values, t Tick, _ Rand) models.Values {
	if p.Every <= 0 || t.Hour%p.Every != 0 {
		return v
	}
	return adjust(v, p.Adjustments)
}
