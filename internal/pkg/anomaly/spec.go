package anomaly

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//Spec is the declarative form of a catalog entry, as read from a catalog file
type Spec struct {
	SensorID string   `json:"sensor_id"`
	Category Category `json:"category"`

	Values      *models.Values `json:"values,omitempty"`
	Field       Field          `json:"field,omitempty"`
	Value       *float64       `json:"value,omitempty"`
	Hours       []int          `json:"hours,omitempty"`
	From        *int           `json:"from,omitempty"`
	Ranges      []FieldRange   `json:"ranges,omitempty"`
	Offset      float64        `json:"offset,omitempty"`
	After       *int           `json:"after,omitempty"`
	Total       float64        `json:"total,omitempty"`
	Every       int            `json:"every,omitempty"`
	Adjustments []Adjustment   `json:"adjustments,omitempty"`
}

//ReadSpecs decodes a JSON array of specs
func ReadSpecs(r io.Reader) ([]Spec, error) {
	specs := []Spec{}
	if err := json.NewDecoder(r).Decode(&specs); err != nil {
		return nil, fmt.Errorf("failed to decode anomaly catalog: %w", err)
	}
	return specs, nil
}

//BuildCatalog turns specs into a catalog. Unknown categories and missing parameters fail;
//no default category is ever substituted.
func BuildCatalog(specs []Spec) (*Catalog, error) {
	entries := make([]Entry, 0, len(specs))

	for _, s := range specs {
		p, err := s.Profile()
		if err != nil {
			return nil, fmt.Errorf("anomaly spec for %s: %w", s.SensorID, err)
		}
		entries = append(entries, Entry{SensorID: s.SensorID, Profile: p})
	}

	return NewCatalog(entries...)
}

//Profile builds the profile described by the spec. Parameter problems wrap ErrInvalidProfile,
//unknown categories wrap ErrUnknownCategory.
func (s Spec) Profile() (Profile, error) {
	p, err := s.profile()
	if err != nil && !errors.Is(err, ErrUnknownCategory) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, err.Error())
	}
	return p, err
}

func (s Spec) profile() (Profile, error) {
	switch s.Category {
	case CategoryStatic:
		if s.Values == nil {
			return nil, fmt.Errorf("%s requires values", s.Category)
		}
		return Static{Values: *s.Values}, nil

	case CategoryPartialStatic:
		if err := s.requireField(); err != nil {
			return nil, err
		}
		if s.Value == nil {
			return nil, fmt.Errorf("%s requires value", s.Category)
		}
		return PartialStatic{Field: s.Field, Value: *s.Value}, nil

	case CategoryTemporalErratic:
		if err := checkRanges(s.Ranges); err != nil {
			return nil, err
		}
		if s.From != nil {
			return SustainedSpike{From: *s.From, Ranges: s.Ranges}, nil
		}
		if len(s.Hours) == 0 {
			return nil, fmt.Errorf("%s requires hours or from", s.Category)
		}
		return Spike{Hours: s.Hours, Ranges: s.Ranges}, nil

	case CategoryPhysicalImplausible:
		if err := s.requireField(); err != nil {
			return nil, err
		}
		if s.Offset == 0 {
			return nil, fmt.Errorf("%s requires a non zero offset", s.Category)
		}
		after := -1
		if s.After != nil {
			after = *s.After
		}
		return Implausible{Field: s.Field, Offset: s.Offset, After: after, Hours: s.Hours}, nil

	case CategoryDrift:
		if err := s.requireField(); err != nil {
			return nil, err
		}
		if s.Total == 0 {
			return nil, fmt.Errorf("%s requires a non zero total", s.Category)
		}
		return Drift{Field: s.Field, Total: s.Total}, nil

	case CategoryCrossSensorDeviation:
		if err := checkAdjustments(s.Adjustments); err != nil {
			return nil, err
		}
		return Deviation{Adjustments: s.Adjustments}, nil

	case CategoryMultiFailure:
		if s.Every <= 0 {
			return nil, fmt.Errorf("%s requires a positive every", s.Category)
		}
		if err := checkAdjustments(s.Adjustments); err != nil {
			return nil, err
		}
		return MultiFailure{Every: s.Every, Adjustments: s.Adjustments}, nil
	}

	return nil, fmt.Errorf("%q: %w", s.Category, ErrUnknownCategory)
}

func (s Spec) requireField() error {
	if !s.Field.valid() {
		return fmt.Errorf("%s requires a valid field, got %q", s.Category, s.Field)
	}
	return nil
}

func checkRanges(ranges []FieldRange) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%s requires at least one range", CategoryTemporalErratic)
	}
	for _, r := range ranges {
		if !r.Field.valid() {
			return fmt.Errorf("invalid range field %q", r.Field)
		}
	}
	return nil
}

func checkAdjustments(adjustments []Adjustment) error {
	if len(adjustments) == 0 {
		return fmt.Errorf("at least one adjustment is required")
	}
	for _, a := range adjustments {
		if !a.Field.valid() {
			return fmt.Errorf("invalid adjustment field %q", a.Field)
		}
		if a.identity() {
			return fmt.Errorf("adjustment of %s changes nothing, set an offset or a scale other than 1", a.Field)
		}
	}
	return nil
}
