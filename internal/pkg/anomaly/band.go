package anomaly

import (
	"fmt"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//Band is the envelope that clean readings of a sensor stay within
type Band struct {
	Lo models.Values
	Hi models.Values
}

func (r FieldRange) overlaps(band Band) bool {
	hi := r.Hi
	if hi < r.Lo {
		hi = r.Lo
	}
	return r.Lo <= r.Field.Get(band.Hi) && hi >= r.Field.Get(band.Lo)
}

//CheckOutOfBand fails when a spiking profile could draw a value inside the clean band of the
//sensor it is bound to
func CheckOutOfBand(p Profile, band Band) error {
	var ranges []FieldRange

	switch spike := p.(type) {
	case Spike:
		ranges = spike.Ranges
	case SustainedSpike:
		ranges = spike.Ranges
	default:
		return nil
	}

	for _, r := range ranges {
		if r.overlaps(band) {
			return fmt.Errorf("%w: %s range %.2f..%.2f overlaps the clean band %.2f..%.2f",
				ErrInvalidProfile, r.Field, r.Lo, r.Hi, r.Field.Get(band.Lo), r.Field.Get(band.Hi))
		}
	}

	return nil
}
