package synthesis

import (
	"fmt"
	"math"
	"math/rand"
)

//Bounds are the half widths of the uniform jitter added to each soil quantity
type Bounds struct {
	Moisture    float64
	EC          float64
	Temperature float64
	PH          float64
}

//DefaultBounds matches the twelve hour variant; the daily variants widen EC to 0.05
var DefaultBounds = Bounds{Moisture: 1.0, EC: 0.03, Temperature: 0.5, PH: 0.05}

//StaticThresholds are the minimum per quantity standard deviations below which the
//detection engine reports a sensor as frozen
type StaticThresholds struct {
	Moisture    float64
	EC          float64
	Temperature float64
	PH          float64
}

//DefaultStaticThresholds mirror the detection engine's staticness rule
var DefaultStaticThresholds = StaticThresholds{Moisture: 0.1, EC: 0.01, Temperature: 0.1, PH: 0.01}

//Validate checks that the standard deviation of every jitter band exceeds its static threshold.
//Clean sensors would otherwise be reported as frozen. A zero threshold disables the check.
func (b Bounds) Validate(th StaticThresholds) error {
	check := func(name string, bound, threshold float64) error {
		if sd := bound / math.Sqrt(3); threshold > 0 && sd <= threshold {
			return fmt.Errorf("%s noise bound %.3f (sd %.4f) does not exceed static threshold %.4f", name, bound, sd, threshold)
		}
		return nil
	}

	if err := check("moisture", b.Moisture, th.Moisture); err != nil {
		return err
	}
	if err := check("ec", b.EC, th.EC); err != nil {
		return err
	}
	if err := check("temperature", b.Temperature, th.Temperature); err != nil {
		return err
	}
	return check("ph", b.PH, th.PH)
}

//Noise produces bounded uniform perturbations from an explicitly owned random source
type Noise struct {
	rng    *rand.Rand
	bounds Bounds
}

//NewNoise wraps rng. Zero bounds produce a noiseless model.
func NewNoise(rng *rand.Rand, bounds Bounds) *Noise {
	return &Noise{rng: rng, bounds: bounds}
}

//NewSeededNoise creates a noise model with its own source seeded with seed
func NewSeededNoise(seed int64, bounds Bounds) *Noise {
	return NewNoise(rand.New(rand.NewSource(seed)), bounds)
}

//Bounds returns the jitter bounds of the model
func (n *Noise) Bounds() Bounds {
	return n.bounds
}

//Rand exposes the underlying source so that anomaly transforms draw from the same stream
func (n *Noise) Rand() *rand.Rand {
	return n.rng
}

//Uniform returns a value in [lo, hi)
func (n *Noise) Uniform(lo, hi float64) float64 {
	return lo + n.rng.Float64()*(hi-lo)
}

//Jitter returns a value in [-bound, bound)
func (n *Noise) Jitter(bound float64) float64 {
	if bound == 0 {
		return 0
	}
	return n.Uniform(-bound, bound)
}

//IntBetween returns an integer in [lo, hi]
func (n *Noise) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + n.rng.Intn(hi-lo+1)
}

func (n *Noise) moisture() float64 {
	return n.Jitter(n.bounds.Moisture)
}

func (n *Noise) ec() float64 {
	return n.Jitter(n.bounds.EC)
}

func (n *Noise) temperature() float64 {
	return n.Jitter(n.bounds.Temperature)
}

func (n *Noise) ph() float64 {
	return n.Jitter(n.bounds.PH)
}
