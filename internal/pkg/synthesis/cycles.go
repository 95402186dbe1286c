package synthesis

import "math"

//DiurnalTempShift is a 24 hour sawtooth approximating the day/night temperature swing (±4.8)
func DiurnalTempShift(hour int) float64 {
	return float64(hour%24-12) * 0.4
}

//MacroMoistureVariance is a six day sinusoid of amplitude 3.5 representing irrigation and drying
func MacroMoistureVariance(hour int) float64 {
	return 3.5 * math.Sin(math.Pi*float64(hour)/72)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
