package synthesis

import "github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"

//LowBatteryLevel is the level at or below which a battery no longer drains and a sensor may
//be reported offline
const LowBatteryLevel = 5

//BatteryRange is the inclusive range the initial battery level is drawn from
type BatteryRange struct {
	Min int
	Max int
}

var (
	//FreshBattery is used for historical windows
	FreshBattery = BatteryRange{Min: 80, Max: 100}
	//UsedBattery is used for real-time windows
	UsedBattery = BatteryRange{Min: 50, Max: 80}
)

//InitialBatteryLevel draws a starting level from r
func InitialBatteryLevel(noise *Noise, r BatteryRange) int {
	return noise.IntBetween(r.Min, r.Max)
}

//DrainBattery walks the window and takes 1 or 2 percent at every day boundary while the level
//is above LowBatteryLevel. It returns the final level and the decrement of each boundary.
func DrainBattery(noise *Noise, initial, hours int) (int, []int) {
	level := initial
	decrements := []int{}

	for h := 1; h < hours; h++ {
		if h%24 != 0 || level <= LowBatteryLevel {
			continue
		}
		d := noise.IntBetween(1, 2)
		level -= d
		decrements = append(decrements, d)
	}

	return level, decrements
}

//StatusFor derives the sensor status from its final battery level. Without offlineOnLowBattery
//every sensor stays active regardless of its battery.
func StatusFor(level int, offlineOnLowBattery bool) models.Status {
	if offlineOnLowBattery && level <= LowBatteryLevel {
		return models.StatusOffline
	}
	return models.StatusActive
}
