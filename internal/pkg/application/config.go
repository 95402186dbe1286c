package application

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/anomaly"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/synthesis"
)

var (
	//ErrInvalidConfig wraps every configuration problem detected before generation starts
	ErrInvalidConfig = errors.New("invalid fixture configuration")
	//ErrUnknownVariant is returned for variant names without a preset
	ErrUnknownVariant = errors.New("unknown fixture variant")
)

const (
	VariantKireap = "kireap"
	VariantField6 = "field6"
	VariantDemo   = "demo"

	defaultLocation = "KIREAP_Deployment_Area"
)

//Config describes one generation run. Deployment variants are presets of this struct rather
//than separate code paths.
type Config struct {
	Variant string

	Zones          []int
	SensorsPerZone int

	HistoricalDays int
	RealtimeDays   int
	HoursPerDay    int

	//RealtimeStart anchors the real-time window; zero means RealtimeDays before the current hour
	RealtimeStart time.Time
	//Seed drives every random stream of a run; zero picks one from the clock
	Seed int64

	Noise            synthesis.Bounds
	StaticThresholds synthesis.StaticThresholds

	HistoricalBattery synthesis.BatteryRange
	RealtimeBattery   synthesis.BatteryRange

	Catalog  *anomaly.Catalog
	Location string

	//OfflineOnLowBattery reports sensors with a depleted battery as offline
	OfflineOnLowBattery bool
	//AnomaliesInHistorical also applies the catalog to historical windows
	AnomaliesInHistorical bool
}

//ZoneRange lists the zones first..last
func ZoneRange(first, last int) []int {
	zones := []int{}
	for z := first; z <= last; z++ {
		zones = append(zones, z)
	}
	return zones
}

//NewVariant returns the preset configuration for a named variant
func NewVariant(name string) (Config, error) {
	cfg := Config{
		Variant:           name,
		Zones:             ZoneRange(1, 5),
		SensorsPerZone:    10,
		RealtimeDays:      1,
		Noise:             synthesis.DefaultBounds,
		StaticThresholds:  synthesis.DefaultStaticThresholds,
		HistoricalBattery: synthesis.FreshBattery,
		RealtimeBattery:   synthesis.UsedBattery,
		Location:          defaultLocation,
	}

	switch name {
	case VariantKireap:
		cfg.HistoricalDays = 3
		cfg.HoursPerDay = 12
		cfg.Catalog = anomaly.KireapCatalog()
	case VariantField6:
		cfg.Zones = []int{6}
		cfg.HistoricalDays = 7
		cfg.HoursPerDay = 24
		cfg.Noise.EC = 0.05
		cfg.Catalog = anomaly.Field6Catalog()
	case VariantDemo:
		cfg.HistoricalDays = 1
		cfg.HoursPerDay = 24
		cfg.Noise.EC = 0.05
		cfg.RealtimeStart = time.Date(2026, 2, 20, 15, 0, 0, 0, time.UTC)
		cfg.Catalog = anomaly.DemoCatalog()
	default:
		return Config{}, fmt.Errorf("%q: %w", name, ErrUnknownVariant)
	}

	return cfg, nil
}

//HistoricalHours is the length of the historical window
func (c Config) HistoricalHours() int {
	return c.HistoricalDays * c.HoursPerDay
}

//RealtimeHours is the length of the real-time window
func (c Config) RealtimeHours() int {
	return c.RealtimeDays * c.HoursPerDay
}

//Windows returns the start of the historical and of the real-time window, relative to now
//when no explicit anchor is configured
func (c Config) Windows(now time.Time) (historical, realtime time.Time) {
	realtime = c.RealtimeStart
	if realtime.IsZero() {
		realtime = now.UTC().Truncate(time.Hour).Add(-time.Duration(c.RealtimeDays) * 24 * time.Hour)
	}
	realtime = realtime.UTC().Truncate(time.Hour)
	historical = realtime.Add(-time.Duration(c.HistoricalDays) * 24 * time.Hour)
	return historical, realtime
}

//Validate fails fast on any configuration that cannot produce a well formed dataset
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if len(c.Zones) == 0 {
		return invalid("at least one zone is required")
	}
	if c.SensorsPerZone <= 0 {
		return invalid("sensors per zone must be positive, got %d", c.SensorsPerZone)
	}
	if c.HoursPerDay <= 0 || c.HistoricalDays <= 0 || c.RealtimeDays <= 0 {
		return invalid("windows must not be empty (historical %d days, real-time %d days, %d hours per day)",
			c.HistoricalDays, c.RealtimeDays, c.HoursPerDay)
	}

	seen := map[int]bool{}
	for _, z := range c.Zones {
		if z < 1 {
			return invalid("zone indices start at 1, got %d", z)
		}
		if seen[z] {
			return invalid("zone %d listed twice", z)
		}
		seen[z] = true
	}

	if err := c.Noise.Validate(c.StaticThresholds); err != nil {
		return invalid("%s", err.Error())
	}

	for _, r := range []synthesis.BatteryRange{c.HistoricalBattery, c.RealtimeBattery} {
		if r.Min < 0 || r.Max > 100 || r.Min > r.Max {
			return invalid("battery range %d..%d is not within 0..100", r.Min, r.Max)
		}
	}

	zoneOf := map[string]int{}
	for _, z := range c.Zones {
		for offset := 1; offset <= c.SensorsPerZone; offset++ {
			zoneOf[models.SensorID(z, c.SensorsPerZone, offset)] = z
		}
	}
	for _, id := range c.Catalog.SensorIDs() {
		zone, ok := zoneOf[id]
		if !ok {
			return invalid("anomaly catalog binds %s which is not part of the topology", id)
		}

		profile, _ := c.Catalog.Lookup(id)
		band := synthesis.CleanBand(synthesis.BaselineForZone(zone), c.Noise)
		if err := anomaly.CheckOutOfBand(profile, band); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, id, err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

//LoadConfiguration builds the run configuration from the FIXTURES_* environment variables
func LoadConfiguration(log logging.Logger) (Config, error) {
	variant := getEnv("FIXTURES_VARIANT", VariantKireap)

	cfg, err := NewVariant(variant)
	if err != nil {
		return Config{}, err
	}

	if seed := os.Getenv("FIXTURES_SEED"); seed != "" {
		cfg.Seed, err = strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: FIXTURES_SEED %q is not an integer", ErrInvalidConfig, seed)
		}
	}

	if start := os.Getenv("FIXTURES_REALTIME_START"); start != "" {
		cfg.RealtimeStart, err = time.Parse(time.RFC3339, start)
		if err != nil {
			return Config{}, fmt.Errorf("%w: FIXTURES_REALTIME_START %q is not RFC 3339", ErrInvalidConfig, start)
		}
	}

	if path := os.Getenv("FIXTURES_CATALOG"); path != "" {
		cfg.Catalog, err = loadCatalog(path)
		if err != nil {
			return Config{}, err
		}
		log.Infof("Loaded anomaly catalog with %d profiles from %s", cfg.Catalog.Len(), path)
	}

	cfg.OfflineOnLowBattery, err = getBool("FIXTURES_OFFLINE_ON_LOW_BATTERY", cfg.OfflineOnLowBattery)
	if err != nil {
		return Config{}, err
	}

	cfg.AnomaliesInHistorical, err = getBool("FIXTURES_HISTORICAL_ANOMALIES", cfg.AnomaliesInHistorical)
	if err != nil {
		return Config{}, err
	}

	cfg.Location = getEnv("FIXTURES_LOCATION", cfg.Location)

	return cfg, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s %q is not a boolean", ErrInvalidConfig, key, value)
	}
	return b, nil
}

func loadCatalog(path string) (*anomaly.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open anomaly catalog: %w", err)
	}
	defer f.Close()

	specs, err := anomaly.ReadSpecs(f)
	if err != nil {
		return nil, err
	}

	return anomaly.BuildCatalog(specs)
}
