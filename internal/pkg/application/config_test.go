package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/anomaly"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/synthesis"
)

func TestThatEveryVariantIsValid(t *testing.T) {
	for _, name := range []string{VariantKireap, VariantField6, VariantDemo} {
		cfg, err := NewVariant(name)
		if err != nil {
			t.Fatalf("%s: %s", name, err.Error())
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s should be valid: %s", name, err.Error())
		}
	}
}

func TestThatVariantsHaveTheirWindows(t *testing.T) {
	kireap, _ := NewVariant(VariantKireap)
	if kireap.HistoricalHours() != 36 || kireap.RealtimeHours() != 12 {
		t.Errorf("unexpected kireap windows %d/%d", kireap.HistoricalHours(), kireap.RealtimeHours())
	}

	field6, _ := NewVariant(VariantField6)
	if len(field6.Zones) != 1 || field6.Zones[0] != 6 || field6.HistoricalHours() != 168 {
		t.Errorf("unexpected field6 preset %+v", field6.Zones)
	}
	if field6.Noise.EC != 0.05 {
		t.Errorf("field6 should widen the ec noise, got %f", field6.Noise.EC)
	}

	demo, _ := NewVariant(VariantDemo)
	if demo.RealtimeStart.IsZero() {
		t.Error("the demo variant should be anchored")
	}
}

func TestThatUnknownVariantsAreRejected(t *testing.T) {
	if _, err := NewVariant("field7"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestThatZonesWithoutSensorsFailFast(t *testing.T) {
	cfg := newConfigForTest()
	cfg.SensorsPerZone = 0

	if _, err := NewOrchestrator(cfg, logging.NewLogger()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestThatMalformedConfigurationsAreRejected(t *testing.T) {
	cases := map[string]func(*Config){
		"no zones":          func(c *Config) { c.Zones = nil },
		"zero zone":         func(c *Config) { c.Zones = []int{0, 1} },
		"duplicate zone":    func(c *Config) { c.Zones = []int{1, 1} },
		"empty window":      func(c *Config) { c.RealtimeDays = 0 },
		"no hours":          func(c *Config) { c.HoursPerDay = 0 },
		"quiet noise":       func(c *Config) { c.Noise = synthesis.Bounds{Moisture: 1.0, EC: 0.01, Temperature: 0.5, PH: 0.05} },
		"battery over 100":  func(c *Config) { c.RealtimeBattery = synthesis.BatteryRange{Min: 90, Max: 110} },
		"inverted battery":  func(c *Config) { c.HistoricalBattery = synthesis.BatteryRange{Min: 80, Max: 20} },
		"catalog off field": func(c *Config) { c.Zones = []int{1} },
		"spike in band": func(c *Config) {
			c.Catalog, _ = anomaly.NewCatalog(anomaly.Entry{SensorID: "s_03", Profile: anomaly.Spike{
				Hours: []int{5}, Ranges: []anomaly.FieldRange{{Field: anomaly.EC, Lo: 1.2, Hi: 1.2}},
			}})
		},
	}

	for name, mutate := range cases {
		cfg := newConfigForTest()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestThatSpikesInsideTheCleanBandAreRejected(t *testing.T) {
	cfg := newConfigForTest()
	cfg.Catalog, _ = anomaly.NewCatalog(anomaly.Entry{SensorID: "s_03", Profile: anomaly.Spike{
		Hours: []int{5}, Ranges: []anomaly.FieldRange{{Field: anomaly.EC, Lo: 1.2, Hi: 1.2}},
	}})

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, anomaly.ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidConfig wrapping ErrInvalidProfile, got %v", err)
	}
}

func TestThatConfigurationIsLoadedFromTheEnvironment(t *testing.T) {
	t.Setenv("FIXTURES_VARIANT", VariantField6)
	t.Setenv("FIXTURES_SEED", "1234")
	t.Setenv("FIXTURES_REALTIME_START", "2026-02-20T15:00:00Z")
	t.Setenv("FIXTURES_OFFLINE_ON_LOW_BATTERY", "true")
	t.Setenv("FIXTURES_LOCATION", "Field_6")

	cfg, err := LoadConfiguration(logging.NewLogger())
	if err != nil {
		t.Fatal(err.Error())
	}

	if cfg.Variant != VariantField6 || cfg.Seed != 1234 || cfg.Location != "Field_6" {
		t.Errorf("unexpected configuration %s/%d/%s", cfg.Variant, cfg.Seed, cfg.Location)
	}
	if !cfg.RealtimeStart.Equal(time.Date(2026, 2, 20, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected real-time start %s", cfg.RealtimeStart)
	}
	if !cfg.OfflineOnLowBattery || cfg.AnomaliesInHistorical {
		t.Error("unexpected flags")
	}
}

func TestThatMalformedEnvironmentFailsFast(t *testing.T) {
	cases := map[string]string{
		"FIXTURES_SEED":                   "forty-two",
		"FIXTURES_REALTIME_START":         "yesterday",
		"FIXTURES_HISTORICAL_ANOMALIES":   "sometimes",
		"FIXTURES_OFFLINE_ON_LOW_BATTERY": "2",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfiguration(logging.NewLogger()); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestThatCatalogCanBeLoadedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	os.WriteFile(path, []byte(`[
		{"sensor_id": "s_03", "category": "drift", "field": "soil_moisture", "total": 12.5},
		{"sensor_id": "s_14", "category": "static", "values": {"soil_moisture": 30, "ec": 1.2, "soil_temperature": 21, "ph": 6.4}}
	]`), 0644)

	t.Setenv("FIXTURES_CATALOG", path)

	cfg, err := LoadConfiguration(logging.NewLogger())
	if err != nil {
		t.Fatal(err.Error())
	}

	if cfg.Catalog.Len() != 2 {
		t.Fatalf("expected 2 profiles, got %d", cfg.Catalog.Len())
	}
	if p, ok := cfg.Catalog.Lookup("s_03"); !ok || p.Category() != anomaly.CategoryDrift {
		t.Error("s_03 should drift")
	}
}

func TestThatUnknownCategoriesInCatalogFilesFailFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	os.WriteFile(path, []byte(`[{"sensor_id": "s_03", "category": "haunted"}]`), 0644)

	t.Setenv("FIXTURES_CATALOG", path)

	if _, err := LoadConfiguration(logging.NewLogger()); !errors.Is(err, anomaly.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}
