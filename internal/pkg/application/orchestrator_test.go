package application

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/anomaly"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/synthesis"
)

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func TestThatStaticSensorIsFrozenForTheWholeRealtimeWindow(t *testing.T) {
	o := newOrchestratorForTest(t, newConfigForTest())

	bundle, err := o.Generate(context.Background())
	if err != nil {
		t.Fatal(err.Error())
	}

	doc, ok := bundle.Field(models.Realtime, "zone_2")
	if !ok {
		t.Fatal("zone_2 is missing from the real-time documents")
	}

	sensor := findSensor(t, doc, "s_12")
	if len(sensor.Readings) != 24 {
		t.Fatalf("expected 24 readings, got %d", len(sensor.Readings))
	}

	expected := models.Values{SoilMoisture: 26.0, EC: 1.1, SoilTemperature: 21.0, PH: 6.3}
	for _, r := range sensor.Readings {
		if r.Values != expected {
			t.Errorf("reading at %s is %+v, expected %+v", r.Timestamp, r.Values, expected)
		}
	}

	if !inManifest(bundle, "s_12", models.Realtime) {
		t.Error("s_12 should be listed in the anomaly manifest")
	}
}

func TestThatEveryZoneGetsBothDatasetClasses(t *testing.T) {
	o := newOrchestratorForTest(t, newConfigForTest())
	bundle, _ := o.Generate(context.Background())

	if len(bundle.Historical) != 5 || len(bundle.Realtime) != 5 {
		t.Fatalf("expected 5 documents per dataset class, got %d and %d", len(bundle.Historical), len(bundle.Realtime))
	}

	for i, doc := range bundle.Realtime {
		if doc.FieldID != models.FieldID(i+1) || len(doc.Sensors) != 10 {
			t.Errorf("unexpected document %s with %d sensors", doc.FieldID, len(doc.Sensors))
		}
	}

	for _, doc := range bundle.Historical {
		for _, s := range doc.Sensors {
			if len(s.Readings) != 3*24 {
				t.Fatalf("expected %d historical readings for %s, got %d", 3*24, s.SensorID, len(s.Readings))
			}
		}
	}
}

func TestThatSensorIDsAreGloballyUniqueAndFollowTheFormula(t *testing.T) {
	o := newOrchestratorForTest(t, newConfigForTest())
	bundle, _ := o.Generate(context.Background())

	seen := map[string]bool{}
	for _, doc := range bundle.Realtime {
		for i, s := range doc.Sensors {
			expected := models.SensorID(doc.Zone, 10, i+1)
			if s.SensorID != expected {
				t.Errorf("expected %s, got %s", expected, s.SensorID)
			}
			if seen[s.SensorID] {
				t.Errorf("%s is not unique", s.SensorID)
			}
			seen[s.SensorID] = true
		}
	}

	if len(seen) != 50 {
		t.Errorf("expected 50 sensors, got %d", len(seen))
	}
	if !seen["s_01"] || !seen["s_50"] {
		t.Error("expected ids from s_01 to s_50")
	}
}

func TestThatWindowsAreConsecutive(t *testing.T) {
	cfg := newConfigForTest()
	o := newOrchestratorForTest(t, cfg)
	bundle, _ := o.Generate(context.Background())

	if !bundle.RealtimeStart.Equal(cfg.RealtimeStart) {
		t.Errorf("unexpected real-time start %s", bundle.RealtimeStart)
	}
	if !bundle.HistoricalStart.Equal(cfg.RealtimeStart.AddDate(0, 0, -3)) {
		t.Errorf("unexpected historical start %s", bundle.HistoricalStart)
	}

	first := bundle.Realtime[0].Sensors[0].Readings[0].Timestamp
	if first != "2026-02-20T15:00:00Z" {
		t.Errorf("unexpected first real-time timestamp %s", first)
	}
}

func TestThatHistoricalDataIsCleanByDefault(t *testing.T) {
	o := newOrchestratorForTest(t, newConfigForTest())
	bundle, _ := o.Generate(context.Background())

	for _, entry := range bundle.Manifest {
		if entry.Dataset != models.Realtime {
			t.Errorf("%s was injected into the %s dataset", entry.SensorID, entry.Dataset)
		}
	}

	doc, _ := bundle.Field(models.Historical, "zone_2")
	sensor := findSensor(t, doc, "s_12")
	if sensor.Readings[0].Values == sensor.Readings[1].Values {
		t.Error("historical readings of s_12 should not be frozen")
	}
}

func TestThatAnomaliesCanBeInjectedIntoHistoricalData(t *testing.T) {
	cfg := newConfigForTest()
	cfg.AnomaliesInHistorical = true
	o := newOrchestratorForTest(t, cfg)
	bundle, _ := o.Generate(context.Background())

	if !inManifest(bundle, "s_12", models.Historical) {
		t.Error("s_12 should be listed for the historical dataset")
	}

	doc, _ := bundle.Field(models.Historical, "zone_2")
	sensor := findSensor(t, doc, "s_12")
	if sensor.Readings[0].Values != sensor.Readings[len(sensor.Readings)-1].Values {
		t.Error("historical readings of s_12 should be frozen")
	}
}

func TestThatAdjacentZonesDifferByTwoPercentMoistureWithoutNoise(t *testing.T) {
	cfg := newConfigForTest()
	cfg.Noise = synthesis.Bounds{}
	cfg.StaticThresholds = synthesis.StaticThresholds{}
	cfg.Catalog = nil
	o := newOrchestratorForTest(t, cfg)
	bundle, _ := o.Generate(context.Background())

	zone1 := bundle.Realtime[0].Sensors[0].Readings[0].SoilMoisture
	zone2 := bundle.Realtime[1].Sensors[0].Readings[0].SoilMoisture

	if diff := zone2 - zone1; diff < 1.999 || diff > 2.001 {
		t.Errorf("expected zone 2 to be 2.0 wetter than zone 1, got %f", diff)
	}
}

func TestThatTheSameSeedReproducesTheBundle(t *testing.T) {
	o := newOrchestratorForTest(t, newConfigForTest())

	first, _ := o.GenerateWithSeed(context.Background(), 99)
	second, _ := o.GenerateWithSeed(context.Background(), 99)

	if first.RunID == second.RunID {
		t.Error("every run should get its own id")
	}

	for z := range first.Realtime {
		for s := range first.Realtime[z].Sensors {
			a := first.Realtime[z].Sensors[s]
			b := second.Realtime[z].Sensors[s]
			if a.BatteryLevel != b.BatteryLevel || len(a.Readings) != len(b.Readings) {
				t.Fatalf("%s differs between runs", a.SensorID)
			}
			for i := range a.Readings {
				if a.Readings[i] != b.Readings[i] {
					t.Fatalf("reading %d of %s differs between runs", i, a.SensorID)
				}
			}
		}
	}

	third, _ := o.GenerateWithSeed(context.Background(), 100)
	if third.Realtime[0].Sensors[0].Readings[0] == first.Realtime[0].Sensors[0].Readings[0] {
		t.Error("a different seed should produce different readings")
	}
}

func TestThatWeatherCoversTheRealtimeWindowWithoutRain(t *testing.T) {
	o := newOrchestratorForTest(t, newConfigForTest())
	bundle, _ := o.Generate(context.Background())

	if bundle.Weather.Location != "KIREAP_Deployment_Area" {
		t.Errorf("unexpected location %s", bundle.Weather.Location)
	}
	if len(bundle.Weather.Forecast) != 24 {
		t.Fatalf("expected 24 weather samples, got %d", len(bundle.Weather.Forecast))
	}
	for _, f := range bundle.Weather.Forecast {
		if f.RainfallMM != 0 {
			t.Errorf("rainfall at %s is %f", f.Timestamp, f.RainfallMM)
		}
	}
}

func TestThatSensorsStayActiveUnlessOfflineOnLowBatteryIsSet(t *testing.T) {
	cfg := newConfigForTest()
	cfg.RealtimeBattery = synthesis.BatteryRange{Min: 5, Max: 5}

	bundle, _ := newOrchestratorForTest(t, cfg).Generate(context.Background())
	for _, s := range bundle.Realtime[0].Sensors {
		if s.Status != models.StatusActive || s.BatteryLevel != 5 {
			t.Errorf("%s is %s with battery %d", s.SensorID, s.Status, s.BatteryLevel)
		}
	}

	cfg.OfflineOnLowBattery = true
	bundle, _ = newOrchestratorForTest(t, cfg).Generate(context.Background())
	for _, s := range bundle.Realtime[0].Sensors {
		if s.Status != models.StatusOffline {
			t.Errorf("%s should be offline with battery %d", s.SensorID, s.BatteryLevel)
		}
	}
	for _, s := range bundle.Historical[0].Sensors {
		if s.Status != models.StatusActive {
			t.Errorf("historical %s should have a fresh battery, got %d", s.SensorID, s.BatteryLevel)
		}
	}
}

func TestThatRecorderIsNotified(t *testing.T) {
	rec := &recorderMock{anomalies: map[string]int{}}
	o := newOrchestratorForTest(t, newConfigForTest(), WithRecorder(rec))

	bundle, _ := o.Generate(context.Background())

	if rec.sensors != 100 {
		t.Errorf("expected 100 generated series, got %d", rec.sensors)
	}
	if rec.runs != 1 {
		t.Errorf("expected one completed run, got %d", rec.runs)
	}
	if rec.anomalies["static"] != 1 || len(bundle.Manifest) != anomaly.KireapCatalog().Len() {
		t.Errorf("unexpected anomaly counts %v", rec.anomalies)
	}
}

func TestThatGenerationStopsWhenContextIsCancelled(t *testing.T) {
	o := newOrchestratorForTest(t, newConfigForTest())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Generate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestThatZeroSeedIsDerivedFromTheClock(t *testing.T) {
	clock := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	cfg := newConfigForTest()
	cfg.Seed = 0

	o := newOrchestratorForTest(t, cfg, WithClock(func() time.Time { return clock }))
	bundle, _ := o.Generate(context.Background())

	if bundle.Seed != clock.UnixNano() {
		t.Errorf("expected seed %d, got %d", clock.UnixNano(), bundle.Seed)
	}
}

func TestThatDefaultWindowEndsAtTheCurrentHour(t *testing.T) {
	clock := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	cfg := newConfigForTest()
	cfg.RealtimeStart = time.Time{}

	o := newOrchestratorForTest(t, cfg, WithClock(func() time.Time { return clock }))
	bundle, _ := o.Generate(context.Background())

	expected := time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC)
	if !bundle.RealtimeStart.Equal(expected) {
		t.Errorf("expected real-time start %s, got %s", expected, bundle.RealtimeStart)
	}
}

func newConfigForTest() Config {
	cfg, _ := NewVariant(VariantKireap)
	cfg.HistoricalDays = 3
	cfg.RealtimeDays = 1
	cfg.HoursPerDay = 24
	cfg.RealtimeStart = time.Date(2026, 2, 20, 15, 0, 0, 0, time.UTC)
	cfg.Seed = 42
	return cfg
}

func newOrchestratorForTest(t *testing.T, cfg Config, options ...Option) *Orchestrator {
	o, err := NewOrchestrator(cfg, logging.NewLogger(), options...)
	if err != nil {
		t.Fatal(err.Error())
	}
	return o
}

func findSensor(t *testing.T, doc *models.FieldDocument, sensorID string) models.Sensor {
	for _, s := range doc.Sensors {
		if s.SensorID == sensorID {
			return s
		}
	}
	t.Fatalf("%s not found in %s", sensorID, doc.FieldID)
	return models.Sensor{}
}

func inManifest(bundle *models.Bundle, sensorID string, dataset models.Dataset) bool {
	for _, e := range bundle.Manifest {
		if e.SensorID == sensorID && e.Dataset == dataset {
			return true
		}
	}
	return false
}

type recorderMock struct {
	sensors   int
	anomalies map[string]int
	runs      int
}

func (r *recorderMock) SensorGenerated(dataset models.Dataset, status models.Status, readings int) {
	r.sensors++
}

func (r *recorderMock) AnomalyInjected(category string) {
	r.anomalies[category]++
}

func (r *recorderMock) RunCompleted(d time.Duration) {
	r.runs++
}
