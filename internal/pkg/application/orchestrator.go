package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/anomaly"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/synthesis"
)

//Recorder is notified about what a run produces. It allows injecting metrics without
//coupling the orchestrator to a metrics backend.
type Recorder interface {
	SensorGenerated(dataset models.Dataset, status models.Status, readings int)
	AnomalyInjected(category string)
	RunCompleted(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) SensorGenerated(models.Dataset, models.Status, int) {}
func (nopRecorder) AnomalyInjected(string)                             {}
func (nopRecorder) RunCompleted(time.Duration)                         {}

//Orchestrator assembles the historical and real-time field documents, the weather reference
//and the anomaly manifest of a run
type Orchestrator struct {
	cfg      Config
	log      logging.Logger
	recorder Recorder
	now      func() time.Time
}

//Option customises an Orchestrator
type Option func(*Orchestrator)

//WithRecorder reports generation events to r
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

//WithClock replaces the clock used for default windows and seeds
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

//NewOrchestrator validates cfg and returns an orchestrator for it. Malformed configurations,
//such as zones without sensors, fail here before anything is generated.
func NewOrchestrator(cfg Config, log logging.Logger, options ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{cfg: cfg, log: log, recorder: nopRecorder{}, now: time.Now}
	for _, option := range options {
		option(o)
	}

	return o, nil
}

//Config returns the validated configuration
func (o *Orchestrator) Config() Config {
	return o.cfg
}

const (
	historicalSalt int64 = 0x1f3d5b79
	realtimeSalt   int64 = 0x2c4e6a8b
	weatherSalt    int64 = 0x3b5d7f91
)

//streamSeed derives an independent random stream per dataset class and sensor so that a
//sensor's series does not depend on the order in which sensors are generated
func streamSeed(seed, salt int64, index int) int64 {
	return seed*1000003 + salt + int64(index)*7919
}

//Generate runs the configured seed, or a clock derived one when none is configured
func (o *Orchestrator) Generate(ctx context.Context) (*models.Bundle, error) {
	return o.GenerateWithSeed(ctx, o.cfg.Seed)
}

//GenerateWithSeed runs a full generation with an explicit seed. Zero picks a seed from the clock.
func (o *Orchestrator) GenerateWithSeed(ctx context.Context, seed int64) (*models.Bundle, error) {
	started := o.now()
	if seed == 0 {
		seed = started.UnixNano()
	}

	historicalStart, realtimeStart := o.cfg.Windows(started)

	bundle := &models.Bundle{
		RunID:           uuid.New().String(),
		Variant:         o.cfg.Variant,
		Seed:            seed,
		HistoricalStart: historicalStart,
		RealtimeStart:   realtimeStart,
		GeneratedAt:     started.UTC(),
		Historical:      []models.FieldDocument{},
		Realtime:        []models.FieldDocument{},
		Manifest:        []models.ManifestEntry{},
	}

	o.log.Infof("Generating %s fixtures (run %s, seed %d) for %d zones", o.cfg.Variant, bundle.RunID, seed, len(o.cfg.Zones))

	for _, zone := range o.cfg.Zones {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		baseline := synthesis.BaselineForZone(zone)

		historical := o.generateField(bundle, baseline, models.Historical, historicalStart, o.cfg.HistoricalHours(), seed, historicalSalt)
		bundle.Historical = append(bundle.Historical, historical)

		realtime := o.generateField(bundle, baseline, models.Realtime, realtimeStart, o.cfg.RealtimeHours(), seed, realtimeSalt)
		bundle.Realtime = append(bundle.Realtime, realtime)
	}

	weatherNoise := synthesis.NewSeededNoise(streamSeed(seed, weatherSalt, 0), o.cfg.Noise)
	bundle.Weather = synthesis.GenerateWeather(weatherNoise, o.cfg.Location, realtimeStart, o.cfg.RealtimeHours())

	o.recorder.RunCompleted(o.now().Sub(started))
	o.log.Infof("Run %s produced %d anomalous sensors", bundle.RunID, len(bundle.Manifest))

	return bundle, nil
}

func (o *Orchestrator) generateField(bundle *models.Bundle, baseline synthesis.Baseline, dataset models.Dataset, start time.Time, hours int, seed, salt int64) models.FieldDocument {
	zone := baseline.Zone
	perZone := o.cfg.SensorsPerZone

	doc := models.FieldDocument{
		FieldID: models.FieldID(zone),
		Zone:    zone,
		Dataset: dataset,
		Sensors: make([]models.Sensor, 0, perZone),
	}

	batteryRange := o.cfg.HistoricalBattery
	injectAnomalies := o.cfg.AnomaliesInHistorical
	if dataset == models.Realtime {
		batteryRange = o.cfg.RealtimeBattery
		injectAnomalies = true
	}

	for offset := 1; offset <= perZone; offset++ {
		index := (zone-1)*perZone + offset
		sensorID := models.SensorID(zone, perZone, offset)
		noise := synthesis.NewSeededNoise(streamSeed(seed, salt, index), o.cfg.Noise)

		var profile anomaly.Profile
		if injectAnomalies {
			if p, ok := o.cfg.Catalog.Lookup(sensorID); ok {
				profile = p
			}
		}

		initial := synthesis.InitialBatteryLevel(noise, batteryRange)
		readings := synthesis.GenerateSeries(noise, baseline, start, hours, profile)
		level, _ := synthesis.DrainBattery(noise, initial, hours)
		status := synthesis.StatusFor(level, o.cfg.OfflineOnLowBattery)

		doc.Sensors = append(doc.Sensors, models.Sensor{
			SensorID:     sensorID,
			Status:       status,
			BatteryLevel: level,
			Readings:     readings,
		})
		o.recorder.SensorGenerated(dataset, status, len(readings))

		if profile != nil {
			category := string(profile.Category())
			bundle.Manifest = append(bundle.Manifest, models.ManifestEntry{
				SensorID: sensorID,
				FieldID:  doc.FieldID,
				Dataset:  dataset,
				Category: category,
			})
			o.recorder.AnomalyInjected(category)
			o.log.Debugf("Injected %s anomaly into %s %s", category, dataset, sensorID)
		}
	}

	return doc
}
