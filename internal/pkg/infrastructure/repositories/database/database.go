package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/repositories/models"
	domain "github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const readingBatchSize = 500

//ErrNotFound is returned when a run or a sensor series is not in the archive
var ErrNotFound = errors.New("not found in fixture archive")

//Datastore is an interface that is used to inject the fixture archive into the service to improve testability
type Datastore interface {
	StoreBundle(bundle *domain.Bundle) (*models.Run, error)
	GetRuns() ([]models.Run, error)
	GetRunFromID(runID string) (*models.Run, error)
	GetSensorSeries(runID string, dataset domain.Dataset) ([]models.SensorSeries, error)
	GetSensorReadings(runID string, dataset domain.Dataset, sensorID string) ([]models.Reading, error)
	GetWeather(runID string) ([]models.WeatherObservation, error)
	GetManifest(runID string) ([]models.ManifestEntry, error)
}

type myDB struct {
	impl *gorm.DB
	log  logging.Logger
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

//ConnectorFunc is used to inject a database connection method into NewDatabaseConnection
type ConnectorFunc func() (*gorm.DB, error)

//NewPostgreSQLConnector opens a connection to a postgresql database, retrying a few times while
//the database starts up
func NewPostgreSQLConnector(log logging.Logger) ConnectorFunc {
	dbHost := os.Getenv("FIXTURES_DB_HOST")
	username := os.Getenv("FIXTURES_DB_USER")
	dbName := os.Getenv("FIXTURES_DB_NAME")
	password := os.Getenv("FIXTURES_DB_PASSWORD")
	sslMode := getEnv("FIXTURES_DB_SSLMODE", "require")

	attempts, err := strconv.Atoi(getEnv("FIXTURES_DB_CONNECT_ATTEMPTS", "10"))
	if err != nil || attempts < 1 {
		attempts = 10
	}

	dbURI := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=%s password=%s", dbHost, username, dbName, sslMode, password)

	return func() (*gorm.DB, error) {
		var lastErr error

		for i := 0; i < attempts; i++ {
			log.Infof("Connecting to database host %s ...\n", dbHost)
			db, err := gorm.Open(postgres.Open(dbURI), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Warn),
			})
			if err == nil {
				return db, nil
			}

			lastErr = err
			log.Errorf("Failed to connect to database %s\n", err)
			time.Sleep(3 * time.Second)
		}

		return nil, fmt.Errorf("giving up on database host %s after %d attempts: %w", dbHost, attempts, lastErr)
	}
}

//NewSQLiteConnector opens a connection to a sqlite database file, or to a shared in memory
//database when path is empty
func NewSQLiteConnector(path string) ConnectorFunc {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dsn = path
	}

	return func() (*gorm.DB, error) {
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err == nil {
			db.Exec("PRAGMA foreign_keys = ON")
		}

		return db, err
	}
}

//NewDatabaseConnection initializes a new connection to the database and wraps it in a Datastore
func NewDatabaseConnection(connect ConnectorFunc, log logging.Logger) (Datastore, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	db := &myDB{
		impl: impl,
		log:  log,
	}

	err = db.impl.AutoMigrate(
		&models.Run{},
		&models.SensorSeries{},
		&models.Reading{},
		&models.WeatherObservation{},
		&models.ManifestEntry{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate fixture archive: %w", err)
	}

	return db, nil
}

//StoreBundle archives every document of a bundle within a single transaction
func (db *myDB) StoreBundle(bundle *domain.Bundle) (*models.Run, error) {
	if bundle == nil {
		return nil, errors.New("StoreBundle requires a non-nil bundle")
	}

	run := &models.Run{
		RunID:           bundle.RunID,
		Variant:         bundle.Variant,
		Seed:            bundle.Seed,
		Location:        bundle.Weather.Location,
		HistoricalStart: bundle.HistoricalStart,
		RealtimeStart:   bundle.RealtimeStart,
		GeneratedAt:     bundle.GeneratedAt,
	}

	err := db.impl.Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(run); result.Error != nil {
			return result.Error
		}

		for _, docs := range [][]domain.FieldDocument{bundle.Historical, bundle.Realtime} {
			for _, doc := range docs {
				if err := storeFieldDocument(tx, run.ID, doc); err != nil {
					return err
				}
			}
		}

		if err := storeWeather(tx, run.ID, bundle.Weather); err != nil {
			return err
		}

		return storeManifest(tx, run.ID, bundle.Manifest)
	})

	if err != nil {
		return nil, fmt.Errorf("failed to archive run %s: %w", bundle.RunID, err)
	}

	db.log.Infof("Archived run %s as %d", run.RunID, run.ID)

	return run, nil
}

func storeFieldDocument(tx *gorm.DB, runID uint, doc domain.FieldDocument) error {
	for _, sensor := range doc.Sensors {
		series := &models.SensorSeries{
			RunID:        runID,
			Dataset:      string(doc.Dataset),
			FieldID:      doc.FieldID,
			SensorID:     sensor.SensorID,
			Status:       string(sensor.Status),
			BatteryLevel: sensor.BatteryLevel,
		}

		if result := tx.Create(series); result.Error != nil {
			return result.Error
		}

		if len(sensor.Readings) == 0 {
			continue
		}

		readings := make([]models.Reading, 0, len(sensor.Readings))
		for _, r := range sensor.Readings {
			observedAt, err := r.Time()
			if err != nil {
				return fmt.Errorf("bad timestamp in series of %s: %w", sensor.SensorID, err)
			}

			readings = append(readings, models.Reading{
				SensorSeriesID:  series.ID,
				ObservedAt:      observedAt,
				SoilMoisture:    r.SoilMoisture,
				EC:              r.EC,
				SoilTemperature: r.SoilTemperature,
				PH:              r.PH,
			})
		}

		if result := tx.CreateInBatches(readings, readingBatchSize); result.Error != nil {
			return result.Error
		}
	}

	return nil
}

func storeWeather(tx *gorm.DB, runID uint, weather domain.WeatherDocument) error {
	if len(weather.Forecast) == 0 {
		return nil
	}

	observations := make([]models.WeatherObservation, 0, len(weather.Forecast))
	for _, f := range weather.Forecast {
		observedAt, err := time.Parse(domain.TimestampLayout, f.Timestamp)
		if err != nil {
			return fmt.Errorf("bad timestamp in weather series: %w", err)
		}

		observations = append(observations, models.WeatherObservation{
			RunID:       runID,
			ObservedAt:  observedAt,
			AmbientTemp: f.AmbientTemp,
			Humidity:    f.Humidity,
			RainfallMM:  f.RainfallMM,
		})
	}

	return tx.CreateInBatches(observations, readingBatchSize).Error
}

func storeManifest(tx *gorm.DB, runID uint, manifest []domain.ManifestEntry) error {
	if len(manifest) == 0 {
		return nil
	}

	entries := make([]models.ManifestEntry, 0, len(manifest))
	for _, m := range manifest {
		entries = append(entries, models.ManifestEntry{
			RunID:    runID,
			Dataset:  string(m.Dataset),
			SensorID: m.SensorID,
			FieldID:  m.FieldID,
			Category: m.Category,
		})
	}

	return tx.Create(&entries).Error
}

func (db *myDB) GetRuns() ([]models.Run, error) {
	runs := []models.Run{}
	result := db.impl.Order("id desc").Find(&runs)
	return runs, result.Error
}

func (db *myDB) GetRunFromID(runID string) (*models.Run, error) {
	run := &models.Run{}
	result := db.impl.Where("run_id = ?", runID).First(run)
	if result.RowsAffected == 1 {
		return run, nil
	}

	return nil, fmt.Errorf("No fixture run found matching %s: %w", runID, ErrNotFound)
}

func (db *myDB) GetSensorSeries(runID string, dataset domain.Dataset) ([]models.SensorSeries, error) {
	run, err := db.GetRunFromID(runID)
	if err != nil {
		return nil, err
	}

	series := []models.SensorSeries{}
	result := db.impl.Where("run_id = ? AND dataset = ?", run.ID, string(dataset)).Order("id").Find(&series)
	return series, result.Error
}

func (db *myDB) GetSensorReadings(runID string, dataset domain.Dataset, sensorID string) ([]models.Reading, error) {
	run, err := db.GetRunFromID(runID)
	if err != nil {
		return nil, err
	}

	series := &models.SensorSeries{}
	result := db.impl.Where("run_id = ? AND dataset = ? AND sensor_id = ?", run.ID, string(dataset), sensorID).First(series)
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("No %s series found for sensor %s in run %s: %w", dataset, sensorID, runID, ErrNotFound)
	}

	readings := []models.Reading{}
	result = db.impl.Where("sensor_series_id = ?", series.ID).Order("observed_at").Find(&readings)
	return readings, result.Error
}

func (db *myDB) GetWeather(runID string) ([]models.WeatherObservation, error) {
	run, err := db.GetRunFromID(runID)
	if err != nil {
		return nil, err
	}

	observations := []models.WeatherObservation{}
	result := db.impl.Where("run_id = ?", run.ID).Order("observed_at").Find(&observations)
	return observations, result.Error
}

func (db *myDB) GetManifest(runID string) ([]models.ManifestEntry, error) {
	run, err := db.GetRunFromID(runID)
	if err != nil {
		return nil, err
	}

	entries := []models.ManifestEntry{}
	result := db.impl.Where("run_id = ?", run.ID).Order("id").Find(&entries)
	return entries, result.Error
}

//Archive adapts a Datastore so that every generated bundle is archived
type Archive struct {
	db Datastore
}

//NewArchive wraps db
func NewArchive(db Datastore) *Archive {
	return &Archive{db: db}
}

//Accept stores the bundle
func (a *Archive) Accept(ctx context.Context, bundle *domain.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.db.StoreBundle(bundle)
	return err
}
