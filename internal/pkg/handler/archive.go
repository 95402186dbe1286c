package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/repositories/database"
	archive "github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/repositories/models"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//ArchiveReader is the read side of the fixture archive served by the API
type ArchiveReader interface {
	GetRuns() ([]archive.Run, error)
	GetRunFromID(runID string) (*archive.Run, error)
	GetSensorSeries(runID string, dataset models.Dataset) ([]archive.SensorSeries, error)
	GetSensorReadings(runID string, dataset models.Dataset, sensorID string) ([]archive.Reading, error)
	GetWeather(runID string) ([]archive.WeatherObservation, error)
	GetManifest(runID string) ([]archive.ManifestEntry, error)
}

type runSummary struct {
	RunID           string `json:"run_id"`
	Variant         string `json:"variant"`
	Seed            int64  `json:"seed"`
	Location        string `json:"location"`
	HistoricalStart string `json:"historical_start"`
	RealtimeStart   string `json:"realtime_start"`
	GeneratedAt     string `json:"generated_at"`
}

type seriesSummary struct {
	SensorID     string `json:"sensor_id"`
	FieldID      string `json:"field_id"`
	Status       string `json:"status"`
	BatteryLevel int    `json:"battery_level"`
}

func (router *RequestRouter) addArchiveHandlers(reader ArchiveReader, log logging.Logger) {
	router.Get("/api/archive/runs", newRunListHandler(reader, log))
	router.Get("/api/archive/runs/{run}/manifest", newArchivedManifestHandler(reader, log))
	router.Get("/api/archive/runs/{run}/weather", newArchivedWeatherHandler(reader, log))
	router.Get("/api/archive/runs/{run}/{dataset}", newArchivedSeriesHandler(reader, log))
	router.Get("/api/archive/runs/{run}/{dataset}/{sensor}", newArchivedReadingsHandler(reader, log))
}

func timestamp(t time.Time) string {
	return t.UTC().Format(models.TimestampLayout)
}

func archiveError(w http.ResponseWriter, err error, log logging.Logger) {
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	log.Errorf("Failed to read fixture archive: %s", err.Error())
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func newRunListHandler(reader ArchiveReader, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := reader.GetRuns()
		if err != nil {
			archiveError(w, err, log)
			return
		}

		summaries := make([]runSummary, 0, len(runs))
		for _, run := range runs {
			summaries = append(summaries, runSummary{
				RunID:           run.RunID,
				Variant:         run.Variant,
				Seed:            run.Seed,
				Location:        run.Location,
				HistoricalStart: timestamp(run.HistoricalStart),
				RealtimeStart:   timestamp(run.RealtimeStart),
				GeneratedAt:     timestamp(run.GeneratedAt),
			})
		}

		writeJSON(w, http.StatusOK, summaries)
	}
}

func newArchivedManifestHandler(reader ArchiveReader, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := reader.GetManifest(chi.URLParam(r, "run"))
		if err != nil {
			archiveError(w, err, log)
			return
		}

		manifest := make([]models.ManifestEntry, 0, len(entries))
		for _, e := range entries {
			manifest = append(manifest, models.ManifestEntry{
				SensorID: e.SensorID,
				FieldID:  e.FieldID,
				Dataset:  models.Dataset(e.Dataset),
				Category: e.Category,
			})
		}

		writeJSON(w, http.StatusOK, manifest)
	}
}

func newArchivedWeatherHandler(reader ArchiveReader, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "run")

		run, err := reader.GetRunFromID(runID)
		if err != nil {
			archiveError(w, err, log)
			return
		}

		observations, err := reader.GetWeather(runID)
		if err != nil {
			archiveError(w, err, log)
			return
		}

		doc := models.WeatherDocument{
			Location: run.Location,
			Forecast: make([]models.WeatherForecast, 0, len(observations)),
		}
		for _, o := range observations {
			doc.Forecast = append(doc.Forecast, models.WeatherForecast{
				Timestamp:   timestamp(o.ObservedAt),
				AmbientTemp: o.AmbientTemp,
				Humidity:    o.Humidity,
				RainfallMM:  o.RainfallMM,
			})
		}

		writeJSON(w, http.StatusOK, doc)
	}
}

func newArchivedSeriesHandler(reader ArchiveReader, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dataset, ok := datasetFromRequest(w, r)
		if !ok {
			return
		}

		series, err := reader.GetSensorSeries(chi.URLParam(r, "run"), dataset)
		if err != nil {
			archiveError(w, err, log)
			return
		}

		summaries := make([]seriesSummary, 0, len(series))
		for _, s := range series {
			summaries = append(summaries, seriesSummary{
				SensorID:     s.SensorID,
				FieldID:      s.FieldID,
				Status:       s.Status,
				BatteryLevel: s.BatteryLevel,
			})
		}

		writeJSON(w, http.StatusOK, summaries)
	}
}

func newArchivedReadingsHandler(reader ArchiveReader, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dataset, ok := datasetFromRequest(w, r)
		if !ok {
			return
		}

		stored, err := reader.GetSensorReadings(chi.URLParam(r, "run"), dataset, chi.URLParam(r, "sensor"))
		if err != nil {
			archiveError(w, err, log)
			return
		}

		readings := make([]models.Reading, 0, len(stored))
		for _, s := range stored {
			readings = append(readings, models.Reading{
				Timestamp: timestamp(s.ObservedAt),
				Values: models.Values{
					SoilMoisture:    s.SoilMoisture,
					EC:              s.EC,
					SoilTemperature: s.SoilTemperature,
					PH:              s.PH,
				},
			})
		}

		writeJSON(w, http.StatusOK, readings)
	}
}
