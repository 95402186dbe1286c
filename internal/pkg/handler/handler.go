package handler

import (
	"compress/flate"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//FixtureSource is the part of the fixture service the API depends on
type FixtureSource interface {
	Current() *models.Bundle
	Regenerate(ctx context.Context, seed int64) (*models.Bundle, error)
}

type RequestRouter struct {
	impl *chi.Mux
}

//Get accepts a pattern that should be routed to the handlerFn on a GET request
func (router *RequestRouter) Get(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Get(pattern, handlerFn)
}

//Post accepts a pattern that should be routed to the handlerFn on a POST request
func (router *RequestRouter) Post(pattern string, handlerFn http.HandlerFunc) {
	router.impl.Post(pattern, handlerFn)
}

//ServeHTTP makes the router usable as an http.Handler
func (router *RequestRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.impl.ServeHTTP(w, r)
}

func newRequestRouter() *RequestRouter {
	router := &RequestRouter{impl: chi.NewRouter()}

	router.impl.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	}).Handler)

	// Fixture documents are large and compress well
	compressor := middleware.NewCompressor(flate.DefaultCompression, "application/json")
	router.impl.Use(compressor.Handler)
	router.impl.Use(middleware.Logger)

	return router
}

func (router *RequestRouter) addFixtureHandlers(source FixtureSource, log logging.Logger) {
	router.Get("/api/fixtures/manifest", newManifestHandler(source))
	router.Get("/api/fixtures/weather", newWeatherHandler(source))
	router.Get("/api/fixtures/{dataset}", newFieldListHandler(source))
	router.Get("/api/fixtures/{dataset}/{field}", newFieldHandler(source))
	router.Post("/api/fixtures", newRegenerateHandler(source, log))
}

func (router *RequestRouter) addMetricsHandler(gatherer prometheus.Gatherer) {
	router.impl.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

//CreateRequestRouter sets up the fixture API and the metrics endpoint. Archive routes are only
//added when an archive reader is given.
func CreateRequestRouter(source FixtureSource, reader ArchiveReader, gatherer prometheus.Gatherer, log logging.Logger) *RequestRouter {
	router := newRequestRouter()

	router.addFixtureHandlers(source, log)
	if reader != nil {
		router.addArchiveHandlers(reader, log)
	}
	router.addMetricsHandler(gatherer)

	return router
}

//CreateRouterAndStartServing serves the fixture API on port until the server fails
func CreateRouterAndStartServing(log logging.Logger, source FixtureSource, reader ArchiveReader, gatherer prometheus.Gatherer, port string) error {
	router := CreateRequestRouter(source, reader, gatherer, log)

	log.Infof("Starting iot-telemetry-fixtures on port %s.\n", port)
	return http.ListenAndServe(":"+port, router.impl)
}

func currentBundle(w http.ResponseWriter, source FixtureSource) (*models.Bundle, bool) {
	bundle := source.Current()
	if bundle == nil {
		http.Error(w, "no fixtures have been generated yet", http.StatusServiceUnavailable)
		return nil, false
	}
	return bundle, true
}

func datasetFromRequest(w http.ResponseWriter, r *http.Request) (models.Dataset, bool) {
	dataset := models.Dataset(chi.URLParam(r, "dataset"))
	if dataset != models.Historical && dataset != models.Realtime {
		http.Error(w, "unknown dataset "+string(dataset), http.StatusNotFound)
		return "", false
	}
	return dataset, true
}

func newManifestHandler(source FixtureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bundle, ok := currentBundle(w, source); ok {
			writeJSON(w, http.StatusOK, bundle.Manifest)
		}
	}
}

func newWeatherHandler(source FixtureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bundle, ok := currentBundle(w, source); ok {
			writeJSON(w, http.StatusOK, bundle.Weather)
		}
	}
}

func newFieldListHandler(source FixtureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dataset, ok := datasetFromRequest(w, r)
		if !ok {
			return
		}

		bundle, ok := currentBundle(w, source)
		if !ok {
			return
		}

		fieldIDs := []string{}
		for _, doc := range bundle.Fields(dataset) {
			fieldIDs = append(fieldIDs, doc.FieldID)
		}

		writeJSON(w, http.StatusOK, fieldIDs)
	}
}

func newFieldHandler(source FixtureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dataset, ok := datasetFromRequest(w, r)
		if !ok {
			return
		}

		bundle, ok := currentBundle(w, source)
		if !ok {
			return
		}

		fieldID := chi.URLParam(r, "field")
		doc, found := bundle.Field(dataset, fieldID)
		if !found {
			http.Error(w, "no field "+fieldID+" in "+string(dataset), http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, doc)
	}
}

type regenerateResponse struct {
	RunID     string `json:"run_id"`
	Seed      int64  `json:"seed"`
	Anomalous int    `json:"anomalous_sensors"`
}

func newRegenerateHandler(source FixtureSource, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var seed int64

		if s := r.URL.Query().Get("seed"); s != "" {
			var err error
			seed, err = strconv.ParseInt(s, 10, 64)
			if err != nil {
				http.Error(w, "seed must be an integer", http.StatusBadRequest)
				return
			}
		}

		bundle, err := source.Regenerate(r.Context(), seed)
		if err != nil {
			log.Errorf("Failed to regenerate fixtures: %s", err.Error())
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, regenerateResponse{
			RunID:     bundle.RunID,
			Seed:      bundle.Seed,
			Anomalous: len(bundle.Manifest),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	bytes, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bytes)
}
