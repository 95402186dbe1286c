package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/iot-for-tillgenglighet/messaging-golang/pkg/messaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/application"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/handler"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/metrics"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/replay"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/repositories/database"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/repositories/files"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {
	log := logging.NewLogger()

	if err := run(log); err != nil {
		log.Fatalf("%s", err.Error())
	}
}

func run(log logging.Logger) error {

	serviceName := "iot-telemetry-fixtures"

	log.Infof("Starting up %s ...", serviceName)

	cfg, err := application.LoadConfiguration(log)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	orchestrator, err := application.NewOrchestrator(cfg, log, application.WithRecorder(metrics.New(registry)))
	if err != nil {
		return fmt.Errorf("refusing to generate fixtures: %w", err)
	}

	sinks := []application.BundleSink{
		files.NewWriter(getEnv("FIXTURES_OUTPUT_DIR", "."), log),
	}

	var archive handler.ArchiveReader

	switch dbType := getEnv("FIXTURES_DB", "none"); dbType {
	case "none":
	case "sqlite", "postgres":
		connector := database.NewSQLiteConnector(os.Getenv("FIXTURES_DB_PATH"))
		if dbType == "postgres" {
			connector = database.NewPostgreSQLConnector(log)
		}

		db, err := database.NewDatabaseConnection(connector, log)
		if err != nil {
			return fmt.Errorf("failed to open fixture archive: %w", err)
		}
		sinks = append(sinks, database.NewArchive(db))
		archive = db
	default:
		return fmt.Errorf("unsupported FIXTURES_DB %q", dbType)
	}

	switch replayType := getEnv("FIXTURES_REPLAY", "none"); replayType {
	case "none":
	case "kafka":
		brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
		writer := replay.NewKafkaWriter(brokers, getEnv("KAFKA_TOPIC", "soil-telemetry"))
		defer writer.Close()

		sinks = append(sinks, replay.NewReplayer(replay.NewKafkaPublisher(writer, log), log))
	case "rabbitmq":
		config := messaging.LoadConfiguration(serviceName)
		messenger, err := messaging.Initialize(config)
		if err != nil {
			return fmt.Errorf("failed to connect to message queue: %w", err)
		}
		defer messenger.Close()

		sinks = append(sinks, replay.NewReplayer(replay.NewTopicPublisher(messenger), log))
	default:
		return fmt.Errorf("unsupported FIXTURES_REPLAY %q", replayType)
	}

	service := application.NewService(orchestrator, log, sinks...)

	bundle, err := service.Regenerate(context.Background(), cfg.Seed)
	if err != nil {
		return fmt.Errorf("fixture generation failed: %w", err)
	}

	log.Infof("Generated run %s with seed %d (%d anomalous sensors)", bundle.RunID, bundle.Seed, len(bundle.Manifest))

	if port := os.Getenv("SERVICE_PORT"); port != "" {
		return handler.CreateRouterAndStartServing(log, service, archive, registry, port)
	}

	return nil
}
