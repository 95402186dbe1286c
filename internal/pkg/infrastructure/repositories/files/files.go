package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

const (
	WeatherFileName  = "weather_realtime.json"
	ManifestFileName = "anomalous_sensors.json"
)

//FieldFileName names the file holding the document of a zone, e.g. realtime_field_2.json
func FieldFileName(dataset models.Dataset, zone int) string {
	return fmt.Sprintf("%s_field_%d.json", dataset, zone)
}

//Writer emits every document of a bundle as an indented JSON file in a directory
type Writer struct {
	dir string
	log logging.Logger
}

//NewWriter creates a writer for dir. The directory is created on first use.
func NewWriter(dir string, log logging.Logger) *Writer {
	return &Writer{dir: dir, log: log}
}

//Accept writes the bundle
func (w *Writer) Accept(ctx context.Context, bundle *models.Bundle) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	for _, docs := range [][]models.FieldDocument{bundle.Historical, bundle.Realtime} {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.write(FieldFileName(doc.Dataset, doc.Zone), doc); err != nil {
				return err
			}
		}
	}

	if err := w.write(WeatherFileName, bundle.Weather); err != nil {
		return err
	}

	if err := w.write(ManifestFileName, bundle.Manifest); err != nil {
		return err
	}

	w.log.Infof("Wrote %d field documents of run %s to %s", len(bundle.Historical)+len(bundle.Realtime), bundle.RunID, w.dir)

	return nil
}

func (w *Writer) write(name string, document interface{}) error {
	bytes, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
