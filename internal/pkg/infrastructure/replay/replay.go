package replay

import (
	"context"
	"fmt"
	"sort"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
)

//Message is a single real-time reading as it would have been reported by the sensor
type Message struct {
	RunID    string `json:"run_id"`
	FieldID  string `json:"field_id"`
	SensorID string `json:"sensor_id"`
	models.Reading
}

//Publisher delivers replayed messages to a broker
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

//BatchPublisher is implemented by publishers that can deliver a whole replay in one call
type BatchPublisher interface {
	PublishAll(ctx context.Context, msgs []Message) error
}

//Messages flattens the real-time documents of a bundle into a stream ordered by timestamp.
//Readings sharing a timestamp keep the zone and sensor order of the bundle.
func Messages(bundle *models.Bundle) []Message {
	messages := []Message{}

	for _, doc := range bundle.Realtime {
		for _, sensor := range doc.Sensors {
			for _, r := range sensor.Readings {
				messages = append(messages, Message{
					RunID:    bundle.RunID,
					FieldID:  doc.FieldID,
					SensorID: sensor.SensorID,
					Reading:  r,
				})
			}
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})

	return messages
}

//Replayer publishes the real-time readings of every accepted bundle
type Replayer struct {
	publisher Publisher
	log       logging.Logger
}

//NewReplayer creates a Replayer that sends its messages through publisher
func NewReplayer(publisher Publisher, log logging.Logger) *Replayer {
	return &Replayer{publisher: publisher, log: log}
}

//Accept replays the bundle and stops at the first message that cannot be published
func (r *Replayer) Accept(ctx context.Context, bundle *models.Bundle) error {
	messages := Messages(bundle)

	if batcher, ok := r.publisher.(BatchPublisher); ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batcher.PublishAll(ctx, messages); err != nil {
			return fmt.Errorf("replay of run %s failed: %w", bundle.RunID, err)
		}
		r.log.Infof("Replayed %d readings of run %s in one batch", len(messages), bundle.RunID)
		return nil
	}

	for i, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.publisher.Publish(ctx, msg); err != nil {
			return fmt.Errorf("replay of run %s stopped after %d of %d messages: %w", bundle.RunID, i, len(messages), err)
		}
	}

	r.log.Infof("Replayed %d readings of run %s", len(messages), bundle.RunID)

	return nil
}
