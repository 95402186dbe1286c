package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/infrastructure/logging"
)

//MessageWriter is the part of kafka.Writer used by KafkaPublisher
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

//KafkaPublisher writes messages to a kafka topic, keyed by sensor id so that the readings
//of one sensor stay on one partition
type KafkaPublisher struct {
	writer MessageWriter
	log    logging.Logger
}

//NewKafkaWriter creates a hash balanced writer for topic. Replays write whole runs at once,
//so partial batches are flushed after a few milliseconds instead of the default second.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
}

//NewKafkaPublisher wraps writer
func NewKafkaPublisher(writer MessageWriter, log logging.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	return p.PublishAll(ctx, []Message{msg})
}

//PublishAll hands every message to the writer in a single call
func (p *KafkaPublisher) PublishAll(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	batch := make([]kafka.Message, 0, len(msgs))
	for _, msg := range msgs {
		km, err := toKafkaMessage(msg)
		if err != nil {
			return err
		}
		batch = append(batch, km)
	}

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		p.log.Errorf("kafka write of %d readings failed: %s", len(batch), err.Error())
		return err
	}

	return nil
}

func toKafkaMessage(msg Message) (kafka.Message, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode reading of %s: %w", msg.SensorID, err)
	}

	observedAt, err := msg.Time()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("bad timestamp in reading of %s: %w", msg.SensorID, err)
	}

	return kafka.Message{Key: []byte(msg.SensorID), Value: b, Time: observedAt}, nil
}
