package replay

import (
	"context"

	"github.com/iot-for-tillgenglighet/messaging-golang/pkg/messaging"
)

//SoilTelemetryTopic is the topic that replayed readings are published on
const SoilTelemetryTopic = "telemetry.soil"

//MessagingContext is an interface that allows mocking of messaging.Context parameters
type MessagingContext interface {
	PublishOnTopic(message messaging.TopicMessage) error
}

type soilTelemetry struct {
	Message
}

func (t *soilTelemetry) ContentType() string {
	return "application/json"
}

func (t *soilTelemetry) TopicName() string {
	return SoilTelemetryTopic
}

//TopicPublisher publishes messages on the soil telemetry topic of a messaging context
type TopicPublisher struct {
	messenger MessagingContext
}

//NewTopicPublisher wraps messenger
func NewTopicPublisher(messenger MessagingContext) *TopicPublisher {
	return &TopicPublisher{messenger: messenger}
}

func (p *TopicPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.messenger.PublishOnTopic(&soilTelemetry{Message: msg})
}
