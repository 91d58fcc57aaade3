// Package notify delivers user-facing texts over the notification topic.
// Dispatch is fire-and-forget: delivery failures are logged and never
// propagate into the caller's control flow.
package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/pubsub"
)

// message is the payload the bot gateway consumes from the topic.
type message struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// Dispatcher publishes notifications to a Pub/Sub topic.
type Dispatcher struct {
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewDispatcher creates a Dispatcher with a scoped logger.
func NewDispatcher(publisher pubsub.Publisher, topic string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "NotificationDispatcher").Logger(),
	}
}

// Send queues a text for delivery to a user.
func (d *Dispatcher) Send(ctx context.Context, userID, text string) {
	payload, err := json.Marshal(message{UserID: userID, Text: text})
	if err != nil {
		d.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to marshal notification")
		return
	}
	if _, err := d.publisher.Publish(ctx, d.topic, payload); err != nil {
		d.logger.Error().Err(err).Str("user_id", userID).Str("topic", d.topic).
			Msg("Failed to publish notification")
	}
}
