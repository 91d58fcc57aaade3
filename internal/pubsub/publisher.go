// Package pubsub wraps the Google Pub/Sub client behind a small Publisher
// interface so services and the notification dispatcher stay testable.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/config"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
// Topic handles are cached: each one owns a publish goroutine pool, so
// recreating them per message would leak.
type PubSubPublisher struct {
	client *pubsub.Client
	logger zerolog.Logger

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{
		client: client,
		logger: logger.With().Str("service", "PubSubPublisher").Logger(),
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

func (p *PubSubPublisher) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.topics[name]
	if !ok {
		t = p.client.Topic(name)
		p.topics[name] = t
	}
	return t
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	result := p.topic(topic).Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	p.logger.Debug().Str("topic", topic).Str("message_id", id).Msg("Message published")
	return id, nil
}

// Close flushes cached topics and releases the client.
func (p *PubSubPublisher) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.mu.Unlock()
	return p.client.Close()
}
