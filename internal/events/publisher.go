package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"microforge/pulse/internal/domain"

	"github.com/segmentio/kafka-go"
)

// Publisher emits lifecycle events for downstream consumers. Publication is
// best-effort: a failed publish is logged and never fails the operation that
// produced the event.
type Publisher interface {
	PublishDelivery(ctx context.Context, result domain.DeliveryResult)
	PublishHealth(ctx context.Context, snapshot domain.HealthSnapshot)
	Close() error
}

type KafkaPublisher struct {
	deliveries *kafka.Writer
	health     *kafka.Writer
	log        *slog.Logger
}

func NewKafkaPublisher(brokers []string, deliveriesTopic, healthTopic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		deliveries: newWriter(brokers, deliveriesTopic),
		health:     newWriter(brokers, healthTopic),
		log:        log,
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}

func (p *KafkaPublisher) PublishDelivery(ctx context.Context, result domain.DeliveryResult) {
	p.publish(ctx, p.deliveries, result.NotificationID, result)
}

func (p *KafkaPublisher) PublishHealth(ctx context.Context, snapshot domain.HealthSnapshot) {
	key := fmt.Sprintf("cycle-%d", snapshot.Summary.LastUpdated.UnixNano())
	p.publish(ctx, p.health, key, snapshot)
}

func (p *KafkaPublisher) publish(ctx context.Context, w *kafka.Writer, key string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to marshal event", "topic", w.Topic, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := w.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		p.log.Error("failed to publish event", "topic", w.Topic, "key", key, "error", err)
		return
	}

	p.log.Debug("event published", "topic", w.Topic, "key", key)
}

func (p *KafkaPublisher) Close() error {
	derr := p.deliveries.Close()
	herr := p.health.Close()
	if derr != nil {
		return derr
	}
	return herr
}

// NopPublisher is used when no kafka brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishDelivery(context.Context, domain.DeliveryResult) {}
func (NopPublisher) PublishHealth(context.Context, domain.HealthSnapshot)  {}
func (NopPublisher) Close() error                                          { return nil }
