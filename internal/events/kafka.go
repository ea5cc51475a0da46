package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storecore/internal/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// defaultPublishTimeout bounds the synchronous part of a publish, which is the
// partition metadata lookup on first use of a topic.
const defaultPublishTimeout = 2 * time.Second

// Envelope wraps every payload published on the bus.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic per event type, keyed by the
// aggregate id so that a product's updates stay ordered. Writers are async:
// delivery failures surface in the completion log, never in the caller.
type KafkaPublisher struct {
	stock          messageWriter
	orders         messageWriter
	producer       string
	publishTimeout time.Duration
}

func NewKafkaPublisher(brokers []string, stockTopic, orderTopic, producer string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		stock:          newWriter(brokers, stockTopic, logger),
		orders:         newWriter(brokers, orderTopic, logger),
		producer:       producer,
		publishTimeout: defaultPublishTimeout,
	}
}

func newWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 5 * time.Second,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion:   completionLogger(topic, logger),
	}
}

func completionLogger(topic string, logger *zap.Logger) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil {
			return
		}
		metrics.StockNotificationsFailed.WithLabelValues("kafka").Add(float64(len(msgs)))
		logger.Warn("kafka delivery failed",
			zap.String("topic", topic),
			zap.Int("messages", len(msgs)),
			zap.Error(err),
		)
	}
}

func (p *KafkaPublisher) StockChanged(ctx context.Context, ev StockChanged) error {
	return p.publish(ctx, p.stock, EventStockChanged, ev.ProductID.String(), ev.OrderID.String(), ev)
}

func (p *KafkaPublisher) OrderConfirmed(ctx context.Context, ev OrderConfirmed) error {
	return p.publish(ctx, p.orders, EventOrderConfirmed, ev.OrderID.String(), ev.OrderID.String(), ev)
}

func (p *KafkaPublisher) publish(ctx context.Context, w messageWriter, eventType, key, correlationID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.producer,
		CorrelationID: correlationID,
		Payload:       body,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", eventType, err)
	}

	if p.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}
	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: env,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	})
}

// Close flushes both writers.
func (p *KafkaPublisher) Close() error {
	errStock := p.stock.Close()
	errOrders := p.orders.Close()
	if errStock != nil {
		return errStock
	}
	return errOrders
}
