package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/segmentio/kafka-go"

	"inventory-tracker/internal/usecase"
)

const eventTypeExpiring = "inventory.expiring_soon"

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ExpiryEvent is the payload published for each expiring item.
type ExpiryEvent struct {
	Type         string    `json:"type"`
	ItemID       string    `json:"item_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	ExpiryDate   string    `json:"expiry_date"`
	DaysToExpiry int       `json:"days_to_expiry"`
	Timestamp    time.Time `json:"timestamp"`
}

// KafkaNotifier publishes one message per expiring item, keyed by item ID.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaNotifier publishes asynchronously; delivery failures are logged to logger.
func NewKafkaNotifier(brokers []string, topic string, logger *log.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
		Async:        true,
		Completion:   completionLogger(logger),
	}
	return newKafkaNotifier(writer, time.Now)
}

func completionLogger(logger *log.Logger) func([]kafka.Message, error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		logger.Warnj(log.JSON{
			"event":    "kafka.write_failed",
			"messages": len(messages),
			"error":    err.Error(),
		})
	}
}

func newKafkaNotifier(writer messageWriter, now func() time.Time) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, now: now}
}

func (n *KafkaNotifier) NotifyExpiring(ctx context.Context, alert *usecase.ExpiryAlert) error {
	if len(alert.Items) == 0 {
		return nil
	}

	ts := n.now()
	messages := make([]kafka.Message, 0, len(alert.Items))
	for _, it := range alert.Items {
		event := ExpiryEvent{
			Type:         eventTypeExpiring,
			ItemID:       it.ID.String(),
			Name:         it.Name,
			Category:     it.Category,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			ExpiryDate:   it.ExpiryDate,
			DaysToExpiry: it.DaysToExpiry,
			Timestamp:    ts,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal expiry event: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.ItemID),
			Value: payload,
			Time:  ts,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(event.Type)},
			},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := n.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write expiry events to kafka: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
