package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

// NewSyncProducer connects a Kafka producer that waits for all in-sync
// replicas and routes messages by key.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// Publisher writes push notifications and booking events to Kafka.
type Publisher struct {
	producer          sarama.SyncProducer
	notificationTopic string
	bookingTopic      string
}

// NewPublisher creates a Publisher over an existing producer.
func NewPublisher(producer sarama.SyncProducer, notificationTopic, bookingTopic string) *Publisher {
	return &Publisher{
		producer:          producer,
		notificationTopic: notificationTopic,
		bookingTopic:      bookingTopic,
	}
}

// PublishPush queues a push notification for the push worker. Messages for a
// user share a partition so they are delivered in order.
func (p *Publisher) PublishPush(ctx context.Context, msg model.PushMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}
	return p.send(p.notificationTopic, msg.UserID.String(), payload, []sarama.RecordHeader{
		{Key: []byte("user_id"), Value: []byte(msg.UserID.String())},
		{Key: []byte("notification_type"), Value: []byte(msg.Data["type"])},
	})
}

// PublishBookingEvent publishes a booking state change keyed by booking id.
func (p *Publisher) PublishBookingEvent(ctx context.Context, ev model.BookingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}
	return p.send(p.bookingTopic, ev.BookingID.String(), payload, []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(ev.Type)},
		{Key: []byte("booking_id"), Value: []byte(ev.BookingID.String())},
	})
}

func (p *Publisher) send(topic, key string, payload []byte, headers []sarama.RecordHeader) error {
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	log.Debug().
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str("key", key).
		Msg("message published")
	return nil
}

// Close closes the underlying producer.
func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
