package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is published on every booking lifecycle transition and
// consumed by the notifications worker.
type BookingEvent struct {
	Type       string    `json:"type"`
	Reference  string    `json:"reference"`
	TripID     int64     `json:"trip_id"`
	FlightCode string    `json:"flight_code"`
	Passenger  string    `json:"passenger"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DelayEvent records one notifiable delay change on a trip.
type DelayEvent struct {
	EventID           string    `json:"event_id"`
	TripID            int64     `json:"trip_id"`
	FlightCode        string    `json:"flight_code"`
	DelayMinutes      int       `json:"delay_minutes"`
	Note              string    `json:"note"`
	EstimatedDepartAt time.Time `json:"estimated_depart_at"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
