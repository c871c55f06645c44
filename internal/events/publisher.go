// Package events publishes domain events (activity logged, badge unlocked,
// level up, sync completed) to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"anoa.com/fitsquad/internal/observability"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeActivityLogged = "activity.logged"
	TypeBadgeUnlocked  = "badge.unlocked"
	TypeLevelUp        = "level.up"
	TypeSyncCompleted  = "sync.completed"
	TypeGoalAchieved   = "goal.achieved"
)

type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	UserID     uuid.UUID       `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event envelope.
func NewEvent(eventType string, userID uuid.UUID, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Emit builds and publishes a single event. Failures are returned, never panicked.
func Emit(ctx context.Context, p Publisher, eventType string, userID uuid.UUID, payload any) error {
	evt, err := NewEvent(eventType, userID, payload)
	if err != nil {
		return err
	}
	err = p.Publish(ctx, evt)
	observability.RecordEventPublished(eventType, err)
	return err
}

// KafkaPublisher writes events keyed by user id, so one user's events keep their order.
type KafkaPublisher struct {
	mu     sync.Mutex
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		value, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(evt.UserID.String()),
			Value: value,
			Time:  evt.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(evt.Type)},
			},
		})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                            { return nil }

// RecordingPublisher keeps events in memory. Useful in tests.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Event
}

func (r *RecordingPublisher) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, events...)
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

// Types returns the recorded event types in publish order.
func (r *RecordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, evt := range r.Events {
		out[i] = evt.Type
	}
	return out
}

// New picks the Kafka publisher when brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
