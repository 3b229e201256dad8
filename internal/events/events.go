// Package events records one audit event per answered chat question.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ChatEvent describes an answered question without its text.
type ChatEvent struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id,omitempty"`
	QueryLength    int       `json:"query_length"`
	RetrievalCount int       `json:"retrieval_count"`
	LatencyMS      int64     `json:"latency_ms"`
	Failed         bool      `json:"failed"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewChatEvent stamps an event with a fresh id and the current time.
func NewChatEvent(tenantID string, queryLength, retrievalCount int, latency time.Duration, failed bool) ChatEvent {
	return ChatEvent{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		QueryLength:    queryLength,
		RetrievalCount: retrievalCount,
		LatencyMS:      latency.Milliseconds(),
		Failed:         failed,
		OccurredAt:     time.Now().UTC(),
	}
}

// Emitter publishes chat events.
type Emitter interface {
	Emit(ctx context.Context, e ChatEvent) error
	Close() error
}

// LogEmitter writes events to the structured log.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(l *zap.Logger) *LogEmitter {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogEmitter{logger: l}
}

func (e *LogEmitter) Emit(_ context.Context, ev ChatEvent) error {
	e.logger.Info("chat answered",
		zap.String("event_id", ev.ID),
		zap.String("tenant_id", ev.TenantID),
		zap.Int("query_length", ev.QueryLength),
		zap.Int("retrieval_count", ev.RetrievalCount),
		zap.Int64("latency_ms", ev.LatencyMS),
		zap.Bool("failed", ev.Failed),
	)
	return nil
}

func (e *LogEmitter) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter publishes events as JSON messages keyed by tenant.
type KafkaEmitter struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaEmitter(brokers []string, topic string, logger *zap.Logger) (*KafkaEmitter, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("chat event delivery failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaEmitter{writer: writer, logger: logger}, nil
}

func (e *KafkaEmitter) Emit(ctx context.Context, ev ChatEvent) error {
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TenantID),
		Value: blob,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("chat.answered")},
		},
	})
}

func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}

// MultiEmitter fans an event out to every emitter and joins their errors.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(ctx context.Context, ev ChatEvent) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiEmitter) Close() error {
	var errs []error
	for _, e := range m {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
