// Package notify delivers document status changes to the email service.
// Delivery is fire-and-forget: failures are logged and never reach the caller.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	id "talaty/pkg/domain"
	"talaty/pkg/platform/circuit"
)

type Kind string

const (
	KindDocumentStatusChanged Kind = "document_status_changed"
	KindDocumentExpired       Kind = "document_expired"
)

// Notification is the message the email service renders. Status and
// DocumentType are plain strings so the wire format has no dependency on
// the documents package.
type Notification struct {
	Kind         Kind          `json:"kind"`
	UserID       id.UserID     `json:"user_id"`
	DocumentID   id.DocumentID `json:"document_id"`
	DocumentType string        `json:"document_type"`
	DocumentName string        `json:"document_name"`
	Status       string        `json:"status"`
	Notes        string        `json:"notes,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaSender publishes notifications keyed by user id so one user's
// messages stay ordered on a partition.
type KafkaSender struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type KafkaOption func(*KafkaSender)

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(s *KafkaSender) {
		s.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(s *KafkaSender) {
		s.breaker = b
	}
}

func NewKafkaSender(producer Producer, topic string, opts ...KafkaOption) *KafkaSender {
	s := &KafkaSender{
		producer: producer,
		topic:    topic,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = circuit.New("notifications")
	}
	return s
}

// Notify enqueues the record and returns. While the breaker is open
// notifications are dropped with a warning.
func (s *KafkaSender) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if !s.breaker.Allow() {
		s.logger.WarnContext(ctx, "notification dropped, broker unavailable",
			"kind", string(n.Kind),
			"user_id", n.UserID.String(),
		)
		return nil
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(n.UserID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	}
	// the record outlives the request, so it must not inherit its cancellation
	s.producer.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			if _, change := s.breaker.RecordFailure(); change.Opened {
				s.logger.Error("notification breaker opened", "topic", s.topic)
			}
			s.logger.Warn("notification publish failed",
				"kind", string(n.Kind),
				"user_id", n.UserID.String(),
				"error", err,
			)
			return
		}
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.Info("notification breaker closed", "topic", s.topic)
		}
	})
	return nil
}

// LogSender writes notifications to the log. Used when no broker is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Notify(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification",
		"kind", string(n.Kind),
		"user_id", n.UserID.String(),
		"document_id", n.DocumentID.String(),
		"status", n.Status,
	)
	return nil
}
