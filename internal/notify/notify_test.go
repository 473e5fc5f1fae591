package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "talaty/pkg/domain"
	"talaty/pkg/platform/circuit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	p.records = append(p.records, r)
	promise(r, p.err)
}

func sample() Notification {
	return Notification{
		Kind:         KindDocumentStatusChanged,
		UserID:       id.NewUserID(),
		DocumentID:   id.NewDocumentID(),
		DocumentType: "passport",
		DocumentName: "Passport",
		Status:       "approved",
		OccurredAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaSender_PublishesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	sender := NewKafkaSender(producer, "talaty.document-status", WithLogger(discard()))
	n := sample()

	require.NoError(t, sender.Notify(context.Background(), n))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "talaty.document-status", rec.Topic)
	assert.Equal(t, n.UserID.String(), string(rec.Key))
	assert.Equal(t, "kind", rec.Headers[0].Key)

	var decoded Notification
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, n, decoded)
}

func TestKafkaSender_FailuresOpenBreaker(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	sender := NewKafkaSender(producer, "topic", WithLogger(discard()), WithBreaker(breaker))

	for range 2 {
		assert.NoError(t, sender.Notify(context.Background(), sample()), "publish failures never reach the caller")
	}
	assert.True(t, breaker.IsOpen())

	// still inside the cooldown
	require.NoError(t, sender.Notify(context.Background(), sample()))
	assert.Len(t, producer.records, 2, "open breaker drops the notification")
}

func TestKafkaSender_BreakerDefaults(t *testing.T) {
	t.Run("default breaker when none is given", func(t *testing.T) {
		sender := NewKafkaSender(&fakeProducer{}, "topic")
		require.NotNil(t, sender.breaker)
		assert.Equal(t, "notifications", sender.breaker.Name())
	})

	t.Run("given breaker replaces the default", func(t *testing.T) {
		breaker := circuit.New("custom")
		sender := NewKafkaSender(&fakeProducer{}, "topic", WithBreaker(breaker))
		assert.Same(t, breaker, sender.breaker)
	})
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))
	n := sample()

	require.NoError(t, sender.Notify(context.Background(), n))
	assert.Contains(t, buf.String(), n.DocumentID.String())
	assert.Contains(t, buf.String(), `"status":"approved"`)
}
