package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"

	docservice "talaty/internal/documents/service"
	docstore "talaty/internal/documents/store"
	formservice "talaty/internal/forms/service"
	formstore "talaty/internal/forms/store"
	"talaty/internal/notify"
	"talaty/internal/platform/config"
	"talaty/internal/platform/kafka"
	"talaty/internal/platform/postgres"
	"talaty/internal/platform/redis"
	"talaty/internal/recompute"
	scoremetrics "talaty/internal/scoring/metrics"
	scoreservice "talaty/internal/scoring/service"
	scorestore "talaty/internal/scoring/store"
	"talaty/internal/scoring/store/cache"
	userservice "talaty/internal/users/service"
	userstore "talaty/internal/users/store"
	"talaty/pkg/platform/audit"
	auditpublisher "talaty/pkg/platform/audit/publisher"
	auditmemory "talaty/pkg/platform/audit/store/memory"
	auditpostgres "talaty/pkg/platform/audit/store/postgres"
)

type userStore interface {
	userservice.Store
	scoreservice.UserReader
}

type documentStore interface {
	docservice.Store
	scoreservice.DocumentReader
}

type formStore interface {
	formservice.Store
	scoreservice.FormReader
}

// app holds the wired services and the resources main must release.
type app struct {
	storage string

	db       *sql.DB
	redis    *redis.Client
	producer *kgo.Client
	audit    *auditpublisher.Publisher

	scoring   *scoreservice.Service
	documents *docservice.Service
	forms     *formservice.Service
	users     *userservice.Service
}

// build opens the configured backends and wires the services. Postgres,
// Redis and Kafka are each optional; without them the process runs on
// in-memory stores and logs notifications.
func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{storage: "memory"}

	var (
		users      userStore               = userstore.NewInMemory()
		documents  documentStore           = docstore.NewInMemory()
		forms      formStore               = formstore.NewInMemory()
		scores     scoreservice.ScoreStore = scorestore.NewInMemory()
		auditStore audit.Store             = auditmemory.NewInMemoryStore()
		scoreOpts  []scoreservice.Option
	)

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		a.storage = "postgres"
		users = userstore.NewPostgres(db)
		documents = docstore.NewPostgres(db)
		forms = formstore.NewPostgres(db)
		scores = scorestore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		scoreOpts = append(scoreOpts, scoreservice.WithTransactor(postgres.NewTransactor(db)))
	}

	scoreMetrics := scoremetrics.New()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	if redisClient != nil {
		a.redis = redisClient
		cached := cache.New(scores, redisClient.Client, cfg.Redis.ScoreTTL,
			cache.WithLogger(log),
			cache.WithMetrics(scoreMetrics),
		)
		scores = cached
		scoreOpts = append(scoreOpts, scoreservice.WithScoreCache(cached))
	}

	notifier, err := buildNotifier(ctx, a, cfg.Kafka, log)
	if err != nil {
		a.close()
		return nil, err
	}

	a.audit = auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(1024),
		auditpublisher.WithLogger(log),
	)

	scoreOpts = append(scoreOpts,
		scoreservice.WithLogger(log),
		scoreservice.WithMetrics(scoreMetrics),
		scoreservice.WithAuditPublisher(a.audit),
		scoreservice.WithConcurrency(cfg.Jobs.RecalculateConcurrency),
		scoreservice.WithTracer(otel.Tracer("talaty/scoring")),
	)
	a.scoring, err = scoreservice.New(scores, users, documents, forms, scoreOpts...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("scoring service: %w", err)
	}

	dispatcher, err := recompute.New(a.scoring,
		recompute.WithLogger(log),
		recompute.WithMetrics(scoreMetrics),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("recompute dispatcher: %w", err)
	}

	a.documents, err = docservice.New(documents, users, dispatcher,
		docservice.WithLogger(log),
		docservice.WithNotifier(notifier),
		docservice.WithAuditPublisher(a.audit),
		docservice.WithAllowedExtensions(cfg.Server.AllowedExtensions),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("document service: %w", err)
	}

	a.forms, err = formservice.New(forms, users, dispatcher,
		formservice.WithLogger(log),
		formservice.WithAuditPublisher(a.audit),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("form service: %w", err)
	}

	a.users, err = userservice.New(users, a.scoring, dispatcher,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(a.audit),
		userservice.WithAuditReader(a.audit),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("user service: %w", err)
	}
	return a, nil
}

func buildNotifier(ctx context.Context, a *app, cfg config.KafkaConfig, log *slog.Logger) (docservice.Notifier, error) {
	producer, err := kafka.NewProducer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if producer == nil {
		return notify.NewLogSender(log), nil
	}
	a.producer = producer
	if err := kafka.EnsureTopic(ctx, producer, cfg, log); err != nil {
		return nil, err
	}
	return notify.NewKafkaSender(producer, cfg.NotificationTopic,
		notify.WithLogger(log),
	), nil
}

// close releases backends in reverse order of acquisition. The audit
// publisher drains its buffer before the database goes away.
func (a *app) close() {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
