// Package listener consumes appointment lifecycle events and drops the
// cached dashboard queries they make stale. It never recomputes views;
// the next read repopulates the cache from the booking backend.
package listener

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/schedboard/internal/cache"
	"github.com/md-rashed-zaman/schedboard/internal/query"
	"github.com/md-rashed-zaman/schedboard/libs/kafkax"
)

// Event is the appointment change notification published by the booking
// backend.
type Event struct {
	StoreID       string `json:"store_id"`
	Type          string `json:"type"`
	AppointmentID string `json:"id"`
}

// relevant lists the event types that can change what a dashboard shows.
var relevant = map[string]bool{
	"appointment.created":        true,
	"appointment.cancelled":      true,
	"appointment.status_changed": true,
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

type Listener struct {
	reader *kafka.Reader
	logger *slog.Logger
	cache  cache.Cache
	seen   *dedupe
}

func New(logger *slog.Logger, c cache.Cache, cfg Config) *Listener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Listener{
		reader: reader,
		logger: logger,
		cache:  c,
		seen:   newDedupe(4096),
	}
}

func (l *Listener) Run(ctx context.Context) {
	defer l.reader.Close()

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
		ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
			),
		)

		if err := l.Handle(ctxSpan, msg); err != nil {
			l.logger.Error("invalidation failed", "err", err)
			span.RecordError(err)
		}
		span.End()
	}
}

// Handle processes a single message: decode, dedupe, and invalidate the
// affected store's cache prefixes. Malformed or irrelevant events are
// dropped without error so the consumer keeps advancing.
func (l *Listener) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	if !l.seen.Record(meta.EventID) {
		l.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return nil
	}

	var e Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		l.logger.Error("invalid event payload", "err", err)
		return nil
	}
	if e.StoreID == "" {
		l.logger.Error("event missing store_id", "event_type", e.Type)
		return nil
	}
	if !relevant[e.Type] {
		return nil
	}

	for _, prefix := range query.StorePrefixes(e.StoreID) {
		if err := l.cache.InvalidateByPrefix(ctx, prefix); err != nil {
			return err
		}
	}
	l.logger.Info("cache invalidated",
		"store_id", e.StoreID,
		"event_type", e.Type,
		"appointment_id", e.AppointmentID,
	)
	return nil
}
