package listener

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/schedboard/internal/cache"
	"github.com/md-rashed-zaman/schedboard/internal/query"
)

func newTestListener(c cache.Cache) *Listener {
	return &Listener{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:  c,
		seen:   newDedupe(16),
	}
}

func seedStores(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()
	for _, key := range []string{
		query.AppointmentsPrefix("store-1") + "p=1",
		query.CalendarPrefix("store-1") + "week:2026-04-20",
		query.AppointmentsPrefix("store-2") + "p=1",
	} {
		if err := c.Set(ctx, key, []byte("cached"), time.Minute); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
}

func message(eventID string, value string) kafka.Message {
	return kafka.Message{
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte("appointment.status_changed")},
		},
		Value: []byte(value),
	}
}

func TestHandleInvalidatesOnlyMatchingStore(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	seedStores(t, mem)
	l := newTestListener(mem)

	msg := message("evt-1", `{"store_id":"store-1","type":"appointment.status_changed","id":"appt-1"}`)
	if err := l.Handle(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if _, found, _ := mem.Get(ctx, query.AppointmentsPrefix("store-1")+"p=1"); found {
		t.Fatal("store-1 listing should be invalidated")
	}
	if _, found, _ := mem.Get(ctx, query.CalendarPrefix("store-1")+"week:2026-04-20"); found {
		t.Fatal("store-1 calendar should be invalidated")
	}
	if _, found, _ := mem.Get(ctx, query.AppointmentsPrefix("store-2")+"p=1"); !found {
		t.Fatal("store-2 entries must survive a store-1 event")
	}
}

func TestHandleIgnoresIrrelevantType(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	seedStores(t, mem)
	l := newTestListener(mem)

	msg := message("evt-2", `{"store_id":"store-1","type":"customer.updated"}`)
	if err := l.Handle(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, found, _ := mem.Get(ctx, query.AppointmentsPrefix("store-1")+"p=1"); !found {
		t.Fatal("unrelated event type must not invalidate")
	}
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	seedStores(t, mem)
	l := newTestListener(mem)

	if err := l.Handle(ctx, message("evt-3", `not json`)); err != nil {
		t.Fatalf("malformed payload must not error: %v", err)
	}
	if err := l.Handle(ctx, message("evt-4", `{"type":"appointment.created"}`)); err != nil {
		t.Fatalf("missing store_id must not error: %v", err)
	}
	if _, found, _ := mem.Get(ctx, query.AppointmentsPrefix("store-1")+"p=1"); !found {
		t.Fatal("malformed events must leave the cache alone")
	}
}

func TestHandleDeduplicatesByEventID(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	seedStores(t, mem)
	l := newTestListener(mem)

	payload := `{"store_id":"store-1","type":"appointment.created","id":"appt-1"}`
	if err := l.Handle(ctx, message("evt-5", payload)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// Reseed, then redeliver the same event.
	seedStores(t, mem)
	if err := l.Handle(ctx, message("evt-5", payload)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if _, found, _ := mem.Get(ctx, query.AppointmentsPrefix("store-1")+"p=1"); !found {
		t.Fatal("duplicate delivery must not invalidate again")
	}
}

func TestDedupeEvictsOldestHalf(t *testing.T) {
	d := newDedupe(4)
	for _, id := range []string{"a", "b", "c", "d"} {
		if !d.Record(id) {
			t.Fatalf("%s should be new", id)
		}
	}
	if !d.Record("e") {
		t.Fatal("e should be new after eviction")
	}
	// a and b were evicted, c and d retained.
	if d.Record("c") || d.Record("d") {
		t.Fatal("recent ids must still be remembered")
	}
	if !d.Record("a") {
		t.Fatal("evicted id should be treated as new again")
	}
}
