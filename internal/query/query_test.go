package query

import (
	"strings"
	"testing"
	"time"
)

func TestFilterState_SearchResetsPage(t *testing.T) {
	f := NewFilterState().WithStatus("pending").WithPage(3)
	if f.Page != 3 || f.Status != "pending" {
		t.Fatalf("setup failed: %+v", f)
	}
	keyBefore := Compose("store-1", f, Actor{Role: "admin"}).CacheKey()

	f = f.WithSearch("ali")
	if f.Page != 1 {
		t.Fatalf("search change must reset page, got %d", f.Page)
	}
	keyAfter := Compose("store-1", f, Actor{Role: "admin"}).CacheKey()
	if keyAfter == keyBefore {
		t.Fatal("composed key must change when search changes")
	}

	f = f.WithPage(2)
	if f.Search != "ali" || f.Status != "pending" {
		t.Fatalf("page change must not touch other filters: %+v", f)
	}
	if f.Page != 2 {
		t.Fatalf("expected page 2, got %d", f.Page)
	}
}

func TestFilterState_NoOpChangeKeepsPage(t *testing.T) {
	f := NewFilterState().WithStatus("confirmed").WithPage(4)
	f = f.WithStatus("confirmed")
	if f.Page != 4 {
		t.Fatalf("setting the same status must not reset the page, got %d", f.Page)
	}
}

func TestFilterState_RangeAndStaffResetPage(t *testing.T) {
	f := NewFilterState().WithPage(5)
	f = f.WithRange(DateRange{Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	if f.Page != 1 {
		t.Fatal("range change must reset page")
	}

	f = f.WithPage(5).WithStaffIDs([]string{"s2", "s1", "s1", " "})
	if f.Page != 1 {
		t.Fatal("staff change must reset page")
	}
	if len(f.StaffIDs) != 2 || f.StaffIDs[0] != "s1" || f.StaffIDs[1] != "s2" {
		t.Fatalf("staff ids must be deduplicated and sorted, got %v", f.StaffIDs)
	}
}

func TestEncodeDecodeQuery_RoundTrip(t *testing.T) {
	f := NewFilterState().
		WithStatus("pending").
		WithSearch("alice").
		WithRange(DateRange{
			Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		}).
		WithStaffIDs([]string{"s1", "s2"}).
		WithPage(3)

	got := DecodeQuery(f.EncodeQuery())
	if got.Status != "pending" || got.Search != "alice" || got.Page != 3 {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if !got.Range.Start.Equal(f.Range.Start) || !got.Range.End.Equal(f.Range.End) {
		t.Fatalf("round trip lost range: %+v", got.Range)
	}
	if len(got.StaffIDs) != 2 {
		t.Fatalf("round trip lost staff ids: %v", got.StaffIDs)
	}
}

func TestDecodeQuery_MalformedFallsBack(t *testing.T) {
	f := NewFilterState().WithStatus("pending")
	v := f.EncodeQuery()
	v.Set("status", "nonsense")
	v.Set("page", "-2")
	v.Set("start_date", "yesterday")

	got := DecodeQuery(v)
	if got.Status != StatusAll {
		t.Fatalf("unknown status must fall back to all, got %q", got.Status)
	}
	if got.Page != 1 {
		t.Fatalf("bad page must fall back to 1, got %d", got.Page)
	}
	if !got.Range.Start.IsZero() {
		t.Fatal("bad date must stay unset")
	}
}

func TestCompose_RestrictedActorForcedToOwnStaff(t *testing.T) {
	f := NewFilterState().WithStaffIDs([]string{"someone-else"})

	q := Compose("store-1", f, Actor{Role: "staff", StaffID: "me"})
	if q.StaffID != "me" {
		t.Fatalf("restricted actor must be pinned to own staff id, got %q", q.StaffID)
	}
	if len(q.StaffIDs) != 0 {
		t.Fatalf("restricted actor must not carry the UI staff filter, got %v", q.StaffIDs)
	}
	if q.Params().Get("staff_id") != "me" {
		t.Fatal("upstream params must carry the forced staff id")
	}

	admin := Compose("store-1", f, Actor{Role: "admin", StaffID: "me"})
	if admin.StaffID != "" || len(admin.StaffIDs) != 1 {
		t.Fatalf("admin keeps the UI staff filter: %+v", admin)
	}
}

func TestCompose_SearchMinLength(t *testing.T) {
	f := NewFilterState().WithSearch("a")
	q := Compose("store-1", f, Actor{Role: "admin"})
	if q.Search != "" {
		t.Fatalf("single-char search must be dropped, got %q", q.Search)
	}
	if q.Params().Get("search") != "" {
		t.Fatal("short search must not reach upstream params")
	}

	q = Compose("store-1", f.WithSearch("  al  "), Actor{Role: "admin"})
	if q.Search != "al" {
		t.Fatalf("expected trimmed search, got %q", q.Search)
	}
}

func TestCacheKey_UnderStorePrefix(t *testing.T) {
	q := Compose("store-1", NewFilterState(), Actor{Role: "admin"})
	key := q.CacheKey()
	prefix := AppointmentsPrefix("store-1")
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		t.Fatalf("key %q must live under prefix %q", key, prefix)
	}

	other := Compose("store-2", NewFilterState(), Actor{Role: "admin"}).CacheKey()
	if other == key {
		t.Fatal("different stores must compose different keys")
	}
}

func TestCalendarKey_SeparatesStaffScope(t *testing.T) {
	admin := Compose("store-1", NewFilterState(), Actor{Role: "admin"})
	staff := Compose("store-1", NewFilterState(), Actor{Role: "staff", StaffID: "staff-1"})

	if admin.StaffScope() != "all" {
		t.Fatalf("unrestricted scope should be all, got %q", admin.StaffScope())
	}
	if staff.StaffScope() != "staff-1" {
		t.Fatalf("restricted scope should be the forced staff id, got %q", staff.StaffScope())
	}

	adminKey := CalendarKey("store-1", "week", "2026-04-20", "2026-04-26", admin.StaffScope())
	staffKey := CalendarKey("store-1", "week", "2026-04-20", "2026-04-26", staff.StaffScope())
	if adminKey == staffKey {
		t.Fatal("calendar keys for different actors must not collide")
	}

	prefix := CalendarPrefix("store-1")
	if !strings.HasPrefix(adminKey, prefix) || !strings.HasPrefix(staffKey, prefix) {
		t.Fatalf("calendar keys must live under prefix %q", prefix)
	}
}

func TestDebouncedValue(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ms := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

	events := []Keystroke{
		{Value: "a", At: ms(0)},
		{Value: "al", At: ms(100)},
		{Value: "ali", At: ms(200)},
	}

	// Nothing settles while typing continues within the delay.
	if got := DebouncedValue(events, DebounceDelay, ms(300)); got != "" {
		t.Fatalf("expected no settled value mid-burst, got %q", got)
	}
	// 400ms after the last keystroke, the final value settles.
	if got := DebouncedValue(events, DebounceDelay, ms(600)); got != "ali" {
		t.Fatalf("expected \"ali\", got %q", got)
	}

	// An earlier keystroke whose quiet period elapsed settles first.
	slow := []Keystroke{
		{Value: "a", At: ms(0)},
		{Value: "ab", At: ms(1000)},
	}
	if got := DebouncedValue(slow, DebounceDelay, ms(1100)); got != "a" {
		t.Fatalf("expected \"a\" before second settles, got %q", got)
	}
	if got := DebouncedValue(slow, DebounceDelay, ms(1400)); got != "ab" {
		t.Fatalf("expected \"ab\" after second settles, got %q", got)
	}

	if got := DebouncedValue(nil, DebounceDelay, ms(0)); got != "" {
		t.Fatalf("empty stream must derive empty value, got %q", got)
	}
}
