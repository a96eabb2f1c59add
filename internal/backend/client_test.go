package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/md-rashed-zaman/schedboard/internal/availability"
	"github.com/md-rashed-zaman/schedboard/internal/model"
	"github.com/md-rashed-zaman/schedboard/internal/query"
	"github.com/md-rashed-zaman/schedboard/internal/status"
)

func TestFetchSlots(t *testing.T) {
	day := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/stores/store-1/availability" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("service_id") != "svc-1" || q.Get("staff_id") != "staff-1" || q.Get("date") != "2026-04-20" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("exclude_appointment_id") != "appt-9" {
			t.Fatalf("exclude id missing from query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(availabilityResponse{Slots: []slotDTO{
			{StartTime: day.Add(9 * time.Hour).Format(time.RFC3339), EndTime: day.Add(9*time.Hour + 30*time.Minute).Format(time.RFC3339), Available: true},
			{StartTime: day.Add(10 * time.Hour).Format(time.RFC3339), EndTime: day.Add(10*time.Hour + 30*time.Minute).Format(time.RFC3339), Available: false},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	slots, err := c.FetchSlots(context.Background(), availability.Inputs{
		StoreID:              "store-1",
		ServiceID:            "svc-1",
		StaffID:              "staff-1",
		Date:                 day,
		ExcludeAppointmentID: "appt-9",
	})
	if err != nil {
		t.Fatalf("fetch slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Available || slots[1].Available {
		t.Fatal("availability flags must survive decoding")
	}
}

func TestListAppointments(t *testing.T) {
	appt := model.Appointment{
		ID:        "appt-1",
		StoreID:   "store-1",
		ServiceID: "svc-1",
		StaffID:   "staff-1",
		StartTime: time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 20, 9, 30, 0, 0, time.UTC),
		Status:    status.Pending,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "pending" {
			t.Fatalf("expected status filter, got %q", got)
		}
		if got := r.URL.Query().Get("staff_id"); got != "me" {
			t.Fatalf("expected forced staff id, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(pageResponse{
			Data:         []appointmentDTO{fromModel(appt)},
			Total:        1,
			TotalPages:   1,
			StatusCounts: map[string]int{"pending": 1},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	q := query.Compose("store-1", query.NewFilterState().WithStatus("pending"), query.Actor{Role: "staff", StaffID: "me"})
	page, err := c.ListAppointments(context.Background(), q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Data[0].ID != "appt-1" || page.Data[0].Status != status.Pending {
		t.Fatalf("unexpected appointment %+v", page.Data[0])
	}
	if page.StatusCounts["pending"] != 1 {
		t.Fatalf("unexpected status counts %v", page.StatusCounts)
	}
}

func TestListAppointments_DecodedInvariants(t *testing.T) {
	day := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	rows := []appointmentDTO{{
		ID:         "appt-1",
		Sequence:   7,
		StoreID:    "store-1",
		StartTime:  day.Format(time.RFC3339),
		EndTime:    day.Add(30 * time.Minute).Format(time.RFC3339),
		Status:     "pending",
		TotalPrice: 80,
		Deposit:    20,
	}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pageResponse{Data: rows, Total: 1, TotalPages: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	q := query.Compose("store-1", query.NewFilterState(), query.Actor{Role: "admin"})
	page, err := c.ListAppointments(context.Background(), q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := page.Data[0]
	if got.PublicNumber != "APT-000007" {
		t.Fatalf("missing public number should be derived from sequence, got %q", got.PublicNumber)
	}
	if got.Remaining != 60 {
		t.Fatalf("remaining should default to total minus deposit, got %v", got.Remaining)
	}

	// A row whose span is inverted fails the whole decode rather than
	// slipping into rendered views.
	rows[0].EndTime = day.Add(-time.Hour).Format(time.RFC3339)
	if _, err := c.ListAppointments(context.Background(), q); err == nil {
		t.Fatal("inverted span should be rejected")
	}
}

func TestCreateAppointment_SendsIdempotencyKey(t *testing.T) {
	appt := model.Appointment{
		ID:        "appt-1",
		StoreID:   "store-1",
		StartTime: time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 20, 9, 30, 0, 0, time.UTC),
		Status:    status.Pending,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Fatal("create must carry an idempotency key")
		}
		var in CreateAppointmentInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if in.ServiceID != "svc-1" {
			t.Fatalf("unexpected body %+v", in)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(fromModel(appt))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	got, err := c.CreateAppointment(context.Background(), "store-1", CreateAppointmentInput{
		ServiceID: "svc-1",
		StaffID:   "staff-1",
		StartTime: appt.StartTime.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != "appt-1" {
		t.Fatalf("unexpected appointment %+v", got)
	}
}

func TestUpdateAppointmentStatus_Body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/stores/store-1/appointments/appt-1/status" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body statusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "cancelled" || body.CancellationReason != "customer called" {
			t.Fatalf("unexpected body %+v", body)
		}
		appt := model.Appointment{
			ID:        "appt-1",
			StartTime: time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2026, 4, 20, 9, 30, 0, 0, time.UTC),
			Status:    status.Cancelled,
		}
		_ = json.NewEncoder(w).Encode(fromModel(appt))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	tr, err := status.Propose(status.Pending, status.TargetCancelled, status.Payload{CancellationReason: "customer called"})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	got, err := c.UpdateAppointmentStatus(context.Background(), "store-1", "appt-1", tr)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got.Status != status.Cancelled {
		t.Fatalf("unexpected status %s", got.Status)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("case") {
		case "missing":
			http.Error(w, "not found", http.StatusNotFound)
		case "conflict":
			http.Error(w, "slot taken", http.StatusConflict)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)

	if err := c.do(context.Background(), http.MethodGet, "/x?case=missing", nil, "", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.do(context.Background(), http.MethodGet, "/x?case=conflict", nil, "", nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := c.do(context.Background(), http.MethodGet, "/x?case=boom", nil, "", nil); err == nil {
		t.Fatal("expected error for 500")
	}
}
