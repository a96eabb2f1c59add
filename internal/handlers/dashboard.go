// Package handlers exposes the dashboard HTTP surface. Reads go through the
// query cache; writes are forwarded to the booking backend and, on success,
// invalidate every cached view for the acting store.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/schedboard/internal/availability"
	"github.com/md-rashed-zaman/schedboard/internal/backend"
	"github.com/md-rashed-zaman/schedboard/internal/booking"
	"github.com/md-rashed-zaman/schedboard/internal/cache"
	"github.com/md-rashed-zaman/schedboard/internal/calendar"
	"github.com/md-rashed-zaman/schedboard/internal/model"
	"github.com/md-rashed-zaman/schedboard/internal/query"
	"github.com/md-rashed-zaman/schedboard/internal/status"
)

// Backend is the slice of the booking backend the dashboard needs.
type Backend interface {
	FetchSlots(ctx context.Context, in availability.Inputs) ([]model.AvailabilitySlot, error)
	ListAppointments(ctx context.Context, q query.ComposedQuery) (model.AppointmentPage, error)
	GetAppointment(ctx context.Context, storeID, id string) (model.Appointment, error)
	CreateAppointment(ctx context.Context, storeID string, in backend.CreateAppointmentInput) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, storeID, id string, in backend.UpdateAppointmentInput) (model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, storeID, id string, tr status.Transition) (model.Appointment, error)
	DeleteAppointment(ctx context.Context, storeID, id string) error
	GetCatalog(ctx context.Context, storeID string) (booking.Catalog, error)
}

const (
	listCacheTTL     = 60 * time.Second
	calendarCacheTTL = 60 * time.Second
	catalogCacheTTL  = 5 * time.Minute

	// calendarFetchLimit bounds a single range fetch; a store busier than
	// this within one view window renders a truncated calendar.
	calendarFetchLimit = 500
)

type DashboardHandler struct {
	backend  Backend
	cache    cache.Cache
	resolver *availability.Resolver
	logger   *slog.Logger
}

func NewDashboardHandler(b Backend, c cache.Cache, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		backend:  b,
		cache:    c,
		resolver: availability.NewResolver(b),
		logger:   logger,
	}
}

type appointmentItem struct {
	ID                 string   `json:"id"`
	PublicNumber       string   `json:"public_number,omitempty"`
	ServiceID          string   `json:"service_id"`
	StaffID            string   `json:"staff_id"`
	CustomerID         string   `json:"customer_id"`
	LocationID         *string  `json:"location_id,omitempty"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	Status             string   `json:"status"`
	SelectableTargets  []string `json:"selectable_targets"`
	TotalPrice         float64  `json:"total_price"`
	Deposit            float64  `json:"deposit"`
	Remaining          float64  `json:"remaining"`
	Paid               bool     `json:"paid"`
	Notes              string   `json:"notes,omitempty"`
	InternalNotes      string   `json:"internal_notes,omitempty"`
	CancellationReason string   `json:"cancellation_reason,omitempty"`
	CreatedAt          string   `json:"created_at,omitempty"`
}

func toItem(a model.Appointment) appointmentItem {
	targets := status.SelectableTargets(a.Status)
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, string(t))
	}
	item := appointmentItem{
		ID:                 a.ID,
		PublicNumber:       a.PublicNumber,
		ServiceID:          a.ServiceID,
		StaffID:            a.StaffID,
		CustomerID:         a.CustomerID,
		LocationID:         a.LocationID,
		StartTime:          a.StartTime.UTC().Format(time.RFC3339),
		EndTime:            a.EndTime.UTC().Format(time.RFC3339),
		Status:             string(a.Status),
		SelectableTargets:  names,
		TotalPrice:         a.TotalPrice,
		Deposit:            a.Deposit,
		Remaining:          a.Remaining,
		Paid:               a.Paid,
		Notes:              a.Notes,
		InternalNotes:      a.InternalNotes,
		CancellationReason: a.CancellationReason,
	}
	if !a.CreatedAt.IsZero() {
		item.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

type listResponse struct {
	Data         []appointmentItem `json:"data"`
	Page         int               `json:"page"`
	Total        int               `json:"total"`
	TotalPages   int               `json:"total_pages"`
	StatusCounts map[string]int    `json:"status_counts"`
}

// Appointments serves GET (filtered listing) and POST (create) on the
// collection path.
func (h *DashboardHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DashboardHandler) list(w http.ResponseWriter, r *http.Request) {
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	filters := query.DecodeQuery(r.URL.Query())
	q := query.Compose(storeID, filters, actorFrom(r))
	key := q.CacheKey()

	if body, found, err := h.cache.Get(r.Context(), key); err == nil && found {
		writeRawJSON(w, http.StatusOK, body)
		return
	} else if err != nil {
		h.logger.Warn("cache read failed", "err", err, "key", key)
	}

	page, err := h.backend.ListAppointments(r.Context(), q)
	if err != nil {
		h.logger.Error("listing fetch failed", "err", err, "store_id", storeID)
		http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		return
	}

	resp := listResponse{
		Data:         make([]appointmentItem, 0, len(page.Data)),
		Page:         q.Page,
		Total:        page.Total,
		TotalPages:   page.TotalPages,
		StatusCounts: page.StatusCounts,
	}
	for _, a := range page.Data {
		resp.Data = append(resp.Data, toItem(a))
	}

	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if err := h.cache.Set(r.Context(), key, body, listCacheTTL); err != nil {
		h.logger.Warn("cache write failed", "err", err, "key", key)
	}
	writeRawJSON(w, http.StatusOK, body)
}

type calendarDay struct {
	Date         string            `json:"date"`
	InMonth      bool              `json:"in_month"`
	Appointments []appointmentItem `json:"appointments"`
}

type calendarResponse struct {
	View  string        `json:"view"`
	Date  string        `json:"date"`
	Start string        `json:"start"`
	End   string        `json:"end"`
	Days  []calendarDay `json:"days"`
}

// Calendar serves the month, week or day grid around a reference date.
func (h *DashboardHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	mode, ok := calendar.ParseViewMode(strings.TrimSpace(r.URL.Query().Get("view")))
	if !ok {
		http.Error(w, "view must be month, week or day", http.StatusBadRequest)
		return
	}
	ref := calendar.Today(time.Now())
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		ref = parsed
	}

	start, end := calendar.Bounds(ref, mode)
	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")

	filters := query.NewFilterState().WithRange(query.DateRange{Start: start, End: end})
	q := query.Compose(storeID, filters, actorFrom(r))
	q.Limit = calendarFetchLimit
	key := query.CalendarKey(storeID, string(mode), startStr, endStr, q.StaffScope())

	if body, found, err := h.cache.Get(r.Context(), key); err == nil && found {
		writeRawJSON(w, http.StatusOK, body)
		return
	} else if err != nil {
		h.logger.Warn("cache read failed", "err", err, "key", key)
	}

	page, err := h.backend.ListAppointments(r.Context(), q)
	if err != nil {
		h.logger.Error("calendar fetch failed", "err", err, "store_id", storeID)
		http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		return
	}

	grouped := calendar.GroupByDay(page.Data)
	days := calendar.Days(ref, mode)
	resp := calendarResponse{
		View:  string(mode),
		Date:  ref.Format("2006-01-02"),
		Start: startStr,
		End:   endStr,
		Days:  make([]calendarDay, 0, len(days)),
	}
	for _, d := range days {
		appts := grouped[calendar.DateKey(d.Date)]
		items := make([]appointmentItem, 0, len(appts))
		for _, a := range appts {
			items = append(items, toItem(a))
		}
		resp.Days = append(resp.Days, calendarDay{
			Date:         d.Date.Format("2006-01-02"),
			InMonth:      d.InMonth,
			Appointments: items,
		})
	}

	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if err := h.cache.Set(r.Context(), key, body, calendarCacheTTL); err != nil {
		h.logger.Warn("cache write failed", "err", err, "key", key)
	}
	writeRawJSON(w, http.StatusOK, body)
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type availabilityResult struct {
	State string     `json:"state"`
	Slots []slotItem `json:"slots"`
}

// Availability resolves bookable slots for the service/staff/date the form
// has selected so far. Incomplete inputs return not_ready rather than an
// error so the form can poll as fields are filled.
func (h *DashboardHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	qs := r.URL.Query()
	in := availability.Inputs{
		StoreID:              storeID,
		ServiceID:            strings.TrimSpace(qs.Get("service_id")),
		StaffID:              strings.TrimSpace(qs.Get("staff_id")),
		LocationID:           strings.TrimSpace(qs.Get("location_id")),
		ExcludeAppointmentID: strings.TrimSpace(qs.Get("exclude_appointment_id")),
	}
	if raw := strings.TrimSpace(qs.Get("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		in.Date = parsed
	}

	res := h.resolver.Resolve(r.Context(), in)
	if res.State == availability.StateFailed {
		h.logger.Error("availability fetch failed", "err", res.Err, "store_id", storeID)
		writeJSON(w, http.StatusBadGateway, availabilityResult{State: res.State.String(), Slots: []slotItem{}})
		return
	}

	out := availabilityResult{State: res.State.String(), Slots: make([]slotItem, 0, len(res.Slots))}
	for _, s := range res.Slots {
		out.Slots = append(out.Slots, slotItem{
			StartTime: s.StartTime.UTC().Format(time.RFC3339),
			EndTime:   s.EndTime.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type formStateRequest struct {
	ServiceID  string `json:"service_id"`
	LocationID string `json:"location_id"`
	StaffID    string `json:"staff_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
}

type formStateResponse struct {
	ServiceID         string   `json:"service_id"`
	LocationID        string   `json:"location_id"`
	StaffID           string   `json:"staff_id"`
	Date              string   `json:"date"`
	Start             string   `json:"start"`
	EligibleLocations []string `json:"eligible_locations"`
	EligibleStaff     []string `json:"eligible_staff"`
	Complete          bool     `json:"complete"`
}

// FormState normalizes the booking form's selection against the store's
// catalog: downstream fields that the current upstream choices no longer
// support are cleared, and the remaining eligible options are returned.
func (h *DashboardHandler) FormState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	var req formStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	sel := booking.Selection{
		ServiceID:  strings.TrimSpace(req.ServiceID),
		LocationID: strings.TrimSpace(req.LocationID),
		StaffID:    strings.TrimSpace(req.StaffID),
	}
	if raw := strings.TrimSpace(req.Date); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		sel.Date = parsed
	}
	if raw := strings.TrimSpace(req.Start); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid start", http.StatusBadRequest)
			return
		}
		sel.Start = parsed
	}

	catalog, err := h.catalog(r.Context(), storeID)
	if err != nil {
		h.logger.Error("catalog fetch failed", "err", err, "store_id", storeID)
		http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		return
	}

	sel = catalog.Normalize(sel)
	resp := formStateResponse{
		ServiceID:         sel.ServiceID,
		LocationID:        sel.LocationID,
		StaffID:           sel.StaffID,
		EligibleLocations: catalog.EligibleLocations(sel.ServiceID),
		EligibleStaff:     catalog.EligibleStaff(sel.ServiceID, sel.LocationID),
		Complete:          sel.Complete(),
	}
	if !sel.Date.IsZero() {
		resp.Date = sel.Date.Format("2006-01-02")
	}
	if !sel.Start.IsZero() {
		resp.Start = sel.Start.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// catalog reads the store catalog through the cache. The entry lives under
// the dashboard prefix, so appointment events refresh it along with the
// views.
func (h *DashboardHandler) catalog(ctx context.Context, storeID string) (booking.Catalog, error) {
	key := query.DashboardPrefix(storeID) + "catalog"
	if body, found, err := h.cache.Get(ctx, key); err == nil && found {
		var c booking.Catalog
		if err := json.Unmarshal(body, &c); err == nil {
			return c, nil
		}
	}

	c, err := h.backend.GetCatalog(ctx, storeID)
	if err != nil {
		return booking.Catalog{}, err
	}
	if body, err := json.Marshal(c); err == nil {
		if err := h.cache.Set(ctx, key, body, catalogCacheTTL); err != nil {
			h.logger.Warn("cache write failed", "err", err, "key", key)
		}
	}
	return c, nil
}

type createAppointmentRequest struct {
	CustomerID    string   `json:"customer_id"`
	ServiceID     string   `json:"service_id"`
	StaffID       string   `json:"staff_id"`
	LocationID    *string  `json:"location_id"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	TotalPrice    float64  `json:"total_price"`
	Deposit       float64  `json:"deposit"`
	Remaining     *float64 `json:"remaining"`
	Notes         string   `json:"notes"`
	InternalNotes string   `json:"internal_notes"`
}

func (h *DashboardHandler) create(w http.ResponseWriter, r *http.Request) {
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.StaffID = strings.TrimSpace(req.StaffID)
	if req.CustomerID == "" || req.ServiceID == "" || req.StaffID == "" {
		http.Error(w, "customer_id, service_id and staff_id required", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	if req.EndTime != "" {
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			http.Error(w, "invalid end_time", http.StatusBadRequest)
			return
		}
		if !end.After(start) {
			http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
			return
		}
	}
	if req.Deposit < 0 || req.TotalPrice < 0 || req.Deposit > req.TotalPrice {
		http.Error(w, "deposit must be between 0 and total_price", http.StatusBadRequest)
		return
	}

	appt, err := h.backend.CreateAppointment(r.Context(), storeID, backend.CreateAppointmentInput{
		CustomerID:    req.CustomerID,
		ServiceID:     req.ServiceID,
		StaffID:       req.StaffID,
		LocationID:    req.LocationID,
		StartTime:     start.UTC().Format(time.RFC3339),
		EndTime:       req.EndTime,
		TotalPrice:    req.TotalPrice,
		Deposit:       req.Deposit,
		Remaining:     req.Remaining,
		Notes:         strings.TrimSpace(req.Notes),
		InternalNotes: strings.TrimSpace(req.InternalNotes),
	})
	if err != nil {
		if errors.Is(err, backend.ErrConflict) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		h.logger.Error("create failed", "err", err, "store_id", storeID)
		http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		return
	}

	h.invalidateStore(r.Context(), storeID)
	writeJSON(w, http.StatusCreated, toItem(appt))
}

type statusChangeRequest struct {
	AppointmentID      string `json:"appointment_id"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason"`
	InternalNotes      string `json:"internal_notes"`
}

// Status applies a lifecycle transition. The target is validated against the
// appointment's current status before anything is sent to the backend.
func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	target, err := status.ParseTarget(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := h.backend.GetAppointment(r.Context(), storeID, req.AppointmentID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load for status change failed", "err", err, "store_id", storeID)
		http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		return
	}

	tr, err := status.Propose(current.Status, target, status.Payload{
		CancellationReason: req.CancellationReason,
		InternalNotes:      req.InternalNotes,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	appt, err := h.backend.UpdateAppointmentStatus(r.Context(), storeID, req.AppointmentID, tr)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, backend.ErrConflict):
			http.Error(w, "appointment changed concurrently", http.StatusConflict)
		default:
			h.logger.Error("status change failed", "err", err, "store_id", storeID)
			http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		}
		return
	}

	h.invalidateStore(r.Context(), storeID)
	writeJSON(w, http.StatusOK, toItem(appt))
}

type updateAppointmentRequest struct {
	AppointmentID string   `json:"appointment_id"`
	ServiceID     *string  `json:"service_id"`
	StaffID       *string  `json:"staff_id"`
	LocationID    *string  `json:"location_id"`
	StartTime     *string  `json:"start_time"`
	EndTime       *string  `json:"end_time"`
	TotalPrice    *float64 `json:"total_price"`
	Deposit       *float64 `json:"deposit"`
	Paid          *bool    `json:"paid"`
	Notes         *string  `json:"notes"`
}

// Update forwards a partial edit. Only fields present in the body change.
func (h *DashboardHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	for _, raw := range []*string{req.StartTime, req.EndTime} {
		if raw == nil {
			continue
		}
		if _, err := time.Parse(time.RFC3339, *raw); err != nil {
			http.Error(w, "times must be RFC 3339", http.StatusBadRequest)
			return
		}
	}

	appt, err := h.backend.UpdateAppointment(r.Context(), storeID, req.AppointmentID, backend.UpdateAppointmentInput{
		ServiceID:  req.ServiceID,
		StaffID:    req.StaffID,
		LocationID: req.LocationID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TotalPrice: req.TotalPrice,
		Deposit:    req.Deposit,
		Paid:       req.Paid,
		Notes:      req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, backend.ErrConflict):
			http.Error(w, "time slot already booked", http.StatusConflict)
		default:
			h.logger.Error("update failed", "err", err, "store_id", storeID)
			http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		}
		return
	}

	h.invalidateStore(r.Context(), storeID)
	writeJSON(w, http.StatusOK, toItem(appt))
}

type deleteAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type deleteAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Deleted       bool   `json:"deleted"`
}

func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	storeID, ok := h.storeID(w, r)
	if !ok {
		return
	}

	var req deleteAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	if err := h.backend.DeleteAppointment(r.Context(), storeID, req.AppointmentID); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete failed", "err", err, "store_id", storeID)
		http.Error(w, "booking backend unavailable", http.StatusBadGateway)
		return
	}

	h.invalidateStore(r.Context(), storeID)
	writeJSON(w, http.StatusOK, deleteAppointmentResponse{AppointmentID: req.AppointmentID, Deleted: true})
}

// Register wires every dashboard route onto the mux.
func (h *DashboardHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/appointments", h.Appointments)
	mux.HandleFunc("/api/v1/appointments/status", h.Status)
	mux.HandleFunc("/api/v1/appointments/update", h.Update)
	mux.HandleFunc("/api/v1/appointments/delete", h.Delete)
	mux.HandleFunc("/api/v1/appointments/calendar", h.Calendar)
	mux.HandleFunc("/api/v1/availability", h.Availability)
	mux.HandleFunc("/api/v1/booking-form", h.FormState)
}

func (h *DashboardHandler) storeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	storeID := strings.TrimSpace(r.Header.Get("X-Store-Id"))
	if storeID == "" {
		http.Error(w, "X-Store-Id header required", http.StatusBadRequest)
		return "", false
	}
	return storeID, true
}

func actorFrom(r *http.Request) query.Actor {
	return query.Actor{
		Role:    strings.TrimSpace(r.Header.Get("X-Role")),
		StaffID: strings.TrimSpace(r.Header.Get("X-Staff-Id")),
	}
}

// invalidateStore drops every cached view family for the store. Failures are
// logged only; a stale entry expires on its own TTL.
func (h *DashboardHandler) invalidateStore(ctx context.Context, storeID string) {
	for _, prefix := range query.StorePrefixes(storeID) {
		if err := h.cache.InvalidateByPrefix(ctx, prefix); err != nil {
			h.logger.Warn("cache invalidation failed", "err", err, "prefix", prefix)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	writeRawJSON(w, code, body)
}

func writeRawJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
