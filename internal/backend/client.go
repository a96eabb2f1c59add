// Package backend is the HTTP client for the remote booking platform that
// owns all appointment data. The dashboard never caches its entities beyond
// the query-cache lifetime.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/schedboard/internal/availability"
	"github.com/md-rashed-zaman/schedboard/internal/booking"
	"github.com/md-rashed-zaman/schedboard/internal/model"
	"github.com/md-rashed-zaman/schedboard/internal/query"
	"github.com/md-rashed-zaman/schedboard/internal/status"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrNotFound = errors.New("appointment not found")
	ErrConflict = errors.New("appointment conflict")
)

type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		hc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// FetchSlots implements availability.Fetcher against the backend's
// availability endpoint. Slots come back in the backend's (chronological)
// order; the resolver filters them.
func (c *Client) FetchSlots(ctx context.Context, in availability.Inputs) ([]model.AvailabilitySlot, error) {
	params := url.Values{}
	params.Set("service_id", in.ServiceID)
	params.Set("staff_id", in.StaffID)
	params.Set("date", in.Date.Format("2006-01-02"))
	if in.LocationID != "" {
		params.Set("location_id", in.LocationID)
	}
	if in.ExcludeAppointmentID != "" {
		params.Set("exclude_appointment_id", in.ExcludeAppointmentID)
	}

	var resp availabilityResponse
	err := c.do(ctx, http.MethodGet, c.storePath(in.StoreID, "/availability")+"?"+params.Encode(), nil, "", &resp)
	if err != nil {
		return nil, err
	}
	slots := make([]model.AvailabilitySlot, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slot, err := s.toModel()
		if err != nil {
			return nil, fmt.Errorf("invalid slot in response: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ListAppointments runs a composed listing query.
func (c *Client) ListAppointments(ctx context.Context, q query.ComposedQuery) (model.AppointmentPage, error) {
	var resp pageResponse
	path := c.storePath(q.StoreID, "/appointments") + "?" + q.Params().Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return model.AppointmentPage{}, err
	}
	return resp.toModel()
}

func (c *Client) GetAppointment(ctx context.Context, storeID, id string) (model.Appointment, error) {
	var resp appointmentDTO
	if err := c.do(ctx, http.MethodGet, c.storePath(storeID, "/appointments/"+url.PathEscape(id)), nil, "", &resp); err != nil {
		return model.Appointment{}, err
	}
	return resp.toModel()
}

func (c *Client) CreateAppointment(ctx context.Context, storeID string, in CreateAppointmentInput) (model.Appointment, error) {
	var resp appointmentDTO
	err := c.do(ctx, http.MethodPost, c.storePath(storeID, "/appointments"), in, uuid.NewString(), &resp)
	if err != nil {
		return model.Appointment{}, err
	}
	return resp.toModel()
}

func (c *Client) UpdateAppointment(ctx context.Context, storeID, id string, in UpdateAppointmentInput) (model.Appointment, error) {
	var resp appointmentDTO
	path := c.storePath(storeID, "/appointments/"+url.PathEscape(id))
	if err := c.do(ctx, http.MethodPatch, path, in, "", &resp); err != nil {
		return model.Appointment{}, err
	}
	return resp.toModel()
}

// UpdateAppointmentStatus applies an approved transition. The reason and
// notes travel only when the engine carried them through.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, storeID, id string, tr status.Transition) (model.Appointment, error) {
	body := statusUpdateRequest{
		Status:             string(tr.To),
		CancellationReason: tr.CancellationReason,
		InternalNotes:      tr.InternalNotes,
	}
	var resp appointmentDTO
	path := c.storePath(storeID, "/appointments/"+url.PathEscape(id)+"/status")
	if err := c.do(ctx, http.MethodPut, path, body, "", &resp); err != nil {
		return model.Appointment{}, err
	}
	return resp.toModel()
}

// GetCatalog fetches the store's services and staff for the booking form.
func (c *Client) GetCatalog(ctx context.Context, storeID string) (booking.Catalog, error) {
	var resp catalogResponse
	if err := c.do(ctx, http.MethodGet, c.storePath(storeID, "/catalog"), nil, "", &resp); err != nil {
		return booking.Catalog{}, err
	}
	return resp.toCatalog(), nil
}

func (c *Client) DeleteAppointment(ctx context.Context, storeID, id string) error {
	return c.do(ctx, http.MethodDelete, c.storePath(storeID, "/appointments/"+url.PathEscape(id)), nil, "", nil)
}

// ReadyCheck probes the backend health endpoint for /readyz.
func (c *Client) ReadyCheck() func(context.Context) error {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
		if err != nil {
			return err
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("backend health returned %d", resp.StatusCode)
		}
		return nil
	}
}

func (c *Client) storePath(storeID, suffix string) string {
	return "/api/v1/stores/" + url.PathEscape(storeID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ availability.Fetcher = (*Client)(nil)
