package backend

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/schedboard/internal/booking"
	"github.com/md-rashed-zaman/schedboard/internal/model"
	"github.com/md-rashed-zaman/schedboard/internal/status"
)

// CreateAppointmentInput is the create payload. The end time is derived by
// the backend from the service duration when omitted.
type CreateAppointmentInput struct {
	CustomerID    string   `json:"customer_id"`
	ServiceID     string   `json:"service_id"`
	StaffID       string   `json:"staff_id"`
	LocationID    *string  `json:"location_id,omitempty"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time,omitempty"`
	TotalPrice    float64  `json:"total_price"`
	Deposit       float64  `json:"deposit"`
	Remaining     *float64 `json:"remaining,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	InternalNotes string   `json:"internal_notes,omitempty"`
}

// UpdateAppointmentInput carries only the fields being changed.
type UpdateAppointmentInput struct {
	ServiceID  *string  `json:"service_id,omitempty"`
	StaffID    *string  `json:"staff_id,omitempty"`
	LocationID *string  `json:"location_id,omitempty"`
	StartTime  *string  `json:"start_time,omitempty"`
	EndTime    *string  `json:"end_time,omitempty"`
	TotalPrice *float64 `json:"total_price,omitempty"`
	Deposit    *float64 `json:"deposit,omitempty"`
	Paid       *bool    `json:"paid,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

type statusUpdateRequest struct {
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	InternalNotes      string `json:"internal_notes,omitempty"`
}

type availabilityResponse struct {
	Slots []slotDTO `json:"slots"`
}

type slotDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

func (s slotDTO) toModel() (model.AvailabilitySlot, error) {
	start, err := time.Parse(time.RFC3339, s.StartTime)
	if err != nil {
		return model.AvailabilitySlot{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, s.EndTime)
	if err != nil {
		return model.AvailabilitySlot{}, fmt.Errorf("end_time: %w", err)
	}
	return model.AvailabilitySlot{StartTime: start, EndTime: end, Available: s.Available}, nil
}

type appointmentDTO struct {
	ID                 string   `json:"id"`
	PublicNumber       string   `json:"public_number"`
	Sequence           int64    `json:"sequence,omitempty"`
	StoreID            string   `json:"store_id"`
	ServiceID          string   `json:"service_id"`
	StaffID            string   `json:"staff_id"`
	CustomerID         string   `json:"customer_id"`
	LocationID         *string  `json:"location_id,omitempty"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	Status             string   `json:"status"`
	TotalPrice         float64  `json:"total_price"`
	Deposit            float64  `json:"deposit"`
	Remaining          float64  `json:"remaining"`
	Paid               bool     `json:"paid"`
	Notes              string   `json:"notes,omitempty"`
	InternalNotes      string   `json:"internal_notes,omitempty"`
	CancellationReason string   `json:"cancellation_reason,omitempty"`
	FeedbackID         *string  `json:"feedback_id,omitempty"`
	Attachments        []string `json:"attachments,omitempty"`
	CreatedAt          string   `json:"created_at"`
}

func (d appointmentDTO) toModel() (model.Appointment, error) {
	start, err := time.Parse(time.RFC3339, d.StartTime)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s start_time: %w", d.ID, err)
	}
	end, err := time.Parse(time.RFC3339, d.EndTime)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s end_time: %w", d.ID, err)
	}
	st, err := status.Parse(d.Status)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", d.ID, err)
	}
	var created time.Time
	if d.CreatedAt != "" {
		created, err = time.Parse(time.RFC3339, d.CreatedAt)
		if err != nil {
			return model.Appointment{}, fmt.Errorf("appointment %s created_at: %w", d.ID, err)
		}
	}

	a := model.Appointment{
		ID:                 d.ID,
		PublicNumber:       d.PublicNumber,
		StoreID:            d.StoreID,
		ServiceID:          d.ServiceID,
		StaffID:            d.StaffID,
		CustomerID:         d.CustomerID,
		LocationID:         d.LocationID,
		StartTime:          start,
		EndTime:            end,
		Status:             st,
		TotalPrice:         d.TotalPrice,
		Deposit:            d.Deposit,
		Remaining:          d.Remaining,
		Paid:               d.Paid,
		Notes:              d.Notes,
		InternalNotes:      d.InternalNotes,
		CancellationReason: d.CancellationReason,
		FeedbackID:         d.FeedbackID,
		Attachments:        d.Attachments,
		CreatedAt:          created,
	}
	if a.PublicNumber == "" && d.Sequence > 0 {
		a.PublicNumber = model.FormatPublicNumber(d.Sequence)
	}
	if err := a.Validate(); err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", d.ID, err)
	}
	return a, nil
}

func fromModel(a model.Appointment) appointmentDTO {
	d := appointmentDTO{
		ID:                 a.ID,
		PublicNumber:       a.PublicNumber,
		StoreID:            a.StoreID,
		ServiceID:          a.ServiceID,
		StaffID:            a.StaffID,
		CustomerID:         a.CustomerID,
		LocationID:         a.LocationID,
		StartTime:          a.StartTime.UTC().Format(time.RFC3339),
		EndTime:            a.EndTime.UTC().Format(time.RFC3339),
		Status:             string(a.Status),
		TotalPrice:         a.TotalPrice,
		Deposit:            a.Deposit,
		Remaining:          a.Remaining,
		Paid:               a.Paid,
		Notes:              a.Notes,
		InternalNotes:      a.InternalNotes,
		CancellationReason: a.CancellationReason,
		FeedbackID:         a.FeedbackID,
		Attachments:        a.Attachments,
	}
	if !a.CreatedAt.IsZero() {
		d.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return d
}

type catalogResponse struct {
	Services []catalogServiceDTO `json:"services"`
	Staff    []catalogStaffDTO   `json:"staff"`
}

type catalogServiceDTO struct {
	ID              string   `json:"id"`
	DurationMinutes int      `json:"duration_minutes"`
	StaffIDs        []string `json:"staff_ids"`
	LocationIDs     []string `json:"location_ids"`
}

type catalogStaffDTO struct {
	ID          string   `json:"id"`
	LocationIDs []string `json:"location_ids"`
}

func (c catalogResponse) toCatalog() booking.Catalog {
	out := booking.Catalog{
		Services: make(map[string]booking.Service, len(c.Services)),
		Staff:    make(map[string]booking.Staff, len(c.Staff)),
	}
	for _, s := range c.Services {
		out.Services[s.ID] = booking.Service{
			ID:              s.ID,
			DurationMinutes: s.DurationMinutes,
			StaffIDs:        s.StaffIDs,
			LocationIDs:     s.LocationIDs,
		}
	}
	for _, s := range c.Staff {
		out.Staff[s.ID] = booking.Staff{ID: s.ID, LocationIDs: s.LocationIDs}
	}
	return out
}

type pageResponse struct {
	Data         []appointmentDTO `json:"data"`
	Total        int              `json:"total"`
	TotalPages   int              `json:"total_pages"`
	StatusCounts map[string]int   `json:"status_counts"`
}

func (p pageResponse) toModel() (model.AppointmentPage, error) {
	out := model.AppointmentPage{
		Data:         make([]model.Appointment, 0, len(p.Data)),
		Total:        p.Total,
		TotalPages:   p.TotalPages,
		StatusCounts: p.StatusCounts,
	}
	for _, d := range p.Data {
		a, err := d.toModel()
		if err != nil {
			return model.AppointmentPage{}, err
		}
		out.Data = append(out.Data, a)
	}
	return out, nil
}
