package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/schedboard/internal/status"
)

type Appointment struct {
	ID                 string
	PublicNumber       string
	StoreID            string
	ServiceID          string
	StaffID            string
	CustomerID         string
	LocationID         *string
	StartTime          time.Time
	EndTime            time.Time
	Status             status.Status
	TotalPrice         float64
	Deposit            float64
	Remaining          float64
	Paid               bool
	Notes              string
	InternalNotes      string
	CancellationReason string
	FeedbackID         *string
	Attachments        []string
	CreatedAt          time.Time
}

// AvailabilitySlot is a candidate interval for a (service, staff, date) triple.
// Slots are fetched fresh on every input change and never persisted.
type AvailabilitySlot struct {
	StartTime time.Time
	EndTime   time.Time
	Available bool
}

// AppointmentPage is one page of a filtered appointment listing.
type AppointmentPage struct {
	Data         []Appointment
	Total        int
	TotalPages   int
	StatusCounts map[string]int
}

var ErrInvalidSpan = errors.New("appointment end must be after start")

// Validate checks structural invariants the remote store also enforces.
// Remaining defaults to total minus deposit unless explicitly overridden.
func (a *Appointment) Validate() error {
	if !a.EndTime.After(a.StartTime) {
		return ErrInvalidSpan
	}
	if a.Remaining == 0 && a.TotalPrice != a.Deposit {
		a.Remaining = a.TotalPrice - a.Deposit
	}
	return nil
}

// FormatPublicNumber renders the customer-facing appointment number. It is
// distinct from the internal identifier and safe to print on receipts.
func FormatPublicNumber(seq int64) string {
	return fmt.Sprintf("APT-%06d", seq)
}
