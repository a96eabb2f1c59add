// Package availability resolves bookable time slots for a
// (service, staff, date) selection against the remote booking backend.
package availability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/md-rashed-zaman/schedboard/internal/model"
)

// Inputs is the full tuple a slot fetch is keyed by. ExcludeAppointmentID is
// set when editing so the appointment does not conflict with itself.
type Inputs struct {
	StoreID              string
	ServiceID            string
	StaffID              string
	Date                 time.Time
	LocationID           string
	ExcludeAppointmentID string
}

// Resolvable reports whether a fetch may be issued at all. Service, staff and
// date are all required; until then the state is "not yet resolvable", which
// is distinct from "no availability found".
func (in Inputs) Resolvable() bool {
	return strings.TrimSpace(in.ServiceID) != "" &&
		strings.TrimSpace(in.StaffID) != "" &&
		!in.Date.IsZero()
}

// Key canonically identifies the input tuple. Responses are matched back to
// their inputs by this key, so a reply to a superseded tuple can be thrown
// away no matter when it arrives.
func (in Inputs) Key() string {
	return strings.Join([]string{
		in.StoreID,
		in.ServiceID,
		in.StaffID,
		in.Date.Format("2006-01-02"),
		in.LocationID,
		in.ExcludeAppointmentID,
	}, "|")
}

// Fetcher is the remote collaborator returning candidate slots.
type Fetcher interface {
	FetchSlots(ctx context.Context, in Inputs) ([]model.AvailabilitySlot, error)
}

type State int

const (
	// StateNotReady: service, staff or date still missing; no fetch issued.
	StateNotReady State = iota
	// StateLoaded: at least one available slot.
	StateLoaded
	// StateEmpty: fetch succeeded, nothing available.
	StateEmpty
	// StateFailed: the fetch itself failed; time selection must be disabled
	// rather than treated as "no availability".
	StateFailed
	// StateSuperseded: the inputs changed while this fetch was in flight;
	// the result must be discarded.
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StateNotReady:
		return "not_ready"
	case StateLoaded:
		return "loaded"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	case StateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of one resolve pass. Slots holds only the
// candidates marked available, in the order the backend returned them.
type Resolution struct {
	State  State
	Inputs Inputs
	Slots  []model.AvailabilitySlot
	Err    error
}

// Resolver serializes slot fetches so that the last-issued inputs win. A
// response whose inputs are no longer current is discarded even when it
// arrives after a newer request completed.
type Resolver struct {
	fetcher Fetcher

	mu         sync.Mutex
	currentKey string
}

func NewResolver(f Fetcher) *Resolver {
	return &Resolver{fetcher: f}
}

func (r *Resolver) Resolve(ctx context.Context, in Inputs) Resolution {
	if !in.Resolvable() {
		return Resolution{State: StateNotReady, Inputs: in}
	}

	key := in.Key()
	r.mu.Lock()
	r.currentKey = key
	r.mu.Unlock()

	slots, err := r.fetcher.FetchSlots(ctx, in)

	r.mu.Lock()
	stale := r.currentKey != key
	r.mu.Unlock()
	if stale {
		return Resolution{State: StateSuperseded, Inputs: in}
	}

	if err != nil {
		return Resolution{State: StateFailed, Inputs: in, Err: err}
	}

	open := make([]model.AvailabilitySlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return Resolution{State: StateEmpty, Inputs: in}
	}
	return Resolution{State: StateLoaded, Inputs: in, Slots: open}
}

// SelectStart decides the time field after a resolution: a previously chosen
// time survives if the new slot set still offers it (edit mode pre-seeds
// this way), otherwise the first available slot is picked, and the field is
// cleared when nothing is selectable.
func (res Resolution) SelectStart(previous time.Time) (time.Time, bool) {
	if res.State != StateLoaded {
		return time.Time{}, false
	}
	if !previous.IsZero() {
		for _, s := range res.Slots {
			if s.StartTime.Equal(previous) {
				return previous, true
			}
		}
	}
	return res.Slots[0].StartTime, true
}
