package status

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxCancellationReasonLength = 500
	MaxInternalNotesLength      = 1000
)

var (
	ErrTerminalStatus    = errors.New("appointment status is terminal and cannot be changed")
	ErrSameStatus        = errors.New("appointment already has the requested status")
	ErrTransitionBlocked = errors.New("status transition not allowed")
	ErrReasonNotAllowed  = errors.New("cancellation reason only applies to cancelled or no-show transitions")
	ErrReasonTooLong     = fmt.Errorf("cancellation reason exceeds %d characters", MaxCancellationReasonLength)
	ErrNotesTooLong      = fmt.Errorf("internal notes exceed %d characters", MaxInternalNotesLength)
)

// Target is a status a user may manually transition an appointment to.
// There is deliberately no way to construct a Target for Expired; that state
// only ever arrives from the backend.
type Target struct {
	status Status
}

var (
	TargetConfirmed = Target{status: Confirmed}
	TargetCompleted = Target{status: Completed}
	TargetCancelled = Target{status: Cancelled}
	TargetNoShow    = Target{status: NoShow}
)

func ParseTarget(raw string) (Target, error) {
	switch Status(raw) {
	case Confirmed:
		return TargetConfirmed, nil
	case Completed:
		return TargetCompleted, nil
	case Cancelled:
		return TargetCancelled, nil
	case NoShow:
		return TargetNoShow, nil
	}
	return Target{}, fmt.Errorf("status %q is not a selectable target", raw)
}

func (t Target) Status() Status {
	return t.status
}

// Payload carries the optional side-data a user may attach to a transition.
type Payload struct {
	CancellationReason string
	InternalNotes      string
}

// Transition is an approved status change, ready to be sent to the backend.
// The reason is carried only when it survives trimming.
type Transition struct {
	From               Status
	To                 Status
	CancellationReason string
	InternalNotes      string
}

var allowed = map[Status][]Status{
	Pending:   {Confirmed, Cancelled, NoShow},
	Confirmed: {Completed, Cancelled, NoShow},
}

// SelectableTargets returns the legal manual targets from the given status,
// in lifecycle order. Terminal statuses have none.
func SelectableTargets(current Status) []Status {
	out := make([]Status, len(allowed[current]))
	copy(out, allowed[current])
	return out
}

// Propose validates a manual status change. It performs no I/O; callers apply
// the returned Transition against the backend and invalidate cached views on
// success. On error the caller keeps the user's payload for retry.
func Propose(current Status, target Target, p Payload) (Transition, error) {
	to := target.Status()
	if to == "" {
		return Transition{}, fmt.Errorf("empty transition target")
	}
	if current.Terminal() {
		return Transition{}, ErrTerminalStatus
	}
	if current == to {
		return Transition{}, ErrSameStatus
	}
	if !targetAllowed(current, to) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrTransitionBlocked, current, to)
	}

	reason := strings.TrimSpace(p.CancellationReason)
	if reason != "" && to != Cancelled && to != NoShow {
		return Transition{}, ErrReasonNotAllowed
	}
	if utf8.RuneCountInString(reason) > MaxCancellationReasonLength {
		return Transition{}, ErrReasonTooLong
	}

	notes := strings.TrimSpace(p.InternalNotes)
	if utf8.RuneCountInString(notes) > MaxInternalNotesLength {
		return Transition{}, ErrNotesTooLong
	}

	return Transition{
		From:               current,
		To:                 to,
		CancellationReason: reason,
		InternalNotes:      notes,
	}, nil
}

func targetAllowed(current, to Status) bool {
	for _, s := range allowed[current] {
		if s == to {
			return true
		}
	}
	return false
}
