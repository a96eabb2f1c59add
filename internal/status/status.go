package status

import "fmt"

// Status is the lifecycle state of an appointment.
type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
	NoShow    Status = "no_show"
	// Expired is assigned by the backend when an appointment lapses without
	// action. It is never a legal target of a manual transition.
	Expired Status = "expired"
)

func Parse(raw string) (Status, error) {
	switch Status(raw) {
	case Pending, Confirmed, Completed, Cancelled, NoShow, Expired:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown appointment status %q", raw)
}

// Terminal reports whether no further manual transition is permitted.
func (s Status) Terminal() bool {
	switch s {
	case Completed, Cancelled, NoShow, Expired:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// All lists every status the backend may report, in lifecycle order.
func All() []Status {
	return []Status{Pending, Confirmed, Completed, Cancelled, NoShow, Expired}
}
