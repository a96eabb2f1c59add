// Package booking models the appointment form's cascading selection:
// service → location → staff → date → time, where each downstream field is
// only valid for the current upstream values.
package booking

import (
	"sort"
	"time"
)

// Service is a bookable offering with its eligible staff and locations.
type Service struct {
	ID              string
	DurationMinutes int
	StaffIDs        []string
	LocationIDs     []string
}

// Staff is a provider and the locations they work at.
type Staff struct {
	ID          string
	LocationIDs []string
}

// Catalog is a snapshot of the store's services and staff, fetched from the
// backend when the form opens. All eligibility questions are answered
// against it without further I/O.
type Catalog struct {
	Services map[string]Service
	Staff    map[string]Staff
}

// Selection is the form's current state. Start is zero until the
// availability resolver picks a slot.
type Selection struct {
	ServiceID  string
	LocationID string
	StaffID    string
	Date       time.Time
	Start      time.Time
}

func (c Catalog) service(id string) (Service, bool) {
	s, ok := c.Services[id]
	return s, ok
}

// ServiceHasStaff reports whether the staff member is assigned to the service.
func (c Catalog) ServiceHasStaff(serviceID, staffID string) bool {
	svc, ok := c.service(serviceID)
	if !ok {
		return false
	}
	return contains(svc.StaffIDs, staffID)
}

// ServiceHasLocation reports whether the location offers the service.
func (c Catalog) ServiceHasLocation(serviceID, locationID string) bool {
	svc, ok := c.service(serviceID)
	if !ok {
		return false
	}
	return contains(svc.LocationIDs, locationID)
}

// StaffAtLocation reports whether the staff member works at the location.
func (c Catalog) StaffAtLocation(staffID, locationID string) bool {
	st, ok := c.Staff[staffID]
	if !ok {
		return false
	}
	return contains(st.LocationIDs, locationID)
}

// EligibleLocations lists the locations offering a service, sorted.
func (c Catalog) EligibleLocations(serviceID string) []string {
	svc, ok := c.service(serviceID)
	if !ok {
		return nil
	}
	out := make([]string, len(svc.LocationIDs))
	copy(out, svc.LocationIDs)
	sort.Strings(out)
	return out
}

// EligibleStaff lists the staff who can deliver a service, narrowed to a
// location when one is chosen, sorted.
func (c Catalog) EligibleStaff(serviceID, locationID string) []string {
	svc, ok := c.service(serviceID)
	if !ok {
		return nil
	}
	var out []string
	for _, staffID := range svc.StaffIDs {
		if locationID != "" && !c.StaffAtLocation(staffID, locationID) {
			continue
		}
		out = append(out, staffID)
	}
	sort.Strings(out)
	return out
}

// Normalize re-validates every field against its ancestors and clears the
// ones no longer valid, walking the dependency chain top-down. It is pure
// and idempotent: re-running the same selection yields the same result.
// The time field is cleared whenever its upstream inputs change, because
// slot validity is only known after the next availability fetch.
func (c Catalog) Normalize(sel Selection) Selection {
	if sel.ServiceID != "" {
		if _, ok := c.service(sel.ServiceID); !ok {
			sel.ServiceID = ""
		}
	}

	if sel.LocationID != "" {
		if sel.ServiceID == "" || !c.ServiceHasLocation(sel.ServiceID, sel.LocationID) {
			sel.LocationID = ""
		}
	}

	if sel.StaffID != "" {
		valid := sel.ServiceID != "" && c.ServiceHasStaff(sel.ServiceID, sel.StaffID)
		if valid && sel.LocationID != "" {
			valid = c.StaffAtLocation(sel.StaffID, sel.LocationID)
		}
		if !valid {
			sel.StaffID = ""
		}
	}

	if sel.StaffID == "" || sel.ServiceID == "" || sel.Date.IsZero() {
		sel.Start = time.Time{}
	}
	return sel
}

// SetService changes the service and cascades: location and staff survive
// only if still eligible, and the chosen time is dropped for re-derivation.
func (c Catalog) SetService(sel Selection, serviceID string) Selection {
	if serviceID != sel.ServiceID {
		sel.Start = time.Time{}
	}
	sel.ServiceID = serviceID
	return c.Normalize(sel)
}

// SetLocation changes the location and clears staff no longer working there.
func (c Catalog) SetLocation(sel Selection, locationID string) Selection {
	sel.LocationID = locationID
	return c.Normalize(sel)
}

// SetStaff changes the staff member; the chosen time is dropped so the
// availability resolver can re-derive it for the new staff.
func (c Catalog) SetStaff(sel Selection, staffID string) Selection {
	if staffID != sel.StaffID {
		sel.Start = time.Time{}
	}
	sel.StaffID = staffID
	return c.Normalize(sel)
}

// SetDate changes the date and drops the chosen time.
func (c Catalog) SetDate(sel Selection, date time.Time) Selection {
	if !date.Equal(sel.Date) {
		sel.Start = time.Time{}
	}
	sel.Date = date
	return c.Normalize(sel)
}

// Complete reports whether the selection can be submitted. A missing slot
// blocks submission; this is how "no availability" stops the form.
func (sel Selection) Complete() bool {
	return sel.ServiceID != "" && sel.StaffID != "" && !sel.Date.IsZero() && !sel.Start.IsZero()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
