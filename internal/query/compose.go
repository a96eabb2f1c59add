package query

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// MinSearchLength gates free-text search; shorter input is treated as
	// no search term at all.
	MinSearchLength = 2

	DefaultPageSize = 20
)

// Actor is the requesting user as resolved by the gateway.
type Actor struct {
	Role    string
	StaffID string
}

// Restricted reports whether the actor may only see their own appointments.
// The composer, not the view, enforces this so a filter reset cannot leak
// cross-staff data.
func (a Actor) Restricted() bool {
	switch strings.ToLower(strings.TrimSpace(a.Role)) {
	case "admin", "owner", "manager":
		return false
	}
	return true
}

// ComposedQuery is the single source of truth for one listing fetch: its
// cache key and its upstream request parameters both derive from it.
type ComposedQuery struct {
	StoreID   string
	Page      int
	Limit     int
	Status    string
	Search    string
	StartDate string
	EndDate   string
	StaffIDs  []string
	// StaffID is forced for restricted actors and overrides StaffIDs.
	StaffID string
}

// Compose merges filter state with the acting user's constraints.
func Compose(storeID string, f FilterState, actor Actor) ComposedQuery {
	q := ComposedQuery{
		StoreID: storeID,
		Page:    f.Page,
		Limit:   DefaultPageSize,
		Status:  f.Status,
		Search:  EffectiveSearch(f.Search),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Status == "" {
		q.Status = StatusAll
	}
	if !f.Range.Start.IsZero() {
		q.StartDate = f.Range.Start.Format(dateLayout)
	}
	if !f.Range.End.IsZero() {
		q.EndDate = f.Range.End.Format(dateLayout)
	}
	if actor.Restricted() {
		q.StaffID = actor.StaffID
	} else {
		q.StaffIDs = f.StaffIDs
	}
	return q
}

// EffectiveSearch trims the raw term and applies the minimum-length gate.
func EffectiveSearch(raw string) string {
	term := strings.TrimSpace(raw)
	if len(term) < MinSearchLength {
		return ""
	}
	return term
}

// CacheKey renders the canonical cache key for this query. Every listing key
// for a store lives under AppointmentsPrefix(store), so mutations can
// invalidate the whole family by prefix.
func (q ComposedQuery) CacheKey() string {
	var b strings.Builder
	b.WriteString(AppointmentsPrefix(q.StoreID))
	b.WriteString("p=")
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteString("&l=")
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteString("&st=")
	b.WriteString(q.Status)
	b.WriteString("&q=")
	b.WriteString(url.QueryEscape(q.Search))
	b.WriteString("&from=")
	b.WriteString(q.StartDate)
	b.WriteString("&to=")
	b.WriteString(q.EndDate)
	b.WriteString("&staff=")
	if q.StaffID != "" {
		b.WriteString(url.QueryEscape(q.StaffID))
	} else {
		b.WriteString(url.QueryEscape(strings.Join(q.StaffIDs, ",")))
	}
	return b.String()
}

// StaffScope is the staff dimension actually sent upstream. Cached views
// composed for different actors must never share a key, or a restricted
// staff member could be served another actor's rows.
func (q ComposedQuery) StaffScope() string {
	if q.StaffID != "" {
		return q.StaffID
	}
	if len(q.StaffIDs) > 0 {
		return strings.Join(q.StaffIDs, ",")
	}
	return "all"
}

// Params renders the upstream request parameters for the backend listing
// call.
func (q ComposedQuery) Params() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Status != "" && q.Status != StatusAll {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	if q.StaffID != "" {
		v.Set("staff_id", q.StaffID)
	} else if len(q.StaffIDs) > 0 {
		v.Set("staff_ids", strings.Join(q.StaffIDs, ","))
	}
	return v
}

// Cache key families. All views keyed by a store share the store segment so
// "invalidate everything this store sees" is a handful of prefix deletes.

func AppointmentsPrefix(storeID string) string {
	return "appointments:" + storeID + ":"
}

func CalendarPrefix(storeID string) string {
	return "calendar:" + storeID + ":"
}

func DashboardPrefix(storeID string) string {
	return "dashboard:" + storeID + ":"
}

// StorePrefixes lists every cached view family invalidated when a store's
// appointments change.
func StorePrefixes(storeID string) []string {
	return []string{
		AppointmentsPrefix(storeID),
		CalendarPrefix(storeID),
		DashboardPrefix(storeID),
	}
}

// CalendarKey is the cache key for a calendar range fetch. staffScope keeps
// an admin's cross-staff view and a restricted actor's own view apart.
func CalendarKey(storeID, view, startDate, endDate, staffScope string) string {
	return CalendarPrefix(storeID) + view + ":" + startDate + ":" + endDate + ":" + url.QueryEscape(staffScope)
}
