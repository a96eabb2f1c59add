package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/schedboard/internal/status"
)

const (
	// StatusAll disables status filtering.
	StatusAll = "all"

	dateLayout = "2006-01-02"
)

// DateRange is an inclusive date window. Zero times mean unset.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// FilterState is the page-local listing state. Any change to a non-page field
// resets the page cursor to 1; only the page itself survives its own updates.
type FilterState struct {
	Status   string
	Search   string
	Range    DateRange
	StaffIDs []string
	Page     int
}

func NewFilterState() FilterState {
	return FilterState{Status: StatusAll, Page: 1}
}

func (f FilterState) WithStatus(s string) FilterState {
	if _, err := status.Parse(s); err != nil {
		s = StatusAll
	}
	if s == f.Status {
		return f
	}
	f.Status = s
	f.Page = 1
	return f
}

func (f FilterState) WithSearch(term string) FilterState {
	if term == f.Search {
		return f
	}
	f.Search = term
	f.Page = 1
	return f
}

func (f FilterState) WithRange(r DateRange) FilterState {
	if r.Start.Equal(f.Range.Start) && r.End.Equal(f.Range.End) {
		return f
	}
	f.Range = r
	f.Page = 1
	return f
}

func (f FilterState) WithStaffIDs(ids []string) FilterState {
	normalized := normalizeIDs(ids)
	if strings.Join(normalized, ",") == strings.Join(f.StaffIDs, ",") {
		return f
	}
	f.StaffIDs = normalized
	f.Page = 1
	return f
}

func (f FilterState) WithPage(page int) FilterState {
	if page < 1 {
		page = 1
	}
	f.Page = page
	return f
}

// EncodeQuery mirrors the state into URL parameters so a reload or shared
// link reproduces the same filtered view. Defaults are omitted.
func (f FilterState) EncodeQuery() url.Values {
	v := url.Values{}
	if f.Status != "" && f.Status != StatusAll {
		v.Set("status", f.Status)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if !f.Range.Start.IsZero() {
		v.Set("start_date", f.Range.Start.Format(dateLayout))
	}
	if !f.Range.End.IsZero() {
		v.Set("end_date", f.Range.End.Format(dateLayout))
	}
	if len(f.StaffIDs) > 0 {
		v.Set("staff_ids", strings.Join(f.StaffIDs, ","))
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

// DecodeQuery rebuilds a FilterState from URL parameters. Unknown or
// malformed values fall back to defaults rather than erroring; a shared link
// should always load.
func DecodeQuery(v url.Values) FilterState {
	f := NewFilterState()

	if s := strings.TrimSpace(v.Get("status")); s != "" {
		if _, err := status.Parse(s); err == nil {
			f.Status = s
		}
	}
	f.Search = strings.TrimSpace(v.Get("search"))
	if d, err := time.Parse(dateLayout, v.Get("start_date")); err == nil {
		f.Range.Start = d
	}
	if d, err := time.Parse(dateLayout, v.Get("end_date")); err == nil {
		f.Range.End = d
	}
	if raw := strings.TrimSpace(v.Get("staff_ids")); raw != "" {
		f.StaffIDs = normalizeIDs(strings.Split(raw, ","))
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 1 {
		f.Page = n
	}
	return f
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
