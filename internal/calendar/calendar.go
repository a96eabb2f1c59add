package calendar

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/schedboard/internal/model"
)

// ViewMode selects the calendar granularity.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
	ViewDay   ViewMode = "day"
)

func ParseViewMode(raw string) (ViewMode, bool) {
	switch ViewMode(raw) {
	case ViewMonth, ViewWeek, ViewDay:
		return ViewMode(raw), true
	}
	return "", false
}

// Day is one cell of a rendered grid. InMonth is false for the leading and
// trailing days a month grid borrows from adjacent months.
type Day struct {
	Date    time.Time
	InMonth bool
}

// DateOf truncates t to its local calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday on or before d.
func startOfWeek(d time.Time) time.Time {
	d = DateOf(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthDays produces the whole visible grid for the month containing ref:
// full weeks from the Monday on or before the 1st through the Sunday on or
// after the last day.
func MonthDays(ref time.Time) []Day {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	last := first.AddDate(0, 1, -1)

	start := startOfWeek(first)
	end := startOfWeek(last).AddDate(0, 0, 6)

	var days []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{Date: d, InMonth: d.Month() == first.Month()})
	}
	return days
}

// WeekDays produces the seven days of the week containing ref, Monday first.
func WeekDays(ref time.Time) []Day {
	start := startOfWeek(ref)
	days := make([]Day, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, Day{Date: start.AddDate(0, 0, i), InMonth: true})
	}
	return days
}

// Days returns the dates to render for the given view.
func Days(ref time.Time, mode ViewMode) []Day {
	switch mode {
	case ViewWeek:
		return WeekDays(ref)
	case ViewDay:
		return []Day{{Date: DateOf(ref), InMonth: true}}
	default:
		return MonthDays(ref)
	}
}

// Bounds is the inclusive date range to request from the backend for a view.
// Month view spans the full visible grid so borrowed days are populated too.
func Bounds(ref time.Time, mode ViewMode) (time.Time, time.Time) {
	days := Days(ref, mode)
	return days[0].Date, days[len(days)-1].Date
}

// DateKey renders the calendar date of t for bucket lookups. Appointments
// arrive with whatever zone offset the backend emitted, so keys are plain
// date strings rather than time.Time values, which never compare equal
// across locations.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// GroupByDay buckets appointments by their start date, each bucket ordered
// by start time. The input slice is left untouched.
func GroupByDay(appointments []model.Appointment) map[string][]model.Appointment {
	buckets := make(map[string][]model.Appointment)
	for _, a := range appointments {
		day := DateKey(a.StartTime)
		buckets[day] = append(buckets[day], a)
	}
	for day, list := range buckets {
		sorted := make([]model.Appointment, len(list))
		copy(sorted, list)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StartTime.Before(sorted[j].StartTime)
		})
		buckets[day] = sorted
	}
	return buckets
}

// addMonths shifts ref by whole months, clamping the day to the target
// month's length. A bare AddDate would roll Jan 31 past February entirely.
func addMonths(ref time.Time, months int) time.Time {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	target := first.AddDate(0, months, 0)
	day := ref.Day()
	if last := target.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, ref.Location())
}

// Next advances ref by one unit of the view granularity.
func Next(ref time.Time, mode ViewMode) time.Time {
	switch mode {
	case ViewWeek:
		return ref.AddDate(0, 0, 7)
	case ViewDay:
		return ref.AddDate(0, 0, 1)
	default:
		return addMonths(ref, 1)
	}
}

// Prev moves ref back by one unit of the view granularity.
func Prev(ref time.Time, mode ViewMode) time.Time {
	switch mode {
	case ViewWeek:
		return ref.AddDate(0, 0, -7)
	case ViewDay:
		return ref.AddDate(0, 0, -1)
	default:
		return addMonths(ref, -1)
	}
}

// Today resets the reference to the current date.
func Today(now time.Time) time.Time {
	return DateOf(now)
}
