package query

import "time"

// DebounceDelay is how long a search input must be stable before it is
// propagated upstream.
const DebounceDelay = 400 * time.Millisecond

// Keystroke is one observed change of a rapidly-changing input.
type Keystroke struct {
	Value string
	At    time.Time
}

// DebouncedValue derives the settled value of an input stream at time now:
// the value of the most recent keystroke whose quiet period of length delay
// elapsed without a newer keystroke. Keystrokes superseded within their quiet
// period never fire, which models a timer being reset on every keystroke.
// Before any keystroke settles the derived value is empty.
func DebouncedValue(events []Keystroke, delay time.Duration, now time.Time) string {
	settled := ""
	for i, e := range events {
		fireAt := e.At.Add(delay)
		if fireAt.After(now) {
			break
		}
		if i+1 < len(events) && events[i+1].At.Before(fireAt) {
			continue
		}
		settled = e.Value
	}
	return settled
}
