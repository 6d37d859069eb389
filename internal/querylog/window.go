package querylog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window selects records by age. The zero Window covers the whole log.
type Window struct {
	// Duration is how far back the window reaches; 0 means all time.
	Duration time.Duration
}

// All returns the all-time window.
func All() Window { return Window{} }

// Last returns a window covering the last d.
func Last(d time.Duration) Window { return Window{Duration: d} }

// IsAll reports whether the window is unbounded.
func (w Window) IsAll() bool { return w.Duration <= 0 }

// Since returns the oldest timestamp inside the window, or the zero time.
func (w Window) Since(now time.Time) time.Time {
	if w.IsAll() {
		return time.Time{}
	}
	return now.Add(-w.Duration)
}

// Contains reports whether t falls inside the window ending at now.
func (w Window) Contains(t, now time.Time) bool {
	return w.IsAll() || !t.Before(w.Since(now))
}

// String renders the window in the form accepted by ParseWindow.
func (w Window) String() string {
	if w.IsAll() {
		return "all"
	}
	if w.Duration%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", w.Duration/(24*time.Hour))
	}
	return w.Duration.String()
}

// ParseWindow parses "all", a Go duration ("24h", "90m") or a day count ("7d").
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "all":
		return All(), nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return Window{}, fmt.Errorf("invalid window %q", s)
		}
		return Last(time.Duration(n) * 24 * time.Hour), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	return Last(d), nil
}
