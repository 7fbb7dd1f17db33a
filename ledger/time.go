package ledger

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CLOCK MATH - "HH:MM" pairs to elapsed minutes
// =============================================================================

const minutesPerDay = 24 * 60

// clockMinutes parses an "HH:MM" local time into minutes since midnight.
// Returns false for empty or malformed input.
func clockMinutes(s string) (int, bool) {
	h, m, ok := splitClock(s)
	if !ok {
		return 0, false
	}
	return h*60 + m, true
}

func splitClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// ElapsedMinutes computes end-start in minutes for a clock pair.
//
// Either side empty (shift not worked) yields 0. A negative span wraps past
// midnight: 22:00 to 06:00 is 480 minutes. This is a deliberate contract,
// not a validation failure, and no upper bound is enforced.
func ElapsedMinutes(start, end string) int {
	startMin, ok := clockMinutes(start)
	if !ok {
		return 0
	}
	endMin, ok := clockMinutes(end)
	if !ok {
		return 0
	}
	if endMin < startMin {
		endMin += minutesPerDay
	}
	return endMin - startMin
}

// FormatMinutes renders a minute total as "HH:MM" for display and export.
func FormatMinutes(total int) string {
	return pad2(total/60) + ":" + pad2(total%60)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// =============================================================================
// CALENDAR HELPERS
// =============================================================================

// DaysInMonth returns every calendar day of the month as date keys, in order.
func DaysInMonth(year int, month time.Month) []DateKey {
	var keys []DateKey
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Month() == month {
		keys = append(keys, DateKey(d.Format("2006-01-02")))
		d = d.AddDate(0, 0, 1)
	}
	return keys
}

// IsWeekend reports whether the date key falls on a Saturday or Sunday.
func (k DateKey) IsWeekend() bool {
	t, err := k.Time()
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
