package resolver

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// NumericDate converts t to a fractional year, taking the middle of the day:
// year + (day_of_year - 0.5) / days_in_year.
func NumericDate(t time.Time) float64 {
	daysInYear := 365.0
	if isLeap(t.Year()) {
		daysInYear = 366.0
	}
	return float64(t.Year()) + (float64(t.YearDay())-0.5)/daysInYear
}

// NumericDate converts t, or today when t is the zero time.
func (r *Resolver) NumericDate(t time.Time) float64 {
	if t.IsZero() {
		t = r.today()
	}
	return NumericDate(t)
}

// ParseNumericDate converts a YYYY-MM-DD date, or today when s is empty.
// Unlike the rest of the resolver it does not fail: an unparsable date
// reports false.
func (r *Resolver) ParseNumericDate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return r.NumericDate(time.Time{}), true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, false
	}
	return NumericDate(t), true
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
