package model

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DateLayout is the calendar-date format accepted by the list endpoint.
const DateLayout = "2006-01-02"

// dayMillis is the width of a calendar day window minus one millisecond.
const dayMillis = 24*60*60*1000 - 1

// DayBounds returns the inclusive [start, end] millisecond window for the
// calendar date in loc. end is always start + 86_399_999, matching clients
// that compute the window the same way even across DST transitions.
func DayBounds(date string, loc *time.Location) (int64, int64, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc).UnixMilli()
	return start, start + dayMillis, nil
}

// ParseZone resolves the tz query value: an IANA name, or a UTC offset such as
// "+04:00" for callers whose zone has no name. "Local" is rejected because it
// would mean the service host's zone.
func ParseZone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if strings.HasPrefix(tz, "+") || strings.HasPrefix(tz, "-") || (len(tz) == 5 && tz[2] == ':') {
		// An unescaped '+' in a query string arrives as a space.
		if !strings.HasPrefix(tz, "-") && !strings.HasPrefix(tz, "+") {
			tz = "+" + tz
		}
		t, err := time.Parse("-07:00", tz)
		if err != nil {
			return nil, fmt.Errorf("%w: bad zone offset %q", ErrValidation, tz)
		}
		_, off := t.Zone()
		if off < -12*3600 || off > 14*3600 {
			return nil, fmt.Errorf("%w: zone offset %q out of range", ErrValidation, tz)
		}
		return time.FixedZone(tz, off), nil
	}
	if tz == "" || tz == "Local" {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrValidation, tz)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrValidation, tz)
	}
	return loc, nil
}
