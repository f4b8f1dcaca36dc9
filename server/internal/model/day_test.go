package model

import (
	"errors"
	"testing"
	"time"
)

func TestDayBounds_UTC(t *testing.T) {
	start, end, err := DayBounds("2024-03-10", time.UTC)
	if err != nil {
		t.Fatalf("DayBounds: %v", err)
	}
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	if start != want {
		t.Fatalf("start: got %d want %d", start, want)
	}
	if end != want+86_399_999 {
		t.Fatalf("end: got %d want %d", end, want+86_399_999)
	}
}

func TestDayBounds_ZoneShiftsWindow(t *testing.T) {
	loc := time.FixedZone("UTC+4", 4*60*60)
	start, _, err := DayBounds("2024-03-10", loc)
	if err != nil {
		t.Fatalf("DayBounds: %v", err)
	}
	want := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC).UnixMilli()
	if start != want {
		t.Fatalf("start: got %d want %d", start, want)
	}
}

func TestDayBounds_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "10/03/2024", "2024-13-01", "yesterday"} {
		if _, _, err := DayBounds(in, time.UTC); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: expected ErrValidation, got %v", in, err)
		}
	}
}

func TestParseZone(t *testing.T) {
	// 02:00 in a +04:00 zone on 2024-03-10 is 2024-03-09T22:00Z.
	captured := time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC).UnixMilli()
	for _, tz := range []string{"+04:00", " 04:00", "Asia/Tbilisi"} {
		loc, err := ParseZone(tz)
		if err != nil {
			t.Fatalf("%q: %v", tz, err)
		}
		start, end, err := DayBounds("2024-03-10", loc)
		if err != nil {
			t.Fatalf("DayBounds: %v", err)
		}
		if captured < start || captured > end {
			t.Fatalf("%q: entry at %d outside [%d, %d]", tz, captured, start, end)
		}
	}
	loc, err := ParseZone("-05:30")
	if err != nil {
		t.Fatalf("negative offset: %v", err)
	}
	if _, off := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone(); off != -(5*3600 + 30*60) {
		t.Fatalf("offset: got %d", off)
	}
	for _, bad := range []string{"Local", "Mars/Olympus", "+4", "+25:00"} {
		if _, err := ParseZone(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: expected ErrValidation, got %v", bad, err)
		}
	}
}
