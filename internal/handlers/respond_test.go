package handlers

import (
	"testing"
	"time"
)

func TestParseFlexibleDate(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		want     time.Time
		dateOnly bool
		ok       bool
	}{
		{"rfc3339", "2025-04-12T09:30:00Z", time.Date(2025, time.April, 12, 9, 30, 0, 0, time.UTC), false, true},
		{"no timezone", "2025-04-12T09:30:00", time.Date(2025, time.April, 12, 9, 30, 0, 0, time.UTC), false, true},
		{"date only", "2025-04-12", time.Date(2025, time.April, 12, 0, 0, 0, 0, time.UTC), true, true},
		{"midnight timestamp", "2025-04-12T00:00:00Z", time.Date(2025, time.April, 12, 0, 0, 0, 0, time.UTC), false, true},
		{"epoch millis", "1744450200000", time.UnixMilli(1744450200000).UTC(), false, true},
		{"empty", "", time.Time{}, false, false},
		{"blank", "   ", time.Time{}, false, false},
		{"prose", "next tuesday", time.Time{}, false, false},
		{"negative millis", "-5", time.Time{}, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, dateOnly, ok := parseFlexibleDate(tc.raw)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !ok {
				return
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if dateOnly != tc.dateOnly {
				t.Fatalf("expected dateOnly=%v, got %v", tc.dateOnly, dateOnly)
			}
		})
	}
}

func TestEndOfDay(t *testing.T) {
	midnight := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	widened := endOfDay(midnight)
	if widened.Day() != 31 || widened.Hour() != 23 || widened.Minute() != 59 || widened.Second() != 59 {
		t.Fatalf("expected the last instant of the day, got %v", widened)
	}
	if !widened.Before(midnight.Add(24 * time.Hour)) {
		t.Fatalf("widened bound must stay inside the day, got %v", widened)
	}
}
