package model

import "testing"

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"identical", "10:00", "12:00", "10:00", "12:00", true},
		{"contained", "10:00", "14:00", "11:00", "12:00", true},
		{"partial_left", "10:00", "12:00", "11:00", "13:00", true},
		{"partial_right", "11:00", "13:00", "10:00", "12:00", true},
		{"touching_after", "10:00", "12:00", "12:00", "14:00", false},
		{"touching_before", "12:00", "14:00", "10:00", "12:00", false},
		{"disjoint", "08:00", "09:00", "12:00", "14:00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("Overlaps(%s-%s, %s-%s) = %v, want %v",
					tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
			// The predicate must be symmetric.
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Errorf("Overlaps is not symmetric for %s-%s vs %s-%s",
					tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(BookingConfirmed) {
		t.Error("confirmed must not be terminal")
	}
	if !IsTerminal(BookingCancelled) || !IsTerminal(BookingCompleted) {
		t.Error("cancelled and completed must be terminal")
	}
}
