package service

import "testing"

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{20000, "200.00"},
		{12345, "123.45"},
		{-150, "-1.50"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.cents); got != tc.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"200.00", 20000, false},
		{"200", 20000, false},
		{"0.5", 50, false},
		{"0.05", 5, false},
		{".99", 99, false},
		{" 10.00 ", 1000, false},
		{"", 0, true},
		{"-5.00", 0, true},
		{"1.234", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) = %d, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestApplyDiscount(t *testing.T) {
	cases := []struct {
		amount     string
		percentage int
		want       string
		wantErr    bool
	}{
		{"200.00", 25, "150.00", false},
		{"200.00", 0, "200.00", false},
		{"200.00", 100, "0.00", false},
		// Fractions of a cent truncate toward zero.
		{"0.99", 50, "0.49", false},
		{"0.01", 50, "0.00", false},
		{"200.00", -1, "", true},
		{"200.00", 101, "", true},
		{"bogus", 10, "", true},
	}
	for _, tc := range cases {
		got, err := ApplyDiscount(tc.amount, tc.percentage)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ApplyDiscount(%q, %d) = %q, want error", tc.amount, tc.percentage, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ApplyDiscount(%q, %d) unexpected error: %v", tc.amount, tc.percentage, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ApplyDiscount(%q, %d) = %q, want %q", tc.amount, tc.percentage, got, tc.want)
		}
	}
}
