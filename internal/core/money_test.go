package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got.Cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		123456: "1234.56",
		-1230:  "-12.30",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: expected %q, got %q", cents, want, got)
		}
	}
	if got := (Money{Cents: 1234}).Format(); got != "12.34 MT" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestPercentOf(t *testing.T) {
	cases := []struct {
		cents int64
		pct   string
		want  int64
		ok    bool
	}{
		{100000, "20", 20000, true},
		{100000, "0", 0, true},
		{100000, "100", 100000, true},
		{333, "50", 167, true}, // 166.5 rounds up
		{1001, "12.5", 125, true},
		{100, "-1", 0, false},
		{100, "100.01", 0, false},
	}
	for _, tc := range cases {
		got, err := PercentOf(Money{Cents: tc.cents}, decimal.RequireFromString(tc.pct))
		if tc.ok {
			if err != nil || got.Cents != tc.want {
				t.Fatalf("%d x %s%%: expected %d, got %d (err=%v)", tc.cents, tc.pct, tc.want, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%d x %s%%: expected error", tc.cents, tc.pct)
		}
	}
}
