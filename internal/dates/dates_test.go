package dates

import (
	"fmt"
	"testing"
	"time"
)

func TestParseISOExtraction(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "2024-01-15"},
		{"Event on 2024-01-15", "2024-01-15"},
		{`<time datetime="2024-01-15">January 15, 2024</time>`, "2024-01-15"},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if !ok || got != tt.want {
			t.Errorf("Parse(%q) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"January 15, 2024", "2024-01-15"},
		{"Jan 15, 2024", "2024-01-15"},
		{"1/15/2024", "2024-01-15"},
		{"01/15/2024", "2024-01-15"},
		{"15 January 2024", "2024-01-15"},
		{"15 Jan 2024", "2024-01-15"},
		{"playing January 15, 2024", "2024-01-15"},
		{"performed January 15, 2024", "2024-01-15"},
		{"concert January 15, 2024", "2024-01-15"},
		{"  January  15,  2024  ", "2024-01-15"},
		{"January 15th, 2024", "2024-01-15"},
		{"January 15th 2024", "2024-01-15"},
		{"January 1, 1900", "1900-01-01"},
		{"January 1, 2030", "2030-01-01"},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if !ok || got != tt.want {
			t.Errorf("Parse(%q) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}
}

func TestParseRejections(t *testing.T) {
	for _, in := range []string{"", "invalid date", "2024", "January", "upcoming", "January 15"} {
		if got, ok := Parse(in); ok {
			t.Errorf("Parse(%q) = %q, want rejection", in, got)
		}
	}
}

func TestValidateSanity(t *testing.T) {
	now := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		iso  string
		want bool
	}{
		{"2024-01-15", true},
		{"1900-01-01", true},
		{fmt.Sprintf("%d-06-01", now.Year()+2), true},
		{fmt.Sprintf("%d-06-01", now.Year()+3), false},
		{"1899-12-31", false},
		{"2024-13-01", false},
		{"2024-00-10", false},
		{"2024-01-32", false},
		{"2024-01-00", false},
		{"2024-02-31", true}, // no month-length cross-check
		{"garbage", false},
		{"2024-01", false},
	}
	for _, tt := range tests {
		if got := validateSanityAt(tt.iso, now); got != tt.want {
			t.Errorf("validateSanityAt(%q) = %v, want %v", tt.iso, got, tt.want)
		}
	}
}
