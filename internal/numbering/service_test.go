package numbering

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)

func TestFormatNumberFullPattern(t *testing.T) {
	got := FormatNumber("JOB-{year}{month:02d}{day:02d}-{counter:04d}", 42, testNow)
	if got != "JOB-20260805-0042" {
		t.Fatalf("unexpected number: %s", got)
	}
}

func TestFormatNumberYearAndCounter(t *testing.T) {
	got := FormatNumber("EST-{year}-{counter:04d}", 7, testNow)
	if got != "EST-2026-0007" {
		t.Fatalf("unexpected number: %s", got)
	}
}

func TestFormatNumberEmptyPatternFallsBack(t *testing.T) {
	if got := FormatNumber("", 13, testNow); got != "0013" {
		t.Fatalf("expected 0013, got %s", got)
	}
}

func TestFormatNumberUnknownPlaceholderFallsBack(t *testing.T) {
	if got := FormatNumber("{quarter}-{counter:04d}", 5, testNow); got != "0005" {
		t.Fatalf("expected fallback 0005, got %s", got)
	}
}

func TestFormatNumberMissingCounterFallsBack(t *testing.T) {
	if got := FormatNumber("JOB-{year}", 5, testNow); got != "0005" {
		t.Fatalf("expected fallback 0005, got %s", got)
	}
}
