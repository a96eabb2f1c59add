package model

import (
	"errors"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	start := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)

	a := Appointment{StartTime: start, EndTime: start.Add(30 * time.Minute), TotalPrice: 50, Deposit: 10}
	if err := a.Validate(); err != nil {
		t.Fatalf("valid appointment rejected: %v", err)
	}
	if a.Remaining != 40 {
		t.Fatalf("remaining should default to total minus deposit, got %v", a.Remaining)
	}

	// An explicit remaining is never overwritten.
	a = Appointment{StartTime: start, EndTime: start.Add(30 * time.Minute), TotalPrice: 50, Deposit: 10, Remaining: 25}
	if err := a.Validate(); err != nil {
		t.Fatalf("valid appointment rejected: %v", err)
	}
	if a.Remaining != 25 {
		t.Fatalf("explicit remaining overwritten, got %v", a.Remaining)
	}

	a = Appointment{StartTime: start, EndTime: start}
	if err := a.Validate(); !errors.Is(err, ErrInvalidSpan) {
		t.Fatalf("zero-length appointment should fail with ErrInvalidSpan, got %v", err)
	}
	a = Appointment{StartTime: start, EndTime: start.Add(-time.Hour)}
	if err := a.Validate(); !errors.Is(err, ErrInvalidSpan) {
		t.Fatalf("inverted span should fail with ErrInvalidSpan, got %v", err)
	}
}

func TestFormatPublicNumber(t *testing.T) {
	if got := FormatPublicNumber(42); got != "APT-000042" {
		t.Fatalf("expected APT-000042, got %q", got)
	}
	if got := FormatPublicNumber(1234567); got != "APT-1234567" {
		t.Fatalf("expected APT-1234567, got %q", got)
	}
}
