package domain

import (
	"testing"
	"time"
)

func TestValidateStatusChange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"draft to open", StatusDraft, StatusOpen, false},
		{"draft to rejected", StatusDraft, StatusRejected, false},
		{"open to accepted", StatusOpen, StatusAccepted, false},
		{"open to superseded", StatusOpen, StatusSuperseded, false},
		{"open to expired", StatusOpen, StatusExpired, false},
		{"same status", StatusOpen, StatusOpen, false},
		{"draft straight to accepted", StatusDraft, StatusAccepted, true},
		{"accepted is terminal", StatusAccepted, StatusOpen, true},
		{"rejected is terminal", StatusRejected, StatusDraft, true},
		{"superseded is terminal", StatusSuperseded, StatusOpen, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatusChange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStatusChange(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{StatusAccepted, StatusRejected, StatusExpired, StatusSuperseded} {
		if !IsTerminalStatus(status) {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []string{StatusDraft, StatusOpen} {
		if IsTerminalStatus(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestStampStatusDates(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("open stamps sent and expiration", func(t *testing.T) {
		sent, expiration, closed := StampStatusDates(StatusOpen, nil, nil, nil, now, 30)
		if sent == nil || !sent.Equal(now) {
			t.Fatalf("sent = %v, want %v", sent, now)
		}
		wantExp := now.AddDate(0, 0, 30)
		if expiration == nil || !expiration.Equal(wantExp) {
			t.Fatalf("expiration = %v, want %v", expiration, wantExp)
		}
		if closed != nil {
			t.Fatalf("closed should remain nil, got %v", closed)
		}
	})

	t.Run("terminal stamps closed", func(t *testing.T) {
		for _, status := range []string{StatusAccepted, StatusRejected, StatusExpired, StatusSuperseded} {
			_, _, closed := StampStatusDates(status, nil, nil, nil, now, 30)
			if closed == nil || !closed.Equal(now) {
				t.Fatalf("%s: closed = %v, want %v", status, closed, now)
			}
		}
	})

	t.Run("already-set dates survive", func(t *testing.T) {
		earlier := now.AddDate(0, 0, -7)
		sent, expiration, _ := StampStatusDates(StatusOpen, &earlier, &earlier, nil, now, 30)
		if !sent.Equal(earlier) {
			t.Fatalf("sent was overwritten: %v", sent)
		}
		if !expiration.Equal(earlier) {
			t.Fatalf("expiration was overwritten: %v", expiration)
		}
	})
}
