package workflow

import (
	"testing"
	"time"

	"fieldops_backend/platform/apperr"
)

var testTable = Transitions{
	"draft":     {"submitted", "rejected"},
	"submitted": {"approved", "rejected"},
	"approved":  {"completed", "cancelled"},
}

func TestValidateTransitionAllowsListedMove(t *testing.T) {
	if err := ValidateTransition("job", "draft", "submitted", testTable); err != nil {
		t.Fatalf("expected draft->submitted to be legal, got %v", err)
	}
}

func TestValidateTransitionAllowsNoop(t *testing.T) {
	if err := ValidateTransition("job", "approved", "approved", testTable); err != nil {
		t.Fatalf("expected same-status save to be legal, got %v", err)
	}
}

func TestValidateTransitionRejectsSkippedState(t *testing.T) {
	err := ValidateTransition("job", "draft", "approved", testTable)
	if err == nil {
		t.Fatal("expected draft->approved to be rejected")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateTransitionRejectsExitFromTerminal(t *testing.T) {
	if err := ValidateTransition("job", "rejected", "approved", testTable); err == nil {
		t.Fatal("expected rejected->approved to be rejected")
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal("draft", testTable) {
		t.Fatal("draft should not be terminal")
	}
	if !IsTerminal("rejected", testTable) {
		t.Fatal("rejected should be terminal")
	}
}

func TestProtectDateKeepsStoredValue(t *testing.T) {
	stored := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	incoming := stored.AddDate(0, 1, 0)

	got := ProtectDate(&stored, &incoming)
	if got == nil || !got.Equal(stored) {
		t.Fatalf("expected stored date %v to win, got %v", stored, got)
	}
}

func TestProtectDateAllowsFirstWrite(t *testing.T) {
	incoming := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got := ProtectDate(nil, &incoming)
	if got == nil || !got.Equal(incoming) {
		t.Fatalf("expected first write to stick, got %v", got)
	}
}

func TestProtectDateKeepsStoredWhenCleared(t *testing.T) {
	stored := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	got := ProtectDate(&stored, nil)
	if got == nil || !got.Equal(stored) {
		t.Fatalf("expected stored date to survive a nil write, got %v", got)
	}
}

func TestSetOnce(t *testing.T) {
	stored := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	fallback := stored.AddDate(0, 2, 0)

	if got := SetOnce(&stored, fallback); !got.Equal(stored) {
		t.Fatalf("expected stored date to win, got %v", got)
	}
	if got := SetOnce(nil, fallback); !got.Equal(fallback) {
		t.Fatalf("expected fallback to be stamped, got %v", got)
	}
}
