package domain

import (
	"testing"
	"time"
)

func TestDraftCannotSkipToApproved(t *testing.T) {
	if err := ValidateStatusChange(StatusDraft, StatusApproved); err == nil {
		t.Fatal("expected draft->approved to be rejected")
	}
}

func TestRejectedIsTerminal(t *testing.T) {
	if err := ValidateStatusChange(StatusRejected, StatusApproved); err == nil {
		t.Fatal("expected rejected->approved to be rejected")
	}
	if !IsTerminalStatus(StatusRejected) {
		t.Fatal("rejected should be terminal")
	}
}

func TestHappyPathTransitions(t *testing.T) {
	path := [][2]string{
		{StatusDraft, StatusSubmitted},
		{StatusSubmitted, StatusApproved},
		{StatusApproved, StatusCompleted},
	}
	for _, step := range path {
		if err := ValidateStatusChange(step[0], step[1]); err != nil {
			t.Fatalf("expected %s->%s to be legal, got %v", step[0], step[1], err)
		}
	}
}

func TestBlockedRecoversToApproved(t *testing.T) {
	if err := ValidateStatusChange(StatusApproved, StatusBlocked); err != nil {
		t.Fatalf("expected approved->blocked to be legal, got %v", err)
	}
	if err := ValidateStatusChange(StatusBlocked, StatusApproved); err != nil {
		t.Fatalf("expected blocked->approved to be legal, got %v", err)
	}
}

func TestStampStatusDatesOnApproval(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	start, completed := StampStatusDates(StatusApproved, nil, nil, now)
	if start == nil || !start.Equal(now) {
		t.Fatalf("expected start date stamped, got %v", start)
	}
	if completed != nil {
		t.Fatal("expected completed date untouched")
	}
}

func TestStampStatusDatesKeepsExistingStart(t *testing.T) {
	existing := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	now := existing.AddDate(0, 1, 0)

	start, _ := StampStatusDates(StatusApproved, &existing, nil, now)
	if !start.Equal(existing) {
		t.Fatalf("expected existing start date to win, got %v", start)
	}
}

func TestStampStatusDatesOnCancellation(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	_, completed := StampStatusDates(StatusCancelled, nil, nil, now)
	if completed == nil || !completed.Equal(now) {
		t.Fatalf("expected completed date stamped on cancel, got %v", completed)
	}
}

func TestApprovalPath(t *testing.T) {
	cases := []struct {
		current string
		want    []string
	}{
		{StatusDraft, []string{StatusSubmitted, StatusApproved}},
		{StatusSubmitted, []string{StatusApproved}},
		{StatusBlocked, []string{StatusApproved}},
		{StatusApproved, []string{}},
		{StatusRejected, nil},
		{StatusCompleted, nil},
	}
	for _, tc := range cases {
		got := ApprovalPath(tc.current)
		if tc.want == nil {
			if got != nil {
				t.Fatalf("%s: expected no path, got %v", tc.current, got)
			}
			continue
		}
		if got == nil || len(got) != len(tc.want) {
			t.Fatalf("%s: expected path %v, got %v", tc.current, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: expected path %v, got %v", tc.current, tc.want, got)
			}
		}
	}
}
