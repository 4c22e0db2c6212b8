package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateMapping(t *testing.T) {
	bundleID := uuid.New()

	tests := []struct {
		name     string
		strategy string
		bundleID *uuid.UUID
		wantErr  bool
	}{
		{"direct without bundle", MappingDirect, nil, false},
		{"bundle with bundle", MappingBundle, &bundleID, false},
		{"exclude without bundle", MappingExclude, nil, false},
		{"bundle without bundle ref", MappingBundle, nil, true},
		{"direct with bundle ref", MappingDirect, &bundleID, true},
		{"exclude with bundle ref", MappingExclude, &bundleID, true},
		{"unknown strategy", "grouped", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMapping(tt.strategy, tt.bundleID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMapping(%q) error = %v, wantErr %v", tt.strategy, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePlacement(t *testing.T) {
	ws := uuid.New()
	wo := uuid.New()

	if err := ValidatePlacement(&ws, nil); err != nil {
		t.Fatalf("worksheet-only placement should be valid: %v", err)
	}
	if err := ValidatePlacement(nil, &wo); err != nil {
		t.Fatalf("work-order-only placement should be valid: %v", err)
	}
	if err := ValidatePlacement(nil, nil); err == nil {
		t.Fatal("expected error for no container")
	}
	if err := ValidatePlacement(&ws, &wo); err == nil {
		t.Fatal("expected error for both containers")
	}
}

func TestStatusForEstimate(t *testing.T) {
	tests := []struct {
		estimate string
		want     string
	}{
		{"draft", StatusDraft},
		{"open", StatusFinal},
		{"accepted", StatusFinal},
		{"rejected", StatusFinal},
		{"expired", StatusFinal},
		{"superseded", StatusSuperseded},
	}
	for _, tt := range tests {
		if got := StatusForEstimate(tt.estimate); got != tt.want {
			t.Errorf("StatusForEstimate(%q) = %q, want %q", tt.estimate, got, tt.want)
		}
	}
}
