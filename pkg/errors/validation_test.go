package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "RN1", false},
		{"with spaces", "RN 2024/15", false},
		{"unicode", "Radni nalog Čakovec", false},

		{"empty", "", true},
		{"whitespace", "   ", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), true},
		{"control char", "RN\x01", true},
		{"newline", "RN\n1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestValidateCoordinate(t *testing.T) {
	if err := ValidateCoordinate(0.3, 1.7); err != nil {
		t.Errorf("finite values should pass, got %v", err)
	}
	if err := ValidateCoordinate(math.NaN(), 0); !Is(err, ErrCodeOutOfBounds) {
		t.Errorf("NaN should be OUT_OF_BOUNDS, got %v", err)
	}
	if err := ValidateCoordinate(0, math.Inf(1)); !Is(err, ErrCodeOutOfBounds) {
		t.Errorf("Inf should be OUT_OF_BOUNDS, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		fallback string
		want     string
	}{
		{"plan.pdf", "x", "plan.pdf"},
		{`a/b\c:d`, "x", "a_b_c_d"},
		{`what?<>|"*`, "x", "what_"},
		{"", "foto", "foto"},
		{"  ", "foto", "foto"},
		{"..", "doc", "doc"},
		{"tab\tname", "x", "tabname"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.input, tt.fallback); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
