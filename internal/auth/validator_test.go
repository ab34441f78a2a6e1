package auth

import (
	"errors"
	"testing"
)

func TestValidatePassword_Failures(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		wantKind  ValidationKind
	}{
		{
			name:      "too short",
			candidate: "Shor1!",
			wantKind:  KindTooShort,
		},
		{
			name:      "too short wins even with other content",
			candidate: "Ab!",
			wantKind:  KindTooShort,
		},
		{
			name:      "no uppercase",
			candidate: "noupperpass!1",
			wantKind:  KindNoUppercase,
		},
		{
			name:      "no lowercase",
			candidate: "NOLOWERPASS!1",
			wantKind:  KindNoLowercase,
		},
		{
			name:      "no special character",
			candidate: "NoSpecialPass1",
			wantKind:  KindNoSpecial,
		},
		{
			name:      "digits alone don't satisfy any rule",
			candidate: "12345678",
			wantKind:  KindNoUppercase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.candidate)
			if err == nil {
				t.Fatalf("ValidatePassword(%q) = nil, want %s failure", tt.candidate, tt.wantKind)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ValidatePassword(%q) returned %T, want *ValidationError", tt.candidate, err)
			}
			if vErr.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", vErr.Kind, tt.wantKind)
			}
			if vErr.Message == "" {
				t.Error("ValidationError has empty message")
			}
		})
	}
}

func TestValidatePassword_Valid(t *testing.T) {
	valid := []string{
		"ValidPassword1!",
		// No digit requirement: upper+lower+special+length is enough.
		"ValidPassword!",
		`Quote"Pass`,
		"Spaces ok too!A",
	}

	for _, candidate := range valid {
		if err := ValidatePassword(candidate); err != nil {
			t.Errorf("ValidatePassword(%q) = %v, want nil", candidate, err)
		}
	}
}

func TestValidatePassword_RuleOrder(t *testing.T) {
	// A candidate failing several rules reports the first one checked.
	err := ValidatePassword("abc")
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Kind != KindTooShort {
		t.Fatalf("ValidatePassword(%q) = %v, want first-failure %s", "abc", err, KindTooShort)
	}
}
