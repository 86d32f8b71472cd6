package errors

import (
	"fmt"
	"testing"
)

func TestTeamboardError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeNotFound, "team not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeParseError, "bad json")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeParseError) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Is and GetCode see through fmt.Errorf wrapping
	outer := fmt.Errorf("loading team: %w", wrapped)
	if !Is(outer, ErrCodeParseError) {
		t.Error("Is should unwrap standard wrapped errors")
	}
	if GetCode(outer) != ErrCodeParseError {
		t.Errorf("expected code %s, got %s", ErrCodeParseError, GetCode(outer))
	}
	if GetCode(cause) != "" {
		t.Error("GetCode should be empty for plain errors")
	}

	// Test WithDetail
	detailed := err.WithDetail("teamId", "alpha").WithDetail("attempts", 3)
	if detailed.Details["teamId"] != "alpha" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := TeamNotFound("alpha")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Details["teamId"] != "alpha" {
		t.Error("TeamNotFound should include teamId detail")
	}

	err = CapacityReached(100)
	if err.Code != ErrCodeCapacity {
		t.Errorf("expected code %s, got %s", ErrCodeCapacity, err.Code)
	}
	if err.Details["max"] != 100 {
		t.Error("CapacityReached should include max detail")
	}

	err = LockTimeout("/tmp/x.json", 4)
	if err.Code != ErrCodeLockTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeLockTimeout, err.Code)
	}

	err = InvalidTeamID("../etc")
	if err.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, err.Code)
	}
}
