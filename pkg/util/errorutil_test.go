package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError(t *testing.T) {
	t.Parallel()

	t.Run("passes through wrapped domain errors", func(t *testing.T) {
		wrapped := fmt.Errorf("claim: %w", NewConflict("shift is locked", nil))
		de := ToDomainError(wrapped)
		if de.Code != CodeConflict || de.HTTPStatus != http.StatusConflict {
			t.Fatalf("unexpected domain error %+v", de)
		}
	})

	t.Run("hides unknown errors behind internal", func(t *testing.T) {
		de := ToDomainError(errors.New("boom"))
		if de.HTTPStatus != http.StatusInternalServerError || de.Message != "internal server error" {
			t.Fatalf("unexpected domain error %+v", de)
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if ToDomainError(nil) != nil {
			t.Fatal("expected nil")
		}
	})
}

func TestIsConflictIncludesOverlap(t *testing.T) {
	t.Parallel()

	if !IsConflict(NewOverlap("double booked", nil)) {
		t.Fatal("overlap should count as conflict")
	}
	if !HasCode(NewOverlap("double booked", nil), CodeOverlap) {
		t.Fatal("overlap should keep its own code")
	}
	if IsConflict(NewForbidden("nope")) {
		t.Fatal("forbidden is not a conflict")
	}
}
