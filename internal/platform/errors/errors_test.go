package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := New(CodeProgramPaused, "transitions are paused")
	if !errors.Is(err, New(CodeProgramPaused, "different message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if errors.Is(err, New(CodeUnauthorized, "transitions are paused")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := Wrap(CodeLedgerFailure, "burn credits", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found in chain")
	}
	if err.Error() != "burn credits" {
		t.Fatalf("message = %q, want %q", err.Error(), "burn credits")
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("outer: %w", New(CodeInvalidAmount, "amount must be positive"))
	if code := CodeOf(wrapped); code != CodeInvalidAmount {
		t.Fatalf("code = %q, want %q", code, CodeInvalidAmount)
	}
	if code := CodeOf(errors.New("plain")); code != CodeUnknown {
		t.Fatalf("code = %q, want %q", code, CodeUnknown)
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeProgramPaused, http.StatusServiceUnavailable},
		{CodeInvalidAmount, http.StatusBadRequest},
		{CodeInsufficientCollateral, http.StatusUnprocessableEntity},
		{CodeAlreadyInitialized, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeArithmeticOverflow, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("HTTPStatus(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
