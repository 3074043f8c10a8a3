package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrAdvisoryUnavailable, cause)

	if err.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.StatusCode)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
	if !stderrors.Is(err, ErrAdvisoryUnavailable) {
		t.Error("expected wrapped error to match its sentinel")
	}
	if stderrors.Is(err, ErrNoObjectiveFound) {
		t.Error("expected no match against a different sentinel")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidDistribution, "aggressive: weights sum to 90, expected 100")
	if err.Code != "INVALID_DISTRIBUTION" {
		t.Errorf("expected INVALID_DISTRIBUTION, got %s", err.Code)
	}
	if err.Error() != "aggressive: weights sum to 90, expected 100" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if ErrInvalidDistribution.Message != "Segment weights are invalid" {
		t.Error("sentinel message must not be mutated")
	}
}
