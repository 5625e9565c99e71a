package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOfUnwrapsThroughWrapping(t *testing.T) {
	base := NotFound("thing_not_found", errors.New("nope"))
	wrapped := fmt.Errorf("loading thing: %w", base)
	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d", got)
	}
	if got := CodeOf(wrapped); got != "thing_not_found" {
		t.Fatalf("code: want=%q got=%q", "thing_not_found", got)
	}
}

func TestStatusOfPlainErrorIsServerError(t *testing.T) {
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", got)
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if msg := New(http.StatusBadRequest, "bad_input", nil).Error(); msg != "bad_input" {
		t.Fatalf("message: want=%q got=%q", "bad_input", msg)
	}
	if msg := New(http.StatusBadRequest, "", nil).Error(); msg != "api error (400)" {
		t.Fatalf("message: want=%q got=%q", "api error (400)", msg)
	}
}
