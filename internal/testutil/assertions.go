package testutil

import (
	"errors"
	"strings"
	"testing"
)

// RequireNoError fails the test immediately if err is non-nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// RequireErrorIs fails unless errors.Is(err, target).
func RequireErrorIs(t *testing.T, err, target error, msg string) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("%s: expected %v, got %v", msg, target, err)
	}
}

// RequireEqual fails the test immediately if expected != actual.
func RequireEqual[T comparable](t *testing.T, expected, actual T, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// RequireLen fails if len(s) != n.
func RequireLen[T ~[]E, E any](t *testing.T, s T, n int, msg string) {
	t.Helper()
	if len(s) != n {
		t.Fatalf("%s: expected len=%d, got %d", msg, n, len(s))
	}
}

// RequireContains fails unless s contains every one of parts.
func RequireContains(t *testing.T, s string, msg string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(s, p) {
			t.Fatalf("%s: %q not found in %q", msg, p, s)
		}
	}
}
