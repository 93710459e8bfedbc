package testutil

import (
	"testing"

	"github.com/bawdo/cypherbee/nodes"
)

// Renderer is the subset of visitors.Renderer the helpers need. It is
// declared here to keep testutil free of a visitors import.
type Renderer interface {
	Render(n nodes.Node) (string, error)
}

// AssertEqual checks that got == want and reports a descriptive error if not.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("expected:\n  %v\ngot:\n  %v", want, got)
	}
}

// AssertCypher renders node with r and compares it with the expected string.
func AssertCypher(t *testing.T, r Renderer, node nodes.Node, expected string) {
	t.Helper()
	got, err := r.Render(node)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// AssertNoError fails the test if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error but got nil")
	}
}

// AssertPanics fails the test if f returns without panicking.
func AssertPanics(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	f()
}
