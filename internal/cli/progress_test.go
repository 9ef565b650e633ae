package cli

import (
	"os"
	"testing"
	"time"
)

func TestProgressEnabled(t *testing.T) {
	previous := noProgress
	t.Cleanup(func() { noProgress = previous })

	// Register env restoration, then clear both variables.
	t.Setenv("MENUFLOW_NO_PROGRESS", "1")
	t.Setenv("NO_PROGRESS", "1")
	os.Unsetenv("MENUFLOW_NO_PROGRESS")
	os.Unsetenv("NO_PROGRESS")

	noProgress = false
	if !progressEnabled() {
		t.Fatal("expected progress enabled by default")
	}

	noProgress = true
	if progressEnabled() {
		t.Fatal("expected --no-progress to disable progress")
	}

	noProgress = false
	os.Setenv("MENUFLOW_NO_PROGRESS", "1")
	if progressEnabled() {
		t.Fatal("expected MENUFLOW_NO_PROGRESS to disable progress")
	}
	os.Unsetenv("MENUFLOW_NO_PROGRESS")

	os.Setenv("NO_PROGRESS", "")
	if progressEnabled() {
		t.Fatal("expected NO_PROGRESS presence to disable progress")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{123 * time.Millisecond, "120ms"},
		{1567 * time.Millisecond, "1.6s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Fatalf("formatDuration(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
