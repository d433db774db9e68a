package color

import (
	"strings"
	"testing"
)

func TestSprintWrapsWithEscapeCodes(t *testing.T) {
	noColor = false
	c := New(FgGreen, Bold)

	got := c.Sprint("hello")
	if !strings.HasPrefix(got, "\033[32;1m") {
		t.Errorf("Sprint() = %q, want escape prefix", got)
	}
	if !strings.HasSuffix(got, "\033[0m") {
		t.Errorf("Sprint() = %q, want reset suffix", got)
	}
	if !strings.Contains(got, "hello") {
		t.Errorf("Sprint() = %q, lost the text", got)
	}
}

func TestNoColorDisablesEscapes(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	if got := New(FgRed).Sprint("plain"); got != "plain" {
		t.Errorf("Sprint() with NO_COLOR = %q, want plain", got)
	}
}

func TestForSourceIsStable(t *testing.T) {
	noColor = false
	a := ForSource("dataLayer").Sprint("x")
	b := ForSource("dataLayer").Sprint("x")
	if a != b {
		t.Errorf("ForSource not stable: %q vs %q", a, b)
	}
}

func TestForSourceNeverRed(t *testing.T) {
	for _, source := range []string{"dataLayer", "digitalData", "utag_data", "events", "q"} {
		c := ForSource(source)
		for _, p := range c.params {
			if p == FgRed {
				t.Errorf("ForSource(%q) returned red, reserved for errors", source)
			}
		}
	}
}
