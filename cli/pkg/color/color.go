// Package color provides minimal ANSI terminal coloring, plus the stable
// source palette used to tint event sources the same way across runs.
package color

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
)

// ANSI color codes
const (
	reset = "\033[0m"

	// Foreground colors
	FgBlack   = 30
	FgRed     = 31
	FgGreen   = 32
	FgYellow  = 33
	FgBlue    = 34
	FgMagenta = 35
	FgCyan    = 36
	FgWhite   = 37

	// Attributes
	Bold      = 1
	Dim       = 2
	Underline = 4
)

// noColor disables all escape sequences. Set from NO_COLOR at startup,
// following the informal convention most terminal tools honor.
var noColor = os.Getenv("NO_COLOR") != ""

// Color represents a text color configuration
type Color struct {
	params []int
}

// New creates a new Color with the given attributes
func New(attrs ...int) *Color {
	return &Color{params: attrs}
}

// format returns the ANSI escape sequence for this color
func (c *Color) format() string {
	if noColor || len(c.params) == 0 {
		return ""
	}

	seq := "\033["
	for i, param := range c.params {
		if i > 0 {
			seq += ";"
		}
		seq += fmt.Sprintf("%d", param)
	}
	seq += "m"
	return seq
}

func (c *Color) wrap(s string) string {
	f := c.format()
	if f == "" {
		return s
	}
	return f + s + reset
}

// Printf prints formatted output with color to stdout
func (c *Color) Printf(format string, a ...interface{}) {
	fmt.Print(c.wrap(fmt.Sprintf(format, a...)))
}

// Fprintf prints formatted output with color to the given writer
func (c *Color) Fprintf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprint(w, c.wrap(fmt.Sprintf(format, a...)))
}

// Sprint returns a colored string
func (c *Color) Sprint(a ...interface{}) string {
	return c.wrap(fmt.Sprint(a...))
}

// Sprintf returns a formatted colored string
func (c *Color) Sprintf(format string, a ...interface{}) string {
	return c.wrap(fmt.Sprintf(format, a...))
}

// sourcePalette holds the foreground colors sources are tinted with. The
// palette deliberately skips red, which is reserved for errors.
var sourcePalette = []int{FgGreen, FgYellow, FgBlue, FgMagenta, FgCyan, FgWhite}

// ForSource returns a stable color for an event source name. The same
// source always maps to the same palette entry, so a listing stays
// readable as events from multiple queues interleave.
func ForSource(source string) *Color {
	h := fnv.New32a()
	h.Write([]byte(source))
	return New(sourcePalette[h.Sum32()%uint32(len(sourcePalette))])
}
