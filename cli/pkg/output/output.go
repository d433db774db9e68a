// Package output holds the CLI's terminal output helpers: status lines,
// JSON dumps, aligned tables, and the one-line event rendering used by
// the events listing.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sizzlebits/layerlens/cli/pkg/color"
	"github.com/sizzlebits/layerlens/common/models"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Dim)
)

func Success(format string, a ...interface{}) {
	successColor.Printf("✓ "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(os.Stderr, "✗ "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Printf(format+"\n", a...)
}

func Warn(format string, a ...interface{}) {
	warnColor.Printf("⚠ "+format+"\n", a...)
}

func JSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Event renders one captured event as a single line: optional timestamp,
// source tinted with its stable color, event name, compact payload.
func Event(evt models.CapturedEvent, showTimestamps bool) string {
	var b strings.Builder
	if showTimestamps {
		b.WriteString(dimColor.Sprint(evt.Time().Format(time.TimeOnly)))
		b.WriteString("  ")
	}
	b.WriteString(color.ForSource(evt.Source).Sprintf("%-12s", evt.Source))
	b.WriteString("  ")
	b.WriteString(evt.EventName)

	if data := evt.SerializedData(); data != "" && data != "null" && data != "{}" {
		b.WriteString("  ")
		b.WriteString(dimColor.Sprint(truncate(data, 120)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerColor := color.New(color.Bold)
	var b strings.Builder
	for i, header := range t.headers {
		b.WriteString(fmt.Sprintf("%-*s  ", widths[i], header))
	}
	fmt.Println(headerColor.Sprint(strings.TrimRight(b.String(), " ")))

	for _, row := range t.rows {
		b.Reset()
		for i, cell := range row {
			if i < len(widths) {
				b.WriteString(fmt.Sprintf("%-*s  ", widths[i], cell))
			}
		}
		fmt.Println(strings.TrimRight(b.String(), " "))
	}
}
