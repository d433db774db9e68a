// Package filtering derives the visible subset of an event list: free-text
// search over names and payloads, plus an include/exclude event-name filter
// list. All matching is case-insensitive substring matching; input order is
// always preserved.
package filtering

import (
	"sort"
	"strings"

	"github.com/sizzlebits/layerlens/common/models"
	"github.com/sizzlebits/layerlens/common/settings"
)

// maxSuggestions caps the autosuggestion list.
const maxSuggestions = 10

// Query is one consumer's view configuration.
type Query struct {
	SearchText   string
	EventFilters []string
	FilterMode   string // settings.FilterModeInclude or settings.FilterModeExclude
}

// Filter returns the events passing both the search stage and the name
// filter stage, in input order.
func Filter(events []models.CapturedEvent, q Query) []models.CapturedEvent {
	search := strings.ToLower(strings.TrimSpace(q.SearchText))

	out := make([]models.CapturedEvent, 0, len(events))
	for _, evt := range events {
		if search != "" && !matchesSearch(evt, search) {
			continue
		}
		if !passesNameFilters(evt.EventName, q.EventFilters, q.FilterMode) {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// matchesSearch reports whether the event's name or serialized payload
// contains the lowercased search text.
func matchesSearch(evt models.CapturedEvent, search string) bool {
	if strings.Contains(strings.ToLower(evt.EventName), search) {
		return true
	}
	return strings.Contains(strings.ToLower(evt.SerializedData()), search)
}

// passesNameFilters applies the include/exclude list. A filter list with no
// usable entries (empty, or blanks only) passes everything in either mode.
func passesNameFilters(eventName string, filters []string, mode string) bool {
	name := strings.ToLower(eventName)
	matched := false
	usable := false
	for _, f := range filters {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		usable = true
		if strings.Contains(name, f) {
			matched = true
			break
		}
	}
	if !usable {
		return true
	}
	if mode == settings.FilterModeExclude {
		return !matched
	}
	return matched
}

// CountMatching counts events whose name contains text, independent of any
// active query. Used to preview a filter's effect before adding it.
func CountMatching(events []models.CapturedEvent, text string) int {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return 0
	}
	count := 0
	for _, evt := range events {
		if strings.Contains(strings.ToLower(evt.EventName), needle) {
			count++
		}
	}
	return count
}

// UniqueEventNames returns the distinct event names in ascending
// lexicographic order.
func UniqueEventNames(events []models.CapturedEvent) []string {
	seen := make(map[string]bool, len(events))
	out := make([]string, 0, len(events))
	for _, evt := range events {
		if !seen[evt.EventName] {
			seen[evt.EventName] = true
			out = append(out, evt.EventName)
		}
	}
	sort.Strings(out)
	return out
}

// Suggestions returns up to 10 distinct event names matching searchText,
// excluding names already selected, in lexicographic order. Lexicographic
// rather than first-observed so the list is stable while events stream in.
func Suggestions(events []models.CapturedEvent, alreadySelected []string, searchText string) []string {
	selected := make(map[string]bool, len(alreadySelected))
	for _, s := range alreadySelected {
		selected[s] = true
	}
	needle := strings.ToLower(strings.TrimSpace(searchText))

	out := make([]string, 0, maxSuggestions)
	for _, name := range UniqueEventNames(events) {
		if selected[name] {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		out = append(out, name)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
