// Package settings defines the LayerLens configuration model: a global
// settings record, per-domain partial overrides, and the merge rules that
// produce the effective settings for a page.
package settings

// Filter modes for the event-name filter list.
const (
	FilterModeInclude = "include"
	FilterModeExclude = "exclude"
)

// Grouping modes.
const (
	GroupingModeTime  = "time"
	GroupingModeEvent = "event"
)

// GroupingSettings controls how consumers partition the event list.
type GroupingSettings struct {
	Enabled       bool     `json:"enabled"`
	Mode          string   `json:"mode"` // "time" or "event"
	TimeWindowMs  int64    `json:"time_window_ms"`
	TriggerEvents []string `json:"trigger_events"`
}

// Settings is a fully-resolved configuration record. The coordinator stores
// partial records (Override); Settings is what every consumer works with
// after merging.
type Settings struct {
	MaxEvents             int               `json:"max_events"`
	QueueNames            []string          `json:"queue_names"` // insertion order matters for display
	EventFilters          []string          `json:"event_filters"`
	FilterMode            string            `json:"filter_mode"`
	Grouping              GroupingSettings  `json:"grouping"`
	PersistEvents         bool              `json:"persist_events"`
	PersistEventsMaxAgeMs int64             `json:"persist_events_max_age_ms"`
	ConsoleLogging        bool              `json:"console_logging"`
	DebugLogging          bool              `json:"debug_logging"`
	ShowTimestamps        bool              `json:"show_timestamps"`
	AutoScroll            bool              `json:"auto_scroll"`
	SourceColors          map[string]string `json:"source_colors"`
}

// Defaults returns the hard defaults every merge starts from.
func Defaults() Settings {
	return Settings{
		MaxEvents:    100,
		QueueNames:   []string{"dataLayer"},
		EventFilters: []string{},
		FilterMode:   FilterModeExclude,
		Grouping: GroupingSettings{
			Enabled:       false,
			Mode:          GroupingModeTime,
			TimeWindowMs:  5000,
			TriggerEvents: []string{},
		},
		PersistEvents:         false,
		PersistEventsMaxAgeMs: 30 * 60 * 1000,
		ConsoleLogging:        false,
		DebugLogging:          false,
		ShowTimestamps:        true,
		AutoScroll:            true,
		SourceColors:          map[string]string{},
	}
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s Settings) Clone() Settings {
	out := s
	out.QueueNames = cloneStrings(s.QueueNames)
	out.EventFilters = cloneStrings(s.EventFilters)
	out.Grouping.TriggerEvents = cloneStrings(s.Grouping.TriggerEvents)
	out.SourceColors = make(map[string]string, len(s.SourceColors))
	for k, v := range s.SourceColors {
		out.SourceColors[k] = v
	}
	return out
}

// cloneStrings copies a slice without collapsing empty to nil, so cloned
// settings serialize the same way as the source ([] stays [], not null).
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
