package settings

import "fmt"

// GroupingOverride is a partial GroupingSettings. Present fields win; absent
// fields fall through to the underlying record.
type GroupingOverride struct {
	Enabled       *bool    `json:"enabled,omitempty"`
	Mode          *string  `json:"mode,omitempty"`
	TimeWindowMs  *int64   `json:"time_window_ms,omitempty"`
	TriggerEvents []string `json:"trigger_events,omitempty"` // nil means absent
}

// Override is a partial Settings record: the persisted shape of both the
// global record and per-domain overrides. Every top-level field is optional;
// Grouping is merged one level deeper instead of replaced wholesale.
type Override struct {
	MaxEvents             *int              `json:"max_events,omitempty"`
	QueueNames            []string          `json:"queue_names,omitempty"`
	EventFilters          []string          `json:"event_filters,omitempty"`
	FilterMode            *string           `json:"filter_mode,omitempty"`
	Grouping              *GroupingOverride `json:"grouping,omitempty"`
	PersistEvents         *bool             `json:"persist_events,omitempty"`
	PersistEventsMaxAgeMs *int64            `json:"persist_events_max_age_ms,omitempty"`
	ConsoleLogging        *bool             `json:"console_logging,omitempty"`
	DebugLogging          *bool             `json:"debug_logging,omitempty"`
	ShowTimestamps        *bool             `json:"show_timestamps,omitempty"`
	AutoScroll            *bool             `json:"auto_scroll,omitempty"`
	SourceColors          map[string]string `json:"source_colors,omitempty"`
}

// IsEmpty reports whether the override sets nothing at all.
func (o *Override) IsEmpty() bool {
	if o == nil {
		return true
	}
	return o.MaxEvents == nil && o.QueueNames == nil && o.EventFilters == nil &&
		o.FilterMode == nil && o.Grouping == nil && o.PersistEvents == nil &&
		o.PersistEventsMaxAgeMs == nil && o.ConsoleLogging == nil &&
		o.DebugLogging == nil && o.ShowTimestamps == nil && o.AutoScroll == nil &&
		o.SourceColors == nil
}

// Validate checks the value ranges of all present fields. The store accepts
// any positive MaxEvents; UI-side bounds are not enforced here.
func (o *Override) Validate() error {
	if o == nil {
		return nil
	}
	if o.MaxEvents != nil && *o.MaxEvents <= 0 {
		return fmt.Errorf("max_events must be positive, got %d", *o.MaxEvents)
	}
	if o.FilterMode != nil && *o.FilterMode != FilterModeInclude && *o.FilterMode != FilterModeExclude {
		return fmt.Errorf("filter_mode must be %q or %q, got %q", FilterModeInclude, FilterModeExclude, *o.FilterMode)
	}
	if o.PersistEventsMaxAgeMs != nil && *o.PersistEventsMaxAgeMs < 0 {
		return fmt.Errorf("persist_events_max_age_ms must not be negative")
	}
	if g := o.Grouping; g != nil {
		if g.Mode != nil && *g.Mode != GroupingModeTime && *g.Mode != GroupingModeEvent {
			return fmt.Errorf("grouping.mode must be %q or %q, got %q", GroupingModeTime, GroupingModeEvent, *g.Mode)
		}
		if g.TimeWindowMs != nil && *g.TimeWindowMs <= 0 {
			return fmt.Errorf("grouping.time_window_ms must be positive, got %d", *g.TimeWindowMs)
		}
	}
	return nil
}

// FromSettings converts a full record into an override that sets every
// field, used when exporting or replacing the global record wholesale.
func FromSettings(s Settings) Override {
	return Override{
		MaxEvents:             &s.MaxEvents,
		QueueNames:            cloneStrings(s.QueueNames),
		EventFilters:          cloneStrings(s.EventFilters),
		FilterMode:            &s.FilterMode,
		Grouping:              groupingOverrideFrom(s.Grouping),
		PersistEvents:         &s.PersistEvents,
		PersistEventsMaxAgeMs: &s.PersistEventsMaxAgeMs,
		ConsoleLogging:        &s.ConsoleLogging,
		DebugLogging:          &s.DebugLogging,
		ShowTimestamps:        &s.ShowTimestamps,
		AutoScroll:            &s.AutoScroll,
		SourceColors:          s.SourceColors,
	}
}

func groupingOverrideFrom(g GroupingSettings) *GroupingOverride {
	return &GroupingOverride{
		Enabled:       &g.Enabled,
		Mode:          &g.Mode,
		TimeWindowMs:  &g.TimeWindowMs,
		TriggerEvents: cloneStrings(g.TriggerEvents),
	}
}
