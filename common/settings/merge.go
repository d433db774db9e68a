package settings

// Merge resolves the effective settings for a page: hard defaults, then the
// global record, then the optional per-domain override. Later records win on
// every top-level key they set. The grouping sub-record is the one deliberate
// exception to whole-value replacement: its fields are merged independently,
// so a domain override setting only grouping.time_window_ms leaves
// grouping.enabled and grouping.trigger_events untouched.
func Merge(defaults Settings, global *Override, domain *Override) Settings {
	eff := Apply(defaults, global)
	return Apply(eff, domain)
}

// Patch layers one partial record over another: every field patch sets wins,
// every field it leaves nil falls through to base. This is how an update is
// folded into the persisted override without widening it to a full record.
func Patch(base, patch Override) Override {
	out := base
	if patch.MaxEvents != nil {
		out.MaxEvents = patch.MaxEvents
	}
	if patch.QueueNames != nil {
		out.QueueNames = cloneStrings(patch.QueueNames)
	}
	if patch.EventFilters != nil {
		out.EventFilters = cloneStrings(patch.EventFilters)
	}
	if patch.FilterMode != nil {
		out.FilterMode = patch.FilterMode
	}
	if patch.Grouping != nil {
		g := *patch.Grouping
		if base.Grouping != nil {
			merged := *base.Grouping
			if g.Enabled != nil {
				merged.Enabled = g.Enabled
			}
			if g.Mode != nil {
				merged.Mode = g.Mode
			}
			if g.TimeWindowMs != nil {
				merged.TimeWindowMs = g.TimeWindowMs
			}
			if g.TriggerEvents != nil {
				merged.TriggerEvents = cloneStrings(g.TriggerEvents)
			}
			g = merged
		}
		out.Grouping = &g
	}
	if patch.PersistEvents != nil {
		out.PersistEvents = patch.PersistEvents
	}
	if patch.PersistEventsMaxAgeMs != nil {
		out.PersistEventsMaxAgeMs = patch.PersistEventsMaxAgeMs
	}
	if patch.ConsoleLogging != nil {
		out.ConsoleLogging = patch.ConsoleLogging
	}
	if patch.DebugLogging != nil {
		out.DebugLogging = patch.DebugLogging
	}
	if patch.ShowTimestamps != nil {
		out.ShowTimestamps = patch.ShowTimestamps
	}
	if patch.AutoScroll != nil {
		out.AutoScroll = patch.AutoScroll
	}
	if patch.SourceColors != nil {
		out.SourceColors = patch.SourceColors
	}
	return out
}

// Apply merges a partial override onto a current record using the same rule
// as Merge: shallow for every top-level key, one level deep for grouping.
func Apply(current Settings, o *Override) Settings {
	out := current.Clone()
	if o == nil {
		return out
	}
	if o.MaxEvents != nil {
		out.MaxEvents = *o.MaxEvents
	}
	if o.QueueNames != nil {
		out.QueueNames = cloneStrings(o.QueueNames)
	}
	if o.EventFilters != nil {
		out.EventFilters = cloneStrings(o.EventFilters)
	}
	if o.FilterMode != nil {
		out.FilterMode = *o.FilterMode
	}
	if g := o.Grouping; g != nil {
		if g.Enabled != nil {
			out.Grouping.Enabled = *g.Enabled
		}
		if g.Mode != nil {
			out.Grouping.Mode = *g.Mode
		}
		if g.TimeWindowMs != nil {
			out.Grouping.TimeWindowMs = *g.TimeWindowMs
		}
		if g.TriggerEvents != nil {
			out.Grouping.TriggerEvents = cloneStrings(g.TriggerEvents)
		}
	}
	if o.PersistEvents != nil {
		out.PersistEvents = *o.PersistEvents
	}
	if o.PersistEventsMaxAgeMs != nil {
		out.PersistEventsMaxAgeMs = *o.PersistEventsMaxAgeMs
	}
	if o.ConsoleLogging != nil {
		out.ConsoleLogging = *o.ConsoleLogging
	}
	if o.DebugLogging != nil {
		out.DebugLogging = *o.DebugLogging
	}
	if o.ShowTimestamps != nil {
		out.ShowTimestamps = *o.ShowTimestamps
	}
	if o.AutoScroll != nil {
		out.AutoScroll = *o.AutoScroll
	}
	if o.SourceColors != nil {
		out.SourceColors = make(map[string]string, len(o.SourceColors))
		for k, v := range o.SourceColors {
			out.SourceColors[k] = v
		}
	}
	return out
}
