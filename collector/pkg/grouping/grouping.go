// Package grouping partitions a chronological event list into contiguous
// groups, either by time gaps or by trigger-event names. Groups are derived
// on every read and never persisted; repeated runs over identical input
// produce identical group IDs so consumers can key on them.
package grouping

import (
	"strings"

	"github.com/sizzlebits/layerlens/common/models"
	"github.com/sizzlebits/layerlens/common/settings"
)

// Group is one contiguous partition of the event list.
type Group struct {
	ID     string                 `json:"id"`
	Events []models.CapturedEvent `json:"events"` // newest first
	// StartTime and EndTime are the timestamps of the chronologically
	// first and last member.
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
	// TriggerEvent is the name of the group's first member. In event mode
	// that is usually, but not always, a configured trigger: the leading
	// group starts with whatever came first.
	TriggerEvent string `json:"trigger_event"`
	Collapsed    bool   `json:"collapsed"`
}

// Partition splits events (oldest first) into groups per cfg and returns
// them newest-group-first, each group's members newest-first. Disabled
// grouping or empty input yields no groups.
func Partition(events []models.CapturedEvent, cfg settings.GroupingSettings) []Group {
	if !cfg.Enabled || len(events) == 0 {
		return nil
	}

	var groups []Group
	switch cfg.Mode {
	case settings.GroupingModeEvent:
		groups = partitionByTrigger(events, cfg.TriggerEvents)
	default:
		groups = partitionByTime(events, cfg.TimeWindowMs)
	}

	// Build order is oldest-first; consumers want newest-first both
	// across groups and within each group.
	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	for gi := range groups {
		members := groups[gi].Events
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	}
	return groups
}

// partitionByTime starts a new group when the gap since the current group's
// last event exceeds windowMs. The comparison is strict: events with equal
// timestamps always share a group.
func partitionByTime(events []models.CapturedEvent, windowMs int64) []Group {
	var groups []Group
	for _, evt := range events {
		if len(groups) == 0 || evt.Timestamp-groups[len(groups)-1].EndTime > windowMs {
			groups = append(groups, newGroup(evt))
			continue
		}
		appendMember(&groups[len(groups)-1], evt)
	}
	return groups
}

// partitionByTrigger starts a new group on every trigger-named event. The
// very first event always starts a group whether or not it is a trigger, so
// events preceding the first trigger form their own leading group.
func partitionByTrigger(events []models.CapturedEvent, triggers []string) []Group {
	var groups []Group
	for _, evt := range events {
		if len(groups) == 0 || isTrigger(evt.EventName, triggers) {
			groups = append(groups, newGroup(evt))
			continue
		}
		appendMember(&groups[len(groups)-1], evt)
	}
	return groups
}

// isTrigger matches case-insensitively and in both directions: the event
// name containing the trigger or the trigger containing the event name.
func isTrigger(eventName string, triggers []string) bool {
	name := strings.ToLower(eventName)
	for _, t := range triggers {
		trigger := strings.ToLower(t)
		if trigger == "" {
			continue
		}
		if strings.Contains(name, trigger) || strings.Contains(trigger, name) {
			return true
		}
	}
	return false
}

func newGroup(first models.CapturedEvent) Group {
	first.GroupID = groupID(first)
	return Group{
		ID:           groupID(first),
		Events:       []models.CapturedEvent{first},
		StartTime:    first.Timestamp,
		EndTime:      first.Timestamp,
		TriggerEvent: first.EventName,
	}
}

func appendMember(g *Group, evt models.CapturedEvent) {
	evt.GroupID = g.ID
	g.Events = append(g.Events, evt)
	g.EndTime = evt.Timestamp
}

// groupID derives the group identifier from the first member's event ID so
// recomputation over identical input yields identical IDs.
func groupID(first models.CapturedEvent) string {
	return "group-" + first.ID
}
