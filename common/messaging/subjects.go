package messaging

import "strconv"

// Subject constants for the LayerLens bus.
// Follow the pattern: lens.{resource}.{action}
const (
	// Event subjects, served by the collector. Requests carry a tab ID in
	// the envelope; SubjectEventsGet and SubjectEventsClear are
	// request/reply.
	SubjectEventsGet   = "lens.events.get"
	SubjectEventsClear = "lens.events.clear"

	// Settings subjects, served by the coordinator.
	SubjectSettingsGet           = "lens.settings.get"
	SubjectSettingsUpdate        = "lens.settings.update"
	SubjectSettingsExport        = "lens.settings.export"
	SubjectSettingsImport        = "lens.settings.import"
	SubjectSettingsDomainsList   = "lens.settings.domains.list"
	SubjectSettingsDomainsDelete = "lens.settings.domains.delete"

	// SubjectSettingsChanged is broadcast by the coordinator after any
	// persisted settings mutation. Fire-and-forget: listeners that are
	// gone simply miss it and re-read on their next startup.
	SubjectSettingsChanged = "lens.settings.changed"

	// SubjectRelay is served by the coordinator for surfaces that cannot
	// reach the collector directly. The envelope carries the target tab
	// and an inner message; the reply is forwarded back verbatim.
	SubjectRelay = "lens.relay"

	// SubjectPing is a liveness probe that always succeeds trivially.
	SubjectPing = "lens.ping"
)

// Queue group names for load-balanced consumers.
const (
	QueueCollectorWorkers   = "collector-workers"
	QueueCoordinatorWorkers = "coordinator-workers"
)

// TabEventsSubject returns the tab-scoped subject the collector hosting a
// given tab listens on. Example: lens.tabs.42.events
func TabEventsSubject(tabID int) string {
	return "lens.tabs." + strconv.Itoa(tabID) + ".events"
}
