package router

// Envelope type strings. These are the cross-context message vocabulary;
// every surface speaks them regardless of which subject carries them.
const (
	// Served by the collector.
	TypeGetEvents   = "get-events"
	TypeClearEvents = "clear-events"

	// Served by the coordinator.
	TypeGetSettings          = "get-settings"
	TypeUpdateSettings       = "update-settings"
	TypeGetDomainSettings    = "get-domain-settings"
	TypeDeleteDomainSettings = "delete-domain-settings"
	TypeExportSettings       = "export-settings"
	TypeImportSettings       = "import-settings"

	// TypeRelay wraps an inner envelope addressed to the collector
	// hosting the envelope's tab. Served by the coordinator.
	TypeRelay = "relay"

	// TypePing always succeeds trivially; used as a liveness probe.
	TypePing = "ping"
)
