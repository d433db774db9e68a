package settings

// Bus payload shapes for the settings message types. The target domain
// travels in the envelope, not here.

// GetResponse answers a get-settings request with the resolved effective
// settings for the requested scope.
type GetResponse struct {
	Settings Settings `json:"settings"`
	Domain   string   `json:"domain,omitempty"`
}

// UpdateRequest is the payload of update-settings: a partial record merged
// into the current settings. SaveGlobal writes the result to the global
// record even when a domain is targeted.
type UpdateRequest struct {
	SaveGlobal bool     `json:"save_global,omitempty"`
	Settings   Override `json:"settings"`
}

// UpdateResponse acknowledges an update, echoing the scope it applied to.
type UpdateResponse struct {
	Success bool   `json:"success"`
	Domain  string `json:"domain,omitempty"`
}

// DomainsResponse enumerates every stored per-domain override.
type DomainsResponse struct {
	DomainSettings map[string]Override `json:"domain_settings"`
}
