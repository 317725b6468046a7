package model

// SyncResult is one adapter's outcome of an agent sync.
type SyncResult struct {
	Adapter string   `json:"adapter"`
	Status  string   `json:"status"`
	Synced  int      `json:"synced"`
	Errors  []string `json:"errors,omitempty"`
}

// ValidationResult is one adapter's configuration check outcome.
type ValidationResult struct {
	Adapter   string   `json:"adapter"`
	Errors    []string `json:"errors,omitempty"`
	NeedsSync bool     `json:"needs_sync"`
}

// HealthResult is one adapter's liveness probe outcome.
type HealthResult struct {
	Adapter string `json:"adapter"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// ConfigSyncResult combines a validation pass with the follow-up sync
// of every adapter that was flagged as needing one.
type ConfigSyncResult struct {
	Validation map[string]ValidationResult `json:"validation"`
	Sync       map[string]SyncResult       `json:"sync,omitempty"`
}
