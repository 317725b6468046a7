package model

import "time"

// WatchTarget is the semantic category a changed path is classified into.
type WatchTarget string

const (
	TargetConfig       WatchTarget = "config"
	TargetAgents       WatchTarget = "agents"
	TargetTools        WatchTarget = "tools"
	TargetTemplates    WatchTarget = "templates"
	TargetIntegrations WatchTarget = "integrations"
)

type EventType string

const (
	EventCreated  EventType = "CREATED"
	EventModified EventType = "MODIFIED"
	EventDeleted  EventType = "DELETED"
	EventMoved    EventType = "MOVED"
)

// WatchEvent is a debounced, classified filesystem change.
// OldPath is set only for moved events.
type WatchEvent struct {
	Type      EventType   `json:"type"`
	Path      string      `json:"path"`
	OldPath   string      `json:"old_path,omitempty"`
	Target    WatchTarget `json:"target"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventSummary is the trimmed-down form kept in the coordinator's
// recent-events ring and returned over the daemon API.
type EventSummary struct {
	Type      EventType   `json:"type"`
	Path      string      `json:"path"`
	Target    WatchTarget `json:"target"`
	Timestamp time.Time   `json:"timestamp"`
}
