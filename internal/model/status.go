package model

import "time"

// SchedulerStats are cumulative counters kept for the process lifetime.
type SchedulerStats struct {
	Completed     int64         `json:"completed"`
	Failed        int64         `json:"failed"`
	Retried       int64         `json:"retried"`
	TotalExecTime time.Duration `json:"total_exec_time"`
	LastSuccess   *time.Time    `json:"last_success,omitempty"`
}

type QueueStatus struct {
	QueueSize int            `json:"queue_size"`
	Running   int            `json:"running"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Stats     SchedulerStats `json:"stats"`
}

// CoordinatorStatus is the full status DTO returned over the daemon API.
type CoordinatorStatus struct {
	Enabled        bool                      `json:"enabled"`
	Running        bool                      `json:"running"`
	WatcherActive  bool                      `json:"watcher_active"`
	PendingTargets []WatchTarget             `json:"pending_targets"`
	LastTriggers   map[WatchTarget]time.Time `json:"last_triggers,omitempty"`
	Queue          QueueStatus               `json:"queue"`
	JobsSubmitted  int64                     `json:"jobs_submitted"`
	EventsSeen     int64                     `json:"events_seen"`
	LastAutoSync   *time.Time                `json:"last_auto_sync,omitempty"`
}
