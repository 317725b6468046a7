package model

import "time"

type JobType string

const (
	JobFullSync           JobType = "full_sync"
	JobIncrementalSync    JobType = "incremental_sync"
	JobConfigSync         JobType = "config_sync"
	JobAgentSync          JobType = "agent_sync"
	JobConflictResolution JobType = "conflict_resolution"
	JobHealthCheck        JobType = "health_check"
)

type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobRetrying  JobStatus = "RETRYING"
	JobCancelled JobStatus = "CANCELLED"
)

// SyncJob is one unit of scheduled sync work. Lifecycle:
// Pending -> Running -> Completed | Failed, with Failed -> Retrying ->
// Running while retries remain. Pending -> Cancelled only while queued.
type SyncJob struct {
	ID            string            `json:"id"`
	Type          JobType           `json:"type"`
	TargetAdapter string            `json:"target_adapter,omitempty"` // empty = all adapters
	Priority      int               `json:"priority"`                 // lower = more urgent
	MaxRetries    int               `json:"max_retries"`
	RetryDelay    time.Duration     `json:"retry_delay"`
	Timeout       time.Duration     `json:"timeout"`
	Status        JobStatus         `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	RetryCount    int               `json:"retry_count"`
	Error         string            `json:"error,omitempty"`
	Result        any               `json:"result,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}
