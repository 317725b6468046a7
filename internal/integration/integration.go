// Package integration holds the tool adapters that agent definitions
// are synced into, behind the Manager contract the sync subsystem
// consumes.
package integration

import (
	"context"

	"myai/internal/agent"
	"myai/internal/model"
)

// Adapter is one external tool integration. Implementations must be
// idempotent: a job abandoned mid-flight may leave partial writes that
// the next sync repairs.
type Adapter interface {
	Name() string

	// AgentDir is the directory the adapter writes agents into. Used
	// by the watcher's default path discovery; best-effort.
	AgentDir() string

	Sync(ctx context.Context, agents []agent.Agent) model.SyncResult
	Validate(agents []agent.Agent) model.ValidationResult
	Health(ctx context.Context) model.HealthResult
}

// Manager is the collaborator contract the scheduler dispatches into.
// An empty adapterNames slice means all registered adapters.
type Manager interface {
	Initialize() error
	SyncAgents(ctx context.Context, adapterNames []string) (map[string]model.SyncResult, error)
	ValidateConfigurations(adapterNames []string) (map[string]model.ValidationResult, error)
	HealthCheck(ctx context.Context, adapterNames []string) (map[string]model.HealthResult, error)
	ListAdapters() []string
	GetAdapter(name string) Adapter
}
