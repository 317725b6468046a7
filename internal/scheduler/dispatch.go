package scheduler

import (
	"context"

	"myai/internal/integration"
	"myai/internal/model"
)

// Handlers builds the closed dispatch table over the integration
// collaborator. Every JobType has exactly one entry.
func Handlers(mgr integration.Manager) map[model.JobType]Handler {
	syncAgents := func(ctx context.Context, job *model.SyncJob) (any, error) {
		return mgr.SyncAgents(ctx, adaptersOf(job))
	}

	return map[model.JobType]Handler{
		model.JobFullSync:        syncAgents,
		model.JobIncrementalSync: syncAgents,
		model.JobAgentSync:       syncAgents,
		// Conflicts are resolved by re-syncing the local source of
		// truth over the adapter copies.
		model.JobConflictResolution: syncAgents,

		model.JobConfigSync: func(ctx context.Context, job *model.SyncJob) (any, error) {
			validation, err := mgr.ValidateConfigurations(adaptersOf(job))
			if err != nil {
				return nil, err
			}

			result := model.ConfigSyncResult{Validation: validation}

			var stale []string
			for name, v := range validation {
				if v.NeedsSync {
					stale = append(stale, name)
				}
			}

			if len(stale) > 0 {
				syncRes, err := mgr.SyncAgents(ctx, stale)
				if err != nil {
					return result, err
				}
				result.Sync = syncRes
			}

			return result, nil
		},

		model.JobHealthCheck: func(ctx context.Context, job *model.SyncJob) (any, error) {
			return mgr.HealthCheck(ctx, adaptersOf(job))
		},
	}
}

func adaptersOf(job *model.SyncJob) []string {
	if job.TargetAdapter == "" {
		return nil
	}
	return []string{job.TargetAdapter}
}
