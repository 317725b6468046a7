package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"myai/internal/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, adapters ...Adapter) *ToolManager {
	t.Helper()

	base := t.TempDir()
	agentsDir := filepath.Join(base, "agents")
	require.NoError(t, os.MkdirAll(agentsDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(agentsDir, "reviewer.md"),
		[]byte("---\nname: reviewer\n---\nreview things\n"), 0644))

	return NewToolManager(agent.NewStore(base), adapters...)
}

func TestToolManager_SyncAllAdapters(t *testing.T) {
	claude := NewDirAdapter("claude", filepath.Join(t.TempDir(), "agents"), "")
	cursor := NewDirAdapter("cursor", filepath.Join(t.TempDir(), "rules"), "")
	m := newTestManager(t, claude, cursor)

	results, err := m.SyncAgents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results["claude"].Synced)
	assert.Equal(t, 1, results["cursor"].Synced)
}

func TestToolManager_SyncNamedAdapter(t *testing.T) {
	claude := NewDirAdapter("claude", filepath.Join(t.TempDir(), "agents"), "")
	cursor := NewDirAdapter("cursor", filepath.Join(t.TempDir(), "rules"), "")
	m := newTestManager(t, claude, cursor)

	results, err := m.SyncAgents(context.Background(), []string{"cursor"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results, "cursor")
}

func TestToolManager_UnknownAdapter(t *testing.T) {
	m := newTestManager(t, NewDirAdapter("claude", filepath.Join(t.TempDir(), "agents"), ""))

	_, err := m.SyncAgents(context.Background(), []string{"zed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter")
}

func TestToolManager_ValidateAndHealth(t *testing.T) {
	claude := NewDirAdapter("claude", filepath.Join(t.TempDir(), "agents"), "")
	m := newTestManager(t, claude)

	validation, err := m.ValidateConfigurations(nil)
	require.NoError(t, err)
	assert.True(t, validation["claude"].NeedsSync, "fresh adapter has no copies yet")

	_, err = m.SyncAgents(context.Background(), nil)
	require.NoError(t, err)

	validation, err = m.ValidateConfigurations(nil)
	require.NoError(t, err)
	assert.False(t, validation["claude"].NeedsSync)

	health, err := m.HealthCheck(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, health["claude"].Healthy)
}

func TestToolManager_ListPreservesRegistrationOrder(t *testing.T) {
	m := newTestManager(t,
		NewDirAdapter("claude", filepath.Join(t.TempDir(), "a"), ""),
		NewDirAdapter("cursor", filepath.Join(t.TempDir(), "b"), ""),
	)

	assert.Equal(t, []string{"claude", "cursor"}, m.ListAdapters())
	assert.NotNil(t, m.GetAdapter("claude"))
	assert.Nil(t, m.GetAdapter("zed"))
}

func TestToolManager_SyncCancelled(t *testing.T) {
	m := newTestManager(t, NewDirAdapter("claude", filepath.Join(t.TempDir(), "agents"), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := m.SyncAgents(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
