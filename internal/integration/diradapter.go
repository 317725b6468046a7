package integration

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"myai/internal/agent"
	"myai/internal/logger"
	"myai/internal/model"
	"myai/internal/util"

	"go.uber.org/zap"
)

// DirAdapter syncs agent markdown into a tool's agent directory.
// A checksum cache skips rewrites of unchanged files.
type DirAdapter struct {
	mu         sync.Mutex
	name       string
	agentDir   string
	configPath string
	checksums  map[string][32]byte
}

func NewDirAdapter(name, agentDir, configPath string) *DirAdapter {
	return &DirAdapter{
		name:       name,
		agentDir:   agentDir,
		configPath: configPath,
		checksums:  make(map[string][32]byte),
	}
}

func (d *DirAdapter) Name() string     { return d.name }
func (d *DirAdapter) AgentDir() string { return d.agentDir }

func (d *DirAdapter) Sync(ctx context.Context, agents []agent.Agent) model.SyncResult {
	result := model.SyncResult{Adapter: d.name, Status: "ok"}

	if err := os.MkdirAll(d.agentDir, 0755); err != nil {
		result.Status = "error"
		result.Errors = append(result.Errors, fmt.Sprintf("failed to create agent dir: %v", err))
		return result
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range agents {
		if ctx.Err() != nil {
			result.Status = "aborted"
			result.Errors = append(result.Errors, ctx.Err().Error())
			return result
		}

		if err := d.writeAgent(a); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", a.Name, err))
			continue
		}
		result.Synced++
	}

	if len(result.Errors) > 0 {
		result.Status = "partial"
	}

	return result
}

func (d *DirAdapter) writeAgent(a agent.Agent) error {
	raw, err := os.ReadFile(a.Path)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	dst := filepath.Join(d.agentDir, filepath.Base(a.Path))
	sum := sha256.Sum256(raw)
	if prev, ok := d.checksums[dst]; ok && prev == sum {
		logger.Log.Debug("agent unchanged, skipping",
			zap.String("adapter", d.name),
			zap.String("agent", a.Name))
		return nil
	}

	if err := util.AtomicWrite(dst, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to write agent: %w", err)
	}

	d.checksums[dst] = sum
	return nil
}

func (d *DirAdapter) Validate(agents []agent.Agent) model.ValidationResult {
	result := model.ValidationResult{Adapter: d.name}

	if d.configPath != "" {
		raw, err := os.ReadFile(d.configPath)
		switch {
		case os.IsNotExist(err):
			// Tool not installed or never configured; nothing to check.
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read config: %v", err))
		case strings.HasSuffix(d.configPath, ".json"):
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("invalid config json: %v", err))
			}
		}
	}

	for _, a := range agents {
		dst := filepath.Join(d.agentDir, filepath.Base(a.Path))
		if stale, err := d.stale(a.Path, dst); err != nil || stale {
			result.NeedsSync = true
			break
		}
	}

	return result
}

func (d *DirAdapter) stale(src, dst string) (bool, error) {
	srcRaw, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}

	dstRaw, err := os.ReadFile(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	return sha256.Sum256(srcRaw) != sha256.Sum256(dstRaw), nil
}

func (d *DirAdapter) Health(ctx context.Context) model.HealthResult {
	result := model.HealthResult{Adapter: d.name, Healthy: true}

	parent := filepath.Dir(d.agentDir)
	if _, err := os.Stat(parent); err != nil {
		result.Healthy = false
		result.Message = fmt.Sprintf("tool directory unavailable: %v", err)
		return result
	}

	probe := filepath.Join(parent, ".myai-probe")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		result.Healthy = false
		result.Message = fmt.Sprintf("tool directory not writable: %v", err)
		return result
	}
	_ = os.Remove(probe)

	return result
}
