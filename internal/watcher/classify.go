package watcher

import (
	"path/filepath"
	"strings"

	"myai/internal/model"
)

// matchOrder fixes the category precedence: directory-qualified
// categories first, extension-only catch-alls (Config) last.
var matchOrder = []model.WatchTarget{
	model.TargetTemplates,
	model.TargetTools,
	model.TargetIntegrations,
	model.TargetAgents,
	model.TargetConfig,
}

var ancestorDirs = map[string]model.WatchTarget{
	"agents":       model.TargetAgents,
	"templates":    model.TargetTemplates,
	"tools":        model.TargetTools,
	"integrations": model.TargetIntegrations,
	"config":       model.TargetConfig,
}

// DefaultPatterns is the built-in glob set per category. Patterns
// containing a path separator are matched against the trailing path
// segments, plain patterns against the base name only.
func DefaultPatterns() map[model.WatchTarget][]string {
	return map[model.WatchTarget][]string{
		model.TargetConfig:       {"*.json", "*.yaml", "*.yml", "*.toml", "config/*"},
		model.TargetAgents:       {"*.md", "agents/*.md"},
		model.TargetTools:        {"tools/*"},
		model.TargetTemplates:    {"templates/*"},
		model.TargetIntegrations: {"integrations/*"},
	}
}

// classify maps a path to its watch target, or "" when the path
// matches no category and has no recognizable ancestor.
func classify(patterns map[model.WatchTarget][]string, path string) model.WatchTarget {
	slashed := filepath.ToSlash(path)
	parts := strings.Split(slashed, "/")

	for _, target := range matchOrder {
		for _, pat := range patterns[target] {
			if matchPattern(pat, parts) {
				return target
			}
		}
	}

	return ancestorTarget(parts)
}

func matchPattern(pat string, parts []string) bool {
	if !strings.Contains(pat, "/") {
		ok, err := filepath.Match(pat, parts[len(parts)-1])
		return err == nil && ok
	}

	patParts := strings.Split(pat, "/")
	if len(patParts) > len(parts) {
		return false
	}

	tail := parts[len(parts)-len(patParts):]
	for i, pp := range patParts {
		ok, err := filepath.Match(pp, tail[i])
		if err != nil || !ok {
			return false
		}
	}

	return true
}

// ancestorTarget walks up the path looking for a managed root (".myai"
// or "myai") and maps the child directory name under it.
func ancestorTarget(parts []string) model.WatchTarget {
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] != ".myai" && parts[i] != "myai" {
			continue
		}

		if target, ok := ancestorDirs[parts[i+1]]; ok {
			return target
		}
		return ""
	}

	return ""
}
