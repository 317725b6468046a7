package watcher

import (
	"testing"

	"myai/internal/model"
)

func TestClassify(t *testing.T) {
	patterns := DefaultPatterns()

	tests := []struct {
		name string
		path string
		want model.WatchTarget
	}{
		{"agent markdown", "/home/u/.myai/agents/reviewer.md", model.TargetAgents},
		{"bare markdown", "/home/u/notes/readme.md", model.TargetAgents},
		{"template", "/home/u/.myai/templates/base.md", model.TargetTemplates},
		{"template yaml", "/home/u/.myai/templates/base.yaml", model.TargetTemplates},
		{"tool file", "/home/u/.myai/tools/search.json", model.TargetTools},
		{"integration file", "/home/u/.myai/integrations/claude.yaml", model.TargetIntegrations},
		{"top-level config", "/home/u/.myai/config.yaml", model.TargetConfig},
		{"toml config", "/etc/myai/settings.toml", model.TargetConfig},
		{"config subdir", "/home/u/.myai/config/extra.ini", model.TargetConfig},
		{"unknown extension", "/tmp/archive.bin", ""},
		{"ancestor fallback", "/home/u/.myai/agents/nested/deep.xyz", model.TargetAgents},
		{"ancestor unknown child", "/home/u/.myai/cache/blob.xyz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(patterns, tt.path); got != tt.want {
				t.Errorf("classify(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassifyExtraPatterns(t *testing.T) {
	patterns := DefaultPatterns()
	patterns[model.TargetTools] = append(patterns[model.TargetTools], "*.tool")

	if got := classify(patterns, "/anywhere/grep.tool"); got != model.TargetTools {
		t.Errorf("classify with extra pattern = %q, want %q", got, model.TargetTools)
	}
}
