package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"myai/internal/logger"

	"go.uber.org/zap"
)

// Store lists agent definitions under <baseDir>/agents.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) AgentsDir() string {
	return filepath.Join(s.baseDir, "agents")
}

// List walks the agents directory and parses every markdown file.
// Unparsable files are skipped with a warning so one broken agent does
// not block syncing the rest.
func (s *Store) List() ([]Agent, error) {
	dir := s.AgentsDir()
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat agents dir: %w", err)
	}

	var agents []Agent
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		a, err := Parse(path)
		if err != nil {
			logger.Log.Warn("skipping unparsable agent",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}

		if a.Name == "" {
			a.Name = strings.TrimSuffix(d.Name(), ".md")
		}

		agents = append(agents, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk agents dir: %w", err)
	}

	return agents, nil
}
