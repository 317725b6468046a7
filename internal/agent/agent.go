package agent

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Agent is one locally-edited agent definition: a markdown file with a
// YAML frontmatter block.
type Agent struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tools       []string `yaml:"tools"`

	Path string `yaml:"-"`
	Body string `yaml:"-"`
}

var frontmatterDelim = []byte("---")

// Parse reads an agent markdown file. A missing frontmatter block is
// not an error; the agent is named after the file.
func Parse(path string) (Agent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Agent{}, fmt.Errorf("failed to read agent file: %w", err)
	}

	a := Agent{Path: path}

	rest, ok := bytes.CutPrefix(raw, frontmatterDelim)
	if !ok {
		a.Body = string(raw)
		return a, nil
	}

	front, body, found := bytes.Cut(rest, append([]byte("\n"), frontmatterDelim...))
	if !found {
		a.Body = string(raw)
		return a, nil
	}

	if err := yaml.Unmarshal(front, &a); err != nil {
		return Agent{}, fmt.Errorf("invalid frontmatter in %s: %w", path, err)
	}

	a.Body = string(bytes.TrimLeft(body, "\r\n"))
	return a, nil
}
