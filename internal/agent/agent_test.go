package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAgent(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse_Frontmatter(t *testing.T) {
	path := writeAgent(t, t.TempDir(), "reviewer.md", `---
name: code-reviewer
description: Reviews pull requests
tools:
  - grep
  - read
---

You are a meticulous code reviewer.
`)

	a, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "code-reviewer", a.Name)
	assert.Equal(t, "Reviews pull requests", a.Description)
	assert.Equal(t, []string{"grep", "read"}, a.Tools)
	assert.Equal(t, "You are a meticulous code reviewer.\n", a.Body)
	assert.Equal(t, path, a.Path)
}

func TestParse_NoFrontmatter(t *testing.T) {
	path := writeAgent(t, t.TempDir(), "plain.md", "Just instructions, no metadata.\n")

	a, err := Parse(path)
	require.NoError(t, err)

	assert.Empty(t, a.Name)
	assert.Equal(t, "Just instructions, no metadata.\n", a.Body)
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	content := "---\nname: broken\nno closing delimiter\n"
	path := writeAgent(t, t.TempDir(), "broken.md", content)

	a, err := Parse(path)
	require.NoError(t, err)

	assert.Empty(t, a.Name, "unterminated block is treated as plain body")
	assert.Equal(t, content, a.Body)
}

func TestParse_InvalidYAML(t *testing.T) {
	path := writeAgent(t, t.TempDir(), "bad.md", "---\nname: [unclosed\n---\nbody\n")

	_, err := Parse(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid frontmatter")
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.md"))
	require.Error(t, err)
}

func TestStore_List(t *testing.T) {
	base := t.TempDir()
	agentsDir := filepath.Join(base, "agents")
	require.NoError(t, os.MkdirAll(filepath.Join(agentsDir, "nested"), 0755))

	writeAgent(t, agentsDir, "reviewer.md", "---\nname: reviewer\n---\nbody\n")
	writeAgent(t, agentsDir, "unnamed.md", "no frontmatter\n")
	writeAgent(t, filepath.Join(agentsDir, "nested"), "helper.md", "---\nname: helper\n---\nbody\n")
	writeAgent(t, agentsDir, "notes.txt", "not an agent\n")

	agents, err := NewStore(base).List()
	require.NoError(t, err)
	require.Len(t, agents, 3)

	names := make(map[string]bool)
	for _, a := range agents {
		names[a.Name] = true
	}
	assert.True(t, names["reviewer"])
	assert.True(t, names["helper"])
	assert.True(t, names["unnamed"], "nameless agents default to the filename")
}

func TestStore_List_SkipsBrokenAgents(t *testing.T) {
	base := t.TempDir()
	agentsDir := filepath.Join(base, "agents")
	require.NoError(t, os.MkdirAll(agentsDir, 0755))

	writeAgent(t, agentsDir, "good.md", "---\nname: good\n---\nbody\n")
	writeAgent(t, agentsDir, "bad.md", "---\nname: [unclosed\n---\nbody\n")

	agents, err := NewStore(base).List()
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "good", agents[0].Name)
}

func TestStore_List_MissingDir(t *testing.T) {
	agents, err := NewStore(t.TempDir()).List()
	require.NoError(t, err)
	assert.Empty(t, agents)
}
