package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

const baseRecord = `{
	"SUBMODULE_NAME": "assets",
	"SUBMODULE_PATH": "shared/assets",
	"SUBMODULE_URL": "https://example.com/assets.git",
	"SUBMODULE_BRANCH": "main",
	"PROJECT_TAG": "PROJ1"
}`

func TestLoadBaseRecord(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "sparta.json", baseRecord)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "assets", cfg.Name)
	assert.Equal(t, "https://example.com/assets.git", cfg.URL)
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, "PROJ1", cfg.ProjectTag)
	assert.Equal(t, "shared/assets", cfg.RelPath)
	assert.True(t, filepath.IsAbs(cfg.Path))
	assert.Empty(t, cfg.MirrorPath)
}

func TestLoadFindsNestedRecord(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "pipeline.json", `{
		"stages": [
			{"name": "build"},
			{"submodule": `+baseRecord+`}
		]
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg.Name)
}

func TestLoadFirstQualifyingFileWins(t *testing.T) {
	dir := t.TempDir()
	// "a.json" sorts before "b.json" but has no qualifying record.
	writeJSON(t, dir, "a.json", `{"unrelated": true}`)
	writeJSON(t, dir, "b.json", baseRecord)
	writeJSON(t, dir, "c.json", `{
		"SUBMODULE_NAME": "other",
		"SUBMODULE_PATH": "x",
		"SUBMODULE_URL": "u",
		"SUBMODULE_BRANCH": "b",
		"PROJECT_TAG": "t"
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg.Name, "later candidates are ignored by design")
	assert.Equal(t, filepath.Join(dir, "b.json"), cfg.SourceFile)
}

func TestLoadNoRecord(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "other.json", `{"nothing": "here"}`)

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadEmptyRequiredKey(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "sparta.json", `{
		"SUBMODULE_NAME": "assets",
		"SUBMODULE_PATH": "shared/assets",
		"SUBMODULE_URL": "",
		"SUBMODULE_BRANCH": "main",
		"PROJECT_TAG": "PROJ1"
	}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUBMODULE_URL")
}

func TestLocalOverridePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "sparta.json", baseRecord)
	writeJSON(t, dir, "a.local.json", `{"SUBMODULE_URL": "https://mirror-a/assets.git"}`)
	writeJSON(t, dir, "b.local.json", `{"SUBMODULE_URL": "https://mirror-b/assets.git"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror-a/assets.git", cfg.URL, "first override file wins")
}

func TestOverridesOnlyAllowedKeys(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "sparta.json", baseRecord)
	writeJSON(t, dir, "x.local.json", `{
		"SUBMODULE_BRANCH": "hijacked",
		"SHARED_MIRROR_PATH": "mirror"
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Branch, "branch is not overridable")
	assert.Equal(t, filepath.Join(dir, "mirror"), cfg.MirrorPath)
}

func TestEnvOverridesTakeFinalPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "sparta.json", baseRecord)
	writeJSON(t, dir, "x.local.json", `{"SUBMODULE_URL": "https://local-override/assets.git"}`)
	t.Setenv("SUBMODULE_URL", "https://env-wins/assets.git")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env-wins/assets.git", cfg.URL)
}

func TestDotProjectLocalSortsFirst(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "sparta.json", baseRecord)
	writeJSON(t, dir, ".project_local.json", `{"SUBMODULE_URL": "https://dot-project/assets.git"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://dot-project/assets.git", cfg.URL)

	// The dot prefix sorts before letters, so .project_local.json wins
	// over every named override file under first-found-wins.
	writeJSON(t, dir, "a.local.json", `{"SUBMODULE_URL": "https://named-local/assets.git"}`)
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://dot-project/assets.git", cfg.URL)
}

func TestSubmodulePathOutsideRepoRejected(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "sparta.json", `{
		"SUBMODULE_NAME": "assets",
		"SUBMODULE_PATH": "../outside",
		"SUBMODULE_URL": "u",
		"SUBMODULE_BRANCH": "b",
		"PROJECT_TAG": "t"
	}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
