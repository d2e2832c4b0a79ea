package sparta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb-dev/git-sparta/internal/config"
	"github.com/kb-dev/git-sparta/internal/gitutil"
)

func registryFixture(t *testing.T) (HostRepo, *config.Config) {
	t.Helper()
	requireGit(t)
	dir := resolvedTempDir(t)
	initRepo(t, dir)
	writeFile(t, dir, "README.md", "x")
	commitAll(t, dir, "init")

	host, err := openHost(dir)
	require.NoError(t, err)
	cfg := &config.Config{
		Name:    "assets",
		RelPath: "shared/assets",
		URL:     "https://example.com/assets.git",
		Branch:  "main",
	}
	return host, cfg
}

func TestRegisterFirstTime(t *testing.T) {
	host, cfg := registryFixture(t)
	run := gitutil.ExecRunner{}

	result, err := Register(run, host, cfg)
	require.NoError(t, err)
	assert.Equal(t, RegisteredNew, result)

	manifest := host.gitmodulesFile(run)
	path, ok := manifest.Get("submodule.assets.path")
	require.True(t, ok)
	assert.Equal(t, "shared/assets", path)
	url, _ := manifest.Get("submodule.assets.url")
	assert.Equal(t, "https://example.com/assets.git", url)

	// The manifest change is staged.
	out, err := run.Run(host.Root, "status", "--porcelain", "--", ".gitmodules")
	require.NoError(t, err)
	assert.Contains(t, out, "A  .gitmodules")
}

func TestRegisterIdempotent(t *testing.T) {
	host, cfg := registryFixture(t)
	run := gitutil.ExecRunner{}

	_, err := Register(run, host, cfg)
	require.NoError(t, err)

	result, err := Register(run, host, cfg)
	require.NoError(t, err)
	assert.Equal(t, RegisteredUnchanged, result)
}

func TestRegisterUpdatesDriftedFields(t *testing.T) {
	host, cfg := registryFixture(t)
	run := gitutil.ExecRunner{}

	_, err := Register(run, host, cfg)
	require.NoError(t, err)

	cfg.URL = "https://elsewhere.example.com/assets.git"
	cfg.Branch = "release"
	result, err := Register(run, host, cfg)
	require.NoError(t, err)
	assert.Equal(t, RegisteredUpdated, result)

	manifest := host.gitmodulesFile(run)
	url, _ := manifest.Get("submodule.assets.url")
	assert.Equal(t, "https://elsewhere.example.com/assets.git", url)
	branch, _ := manifest.Get("submodule.assets.branch")
	assert.Equal(t, "release", branch)
}

func TestRegisterPathMismatchIsFatal(t *testing.T) {
	host, cfg := registryFixture(t)
	run := gitutil.ExecRunner{}

	_, err := Register(run, host, cfg)
	require.NoError(t, err)

	moved := *cfg
	moved.RelPath = "moved/assets"
	_, err = Register(run, host, &moved)
	assert.ErrorIs(t, err, ErrPathMismatch)

	// The registered path is never auto-corrected.
	manifest := host.gitmodulesFile(run)
	path, _ := manifest.Get("submodule.assets.path")
	assert.Equal(t, "shared/assets", path)
}

func TestSyncLocalURLForcesOverride(t *testing.T) {
	host, cfg := registryFixture(t)
	run := gitutil.ExecRunner{}

	require.NoError(t, SyncLocalURL(run, host, cfg))

	local := host.localConfigFile(run)
	url, ok := local.Get("submodule.assets.url")
	require.True(t, ok)
	assert.Equal(t, cfg.URL, url)

	cfg.URL = "file:///private/mirror/assets.git"
	require.NoError(t, SyncLocalURL(run, host, cfg))
	url, _ = local.Get("submodule.assets.url")
	assert.Equal(t, "file:///private/mirror/assets.git", url)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	host, cfg := registryFixture(t)
	run := gitutil.ExecRunner{}

	_, err := Register(run, host, cfg)
	require.NoError(t, err)
	require.True(t, IsRegistered(run, host, "assets"))

	removed, err := Unregister(run, host, "assets")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, IsRegistered(run, host, "assets"))

	removed, err = Unregister(run, host, "assets")
	require.NoError(t, err)
	assert.False(t, removed, "absence is success")
}
