package sparta

import (
	"path/filepath"

	"github.com/kb-dev/git-sparta/internal/gitutil"
	"github.com/kb-dev/git-sparta/internal/ui"
)

// Deps carries the external collaborators every operation consumes: a
// plumbing runner, a diagnostic sink, and the attribute key to resolve
// tags against.
type Deps struct {
	Run       gitutil.Runner
	Out       ui.Sink
	Attribute string
}

// HostRepo locates the repository that owns the submodule: its
// working tree root and its git directory.
type HostRepo struct {
	Root   string
	GitDir string
}

func openHost(workRepo string) (HostRepo, error) {
	root, gitDir, err := gitutil.DiscoverRoot(workRepo)
	if err != nil {
		return HostRepo{}, err
	}
	return HostRepo{Root: root, GitDir: gitDir}, nil
}

// ModulesRoot is the top-level container for detached module stores.
func (h HostRepo) ModulesRoot() string {
	return filepath.Join(h.GitDir, "modules")
}

// StorePath computes the canonical module store location for a
// relative submodule path.
func (h HostRepo) StorePath(relPath string) string {
	return filepath.Join(h.ModulesRoot(), filepath.FromSlash(relPath))
}

func (h HostRepo) gitmodulesFile(run gitutil.Runner) gitutil.ConfigFile {
	return gitutil.NewConfigFile(run, h.Root, filepath.Join(h.Root, ".gitmodules"))
}

func (h HostRepo) localConfigFile(run gitutil.Runner) gitutil.ConfigFile {
	return gitutil.NewConfigFile(run, h.Root, filepath.Join(h.GitDir, "config"))
}
