package gitutil

import "strings"

// LFS operations run against an explicit store/worktree pair. Every
// call tolerates a missing worktree binding by relying on the Repo's
// --git-dir/--work-tree prefix rather than repository discovery.

// LFSInstall installs the LFS filters into the repository's local
// configuration only.
func (p Repo) LFSInstall() error {
	_, err := p.git("lfs", "install", "--local")
	return err
}

// LFSFetch downloads LFS content for the current HEAD without smudging
// any working tree files.
func (p Repo) LFSFetch() error {
	_, err := p.git("lfs", "fetch")
	return err
}

// LFSTrackedPaths lists every LFS-tracked path known to the store for
// the current HEAD, regardless of sparse scope.
func (p Repo) LFSTrackedPaths() ([]string, error) {
	out, err := p.git("lfs", "ls-files", "--name-only")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// LFSCheckout replaces pointer files with real content for the given
// paths only.
func (p Repo) LFSCheckout(paths []string) error {
	args := append([]string{"lfs", "checkout", "--"}, paths...)
	_, err := p.git(args...)
	return err
}
