package gitutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kb-dev/git-sparta/internal/fsutil"
)

// Repo addresses a git object store and an optional working tree by
// explicit paths. Every command is issued with --git-dir (and
// --work-tree when set) so nothing depends on the process working
// directory.
type Repo struct {
	run      Runner
	GitDir   string
	WorkTree string
}

func NewRepo(run Runner, gitDir, workTree string) Repo {
	return Repo{run: run, GitDir: gitDir, WorkTree: workTree}
}

func (p Repo) git(args ...string) (string, error) {
	return p.run.Run(filepath.Dir(p.GitDir), p.prefix(args)...)
}

func (p Repo) gitInput(input string, args ...string) (string, error) {
	return p.run.RunInput(filepath.Dir(p.GitDir), input, p.prefix(args)...)
}

func (p Repo) prefix(args []string) []string {
	full := []string{"--git-dir", p.GitDir}
	if p.WorkTree != "" {
		full = append(full, "--work-tree", p.WorkTree)
	}
	return append(full, args...)
}

// InitBare initializes a bare repository at path.
func InitBare(run Runner, path string) error {
	if err := fsutil.CreateDir(path); err != nil {
		return err
	}
	_, err := run.Run("", "init", "--bare", "-q", path)
	return err
}

// ConfigSet sets a key in the repository's own configuration.
func (p Repo) ConfigSet(key, value string) error {
	_, err := p.git("config", key, value)
	return err
}

// ConfigGet returns the value for key, or ok=false when unset.
func (p Repo) ConfigGet(key string) (string, bool) {
	out, err := p.git("config", "--get", key)
	if err != nil {
		return "", false
	}
	return out, true
}

// RemoteURL returns the url of the named remote, or ok=false when the
// remote does not exist.
func (p Repo) RemoteURL(name string) (string, bool) {
	out, err := p.git("remote", "get-url", name)
	if err != nil {
		return "", false
	}
	return out, true
}

// AddRemote registers a new remote.
func (p Repo) AddRemote(name, url string) error {
	_, err := p.git("remote", "add", name, url)
	return err
}

// Fetch performs a fetch of refspec from remote, shallow when depth > 0.
func (p Repo) Fetch(remote, refspec string, depth int) error {
	args := []string{"fetch"}
	if depth > 0 {
		args = append(args, fmt.Sprintf("--depth=%d", depth))
	}
	args = append(args, remote, refspec)
	_, err := p.git(args...)
	return err
}

// RevParse resolves a ref to a commit identifier.
func (p Repo) RevParse(ref string) (string, error) {
	return p.git("rev-parse", ref)
}

// HasObject reports whether the object database (including alternates)
// contains the object.
func (p Repo) HasObject(sha string) bool {
	_, err := p.git("cat-file", "-e", sha)
	return err == nil
}

// UpdateRef points ref at a commit.
func (p Repo) UpdateRef(ref, sha string) error {
	_, err := p.git("update-ref", ref, sha)
	return err
}

// SymbolicRef makes name a symbolic ref to target.
func (p Repo) SymbolicRef(name, target string) error {
	_, err := p.git("symbolic-ref", name, target)
	return err
}

// IsClean reports whether the working tree has no uncommitted changes.
func (p Repo) IsClean() (bool, error) {
	out, err := p.git("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// ReadTree folds the given tree-ish into the index and working tree,
// honoring the sparse-checkout configuration.
func (p Repo) ReadTree(treeish string) error {
	_, err := p.git("read-tree", "-mu", treeish)
	return err
}

// CheckoutIndex materializes all index entries into the working tree.
func (p Repo) CheckoutIndex() error {
	_, err := p.git("checkout-index", "--all", "--force")
	return err
}

// SkipWorktreePaths returns the set of index entries flagged
// skip-worktree, i.e. excluded by the active sparse patterns.
func (p Repo) SkipWorktreePaths() (map[string]bool, error) {
	out, err := p.git("ls-files", "-t")
	if err != nil {
		return nil, err
	}
	skipped := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "S "); ok {
			skipped[rest] = true
		}
	}
	return skipped, nil
}

// AddAlternate appends an external object path to the store's
// alternates list, preserving any entries already present.
// Returns true if the list was modified.
func (p Repo) AddAlternate(objectsPath string) (bool, error) {
	alternates := filepath.Join(p.GitDir, "objects", "info", "alternates")
	return fsutil.AppendLineIfAbsent(alternates, objectsPath)
}

// DiscoverRoot walks upward from start to the root of the outermost
// enclosing repository. Paths whose .git is a file (submodule working
// trees) are stepped over so the host repository is always found.
// Returns the worktree root and its git directory.
func DiscoverRoot(start string) (string, string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", "", err
	}
	if resolved, err := filepath.EvalSymlinks(current); err == nil {
		current = resolved
	}
	current = filepath.Clean(current)

	for {
		gitPath := filepath.Join(current, ".git")
		if fsutil.IsDir(gitPath) {
			return current, gitPath, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", "", fmt.Errorf("%s is not inside a git repository", start)
		}
		current = parent
	}
}

// TopLevel returns the working tree root of the nearest repository
// enclosing dir. Unlike DiscoverRoot this honors `gitdir:` indirection
// markers, so inside a submodule working tree it yields the submodule
// root, not the host.
func TopLevel(r Runner, dir string) (string, error) {
	out, err := r.Run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%s is not inside a git repository: %w", dir, err)
	}
	return filepath.Clean(out), nil
}

// ResolveGitDir reads a `gitdir:` indirection file at workTree/.git if
// one exists, returning the store location it names. Returns ok=false
// when no indirection marker is present.
func ResolveGitDir(workTree string) (string, bool) {
	marker := filepath.Join(workTree, ".git")
	info, err := os.Stat(marker)
	if err != nil || info.IsDir() {
		return "", false
	}
	content, err := fsutil.ReadTextFile(marker)
	if err != nil {
		return "", false
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(content), "gitdir:")
	if !ok {
		return "", false
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(workTree, target)
	}
	return filepath.Clean(target), true
}
