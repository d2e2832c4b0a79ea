package sparta

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/kb-dev/git-sparta/internal/config"
	"github.com/kb-dev/git-sparta/internal/fsutil"
	"github.com/kb-dev/git-sparta/internal/gitutil"
	"github.com/kb-dev/git-sparta/internal/ui"
)

// Bootstrapper drives the submodule store state machine:
//
//	NoGitlink → GitlinkNoStore → StoreUnconfigured → StoreReady
//
// Every transition re-inspects current on-disk state before acting, so
// a retried invocation resumes from wherever it actually left off.
// StoreReady means: module store exists, non-bare, worktree-bound, has
// an origin remote, HEAD resolved — working directory not yet
// populated.
type Bootstrapper struct {
	run  gitutil.Runner
	out  ui.Sink
	host HostRepo
	cfg  *config.Config
}

func NewBootstrapper(run gitutil.Runner, out ui.Sink, host HostRepo, cfg *config.Config) *Bootstrapper {
	return &Bootstrapper{run: run, out: out, host: host, cfg: cfg}
}

// Ensure walks the state machine to StoreReady and returns a handle on
// the ready store. Only the bootstrapper creates the gitlink and the
// module store; only teardown deletes them.
func (b *Bootstrapper) Ensure() (gitutil.Repo, error) {
	sha, tracked, err := gitutil.GitlinkSHA(b.run, b.host.Root, b.cfg.RelPath)
	if err != nil {
		return gitutil.Repo{}, fmt.Errorf("failed to inspect index at %s: %w", b.cfg.RelPath, err)
	}

	if !tracked {
		sha, err = b.createGitlink()
		if err != nil {
			return gitutil.Repo{}, err
		}
		b.out.Success("Added gitlink to index")
	} else {
		b.out.Note("Gitlink already exists in index")
	}

	// Wire the committed manifest entry into the local configuration.
	if err := gitutil.SubmoduleInit(b.run, b.host.Root, b.cfg.RelPath); err != nil {
		return gitutil.Repo{}, fmt.Errorf("failed to init submodule metadata: %w", err)
	}

	return b.ensureStore(sha)
}

// StoreLocation returns where the module store lives: the canonical
// path under the host's internal store hierarchy, unless an existing
// indirection marker at the working path already names another
// location. An operator-made layout is respected, not repaired.
func (b *Bootstrapper) StoreLocation() string {
	return storeLocation(b.host, b.cfg)
}

// createGitlink resolves the branch head through a transient store and
// records it as a gitlink. The transient store is deleted before the
// index is touched, so gitlink creation never implies a materialized
// working tree.
func (b *Bootstrapper) createGitlink() (string, error) {
	if err := fsutil.CreateDir(b.cfg.Path); err != nil {
		return "", err
	}

	tmp, err := os.MkdirTemp("", "sparta-resolve-")
	if err != nil {
		return "", fmt.Errorf("failed to create transient store: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := gitutil.InitBare(b.run, tmp); err != nil {
		return "", fmt.Errorf("failed to initialize transient store: %w", err)
	}
	transient := gitutil.NewRepo(b.run, tmp, "")
	if err := transient.AddRemote("origin", b.cfg.URL); err != nil {
		return "", fmt.Errorf("failed to add origin remote: %w", err)
	}
	b.configureMirrorAlternate(transient)

	b.out.Note(fmt.Sprintf("Fetching %s from %s...", b.cfg.Branch, b.cfg.URL))
	if err := transient.Fetch("origin", b.cfg.Branch, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	sha, err := transient.RevParse("FETCH_HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve fetched head: %w", err)
	}

	// The transient store must be gone before the gitlink lands.
	if err := os.RemoveAll(tmp); err != nil {
		return "", fmt.Errorf("failed to delete transient store: %w", err)
	}

	if err := gitutil.AddGitlink(b.run, b.host.Root, sha, b.cfg.RelPath); err != nil {
		return "", err
	}
	log.Debug().Str("sha", sha).Str("path", b.cfg.RelPath).Msg("Created gitlink")
	return sha, nil
}

// ensureStore creates or repairs the module store and brings it to the
// StoreReady state for the given gitlink commit.
func (b *Bootstrapper) ensureStore(sha string) (gitutil.Repo, error) {
	location := b.StoreLocation()

	if !fsutil.Exists(location) {
		b.out.Note(fmt.Sprintf("Initializing module store at %s", location))
		if err := gitutil.InitBare(b.run, location); err != nil {
			return gitutil.Repo{}, fmt.Errorf("failed to create module store: %w", err)
		}
	}

	store := gitutil.NewRepo(b.run, location, b.cfg.Path)

	// Bind the store to its working directory.
	if err := store.ConfigSet("core.bare", "false"); err != nil {
		return gitutil.Repo{}, fmt.Errorf("failed to configure module store: %w", err)
	}
	if err := store.ConfigSet("core.worktree", b.cfg.Path); err != nil {
		return gitutil.Repo{}, fmt.Errorf("failed to bind store worktree: %w", err)
	}

	if _, ok := store.RemoteURL("origin"); !ok {
		if err := store.AddRemote("origin", b.cfg.URL); err != nil {
			return gitutil.Repo{}, fmt.Errorf("failed to add origin remote: %w", err)
		}
		b.out.Note("Added remote 'origin'")
	}

	b.configureMirrorAlternate(store)

	// Fetch only when the gitlink commit is not locally reachable;
	// a ready store re-enters this transition without network calls.
	target := sha
	if !store.HasObject(sha) {
		b.out.Note(fmt.Sprintf("Fetching commit %s...", sha))
		if err := store.Fetch("origin", b.cfg.Branch, 1); err != nil {
			return gitutil.Repo{}, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		if !store.HasObject(sha) {
			fetched, err := store.RevParse("FETCH_HEAD")
			if err != nil {
				return gitutil.Repo{}, fmt.Errorf("failed to resolve fetched head: %w", err)
			}
			target = fetched
		}
	}

	if err := store.UpdateRef("HEAD", target); err != nil {
		return gitutil.Repo{}, fmt.Errorf("failed to update HEAD: %w", err)
	}
	if err := store.UpdateRef("refs/heads/"+b.cfg.Branch, target); err != nil {
		return gitutil.Repo{}, fmt.Errorf("failed to update branch ref: %w", err)
	}
	if err := store.SymbolicRef("HEAD", "refs/heads/"+b.cfg.Branch); err != nil {
		return gitutil.Repo{}, fmt.Errorf("failed to set symbolic HEAD: %w", err)
	}

	if err := b.writeWorktreeMarker(location); err != nil {
		return gitutil.Repo{}, err
	}

	log.Debug().Str("store", location).Str("head", target).Msg("Module store ready")
	return store, nil
}

// configureMirrorAlternate appends the mirror's object database to the
// store's alternates, once, and only when the mirror actually has one.
// Existing alternate entries are never overwritten.
func (b *Bootstrapper) configureMirrorAlternate(store gitutil.Repo) {
	if b.cfg.MirrorPath == "" {
		return
	}
	mirrorObjects := filepath.Join(b.cfg.MirrorPath, ".git", "objects")
	if !fsutil.Exists(mirrorObjects) {
		return
	}
	added, err := store.AddAlternate(mirrorObjects)
	if err != nil {
		b.out.Warn(fmt.Sprintf("failed to configure mirror alternate: %v", err))
		return
	}
	if added {
		b.out.Note("Configured object alternates from mirror")
	}
}

// writeWorktreeMarker drops the `gitdir:` indirection file binding the
// working directory to the module store.
func (b *Bootstrapper) writeWorktreeMarker(storePath string) error {
	if err := fsutil.CreateDir(b.cfg.Path); err != nil {
		return err
	}
	rel, err := filepath.Rel(b.cfg.Path, storePath)
	if err != nil {
		rel = storePath
	}
	marker := filepath.Join(b.cfg.Path, ".git")
	if fsutil.IsDir(marker) {
		return fmt.Errorf("%w: %s holds a nested repository, expected a gitlink", ErrLayout, b.cfg.Path)
	}
	return fsutil.WriteTextFile(marker, "gitdir: "+fsutil.NormalizePath(rel)+"\n")
}
