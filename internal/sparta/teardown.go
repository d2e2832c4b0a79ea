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

// Teardown reverses Setup, leaving the repository indistinguishable
// from one where the submodule was never configured, pending a commit
// of the staged removal.
//
// Preconditions (fatal when unmet):
//   - A manifest entry exists for the configured name.
//   - If the module store exists, its status is clean. Teardown never
//     discards uncommitted changes.
//   - The operator confirms (default deny).
//
// Mutation order: manifest entry (staged when changed) → local config
// entry → gitlink index entry (left as a staged removal when the path
// was tracked) → working directory → module store → empty store
// ancestors up to, not including, the store container.
func Teardown(d Deps, configDir string, confirm ui.Confirmer) error {
	if _, err := gitutil.Version(d.Run); err != nil {
		return fmt.Errorf("%w: %v", ErrToolingUnavailable, err)
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	host, err := openHost(cfg.WorkRepo)
	if err != nil {
		return err
	}

	if !IsRegistered(d.Run, host, cfg.Name) {
		return fmt.Errorf("%w: no .gitmodules entry for %q", ErrNotRegistered, cfg.Name)
	}

	storePath := storeLocation(host, cfg)
	if fsutil.Exists(storePath) && fsutil.Exists(cfg.Path) {
		store := gitutil.NewRepo(d.Run, storePath, cfg.Path)
		clean, err := store.IsClean()
		if err != nil {
			return fmt.Errorf("failed to check module store status: %w", err)
		}
		if !clean {
			return fmt.Errorf("%w at %s; commit or discard them first", ErrDirtyState, cfg.Path)
		}
	}

	out := d.Out
	out.Divider()
	out.Heading("Submodule teardown summary")
	out.LabelValue("Submodule", cfg.Name)
	out.LabelValue("Path", cfg.Path)
	out.LabelValue("Project Tag", cfg.ProjectTag)
	out.Divider()

	accepted, err := confirm(
		fmt.Sprintf("Remove submodule %q and clean metadata?", cfg.Name), false)
	if err != nil {
		return err
	}
	if !accepted {
		return ErrAborted
	}

	_, tracked, err := gitutil.GitlinkSHA(d.Run, host.Root, cfg.RelPath)
	if err != nil {
		return fmt.Errorf("failed to inspect index at %s: %w", cfg.RelPath, err)
	}

	manifestChanged, err := Unregister(d.Run, host, cfg.Name)
	if err != nil {
		return err
	}
	if manifestChanged {
		out.Success("Removed entry from .gitmodules")
	}
	out.Success("Removed local configuration entry")

	// Dropping the index entry stages the removal when the path is
	// present in HEAD; absence is tolerated.
	if tracked {
		if err := gitutil.RemoveIndexEntry(d.Run, host.Root, cfg.RelPath); err != nil {
			return fmt.Errorf("failed to remove gitlink from index: %w", err)
		}
		out.Success("Removed gitlink from index")
	}

	if fsutil.Exists(cfg.Path) {
		if err := os.RemoveAll(cfg.Path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", cfg.Path, err)
		}
		out.Success("Deleted working directory " + cfg.Path)
	}

	if fsutil.Exists(storePath) {
		if err := os.RemoveAll(storePath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", storePath, err)
		}
		fsutil.PruneEmptyDirs(filepath.Dir(storePath), host.ModulesRoot())
		out.Success("Removed module store")
	}

	log.Info().Str("submodule", cfg.Name).Msg("Submodule removed")
	out.Success(fmt.Sprintf("Submodule %q removed", cfg.Name))
	if tracked {
		out.Note("The path removal is staged; review git status and commit.")
	}
	return nil
}

// storeLocation mirrors the bootstrapper's store placement rule
// without requiring a bootstrapper.
func storeLocation(host HostRepo, cfg *config.Config) string {
	if gitDir, ok := gitutil.ResolveGitDir(cfg.Path); ok {
		return gitDir
	}
	return host.StorePath(cfg.RelPath)
}
