package sparta

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kb-dev/git-sparta/internal/gitutil"
	"github.com/kb-dev/git-sparta/internal/ui"
)

// HydrateLFS replaces large-file pointers with real content, but only
// for paths inside the active sparse scope. Content is first fetched
// without smudging, then checked out per path, so bandwidth and local
// storage are spent only on files that are both LFS-tracked and part
// of the current pattern set.
//
// A missing git-lfs extension degrades to a warning: pointer files
// stay in place and everything else keeps working.
func HydrateLFS(run gitutil.Runner, store gitutil.Repo, out ui.Sink) error {
	if _, err := gitutil.LFSVersion(run); err != nil {
		out.Warn("git-lfs is not installed; large files remain as pointers")
		return nil
	}

	if err := store.LFSInstall(); err != nil {
		out.Warn(fmt.Sprintf("git lfs install failed; large files remain as pointers: %v", err))
		return nil
	}

	out.Note("Fetching LFS objects...")
	if err := store.LFSFetch(); err != nil {
		// Alternates may already provide the objects; checkout below
		// is the authoritative failure point.
		out.Warn(fmt.Sprintf("git lfs fetch: %v", err))
	}

	tracked, err := store.LFSTrackedPaths()
	if err != nil {
		return fmt.Errorf("failed to enumerate LFS-tracked paths: %w", err)
	}
	if len(tracked) == 0 {
		return nil
	}

	skipped, err := store.SkipWorktreePaths()
	if err != nil {
		return fmt.Errorf("failed to inspect sparse index state: %w", err)
	}

	var hydrate []string
	for _, path := range tracked {
		if !skipped[path] {
			hydrate = append(hydrate, path)
		}
	}
	if len(hydrate) == 0 {
		out.Note("No LFS files inside the sparse scope")
		return nil
	}

	if err := store.LFSCheckout(hydrate); err != nil {
		return fmt.Errorf("failed to hydrate LFS content: %w", err)
	}

	log.Debug().
		Int("tracked", len(tracked)).
		Int("hydrated", len(hydrate)).
		Msg("Hydrated LFS content within sparse scope")
	out.Success(fmt.Sprintf("Hydrated %d LFS files", len(hydrate)))
	return nil
}
