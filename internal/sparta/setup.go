package sparta

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/kb-dev/git-sparta/internal/attrs"
	"github.com/kb-dev/git-sparta/internal/config"
	"github.com/kb-dev/git-sparta/internal/fsutil"
	"github.com/kb-dev/git-sparta/internal/gitutil"
	"github.com/kb-dev/git-sparta/internal/ui"
)

// Setup configures a sparse submodule clone for the project declared
// in configDir.
//
// Requirements / invariants:
//   - git must be available before any mutation (pre-flight).
//   - The configuration directory must hold a qualifying JSON record.
//   - Tag resolution must produce at least one pattern.
//   - A declined confirmation aborts with no side effects.
//
// Step-by-step:
//
//  1. Load the resolved configuration (base record, local overrides,
//     environment overrides).
//  2. Resolve the project tag to a sparse pattern set, reading
//     attribute data from the mirror when one is configured, else from
//     the submodule working copy.
//  3. Print a summary and ask for confirmation.
//  4. Ensure the manifest registration and the local url binding
//     (registry first, to fail fast on configuration mismatches).
//  5. Drive the bootstrapper to StoreReady.
//  6. Write the pattern set and materialize the sparse working tree.
//  7. Hydrate LFS content within the sparse scope.
//
// Every step re-derives on-disk state, so re-running after a failure
// resumes rather than replays; a second run with unchanged inputs
// fetches nothing and leaves identical state behind.
func Setup(d Deps, configDir string, confirm ui.Confirmer) error {
	if _, err := gitutil.Version(d.Run); err != nil {
		return fmt.Errorf("%w: %v", ErrToolingUnavailable, err)
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	resolution, err := resolvePatterns(d, cfg)
	if err != nil {
		return err
	}

	out := d.Out
	out.Divider()
	out.Heading("Submodule setup summary")
	out.LabelValue("Configuration", cfg.SourceFile)
	out.LabelValue("Submodule", cfg.Name)
	out.LabelValue("Path", cfg.Path)
	out.LabelValue("URL", cfg.URL)
	out.LabelValue("Branch", cfg.Branch)
	out.LabelValue("Project Tag", cfg.ProjectTag)
	out.LabelValue("Sparse Patterns", len(resolution.Patterns))
	if cfg.MirrorPath != "" {
		out.LabelValue("Mirror", cfg.MirrorPath)
	} else {
		out.Note("Mirror: <none>")
	}
	out.Divider()

	accepted, err := confirm("Proceed with submodule setup?", true)
	if err != nil {
		return err
	}
	if !accepted {
		return ErrAborted
	}

	host, err := openHost(cfg.WorkRepo)
	if err != nil {
		return err
	}
	log.Info().Str("repo", host.Root).Str("submodule", cfg.Name).Msg("Setting up sparse submodule")

	result, err := Register(d.Run, host, cfg)
	if err != nil {
		return err
	}
	switch result {
	case RegisteredNew:
		out.Success("Registered submodule in .gitmodules")
	case RegisteredUpdated:
		out.Success("Updated .gitmodules")
	}
	if err := SyncLocalURL(d.Run, host, cfg); err != nil {
		return err
	}

	store, err := NewBootstrapper(d.Run, out, host, cfg).Ensure()
	if err != nil {
		return err
	}
	out.Success("Module store ready")

	if err := ApplySparse(store, resolution.Patterns); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Configured sparse checkout (%d patterns)", len(resolution.Patterns)))

	if err := HydrateLFS(d.Run, store, out); err != nil {
		return err
	}

	out.Divider()
	out.Success(fmt.Sprintf("Submodule %q set up with sparse checkout", cfg.Name))
	out.Note("Working tree: " + cfg.Path)
	return nil
}

// resolvePatterns runs tag resolution against the repository whose
// attribute data describes the shared assets: the mirror when
// configured (avoiding any network or local materialization
// dependency), else the submodule's own working copy.
func resolvePatterns(d Deps, cfg *config.Config) (*attrs.Resolution, error) {
	source := cfg.Path
	if cfg.MirrorPath != "" {
		source = cfg.MirrorPath
	}
	if !fsutil.Exists(filepath.Join(source, ".git")) {
		return nil, fmt.Errorf("%w: no git repository at %s to resolve patterns against", ErrLayout, source)
	}
	return attrs.NewResolver(d.Run, d.Attribute).Resolve(source, cfg.ProjectTag)
}
