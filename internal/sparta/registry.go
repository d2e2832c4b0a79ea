package sparta

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kb-dev/git-sparta/internal/config"
	"github.com/kb-dev/git-sparta/internal/gitutil"
)

// RegisterResult reports what Register did to the manifest.
type RegisterResult int

const (
	// RegisteredNew: no entry existed; one was created and staged.
	RegisteredNew RegisterResult = iota
	// RegisteredUpdated: the entry existed and url/branch drifted.
	RegisteredUpdated
	// RegisteredUnchanged: the entry already matched the config.
	RegisteredUnchanged
)

// Register ensures the committed manifest (.gitmodules) carries the
// submodule's path/url/branch, staging the manifest when it changes.
//
// An existing entry whose path differs from the computed relative path
// is fatal: overlapping or relocated registrations are an operator
// decision, never an automatic correction.
func Register(run gitutil.Runner, host HostRepo, cfg *config.Config) (RegisterResult, error) {
	manifest := host.gitmodulesFile(run)
	section := "submodule." + cfg.Name

	existingPath, exists := manifest.Get(section + ".path")
	if exists && existingPath != cfg.RelPath {
		return RegisteredUnchanged, fmt.Errorf(
			"%w: submodule %q is registered at %q but the configuration computes %q",
			ErrPathMismatch, cfg.Name, existingPath, cfg.RelPath)
	}

	changed := false
	entries := []struct{ key, value string }{
		{section + ".path", cfg.RelPath},
		{section + ".url", cfg.URL},
		{section + ".branch", cfg.Branch},
	}
	for _, e := range entries {
		wrote, err := manifest.Set(e.key, e.value)
		if err != nil {
			return RegisteredUnchanged, fmt.Errorf("failed to update %s: %w", manifest.Path(), err)
		}
		changed = changed || wrote
	}

	if changed {
		if err := gitutil.Stage(run, host.Root, ".gitmodules"); err != nil {
			return RegisteredUnchanged, fmt.Errorf("failed to stage .gitmodules: %w", err)
		}
	}

	switch {
	case !exists:
		log.Debug().Str("submodule", cfg.Name).Msg("Registered new submodule in manifest")
		return RegisteredNew, nil
	case changed:
		log.Debug().Str("submodule", cfg.Name).Msg("Updated submodule manifest entry")
		return RegisteredUpdated, nil
	default:
		return RegisteredUnchanged, nil
	}
}

// SyncLocalURL forces the local (uncommitted) url binding to the
// config's effective post-override url, so one clone can point at a
// private mirror without touching shared history.
func SyncLocalURL(run gitutil.Runner, host HostRepo, cfg *config.Config) error {
	local := host.localConfigFile(run)
	section := "submodule." + cfg.Name
	if _, err := local.Set(section+".url", cfg.URL); err != nil {
		return fmt.Errorf("failed to set local submodule url: %w", err)
	}
	if _, err := local.Set(section+".branch", cfg.Branch); err != nil {
		return fmt.Errorf("failed to set local submodule branch: %w", err)
	}
	return nil
}

// Unregister removes the manifest and local configuration entries for
// name. Absence of either entry is success. Returns whether the
// manifest changed.
func Unregister(run gitutil.Runner, host HostRepo, name string) (bool, error) {
	manifest := host.gitmodulesFile(run)
	removed, err := manifest.RemoveSection("submodule." + name)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", manifest.Path(), err)
	}
	if removed {
		if err := gitutil.Stage(run, host.Root, ".gitmodules"); err != nil {
			return false, fmt.Errorf("failed to stage .gitmodules: %w", err)
		}
	}

	local := host.localConfigFile(run)
	if _, err := local.RemoveSection("submodule." + name); err != nil {
		return removed, fmt.Errorf("failed to update local git config: %w", err)
	}
	return removed, nil
}

// IsRegistered reports whether the manifest holds an entry for name.
func IsRegistered(run gitutil.Runner, host HostRepo, name string) bool {
	_, ok := host.gitmodulesFile(run).Get("submodule." + name + ".path")
	return ok
}
