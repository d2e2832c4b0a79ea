package sparta

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kb-dev/git-sparta/internal/fsutil"
	"github.com/kb-dev/git-sparta/internal/gitutil"
)

// ApplySparse enables non-cone sparse checkout on the store, writes
// the pattern set, and materializes the working tree restricted to it.
//
// The pattern file is replaced wholesale on every run: patterns are
// always recomputed from current attribute state, never merged with a
// prior set, so files that lost their tag drop out of the working tree
// and newly tagged files appear.
func ApplySparse(store gitutil.Repo, patterns []string) error {
	if err := store.ConfigSet("core.sparseCheckout", "true"); err != nil {
		return fmt.Errorf("failed to enable sparse checkout: %w", err)
	}
	// Patterns are individual file matches, not directory cones.
	if err := store.ConfigSet("core.sparseCheckoutCone", "false"); err != nil {
		return fmt.Errorf("failed to disable cone mode: %w", err)
	}

	if err := writePatternFile(store.GitDir, patterns); err != nil {
		return err
	}

	if err := store.ReadTree("HEAD"); err != nil {
		return fmt.Errorf("failed to read tree into sparse index: %w", err)
	}
	if err := store.CheckoutIndex(); err != nil {
		return fmt.Errorf("failed to materialize sparse files: %w", err)
	}

	log.Debug().Int("patterns", len(patterns)).Msg("Applied sparse checkout")
	return nil
}

// writePatternFile writes one trimmed pattern per line with a trailing
// newline and no blank lines, deduplicated in first-seen order.
func writePatternFile(gitDir string, patterns []string) error {
	seen := make(map[string]bool, len(patterns))
	var lines []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || seen[pattern] {
			continue
		}
		seen[pattern] = true
		lines = append(lines, pattern)
	}

	file := filepath.Join(gitDir, "info", "sparse-checkout")
	if err := fsutil.WriteTextFile(file, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("failed to write sparse pattern file: %w", err)
	}
	return nil
}
