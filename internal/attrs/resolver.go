// Package attrs resolves project tags against the repository's
// file-attribute data and derives sparse-checkout pattern sets.
package attrs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kb-dev/git-sparta/internal/fsutil"
	"github.com/kb-dev/git-sparta/internal/gitutil"
)

// DefaultAttribute is the attribute key consulted when none is
// configured.
const DefaultAttribute = "projects"

// GlobalToken marks a file as belonging to every project.
const GlobalToken = "global"

// ErrNoMatch indicates that tag resolution produced zero patterns.
var ErrNoMatch = errors.New("no matching attribute entries found")

// Match is one (file path, matched token) pair. A file may match
// several tokens, e.g. its own tag plus "global".
type Match struct {
	Path  string
	Token string
}

// Resolution is the full outcome of resolving one tag: the sorted,
// deduplicated match pairs plus the derived token and pattern sets.
type Resolution struct {
	Matches  []Match
	Tokens   []string
	Patterns []string
}

// Resolver queries a named attribute over the tracked files of a
// repository. Purely read-only.
type Resolver struct {
	run       gitutil.Runner
	attribute string
}

func NewResolver(run gitutil.Runner, attribute string) Resolver {
	if attribute == "" {
		attribute = DefaultAttribute
	}
	return Resolver{run: run, attribute: attribute}
}

// Resolve computes the pattern set for tag over the repository at dir.
//
// A token matches when it equals "global" or contains the tag as a
// case-sensitive substring. The substring rule is deliberately
// over-inclusive (tag "P1" also matches "P10-assets"); it mirrors how
// the attribute data has always been written.
func (r Resolver) Resolve(dir, tag string) (*Resolution, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, errors.New("project tag must not be empty")
	}

	values, paths, err := r.scan(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[Match]bool)
	var matches []Match
	for _, path := range paths {
		for _, token := range tokensOf(values[path]) {
			if token != GlobalToken && !strings.Contains(token, tag) {
				continue
			}
			m := Match{Path: path, Token: token}
			if !seen[m] {
				seen[m] = true
				matches = append(matches, m)
			}
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w for tag %q in %s", ErrNoMatch, tag, dir)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Token < matches[j].Token
	})

	res := &Resolution{Matches: matches}
	tokenSet := make(map[string]bool)
	patternSet := make(map[string]bool)
	for _, m := range matches {
		if !tokenSet[m.Token] {
			tokenSet[m.Token] = true
			res.Tokens = append(res.Tokens, m.Token)
		}
		if !patternSet[m.Path] {
			patternSet[m.Path] = true
			res.Patterns = append(res.Patterns, m.Path)
		}
	}
	sort.Strings(res.Tokens)
	sort.Strings(res.Patterns)

	log.Debug().
		Str("tag", tag).
		Int("patterns", len(res.Patterns)).
		Int("tokens", len(res.Tokens)).
		Msg("Resolved project tag")
	return res, nil
}

// DiscoverTags counts every token present in the attribute data,
// regardless of any target tag.
func (r Resolver) DiscoverTags(dir string) (map[string]int, error) {
	values, paths, err := r.scan(dir)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, path := range paths {
		for _, token := range tokensOf(values[path]) {
			counts[token]++
		}
	}
	return counts, nil
}

func (r Resolver) scan(dir string) (map[string]string, []string, error) {
	values := make(map[string]string)
	var paths []string
	if err := r.scanInto(dir, "", values, &paths); err != nil {
		return nil, nil, err
	}
	return values, paths, nil
}

// scanInto collects attribute values for the tracked files of the
// repository at dir, recording each path qualified by prefix. Gitlink
// entries are not matched themselves; when their working tree exists
// the nested repository is scanned with an extended prefix, so a tag
// resolves identically from the host root and from inside a deployed
// submodule.
func (r Resolver) scanInto(dir, prefix string, values map[string]string, paths *[]string) error {
	tracked, err := gitutil.ListTracked(r.run, dir)
	if err != nil {
		return fmt.Errorf("failed to enumerate tracked files in %s: %w", dir, err)
	}
	gitlinks, err := gitutil.ListGitlinks(r.run, dir)
	if err != nil {
		return fmt.Errorf("failed to enumerate submodules in %s: %w", dir, err)
	}
	linked := make(map[string]bool, len(gitlinks))
	for _, sub := range gitlinks {
		linked[sub] = true
	}

	var files []string
	for _, path := range tracked {
		if !linked[path] {
			files = append(files, path)
		}
	}
	local, err := gitutil.CheckAttr(r.run, dir, r.attribute, files)
	if err != nil {
		return err
	}
	for _, path := range files {
		qualified := joinPrefix(prefix, path)
		values[qualified] = local[path]
		*paths = append(*paths, qualified)
	}

	for _, sub := range gitlinks {
		subDir := filepath.Join(dir, filepath.FromSlash(sub))
		if !fsutil.Exists(filepath.Join(subDir, ".git")) {
			continue
		}
		if err := r.scanInto(subDir, joinPrefix(prefix, sub), values, paths); err != nil {
			return err
		}
	}
	return nil
}

func joinPrefix(prefix, path string) string {
	if prefix == "" {
		return path
	}
	return prefix + "/" + path
}

// tokensOf splits a raw attribute value into trimmed tokens. The
// sentinels "unspecified" and "unset" mean no tag; a bare boolean
// attribute counts as the global token.
func tokensOf(raw string) []string {
	switch raw {
	case "", "unspecified", "unset":
		return nil
	case "set":
		return []string{GlobalToken}
	}
	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
