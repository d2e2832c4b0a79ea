// Package config discovers the submodule configuration record and
// applies the override precedence chain: committed JSON, then local
// override files, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/kb-dev/git-sparta/internal/fsutil"
)

// Required configuration keys. A JSON object qualifies as the
// configuration record only when it carries all of them.
var requiredKeys = []string{
	"SUBMODULE_NAME",
	"SUBMODULE_PATH",
	"SUBMODULE_URL",
	"SUBMODULE_BRANCH",
	"PROJECT_TAG",
}

// Keys that local override files and the environment may replace.
const (
	keyURL    = "SUBMODULE_URL"
	keyMirror = "SHARED_MIRROR_PATH"
)

// ErrNotFound indicates that no JSON file in the scanned directory
// contained a qualifying configuration record.
var ErrNotFound = errors.New("no submodule configuration record found")

// Config is the immutable resolved configuration for one invocation.
type Config struct {
	Name       string
	Path       string // absolute, for filesystem operations
	RelPath    string // canonical relative, for git metadata
	URL        string
	Branch     string
	ProjectTag string
	MirrorPath string // optional
	SourceFile string
	WorkRepo   string
}

// Overrides carries the two keys a clone may rebind locally without
// touching shared history.
type Overrides struct {
	URL        string
	MirrorPath string
}

// Load resolves the configuration for configDir: the first qualifying
// record from the sibling JSON files, local overrides applied in fixed
// precedence order, and environment variables applied last.
func Load(configDir string) (*Config, error) {
	dir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", configDir, err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	cfg, err := findBaseConfig(dir)
	if err != nil {
		return nil, err
	}
	cfg.WorkRepo = dir

	local, err := loadLocalOverrides(dir)
	if err != nil {
		return nil, err
	}
	cfg.apply(local)
	cfg.apply(envOverrides())

	if err := cfg.normalizePaths(dir); err != nil {
		return nil, err
	}

	log.Debug().
		Str("source", cfg.SourceFile).
		Str("submodule", cfg.Name).
		Str("tag", cfg.ProjectTag).
		Msg("Resolved submodule configuration")
	return cfg, nil
}

func (c *Config) apply(o Overrides) {
	if o.URL != "" {
		c.URL = o.URL
	}
	if o.MirrorPath != "" {
		c.MirrorPath = o.MirrorPath
	}
}

func (c *Config) normalizePaths(dir string) error {
	path := c.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	c.Path = filepath.Clean(path)

	rel, err := filepath.Rel(dir, c.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("submodule path %s is not inside %s", c.Path, dir)
	}
	c.RelPath = fsutil.NormalizePath(rel)

	if c.MirrorPath != "" {
		if !filepath.IsAbs(c.MirrorPath) {
			c.MirrorPath = filepath.Join(dir, c.MirrorPath)
		}
		c.MirrorPath = filepath.Clean(c.MirrorPath)
	}
	return nil
}

// findBaseConfig scans the lexically sorted JSON files in dir and
// returns the configuration from the first file containing a record
// with all required keys. Later candidates are ignored by design.
func findBaseConfig(dir string) (*Config, error) {
	for _, candidate := range jsonFiles(dir, func(string) bool { return true }) {
		content, err := fsutil.ReadTextFile(candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", candidate, err)
		}
		if !gjson.Valid(content) {
			return nil, fmt.Errorf("failed to parse %s as JSON", candidate)
		}
		record, ok := firstObjectWithKeys(gjson.Parse(content), requiredKeys)
		if !ok {
			continue
		}

		cfg := &Config{SourceFile: candidate}
		fields := map[string]*string{
			"SUBMODULE_NAME":   &cfg.Name,
			"SUBMODULE_PATH":   &cfg.Path,
			"SUBMODULE_URL":    &cfg.URL,
			"SUBMODULE_BRANCH": &cfg.Branch,
			"PROJECT_TAG":      &cfg.ProjectTag,
		}
		for key, dst := range fields {
			value := record.Get(escapeKey(key)).String()
			if strings.TrimSpace(value) == "" {
				return nil, fmt.Errorf("%s in %s: required key %s is empty", candidate, dir, key)
			}
			*dst = value
		}
		cfg.MirrorPath = record.Get(escapeKey(keyMirror)).String()
		return cfg, nil
	}
	return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
}

// loadLocalOverrides collects overrides from `*.local.json` files and
// `.project_local.json`, consulted together in lexical filename order.
// The dot prefix sorts before letters, so `.project_local.json` is
// read before any named override file. First value found per key wins;
// only the overridable keys are honored.
func loadLocalOverrides(dir string) (Overrides, error) {
	var o Overrides

	candidates := jsonFiles(dir, func(name string) bool {
		return strings.HasSuffix(name, ".local.json")
	})
	dotProject := filepath.Join(dir, ".project_local.json")
	if fsutil.Exists(dotProject) {
		candidates = append(candidates, dotProject)
		sort.Strings(candidates)
	}

	for _, candidate := range candidates {
		content, err := fsutil.ReadTextFile(candidate)
		if err != nil {
			return o, fmt.Errorf("failed to read %s: %w", candidate, err)
		}
		if !gjson.Valid(content) {
			return o, fmt.Errorf("failed to parse %s as JSON", candidate)
		}
		root := gjson.Parse(content)
		if o.URL == "" {
			o.URL = firstValueForKey(root, keyURL)
		}
		if o.MirrorPath == "" {
			o.MirrorPath = firstValueForKey(root, keyMirror)
		}
	}
	return o, nil
}

// envOverrides reads the final-precedence environment overrides.
func envOverrides() Overrides {
	v := viper.New()
	_ = v.BindEnv(keyURL)
	_ = v.BindEnv(keyMirror)
	return Overrides{
		URL:        v.GetString(keyURL),
		MirrorPath: v.GetString(keyMirror),
	}
}

func jsonFiles(dir string, keep func(name string) bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		if keep(name) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files
}

// firstObjectWithKeys searches value breadth-first for the first JSON
// object carrying every key.
func firstObjectWithKeys(value gjson.Result, keys []string) (gjson.Result, bool) {
	queue := []gjson.Result{value}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.IsObject() {
			all := true
			for _, key := range keys {
				if !current.Get(escapeKey(key)).Exists() {
					all = false
					break
				}
			}
			if all {
				return current, true
			}
		}
		if current.IsObject() || current.IsArray() {
			current.ForEach(func(_, child gjson.Result) bool {
				queue = append(queue, child)
				return true
			})
		}
	}
	return gjson.Result{}, false
}

// firstValueForKey searches value breadth-first for the first string
// value stored under key.
func firstValueForKey(value gjson.Result, key string) string {
	queue := []gjson.Result{value}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.IsObject() {
			if found := current.Get(escapeKey(key)); found.Exists() && found.Type == gjson.String {
				return found.String()
			}
		}
		if current.IsObject() || current.IsArray() {
			current.ForEach(func(_, child gjson.Result) bool {
				queue = append(queue, child)
				return true
			})
		}
	}
	return ""
}

// escapeKey guards gjson path syntax in literal key lookups.
func escapeKey(key string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return replacer.Replace(key)
}
