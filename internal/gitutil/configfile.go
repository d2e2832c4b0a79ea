package gitutil

import (
	"strings"

	"github.com/kb-dev/git-sparta/internal/fsutil"
)

// ConfigFile edits a git-format configuration file (.gitmodules, a
// repository's local config) through `git config --file`, so quoting
// and section layout always match what git itself would write.
type ConfigFile struct {
	run  Runner
	dir  string
	path string
}

func NewConfigFile(run Runner, dir, path string) ConfigFile {
	return ConfigFile{run: run, dir: dir, path: path}
}

func (c ConfigFile) Path() string {
	return c.path
}

func (c ConfigFile) Exists() bool {
	return fsutil.Exists(c.path)
}

// Get returns the value for key, or ok=false when the key (or the
// file itself) is absent.
func (c ConfigFile) Get(key string) (string, bool) {
	if !c.Exists() {
		return "", false
	}
	out, err := c.run.Run(c.dir, "config", "--file", c.path, "--get", key)
	if err != nil {
		return "", false
	}
	return out, true
}

// Set writes key=value, creating the file when needed.
// Returns true if the stored value changed.
func (c ConfigFile) Set(key, value string) (bool, error) {
	if current, ok := c.Get(key); ok && current == value {
		return false, nil
	}
	if _, err := c.run.Run(c.dir, "config", "--file", c.path, key, value); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveSection deletes an entire section (e.g. `submodule.assets`).
// Absence of the section or the file is not an error.
func (c ConfigFile) RemoveSection(section string) (bool, error) {
	if !c.Exists() {
		return false, nil
	}
	_, err := c.run.Run(c.dir, "config", "--file", c.path, "--remove-section", section)
	if err != nil {
		// git exits non-zero when the section does not exist.
		if strings.Contains(err.Error(), "no such section") ||
			strings.Contains(err.Error(), "No such section") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
