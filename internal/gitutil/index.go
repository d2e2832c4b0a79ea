package gitutil

import (
	"fmt"
	"strings"
)

// GitlinkMode is the index entry mode recording a nested repository
// commit without its working tree.
const GitlinkMode = "160000"

// IsInsideGitRepo returns true if path is inside a git working tree.
func IsInsideGitRepo(r Runner, path string) bool {
	out, err := r.Run(path, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// ListTracked returns all paths in the index of the repository at dir.
func ListTracked(r Runner, dir string) ([]string, error) {
	out, err := r.Run(dir, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, p := range strings.Split(out, "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// CheckAttr resolves a single attribute for every given path in one
// batched invocation. The returned map holds the raw attribute value
// per path, including the sentinel values "unspecified" and "unset".
func CheckAttr(r Runner, dir, attribute string, paths []string) (map[string]string, error) {
	if len(paths) == 0 {
		return map[string]string{}, nil
	}
	input := strings.Join(paths, "\x00") + "\x00"
	out, err := r.RunInput(dir, input, "check-attr", "--stdin", "-z", attribute)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribute %q: %w", attribute, err)
	}

	// -z output is a flat sequence of path, attribute, value records.
	fields := strings.Split(out, "\x00")
	values := make(map[string]string, len(paths))
	for i := 0; i+2 < len(fields); i += 3 {
		values[fields[i]] = fields[i+2]
	}
	return values, nil
}

// ListGitlinks returns the paths of all gitlink entries in the index
// of the repository at dir.
func ListGitlinks(r Runner, dir string) ([]string, error) {
	out, err := r.Run(dir, "ls-files", "--stage", "-z")
	if err != nil {
		return nil, err
	}
	var links []string
	for _, record := range strings.Split(out, "\x00") {
		header, path, ok := strings.Cut(record, "\t")
		if !ok {
			continue
		}
		if fields := strings.Fields(header); len(fields) > 0 && fields[0] == GitlinkMode {
			links = append(links, path)
		}
	}
	return links, nil
}

// GitlinkSHA returns the commit identifier recorded by a gitlink index
// entry at relPath, or ok=false when no gitlink is staged there.
func GitlinkSHA(r Runner, dir, relPath string) (string, bool, error) {
	out, err := r.Run(dir, "ls-files", "--stage", "--", relPath)
	if err != nil {
		return "", false, err
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == GitlinkMode {
			return fields[1], true, nil
		}
	}
	return "", false, nil
}

// AddGitlink inserts a gitlink index entry at relPath carrying the
// given commit identifier. The nested working tree need not exist.
func AddGitlink(r Runner, dir, sha, relPath string) error {
	_, err := r.Run(dir, "update-index", "--add", "--cacheinfo", GitlinkMode, sha, relPath)
	if err != nil {
		return fmt.Errorf("failed to add gitlink at %s: %w", relPath, err)
	}
	return nil
}

// RemoveIndexEntry drops the index entry at relPath. When the entry is
// also present in HEAD this leaves a staged removal behind.
func RemoveIndexEntry(r Runner, dir, relPath string) error {
	_, err := r.Run(dir, "update-index", "--force-remove", "--", relPath)
	return err
}

// Stage adds a path (or its current deletion) to the index.
func Stage(r Runner, dir, path string) error {
	_, err := r.Run(dir, "add", "--", path)
	return err
}

// SubmoduleInit initializes the committed submodule configuration for
// a path into the local configuration.
func SubmoduleInit(r Runner, dir, relPath string) error {
	_, err := r.Run(dir, "submodule", "init", "--", relPath)
	return err
}
