package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath cleans a path and converts "\" → "/".
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	clean := filepath.Clean(path)
	return strings.ReplaceAll(clean, "\\", "/")
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func CreateDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.New("failed to create directory " + path + ": " + err.Error())
	}
	return nil
}

func WriteTextFile(path string, content string) error {
	if err := CreateDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AppendLineIfAbsent appends line to the file unless an identical line is
// already present. Existing content is never rewritten or reordered.
// Returns true if the file was modified.
func AppendLineIfAbsent(path string, line string) (bool, error) {
	var current string
	if Exists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		current = string(data)
	}

	for _, existing := range strings.Split(current, "\n") {
		if existing == line {
			return false, nil
		}
	}

	if current != "" && !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	if err := WriteTextFile(path, current+line+"\n"); err != nil {
		return false, err
	}
	return true, nil
}

// PruneEmptyDirs removes start and its now-empty ancestors, walking upward
// until stop (exclusive) or a non-empty directory is reached.
func PruneEmptyDirs(start, stop string) {
	current := start
	for strings.HasPrefix(current, stop) && current != stop {
		if err := os.Remove(current); err != nil {
			return
		}
		parent := filepath.Dir(current)
		if parent == current {
			return
		}
		current = parent
	}
}
