package gitutil

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes git commands with an explicit working directory.
// All plumbing in this package goes through a Runner so orchestration
// logic can be exercised against a fake in tests.
type Runner interface {
	// Run executes `git args...` in dir and returns trimmed stdout.
	// A non-zero exit status is reported as an error carrying stderr.
	Run(dir string, args ...string) (string, error)

	// RunInput is Run with data supplied on stdin.
	RunInput(dir string, input string, args ...string) (string, error)
}

// ExecRunner runs the real git binary.
type ExecRunner struct{}

func (ExecRunner) Run(dir string, args ...string) (string, error) {
	return runGit(dir, "", args...)
}

func (ExecRunner) RunInput(dir string, input string, args ...string) (string, error) {
	return runGit(dir, input, args...)
}

func runGit(dir, input string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return strings.TrimSpace(stdout.String()),
			fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Version returns the git version string, or an error when the git
// binary is unavailable. Used as a pre-flight check before mutations.
func Version(r Runner) (string, error) {
	out, err := r.Run("", "--version")
	if err != nil {
		return "", fmt.Errorf("git is not available: %w", err)
	}
	return out, nil
}

// LFSVersion probes the git-lfs extension. An error means LFS is not
// installed; callers treat that as a degraded (pointer-only) mode.
func LFSVersion(r Runner) (string, error) {
	out, err := r.Run("", "lfs", "version")
	if err != nil {
		return "", fmt.Errorf("git-lfs is not available: %w", err)
	}
	return out, nil
}
