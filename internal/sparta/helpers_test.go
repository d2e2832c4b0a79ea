package sparta

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kb-dev/git-sparta/internal/gitutil"
)

func resolvedTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	return dir
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func initRepo(t *testing.T, dir string) {
	t.Helper()
	run := gitutil.ExecRunner{}
	_, err := run.Run("", "init", "-q", "-b", "main", dir)
	require.NoError(t, err)
	_, err = run.Run(dir, "config", "user.email", "test@example.com")
	require.NoError(t, err)
	_, err = run.Run(dir, "config", "user.name", "Test")
	require.NoError(t, err)
}

func commitAll(t *testing.T, dir, message string) {
	t.Helper()
	run := gitutil.ExecRunner{}
	_, err := run.Run(dir, "add", "-A")
	require.NoError(t, err)
	_, err = run.Run(dir, "commit", "-q", "-m", message)
	require.NoError(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// testSink collects diagnostics so failures can show the transcript.
type testSink struct {
	lines []string
}

func (s *testSink) Divider()              {}
func (s *testSink) Heading(text string)   { s.lines = append(s.lines, text) }
func (s *testSink) Note(text string)      { s.lines = append(s.lines, text) }
func (s *testSink) Success(text string)   { s.lines = append(s.lines, text) }
func (s *testSink) Warn(text string)      { s.lines = append(s.lines, "warning: "+text) }
func (s *testSink) LabelValue(label string, value any) {
	s.lines = append(s.lines, fmt.Sprintf("%s: %v", label, value))
}

func acceptAll(string, bool) (bool, error) { return true, nil }
func denyAll(string, bool) (bool, error)   { return false, nil }

// recordingRunner logs every invocation so tests can assert which
// plumbing calls a run actually made.
type recordingRunner struct {
	inner gitutil.Runner
	calls []string
}

func (r *recordingRunner) Run(dir string, args ...string) (string, error) {
	r.calls = append(r.calls, strings.Join(args, " "))
	return r.inner.Run(dir, args...)
}

func (r *recordingRunner) RunInput(dir string, input string, args ...string) (string, error) {
	r.calls = append(r.calls, strings.Join(args, " "))
	return r.inner.RunInput(dir, input, args...)
}

func (r *recordingRunner) fetchCalls() []string {
	var fetches []string
	for _, call := range r.calls {
		if strings.Contains(call, "--depth=1") {
			fetches = append(fetches, call)
		}
	}
	return fetches
}

// upstreamRepo builds the shared asset repository the submodule will
// track: tagged files plus one untagged file.
func upstreamRepo(t *testing.T) string {
	t.Helper()
	dir := resolvedTempDir(t)
	initRepo(t, dir)
	writeFile(t, dir, ".gitattributes",
		"a.txt projects=alpha\nb.txt projects=alpha,beta\nc.txt projects=global\n")
	writeFile(t, dir, "a.txt", "alpha asset")
	writeFile(t, dir, "b.txt", "alpha+beta asset")
	writeFile(t, dir, "c.txt", "global asset")
	writeFile(t, dir, "untagged.txt", "nobody wants this")
	commitAll(t, dir, "assets")
	return dir
}

// hostRepo builds a consuming project with a committed configuration
// record pointing at upstream, using it as mirror as well so tests
// never touch the network.
func hostRepo(t *testing.T, upstream, tag string) string {
	t.Helper()
	dir := resolvedTempDir(t)
	initRepo(t, dir)
	writeFile(t, dir, "README.md", "consumer project")
	writeFile(t, dir, "sparta.json", fmt.Sprintf(`{
		"SUBMODULE_NAME": "assets",
		"SUBMODULE_PATH": "shared/assets",
		"SUBMODULE_URL": %q,
		"SUBMODULE_BRANCH": "main",
		"PROJECT_TAG": %q,
		"SHARED_MIRROR_PATH": %q
	}`, "file://"+upstream, tag, upstream))
	commitAll(t, dir, "init consumer")
	return dir
}

// hostRepoNoMirror is hostRepo without a configured mirror, so pattern
// resolution must fall back to the submodule working copy.
func hostRepoNoMirror(t *testing.T, upstream, tag string) string {
	t.Helper()
	dir := resolvedTempDir(t)
	initRepo(t, dir)
	writeFile(t, dir, "sparta.json", fmt.Sprintf(`{
		"SUBMODULE_NAME": "assets",
		"SUBMODULE_PATH": "shared/assets",
		"SUBMODULE_URL": %q,
		"SUBMODULE_BRANCH": "main",
		"PROJECT_TAG": %q
	}`, "file://"+upstream, tag))
	commitAll(t, dir, "init consumer")
	return dir
}

func testDeps() (Deps, *testSink) {
	sink := &testSink{}
	return Deps{Run: gitutil.ExecRunner{}, Out: sink}, sink
}

func readSparseFile(t *testing.T, host string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(host, ".git", "modules", "shared", "assets", "info", "sparse-checkout"))
	require.NoError(t, err)
	return string(data)
}
