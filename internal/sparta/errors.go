package sparta

import "errors"

// Error kinds for the orchestration engine. Every kind is fatal to the
// current invocation; re-running after fixing the cause is the only
// supported recovery besides explicit teardown.
var (
	// ErrToolingUnavailable means a required external program is
	// missing. Checked pre-flight, before any mutation.
	ErrToolingUnavailable = errors.New("required tooling unavailable")

	// ErrConfiguration means no usable configuration record could be
	// resolved for this invocation.
	ErrConfiguration = errors.New("invalid or missing configuration")

	// ErrPathMismatch means an existing registration's path differs
	// from the freshly computed one. Never auto-corrected.
	ErrPathMismatch = errors.New("registered submodule path mismatch")

	// ErrNotRegistered means teardown found no manifest entry for the
	// computed submodule name.
	ErrNotRegistered = errors.New("submodule is not registered")

	// ErrDirtyState means teardown would discard uncommitted changes.
	ErrDirtyState = errors.New("module store has uncommitted changes")

	// ErrNetwork means a fetch failed. Not retried.
	ErrNetwork = errors.New("network operation failed")

	// ErrLayout means the on-disk shape is not what the engine
	// expects, e.g. no repository where one is required.
	ErrLayout = errors.New("unexpected repository layout")

	// ErrAborted is the distinct outcome of a declined confirmation.
	// Not an error condition; no side effects occur after it.
	ErrAborted = errors.New("aborted by user")
)
