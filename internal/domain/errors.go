package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Acquisition errors
	ErrUnknownModel       = errors.New("model not in catalog")
	ErrArtifactIncomplete = errors.New("artifact integrity check failed")
	ErrCancelled          = errors.New("download cancelled")

	// Git errors
	ErrNotARepository = errors.New("not inside a git repository")
	ErrNothingStaged  = errors.New("no staged changes")

	// Inference errors
	ErrLlamaNotFound = errors.New("llama binary not found")
	ErrEmptyMessage  = errors.New("model produced an empty message")
)
