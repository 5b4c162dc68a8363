// Package store inspects the local models directory.
// It answers one question — is the artifact at this path usable? — and never
// mutates anything. Deleting bad files is the orchestrator's job, which keeps
// this check side-effect-free and independently testable.
package store

import (
	"fmt"
	"os"
)

// MinArtifactSize is the plausibility floor for a model artifact.
// Remote servers don't always report a size, so when the exact size is
// unknown this is the only universal completeness signal: no legitimate
// GGUF model is under 1 MiB, so anything smaller is a failed download.
const MinArtifactSize = 1 << 20

// Kind classifies the local state of an artifact path.
type Kind int

const (
	Absent     Kind = iota // No file at the path
	Incomplete             // File exists but is below MinArtifactSize
	Complete               // File exists and is plausibly whole
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is the derived local state of one artifact path.
// It is recomputed on every call and never cached — a concurrent writer may
// have changed the file since the last look.
type State struct {
	Kind Kind
	Size int64 // 0 when Absent
}

// Inspect stats path and classifies it. A directory at the artifact path is
// reported as an error: something else owns that name and we must not touch it.
func Inspect(path string) (State, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return State{Kind: Absent}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return State{}, fmt.Errorf("%s is a directory, not an artifact", path)
	}
	if fi.Size() < MinArtifactSize {
		return State{Kind: Incomplete, Size: fi.Size()}, nil
	}
	return State{Kind: Complete, Size: fi.Size()}, nil
}
