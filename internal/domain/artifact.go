package domain

import (
	"fmt"
	"time"
)

// ArtifactInfo is the persisted record of a pulled model artifact.
type ArtifactInfo struct {
	ID        string    // Catalog id (e.g. "qwen2.5-coder")
	Filename  string    // Local filename inside the models directory
	SizeBytes int64     // Size on disk after the completeness check passed
	PulledAt  time.Time // When the download completed
	LastUsed  time.Time // Last time the artifact was resolved for generation
}

// HumanSize formats a byte count for terminal output: "669 MB", "4.9 GB".
func HumanSize(n int64) string {
	const (
		kb = 1000
		mb = 1000 * kb
		gb = 1000 * mb
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/float64(gb))
	case n >= mb:
		return fmt.Sprintf("%.0f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.0f KB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
