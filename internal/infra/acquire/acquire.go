// Package acquire turns a catalog id into a validated local artifact path.
// It is the only public door to the download machinery: resolve the id,
// inspect what is already on disk, fetch only when needed, and never hand a
// caller a path to a file that failed the completeness check.
package acquire

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gitscribe/gitscribe/internal/domain"
	"github.com/gitscribe/gitscribe/internal/infra/catalog"
	"github.com/gitscribe/gitscribe/internal/infra/fetch"
	"github.com/gitscribe/gitscribe/internal/infra/sqlite"
	"github.com/gitscribe/gitscribe/internal/infra/store"
)

// Orchestrator manages the local models directory.
type Orchestrator struct {
	dir string
	db  *sqlite.DB // pull metadata; may be nil (metadata is best-effort)

	urlOverride string // If set, use this base URL instead of HuggingFace (for testing)

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-id; serializes same-artifact acquisitions
}

// New creates an Orchestrator rooted at dir.
func New(dir string, db *sqlite.DB) *Orchestrator {
	return &Orchestrator{
		dir:   dir,
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

// SetTestURL sets a URL override for testing (downloads go to this URL
// instead of HuggingFace).
func (o *Orchestrator) SetTestURL(url string) { o.urlOverride = url }

// Dir returns the models directory.
func (o *Orchestrator) Dir() string { return o.dir }

// EnsureOptions configures one Ensure call.
type EnsureOptions struct {
	// Insecure disables TLS verification for the download.
	Insecure bool

	// OnProgress receives download progress events. May be nil.
	OnProgress fetch.ProgressFunc
}

// Ensure returns the local path of a complete artifact for id, downloading
// it first if necessary. The returned path always refers to a file that
// passed the completeness check; on error the canonical path holds nothing.
//
// Concurrent calls for the same id are serialized; calls for different ids
// proceed independently.
func (o *Orchestrator) Ensure(ctx context.Context, id string, opts EnsureOptions) (string, error) {
	// Resolve before any filesystem or network activity.
	entry := catalog.Lookup(id)
	if entry == nil {
		return "", fmt.Errorf("model %q: %w", id, domain.ErrUnknownModel)
	}

	lock := o.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return "", fmt.Errorf("create models dir: %w", err)
	}
	dst := filepath.Join(o.dir, entry.HFFile)

	st, err := store.Inspect(dst)
	if err != nil {
		return "", err
	}
	switch st.Kind {
	case store.Complete:
		o.touch(id)
		return dst, nil
	case store.Incomplete:
		// Leftover from a dead process. The inspector never deletes; we do.
		if err := os.Remove(dst); err != nil {
			return "", fmt.Errorf("remove partial artifact: %w", err)
		}
	}

	url := entry.DownloadURL()
	if o.urlOverride != "" {
		url = o.urlOverride + "/" + entry.HFFile
	}

	if err := fetch.Fetch(ctx, url, dst, fetch.Options{
		Insecure:   opts.Insecure,
		OnProgress: opts.OnProgress,
	}); err != nil {
		return "", err
	}

	// Re-check through the inspector: the fetcher proved size-vs-header, the
	// plausibility floor still applies when the header was absent.
	st, err = store.Inspect(dst)
	if err != nil {
		return "", err
	}
	if st.Kind != store.Complete {
		os.Remove(dst)
		return "", fmt.Errorf("artifact %s after download: %w", st.Kind, domain.ErrArtifactIncomplete)
	}

	o.record(entry, st.Size)
	return dst, nil
}

// Remove deletes the artifact file for id and its pull record.
func (o *Orchestrator) Remove(id string) error {
	entry := catalog.Lookup(id)
	if entry == nil {
		return fmt.Errorf("model %q: %w", id, domain.ErrUnknownModel)
	}

	lock := o.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(o.dir, entry.HFFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	if o.db != nil {
		return o.db.DeleteArtifact(id)
	}
	return nil
}

// idLock returns the mutex serializing acquisitions of one artifact id.
func (o *Orchestrator) idLock(id string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[id]
	if !ok {
		l = &sync.Mutex{}
		o.locks[id] = l
	}
	return l
}

// record persists pull metadata. Failures are logged, not fatal — the
// artifact on disk is the source of truth.
func (o *Orchestrator) record(entry *catalog.Entry, size int64) {
	if o.db == nil {
		return
	}
	now := time.Now()
	err := o.db.UpsertArtifact(domain.ArtifactInfo{
		ID:        entry.ID,
		Filename:  entry.HFFile,
		SizeBytes: size,
		PulledAt:  now,
		LastUsed:  now,
	})
	if err != nil {
		log.Printf("warning: record pull of %s: %v", entry.ID, err)
	}
}

// touch updates last_used for an already-present artifact.
func (o *Orchestrator) touch(id string) {
	if o.db == nil {
		return
	}
	if err := o.db.TouchArtifact(id); err != nil {
		log.Printf("warning: touch %s: %v", id, err)
	}
}
