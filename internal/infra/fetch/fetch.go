// Package fetch downloads model artifacts over HTTP.
// One call, one file: it streams the response to disk, reports progress
// through an abstract sink, and enforces the completeness contract — the
// destination path either holds a whole file or does not exist at all when
// Fetch returns. Corrupted transfers are retried a bounded number of times;
// genuine network and disk errors are cleaned up and propagated.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gitscribe/gitscribe/internal/domain"
)

const (
	// copyBufSize is the streaming buffer; the artifact is never held in
	// memory whole.
	copyBufSize = 256 * 1024

	// headerTimeout bounds how long we wait for response headers. There is
	// deliberately no overall timeout — multi-GB downloads take as long as
	// they take.
	headerTimeout = 30 * time.Second

	// DefaultRetries is how many extra attempts a failed completeness check
	// earns. Bounded on purpose: a permanently-truncating source must not
	// retry forever.
	DefaultRetries = 1

	userAgent = "gitscribe/0.1.0"
)

// Options configures one Fetch call.
type Options struct {
	// Insecure disables TLS certificate verification, for environments with
	// intercepting proxies. Plumbed into the transport, never ignored.
	Insecure bool

	// Retries is the number of extra attempts after an integrity failure.
	// Zero means DefaultRetries; negative disables retrying.
	Retries int

	// OnProgress receives throttled progress events. May be nil.
	OnProgress ProgressFunc
}

func (o Options) retries() int {
	if o.Retries == 0 {
		return DefaultRetries
	}
	if o.Retries < 0 {
		return 0
	}
	return o.Retries
}

// Fetch downloads url to dst. On success dst holds a file that passed the
// completeness check; on any error dst does not exist.
//
// Only integrity failures (stream ended but the file is short) are retried,
// up to the configured bound. Network errors, write errors, and cancellation
// propagate immediately.
func Fetch(ctx context.Context, url, dst string, opts Options) error {
	client := newClient(opts.Insecure)

	retries := opts.retries()
	for attempt := 0; ; attempt++ {
		err := fetchOnce(ctx, client, url, dst, opts.OnProgress)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrArtifactIncomplete) && attempt < retries && ctx.Err() == nil {
			continue
		}
		return err
	}
}

// fetchOnce performs a single transfer attempt. It never leaves a partial
// file behind: every error path removes dst before returning.
func fetchOnce(ctx context.Context, client *http.Client, url, dst string, sink ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download %s: %w", url, domain.ErrCancelled)
		}
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d from %s", resp.StatusCode, url)
	}

	expected := expectedSize(resp)
	sess := newSession(expected, sink)
	sess.emit("connecting", true)

	f, err := os.Create(dst) // truncates any leftover content
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	buf := make([]byte, copyBufSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				os.Remove(dst)
				return fmt.Errorf("write %s: %w", dst, err)
			}
			sess.advance(int64(n))
			sess.emit("downloading", false)
		}
		if readErr != nil {
			// ErrUnexpectedEOF is a body truncated under an advertised
			// Content-Length, not a transport failure: fall through to the
			// completeness check, which finds the shortfall and retries.
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				break
			}
			f.Close()
			os.Remove(dst)
			if ctx.Err() != nil {
				return fmt.Errorf("download %s: %w", url, domain.ErrCancelled)
			}
			return fmt.Errorf("download interrupted: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close %s: %w", dst, err)
	}

	// Re-read the actual size from storage — trust the filesystem, not our
	// byte counter.
	fi, err := os.Stat(dst)
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("stat %s: %w", dst, err)
	}
	if !complete(expected, fi.Size()) {
		os.Remove(dst)
		return fmt.Errorf("got %d bytes, expected %d: %w", fi.Size(), expected, domain.ErrArtifactIncomplete)
	}

	sess.emit("done", true)
	return nil
}

// complete decides whether a finished stream produced a whole file.
// Exact size comparison is authoritative when the server reported one;
// otherwise any non-empty file passes (the orchestrator's inspector applies
// the stricter plausibility floor on top).
func complete(expected, actual int64) bool {
	if expected >= 0 {
		return actual >= expected
	}
	return actual > 0
}

// expectedSize extracts the expected total from the response.
// Returns -1 for "unknown". A present-but-non-numeric Content-Length is
// degraded to unknown rather than treated as an error, so progress reporting
// falls back to byte counts and completeness to the non-empty check.
func expectedSize(resp *http.Response) int64 {
	if resp.ContentLength >= 0 {
		return resp.ContentLength
	}
	raw := resp.Header.Get("Content-Length")
	if raw == "" {
		return -1
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// newClient builds the transport for artifact downloads.
func newClient(insecure bool) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: headerTimeout,
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport}
}
