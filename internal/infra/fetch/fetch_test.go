package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gitscribe/gitscribe/internal/domain"
)

// ─── Completeness Check ─────────────────────────────────────────────────────

func TestComplete(t *testing.T) {
	tests := []struct {
		name     string
		expected int64
		actual   int64
		want     bool
	}{
		{"exact match", 1000, 1000, true},
		{"short file", 1000, 500, false},
		{"over-delivery", 1000, 1500, true},
		{"known zero expected", 0, 0, true},
		{"unknown size, empty", -1, 0, false},
		{"unknown size, non-empty", -1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := complete(tt.expected, tt.actual); got != tt.want {
				t.Errorf("complete(%d, %d) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestExpectedSize(t *testing.T) {
	tests := []struct {
		name          string
		contentLength int64
		header        string
		want          int64
	}{
		{"transport parsed it", 1000, "1000", 1000},
		{"missing header", -1, "", -1},
		{"non-numeric header", -1, "invalid", -1},
		{"negative header", -1, "-5", -1},
		{"numeric header transport missed", -1, "500", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				ContentLength: tt.contentLength,
				Header:        http.Header{},
			}
			if tt.header != "" {
				resp.Header.Set("Content-Length", tt.header)
			}
			if got := expectedSize(resp); got != tt.want {
				t.Errorf("expectedSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ─── Fetch ──────────────────────────────────────────────────────────────────

func TestFetch_Success(t *testing.T) {
	payload := bytes.Repeat([]byte("gguf"), 64*1024) // 256 KiB
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		// Large bodies would otherwise go out chunked without a length.
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")

	var events []Progress
	err := Fetch(context.Background(), srv.URL, dst, Options{
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("file content mismatch: %d bytes, want %d", len(got), len(payload))
	}

	if len(events) < 2 {
		t.Fatalf("got %d progress events, want at least connecting+done", len(events))
	}
	first, last := events[0], events[len(events)-1]
	if first.Status != "connecting" {
		t.Errorf("first event status = %q", first.Status)
	}
	if last.Status != "done" {
		t.Errorf("last event status = %q", last.Status)
	}
	if last.Received != int64(len(payload)) {
		t.Errorf("final Received = %d, want %d", last.Received, len(payload))
	}
	if last.Total != int64(len(payload)) {
		t.Errorf("final Total = %d, want %d", last.Total, len(payload))
	}
	if last.SessionID == "" || last.SessionID != first.SessionID {
		t.Errorf("session id not stable across events: %q vs %q", first.SessionID, last.SessionID)
	}
}

func TestFetch_TruncatesExistingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(dst, bytes.Repeat([]byte("stale-garbage"), 100), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Fetch(context.Background(), srv.URL, dst, Options{}); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "fresh" {
		t.Errorf("file = %q, want %q", got, "fresh")
	}
}

func TestFetch_HTTPErrorStatus_NoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	err := Fetch(context.Background(), srv.URL, dst, Options{})
	if err == nil {
		t.Fatal("Fetch() should fail on HTTP 404")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1 (status errors must not retry)", n)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("dst should not exist after a failed fetch")
	}
}

// emptyChunked writes a 200 response with no Content-Length and an empty
// body, which the fetcher must treat as an incomplete transfer.
func emptyChunked(hits *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush() // forces chunked encoding, zero bytes
	}
}

func TestFetch_IntegrityFailure_RetriesOnceThenFails(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(emptyChunked(&hits))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	err := Fetch(context.Background(), srv.URL, dst, Options{})
	if !errors.Is(err, domain.ErrArtifactIncomplete) {
		t.Fatalf("Fetch() error = %v, want ErrArtifactIncomplete", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1+DefaultRetries {
		t.Errorf("server hits = %d, want %d (one attempt + bounded retries)", n, 1+DefaultRetries)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("dst must not exist after an integrity failure")
	}
}

// shortBodyServer speaks just enough HTTP to advertise a Content-Length and
// then close the connection halfway through the body, which httptest's
// ResponseWriter refuses to do.
func shortBodyServer(t *testing.T, hits *int32) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(hits, 1)
			conn.Read(make([]byte, 4096))
			io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Length: 1000\r\n\r\n")
			conn.Write(bytes.Repeat([]byte("x"), 500))
			conn.Close()
		}
	}()
	return "http://" + ln.Addr().String()
}

func TestFetch_ShortBody_RetriesThenIntegrityError(t *testing.T) {
	var hits int32
	url := shortBodyServer(t, &hits)

	dst := filepath.Join(t.TempDir(), "model.gguf")
	err := Fetch(context.Background(), url, dst, Options{})
	if !errors.Is(err, domain.ErrArtifactIncomplete) {
		t.Fatalf("Fetch() error = %v, want ErrArtifactIncomplete", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1+DefaultRetries {
		t.Errorf("server hits = %d, want %d (one attempt + bounded retries)", n, 1+DefaultRetries)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("dst must not exist after a truncated download")
	}
}

func TestFetch_IntegrityFailure_RetryRecovers(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			return
		}
		w.Write([]byte("second attempt succeeds"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	if err := Fetch(context.Background(), srv.URL, dst, Options{}); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("server hits = %d, want 2", n)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "second attempt succeeds" {
		t.Errorf("file = %q", got)
	}
}

func TestFetch_RetriesDisabled(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(emptyChunked(&hits))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	err := Fetch(context.Background(), srv.URL, dst, Options{Retries: -1})
	if !errors.Is(err, domain.ErrArtifactIncomplete) {
		t.Fatalf("Fetch() error = %v, want ErrArtifactIncomplete", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1 with retries disabled", n)
	}
}

func TestFetch_Cancellation_NoRetry(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("partial data..."))
		w.(http.Flusher).Flush()
		<-release // hold the stream open until the client gives up
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	err := Fetch(ctx, srv.URL, dst, Options{})
	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("Fetch() error = %v, want ErrCancelled", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1 (cancellation must not retry)", n)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("dst must not exist after cancellation")
	}
}

func TestOptionsRetries(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultRetries},
		{-1, 0},
		{3, 3},
	}
	for _, tt := range tests {
		if got := (Options{Retries: tt.in}).retries(); got != tt.want {
			t.Errorf("Options{Retries: %d}.retries() = %d, want %d", tt.in, got, tt.want)
		}
	}
}
