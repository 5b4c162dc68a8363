package fetch

import (
	"time"

	"github.com/google/uuid"
)

// Progress is one event from an in-flight download.
// Total is -1 when the server did not report a usable size, in which case
// consumers should degrade to byte-count-only display.
type Progress struct {
	SessionID   string  // Identifies one transfer across its events
	Status      string  // "connecting", "downloading", "done"
	Received    int64   // Bytes written so far
	Total       int64   // Expected total, or -1 when unknown
	BytesPerSec float64 // Instantaneous throughput since the previous event
}

// ProgressFunc is the sink for progress events. Implementations must be fast;
// they are called from the download loop. Events are rate-limited to roughly
// ten per second so a terminal renderer can consume them directly.
type ProgressFunc func(Progress)

// emitInterval caps the event rate.
const emitInterval = 100 * time.Millisecond

// session tracks one transfer for the lifetime of a single attempt.
type session struct {
	id       string
	started  time.Time
	total    int64
	received int64
	sink     ProgressFunc

	lastEmit  time.Time
	lastBytes int64
}

func newSession(total int64, sink ProgressFunc) *session {
	now := time.Now()
	return &session{
		id:      uuid.New().String()[:8],
		started: now,
		total:   total,
		sink:    sink,
	}
}

func (s *session) advance(n int64) {
	s.received += n
}

// emit sends a progress event, at most once per emitInterval unless forced.
func (s *session) emit(status string, force bool) {
	if s.sink == nil {
		return
	}
	now := time.Now()
	if !force && now.Sub(s.lastEmit) < emitInterval {
		return
	}

	var rate float64
	if !s.lastEmit.IsZero() {
		if dt := now.Sub(s.lastEmit).Seconds(); dt > 0 {
			rate = float64(s.received-s.lastBytes) / dt
		}
	}
	s.lastEmit = now
	s.lastBytes = s.received

	s.sink(Progress{
		SessionID:   s.id,
		Status:      status,
		Received:    s.received,
		Total:       s.total,
		BytesPerSec: rate,
	})
}
