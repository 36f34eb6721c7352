// Package ratelimit provides a token bucket limiter for throttling FTP data
// channels.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

// maxWait caps a single sleep so a huge request cannot stall a transfer
// for longer than a second at a time.
const maxWait = time.Second

// Limiter is a token bucket holding up to one second worth of bytes.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // bytes per second
	tokens float64
	last   time.Time

	// sleep is replaced in tests
	sleep func(time.Duration)
	now   func() time.Time
}

// New creates a limiter for the given rate. A rate <= 0 means unlimited and
// returns nil; a nil *Limiter never blocks.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	rate := float64(bytesPerSecond)
	return &Limiter{
		rate:   rate,
		tokens: rate,
		last:   time.Now(),
		sleep:  time.Sleep,
		now:    time.Now,
	}
}

// Rate returns the configured bytes per second.
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return int64(l.rate)
}

// refill adds the tokens earned since the last update. Callers hold mu.
func (l *Limiter) refill() {
	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.rate {
		l.tokens = l.rate
	}
	l.last = now
}

// WaitN blocks until n bytes may be moved.
func (l *Limiter) WaitN(n int) {
	if l == nil || n <= 0 {
		return
	}
	need := float64(n)

	l.mu.Lock()
	l.refill()
	if l.tokens >= need {
		l.tokens -= need
		l.mu.Unlock()
		return
	}
	wait := time.Duration((need - l.tokens) / l.rate * float64(time.Second))
	if wait > maxWait {
		wait = maxWait
	}
	l.mu.Unlock()

	l.sleep(wait)

	l.mu.Lock()
	l.refill()
	l.tokens -= need
	if l.tokens < 0 {
		l.tokens = 0
	}
	l.mu.Unlock()
}

type reader struct {
	r io.Reader
	l *Limiter
}

// NewReader returns r throttled by l. With a nil limiter r is returned as is.
func NewReader(r io.Reader, l *Limiter) io.Reader {
	if l == nil {
		return r
	}
	return &reader{r: r, l: l}
}

func (r *reader) Read(p []byte) (int, error) {
	const chunk = 8 * 1024
	if len(p) > chunk {
		p = p[:chunk]
	}
	n, err := r.r.Read(p)
	r.l.WaitN(n)
	return n, err
}

type writer struct {
	w io.Writer
	l *Limiter
}

// NewWriter returns w throttled by l. With a nil limiter w is returned as is.
func NewWriter(w io.Writer, l *Limiter) io.Writer {
	if l == nil {
		return w
	}
	return &writer{w: w, l: l}
}

func (w *writer) Write(p []byte) (int, error) {
	const chunk = 64 * 1024
	written := 0
	for written < len(p) {
		end := written + chunk
		if end > len(p) {
			end = len(p)
		}
		w.l.WaitN(end - written)
		n, err := w.w.Write(p[written:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
