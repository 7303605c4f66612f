package notify

import (
	"context"
	"sync"
	"time"
)

// DefaultRecorderSize bounds how many notifications a Recorder keeps.
const DefaultRecorderSize = 50

// Recorder keeps the most recent notifications in a ring buffer so the admin
// dashboard can poll them.
type Recorder struct {
	mu    sync.Mutex
	buf   []Notification
	next  int
	full  bool
	clock func() time.Time
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultRecorderSize
	}
	return &Recorder{buf: make([]Notification, size), clock: time.Now}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = stamp(n, r.clock())
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns up to limit notifications, newest first. limit <= 0
// returns everything retained.
func (r *Recorder) Recent(limit int) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.buf)
	}
	if limit <= 0 || limit > count {
		limit = count
	}
	out := make([]Notification, 0, limit)
	for i := 1; i <= limit; i++ {
		out = append(out, r.buf[(r.next-i+len(r.buf))%len(r.buf)])
	}
	return out
}

// Last returns the newest notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	recent := r.Recent(1)
	if len(recent) == 0 {
		return Notification{}, false
	}
	return recent[0], true
}
