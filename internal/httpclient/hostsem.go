package httpclient

import (
	"net/url"
	"sync"
)

// hostSemaphore limits concurrent requests per host across the whole process.
// Discovery fans out aggressively (collector sources plus verification
// workers), and several of them frequently land on the same aggregator
// mirror; without this the mirror rate-limits everything at once.
type hostSemaphore struct {
	mu    sync.Mutex
	sems  map[string]chan struct{}
	limit int
}

// globalHostSem caps at 4 concurrent requests per host, acquired inside
// DoWithRetry for every attempt batch.
var globalHostSem = newHostSemaphore(4)

func newHostSemaphore(concurrency int) *hostSemaphore {
	if concurrency < 1 {
		concurrency = 1
	}
	return &hostSemaphore{
		sems:  make(map[string]chan struct{}),
		limit: concurrency,
	}
}

// Acquire blocks until a slot is free for rawURL's host and returns a release func.
func (h *hostSemaphore) Acquire(rawURL string) func() {
	sem := h.semFor(rawURL)
	sem <- struct{}{}
	return func() { <-sem }
}

func (h *hostSemaphore) semFor(rawURL string) chan struct{} {
	key := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		key = u.Scheme + "://" + u.Host
	}
	h.mu.Lock()
	s, ok := h.sems[key]
	if !ok {
		s = make(chan struct{}, h.limit)
		h.sems[key] = s
	}
	h.mu.Unlock()
	return s
}
