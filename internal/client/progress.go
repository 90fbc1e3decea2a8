package client

import (
	"io"
	"sync"
)

// ProgressEvent reports how many body bytes have been sent so far.
type ProgressEvent struct {
	Loaded int64
	Total  int64
}

// Percent returns completion in the range [0, 100].
func (e ProgressEvent) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	p := float64(e.Loaded) / float64(e.Total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// progressReader counts bytes read through it and publishes them on events.
// The transport may still be reading after the request returns, so sends
// stop once finish has closed the channel.
type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64

	mu     sync.Mutex
	done   bool
	events chan<- ProgressEvent
}

func newProgressReader(r io.Reader, total int64, events chan<- ProgressEvent) *progressReader {
	return &progressReader{r: r, total: total, events: events}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.loaded += int64(n)
		if !p.done && p.events != nil {
			p.events <- ProgressEvent{Loaded: p.loaded, Total: p.total}
		}
		p.mu.Unlock()
	}
	return n, err
}

func (p *progressReader) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	if p.events != nil {
		close(p.events)
	}
}
