// Package feed keeps the most recent report for local readers and fans new
// reports out to live subscribers.
package feed

import (
	"sync"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/report"
)

const subscriberBuffer = 4

type Snapshot struct {
	Report      model.Report
	Body        []byte
	AssembledAt time.Time
}

type Hub struct {
	mu     sync.RWMutex
	latest *Snapshot
	subs   map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan []byte]struct{})}
}

// Publish stores r as the latest report and offers it to every subscriber.
// Subscribers that are not keeping up miss the message instead of blocking.
func (h *Hub) Publish(r model.Report, at time.Time) error {
	body, err := report.Encode(r)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &Snapshot{Report: r, Body: body, AssembledAt: at}
	for ch := range h.subs {
		select {
		case ch <- body:
		default:
		}
	}
	return nil
}

func (h *Hub) Latest() (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Snapshot{}, false
	}
	return *h.latest, true
}

// Subscribe returns a channel primed with the latest report, if any, and a
// cancel func that must be called once the caller stops reading.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.latest != nil {
		ch <- h.latest.Body
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}
