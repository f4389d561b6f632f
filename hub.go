package main

import "sync"

// Hub fans snapshots out from the sampler to every subscribed feed.
// It keeps no history: a feed only sees snapshots published after it subscribed.
type Hub struct {
	telemetry *telemetry

	mu     sync.Mutex
	feeds  map[*Feed]struct{}
	closed bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubTelemetry records feed counts and overwrites on t.
func WithHubTelemetry(t *telemetry) HubOption {
	return func(h *Hub) { h.telemetry = t }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{feeds: make(map[*Feed]struct{})}
	for _, opt := range opts {
		opt(h)
	}
	if h.telemetry == nil {
		h.telemetry = newTelemetry(nil)
	}
	return h
}

// Feed is a subscriber's private handle into the hub. It buffers at most one
// snapshot; a newer publish replaces an unread one.
type Feed struct {
	hub *Hub
	ch  chan Snapshot

	// guarded by hub.mu
	closed bool
}

// C returns the receive side of the feed. It is closed when the feed or the
// hub is closed.
func (f *Feed) C() <-chan Snapshot { return f.ch }

// Close unsubscribes the feed. Safe to call more than once.
func (f *Feed) Close() {
	h := f.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	delete(h.feeds, f)
	close(f.ch)
	h.telemetry.hubFeeds.Set(float64(len(h.feeds)))
}

// Subscribe returns a new feed. After Close it returns a feed that is already
// closed.
func (h *Hub) Subscribe() *Feed {
	f := &Feed{hub: h, ch: make(chan Snapshot, 1)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		f.closed = true
		close(f.ch)
		return f
	}
	h.feeds[f] = struct{}{}
	h.telemetry.hubFeeds.Set(float64(len(h.feeds)))
	return f
}

// Publish hands snap to every live feed without waiting on any receiver.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.telemetry.hubPublished.Inc()

	for f := range h.feeds {
		select {
		case f.ch <- snap:
			continue
		default:
		}
		// Slot is full: drop the stale snapshot. The receiver may have taken
		// it in the meantime, in which case nothing is lost.
		select {
		case <-f.ch:
			h.telemetry.hubOverwrites.Inc()
		default:
		}
		// Publishers are serialized by h.mu, so the slot is free now.
		select {
		case f.ch <- snap:
		default:
		}
	}
}

// Len returns the number of live feeds.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.feeds)
}

// Close closes every outstanding feed and rejects later publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for f := range h.feeds {
		f.closed = true
		close(f.ch)
		delete(h.feeds, f)
	}
	h.telemetry.hubFeeds.Set(0)
}
