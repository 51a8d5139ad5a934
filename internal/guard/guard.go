// Package guard decides whether a candidate message has already been
// answered. It layers a bounded in-memory set (fast path) over the
// authoritative test: does the message's thread already contain a direct
// reply from the bot's own identity? The cache is best-effort memory only;
// it is allowed to lose entries across restarts and under capacity
// pressure, because the thread check always catches what it misses.
package guard

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/privlink/internal/feed"
)

// Guard is owned by a single bot instance and handed to the scan controller.
// The controller runs at most one cycle at a time, so no locking is needed.
type Guard struct {
	threads  feed.ThreadFetcher
	selfDID  string
	capacity int
	seen     map[string]struct{}
	order    []string // insertion order, oldest first
}

func New(threads feed.ThreadFetcher, selfDID string, capacity int) *Guard {
	if capacity < 2 {
		capacity = 2
	}
	return &Guard{
		threads:  threads,
		selfDID:  selfDID,
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// ShouldProcess reports whether msg is still eligible for a reply. The fast
// path is consulted first; on a miss, the message's direct replies are
// scanned for one authored by the bot itself. A thread fetch failure
// degrades to the fast-path answer: the message stays eligible and the
// post either succeeds (fine) or the next cycle catches it.
func (g *Guard) ShouldProcess(ctx context.Context, msg feed.CandidateMessage) bool {
	if _, ok := g.seen[msg.URI]; ok {
		return false
	}

	node, err := g.threads.FetchThread(ctx, msg.URI, 1)
	if err != nil {
		log.Warn().Err(err).Str("uri", msg.URI).Msg("Thread check failed, relying on fast path only")
		return true
	}
	if node == nil {
		return true
	}
	for _, reply := range node.Replies {
		if reply != nil && reply.Message.AuthorDID == g.selfDID {
			// Already answered in a previous run; remember it so the next
			// cycle doesn't fetch the thread again.
			g.MarkHandled(msg.URI)
			return false
		}
	}
	return true
}

// MarkHandled records msg's identifier after a successful reply dispatch.
// When the set is full it is trimmed to its most-recently-inserted half in
// one batch rather than evicting entries one at a time. Early-trimmed
// identifiers get re-checked through the thread scan, so the coarse policy
// costs a fetch, never a duplicate reply.
func (g *Guard) MarkHandled(uri string) {
	if _, ok := g.seen[uri]; ok {
		return
	}
	if len(g.order) >= g.capacity {
		cut := len(g.order) - g.capacity/2
		for _, old := range g.order[:cut] {
			delete(g.seen, old)
		}
		g.order = append(g.order[:0], g.order[cut:]...)
	}
	g.seen[uri] = struct{}{}
	g.order = append(g.order, uri)
}

// Len returns the number of identifiers currently cached.
func (g *Guard) Len() int {
	return len(g.order)
}
