// Package scan orchestrates one pass over a batch of candidate messages:
// dedup check, reference resolution, link building, reply dispatch.
package scan

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/privlink/internal/feed"
	"github.com/privlink/internal/guard"
	"github.com/privlink/internal/reply"
	"github.com/privlink/internal/video"
)

// ErrCycleInFlight is returned when a cycle is requested while another is
// still running. The request is dropped, never queued.
var ErrCycleInFlight = errors.New("scan cycle already in flight")

// fallbackDelay is the pause before retrying candidate listing through the
// broad timeline scan. Variable so tests can shorten it.
var fallbackDelay = 2 * time.Second

// Options configures one controller instance.
type Options struct {
	Tag            string        // marker tag, matched case-insensitively
	PrivacyDomain  string        // outward-facing redirect domain
	SelfDID        string        // the bot's own identity
	CandidateLimit int           // batch size per cycle
	MaxAge         time.Duration // staleness cutoff; zero disables
	DispatchDelay  time.Duration // minimum delay between reply dispatches
}

// Result summarizes one finished cycle.
type Result struct {
	Candidates int
	Skipped    int
	Replied    int
	Failed     int
}

// Controller runs scan cycles. It guarantees at most one cycle at a time
// via an in-flight flag: overlapping triggers are no-ops. Within a cycle
// candidates are processed strictly sequentially. Replying to message A
// must be recorded before message B is evaluated, and the feed API's rate
// limits want it that way too.
type Controller struct {
	client    feed.Client
	sources   *video.SourceResolver
	guard     *guard.Guard
	previewer *reply.Previewer
	opts      Options

	inFlight atomic.Bool
	limiter  *rate.Limiter
}

func NewController(client feed.Client, sources *video.SourceResolver, g *guard.Guard, previewer *reply.Previewer, opts Options) *Controller {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = 25
	}
	var limiter *rate.Limiter
	if opts.DispatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.DispatchDelay), 1)
	}
	return &Controller{
		client:    client,
		sources:   sources,
		guard:     g,
		previewer: previewer,
		opts:      opts,
		limiter:   limiter,
	}
}

// RunCycle executes one scan pass. It returns ErrCycleInFlight when called
// while a previous cycle is still running.
func (c *Controller) RunCycle(ctx context.Context) (Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		log.Info().Msg("Scan cycle already running, skipping trigger")
		return Result{}, ErrCycleInFlight
	}
	defer c.inFlight.Store(false)

	cycleID := uuid.NewString()
	logger := log.With().Str("cycle", cycleID).Logger()

	candidates, err := c.listCandidates(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Candidate listing failed, ending cycle early")
		return Result{}, err
	}

	result := Result{Candidates: len(candidates)}
	for _, msg := range candidates {
		switch c.processOne(ctx, logger, msg) {
		case outcomeReplied:
			result.Replied++
		case outcomeFailed:
			result.Failed++
		default:
			result.Skipped++
		}
	}

	logger.Info().
		Int("candidates", result.Candidates).
		Int("replied", result.Replied).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Scan cycle finished")
	return result, nil
}

// listCandidates tries tag search first; if that fails outright it waits a
// moment and falls back to a broader unfiltered timeline scan, filtering by
// tag containment itself.
func (c *Controller) listCandidates(ctx context.Context) ([]feed.CandidateMessage, error) {
	candidates, err := c.client.SearchCandidates(ctx, c.opts.Tag, c.opts.CandidateLimit)
	if err == nil {
		return candidates, nil
	}
	log.Warn().Err(err).Msg("Tag search failed, falling back to timeline scan")

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(fallbackDelay):
	}

	timeline, err := c.client.ListTimeline(ctx, c.opts.CandidateLimit)
	if err != nil {
		return nil, err
	}
	matched := timeline[:0]
	for _, msg := range timeline {
		if containsTag(msg.Text, c.opts.Tag) {
			matched = append(matched, msg)
		}
	}
	return matched, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeReplied
	outcomeFailed
)

// processOne handles a single candidate in isolation: no failure here may
// propagate past this message.
func (c *Controller) processOne(ctx context.Context, logger zerolog.Logger, msg feed.CandidateMessage) outcome {
	if msg.AuthorDID == c.opts.SelfDID {
		return outcomeSkipped
	}
	if !containsTag(msg.Text, c.opts.Tag) {
		return outcomeSkipped
	}
	if c.opts.MaxAge > 0 && time.Since(msg.CreatedAt) > c.opts.MaxAge {
		logger.Debug().Str("uri", msg.URI).Msg("Candidate older than staleness cutoff, discarding")
		return outcomeSkipped
	}
	if !c.guard.ShouldProcess(ctx, msg) {
		logger.Debug().Str("uri", msg.URI).Msg("Already handled, skipping")
		return outcomeSkipped
	}

	ref := c.sources.ResolveVideoSource(ctx, msg)
	if ref == nil {
		logger.Debug().Str("uri", msg.URI).Msg("No video reference found")
		return outcomeSkipped
	}

	privacyURL := reply.BuildLink(*ref, c.opts.PrivacyDomain)
	var preview *feed.PreviewRecord
	if c.previewer != nil {
		preview = c.previewer.Fetch(ctx, *ref, privacyURL)
	}
	instruction := reply.Compose(msg, *ref, privacyURL, preview)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return outcomeSkipped
		}
	}

	if err := c.client.PostReply(ctx, instruction); err != nil {
		logger.Error().Err(err).Str("uri", msg.URI).Msg("Reply dispatch failed")
		return outcomeFailed
	}

	c.guard.MarkHandled(msg.URI)
	logger.Info().
		Str("uri", msg.URI).
		Str("platform", string(ref.Platform)).
		Str("video", ref.ID).
		Msg("Replied with privacy link")
	return outcomeReplied
}

// containsTag does a case-insensitive containment match of tag in text.
func containsTag(text, tag string) bool {
	if tag == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(tag))
}
