package video

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/privlink/internal/feed"
)

// SourceResolver locates the video reference a trigger message points at.
// When the trigger is itself a reply, the reference usually lives in the
// message being replied to, so extraction runs against the parent's
// representations instead.
type SourceResolver struct {
	threads   feed.ThreadFetcher
	extractor *Extractor
}

func NewSourceResolver(threads feed.ThreadFetcher, extractor *Extractor) *SourceResolver {
	return &SourceResolver{threads: threads, extractor: extractor}
}

// ResolveVideoSource returns the reference for msg, looking at the parent
// message when msg is a reply. A parent that cannot be fetched (deleted,
// network error) yields no reference rather than an error; the scan must
// not abort over one broken thread.
func (s *SourceResolver) ResolveVideoSource(ctx context.Context, msg feed.CandidateMessage) *Reference {
	if !msg.IsReply() {
		return s.extractor.ExtractFrom(ctx, msg)
	}

	node, err := s.threads.FetchThread(ctx, msg.ParentURI, 0)
	if err != nil {
		log.Warn().Err(err).Str("parent", msg.ParentURI).Msg("Could not fetch parent message, skipping")
		return nil
	}
	if node == nil {
		return nil
	}
	return s.extractor.ExtractFrom(ctx, node.Message)
}
