package feed

import "context"

// Client is the feed service collaborator the bot core talks to. The
// production implementation lives in internal/bsky; tests substitute fakes.
type Client interface {
	// SearchCandidates returns messages matching the tag, newest first.
	SearchCandidates(ctx context.Context, tag string, limit int) ([]CandidateMessage, error)

	// ListTimeline returns a broader unfiltered batch, newest first. Used as
	// the fallback listing strategy when search fails outright.
	ListTimeline(ctx context.Context, limit int) ([]CandidateMessage, error)

	// FetchThread returns the thread around a message. Depth 0 fetches just
	// the message itself (plus its parent linkage); depth 1 includes direct
	// replies.
	FetchThread(ctx context.Context, uri string, depth int) (*ThreadNode, error)

	// PostReply publishes a composed reply.
	PostReply(ctx context.Context, reply ReplyInstruction) error

	// UploadAsset stores raw bytes with the feed service and returns an
	// opaque reference usable in a PreviewRecord.
	UploadAsset(ctx context.Context, data []byte, mimeType string) (string, error)

	// Fetch performs a generic outbound GET, following redirects.
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// ThreadFetcher is the narrow slice of Client needed by components that only
// read threads.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, uri string, depth int) (*ThreadNode, error)
}

// Fetcher is the narrow slice of Client needed by components that only
// perform generic outbound fetches.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
