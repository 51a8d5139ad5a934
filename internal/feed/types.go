// Package feed defines the boundary between the bot core and the social
// feed service. The core only ever sees the validated types in this package;
// conversion from loose wire records happens in the client implementation.
package feed

import (
	"fmt"
	"time"
)

// ExternalLink is a message's structured external-link record. Unlike the
// body text it is stored as a separate machine field and is never truncated
// by display limits, which is why extraction prefers it.
type ExternalLink struct {
	URL         string
	Title       string
	Description string
}

// LinkAnnotation marks a clickable URL span inside a message body. Offsets
// are byte positions into the UTF-8 encoded text, not rune counts.
type LinkAnnotation struct {
	ByteStart int
	ByteEnd   int
	URL       string
}

// CandidateMessage is an immutable snapshot of a feed item under evaluation.
type CandidateMessage struct {
	URI       string // unique message identifier
	CID       string // content version, needed for reply references
	AuthorDID string
	Text      string
	Embed     *ExternalLink
	Links     []LinkAnnotation
	ParentURI string // non-empty iff the message is a reply
	ParentCID string
	RootURI   string // thread root, set alongside ParentURI
	RootCID   string
	CreatedAt time.Time
}

// IsReply reports whether the message is a reply to another message.
func (m CandidateMessage) IsReply() bool {
	return m.ParentURI != ""
}

// Validate checks the fields the core depends on. It is called by client
// implementations before a message crosses the boundary.
func (m CandidateMessage) Validate() error {
	if m.URI == "" {
		return fmt.Errorf("candidate message missing URI")
	}
	if m.CID == "" {
		return fmt.Errorf("candidate message %s missing CID", m.URI)
	}
	if m.AuthorDID == "" {
		return fmt.Errorf("candidate message %s missing author", m.URI)
	}
	if m.ParentURI != "" && m.RootURI == "" {
		return fmt.Errorf("candidate message %s is a reply but has no thread root", m.URI)
	}
	for _, l := range m.Links {
		if l.ByteStart < 0 || l.ByteEnd < l.ByteStart {
			return fmt.Errorf("candidate message %s has invalid link range [%d,%d)", m.URI, l.ByteStart, l.ByteEnd)
		}
	}
	return nil
}

// ThreadNode is one message in a fetched thread, with its direct replies.
type ThreadNode struct {
	Message CandidateMessage
	Replies []*ThreadNode
}

// PreviewRecord carries optional rich-preview data attached to a reply.
// ThumbnailRef, when set, is an opaque asset reference obtained from
// Client.UploadAsset.
type PreviewRecord struct {
	Title        string
	Description  string
	URL          string
	ThumbnailRef string
}

// ReplyInstruction is a fully composed outgoing reply. It is built fresh per
// dispatch and consumed exactly once by Client.PostReply.
type ReplyInstruction struct {
	Text      string
	Links     []LinkAnnotation
	RootURI   string
	RootCID   string
	ParentURI string
	ParentCID string
	Preview   *PreviewRecord
}

// FetchResult is the outcome of a generic outbound fetch. FinalURL is the
// URL after all redirects were followed, which is what redirect resolution
// is after; Body and ContentType serve metadata and thumbnail lookups.
type FetchResult struct {
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}
