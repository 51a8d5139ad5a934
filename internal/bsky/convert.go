package bsky

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/privlink/internal/feed"
)

// convertPost maps a wire post view onto the validated feed model. Records
// that fail validation are dropped at this boundary so the core never sees
// a half-shaped message.
func convertPost(p postView) (feed.CandidateMessage, bool) {
	msg := feed.CandidateMessage{
		URI:       p.URI,
		CID:       p.CID,
		AuthorDID: p.Author.DID,
		Text:      p.Record.Text,
	}

	if created, err := time.Parse(time.RFC3339, p.Record.CreatedAt); err == nil {
		msg.CreatedAt = created
	}

	if r := p.Record.Reply; r != nil {
		msg.ParentURI = r.Parent.URI
		msg.ParentCID = r.Parent.CID
		msg.RootURI = r.Root.URI
		msg.RootCID = r.Root.CID
	}

	if e := p.Record.Embed; e != nil && e.External != nil && e.External.URI != "" {
		msg.Embed = &feed.ExternalLink{
			URL:         e.External.URI,
			Title:       e.External.Title,
			Description: e.External.Description,
		}
	}

	for _, f := range p.Record.Facets {
		for _, feat := range f.Features {
			if feat.Type == "app.bsky.richtext.facet#link" && feat.URI != "" {
				msg.Links = append(msg.Links, feed.LinkAnnotation{
					ByteStart: f.Index.ByteStart,
					ByteEnd:   f.Index.ByteEnd,
					URL:       feat.URI,
				})
			}
		}
	}

	if err := msg.Validate(); err != nil {
		log.Warn().Err(err).Str("uri", p.URI).Msg("Dropping malformed feed record")
		return feed.CandidateMessage{}, false
	}
	return msg, true
}

func convertPosts(posts []postView) []feed.CandidateMessage {
	out := make([]feed.CandidateMessage, 0, len(posts))
	for _, p := range posts {
		if msg, ok := convertPost(p); ok {
			out = append(out, msg)
		}
	}
	return out
}

// convertThread maps a thread view recursively. Blocked or not-found nodes
// come back without a post and are pruned.
func convertThread(t threadViewPost) *feed.ThreadNode {
	if t.Post == nil {
		return nil
	}
	msg, ok := convertPost(*t.Post)
	if !ok {
		return nil
	}
	node := &feed.ThreadNode{Message: msg}
	for _, r := range t.Replies {
		if child := convertThread(r); child != nil {
			node.Replies = append(node.Replies, child)
		}
	}
	return node
}
