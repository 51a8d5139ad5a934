package video

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/privlink/internal/feed"
)

// Extractor turns a message's available representations into a canonical
// video reference. Sources are tried in a fixed priority order: the
// structured external-link record first (never truncated), then rich-text
// link annotations (also complete), then the raw body text as a last
// resort. Body text can be silently chopped by client display limits, so
// the raw-text fallback can be disabled outright.
type Extractor struct {
	registry          *Registry
	resolver          *Resolver
	allowTextFallback bool
}

func NewExtractor(registry *Registry, resolver *Resolver, allowTextFallback bool) *Extractor {
	return &Extractor{
		registry:          registry,
		resolver:          resolver,
		allowTextFallback: allowTextFallback,
	}
}

// ExtractFrom applies the source priority order to msg and returns the first
// reference found.
func (e *Extractor) ExtractFrom(ctx context.Context, msg feed.CandidateMessage) *Reference {
	sources := make([]string, 0, len(msg.Links)+2)
	if msg.Embed != nil && msg.Embed.URL != "" {
		sources = append(sources, msg.Embed.URL)
	}
	for _, l := range msg.Links {
		if l.URL != "" {
			sources = append(sources, l.URL)
		}
	}
	if e.allowTextFallback && msg.Text != "" {
		sources = append(sources, msg.Text)
	}

	for _, src := range sources {
		if ref := e.ExtractFromText(ctx, src); ref != nil {
			return ref
		}
	}
	return nil
}

// ExtractFromText matches raw against the pattern table. Opaque short links
// are only resolved when nothing in the text matches directly, so a
// recognizable URL never pays for a network round trip.
func (e *Extractor) ExtractFromText(ctx context.Context, raw string) *Reference {
	if ref, ok := e.registry.Match(raw); ok {
		return &ref
	}
	if short := ShortLink(raw); short != "" && e.resolver != nil {
		resolved := e.resolver.Resolve(ctx, short)
		if resolved != short {
			if ref, ok := e.registry.Match(resolved); ok {
				log.Debug().Str("short", short).Str("resolved", resolved).Msg("Matched via resolved short link")
				return &ref
			}
		}
	}
	return nil
}
