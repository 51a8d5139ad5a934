package video

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/privlink/internal/feed"
)

// shortLinkPatterns are URL shapes known to be opaque redirects for a
// platform. The path token carries no identifier, so the link must be
// followed before a recognizer can do anything with it.
var shortLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?vm\.tiktok\.com/[A-Za-z0-9]+/?`),
	regexp.MustCompile(`(?:https?://)?vt\.tiktok\.com/[A-Za-z0-9]+/?`),
}

// Resolver expands opaque short links to their canonical form with a single
// outbound fetch. It never retries and never fails the pipeline: on any
// error the original URL is returned unchanged.
type Resolver struct {
	fetcher feed.Fetcher
}

func NewResolver(fetcher feed.Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// ShortLink returns the first opaque short link found in text, or "".
func ShortLink(text string) string {
	for _, re := range shortLinkPatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// Resolve follows redirects on url to completion and returns the final URL.
// Failure degrades to the input: the caller just matches whatever the
// unresolved form yields, which is usually nothing.
func (r *Resolver) Resolve(ctx context.Context, url string) string {
	if r.fetcher == nil {
		return url
	}
	target := url
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}
	res, err := r.fetcher.Fetch(ctx, target)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Short link resolution failed, keeping original URL")
		return url
	}
	if res.FinalURL == "" || res.FinalURL == target {
		return url
	}
	return res.FinalURL
}
