// Package reply builds the outward-facing privacy link and composes the
// outgoing reply around it.
package reply

import (
	"fmt"
	"net/url"

	"github.com/privlink/internal/video"
)

// BuildLink turns a video reference into the privacy redirect URL served
// from domain. YouTube identifiers are self-sufficient, so only the bare
// token is encoded, keeping the link short. Every other platform needs its
// full canonical URL to preserve routing, so that is what gets
// percent-encoded.
func BuildLink(ref video.Reference, domain string) string {
	if ref.Platform == video.PlatformYouTube {
		return fmt.Sprintf("https://%s/video?video=%s", domain, ref.ID)
	}
	return fmt.Sprintf("https://%s/video?url=%s", domain, url.QueryEscape(ref.CanonicalURL))
}
