package reply

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/privlink/internal/feed"
	"github.com/privlink/internal/video"
)

// defaultPreviewTitle and description are used when metadata lookup fails;
// absence of metadata never blocks posting.
const (
	defaultPreviewTitle       = "Watch privately"
	defaultPreviewDescription = "Video via a privacy-preserving redirect."
)

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// uploader is the slice of the feed client the previewer needs besides
// fetching.
type uploader interface {
	UploadAsset(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Previewer assembles the optional rich preview attached to a reply. Only
// YouTube has a usable public metadata endpoint; other platforms get a
// default-text preview pointing at the privacy URL.
type Previewer struct {
	fetcher  feed.Fetcher
	uploader uploader
}

func NewPreviewer(fetcher feed.Fetcher, up uploader) *Previewer {
	return &Previewer{fetcher: fetcher, uploader: up}
}

// Fetch builds the preview record for ref, best effort. Every failure path
// degrades to the default title and description.
func (p *Previewer) Fetch(ctx context.Context, ref video.Reference, privacyURL string) *feed.PreviewRecord {
	record := &feed.PreviewRecord{
		Title:       defaultPreviewTitle,
		Description: defaultPreviewDescription,
		URL:         privacyURL,
	}
	if ref.Platform != video.PlatformYouTube || p.fetcher == nil {
		return record
	}

	meta := p.fetchOEmbed(ctx, ref)
	if meta == nil {
		return record
	}
	if meta.Title != "" {
		record.Title = meta.Title
	}
	if meta.AuthorName != "" {
		record.Description = meta.AuthorName
	}
	if meta.ThumbnailURL != "" && p.uploader != nil {
		if blob := p.rehostThumbnail(ctx, meta.ThumbnailURL); blob != "" {
			record.ThumbnailRef = blob
		}
	}
	return record
}

func (p *Previewer) fetchOEmbed(ctx context.Context, ref video.Reference) *oembedResponse {
	endpoint := fmt.Sprintf("https://www.youtube.com/oembed?url=%s&format=json", url.QueryEscape(ref.CanonicalURL))
	res, err := p.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		log.Debug().Err(err).Str("id", ref.ID).Msg("Metadata lookup failed, using default preview text")
		return nil
	}
	if res.StatusCode != 200 {
		return nil
	}
	var meta oembedResponse
	if err := json.Unmarshal(res.Body, &meta); err != nil {
		log.Debug().Err(err).Str("id", ref.ID).Msg("Could not parse metadata response")
		return nil
	}
	return &meta
}

func (p *Previewer) rehostThumbnail(ctx context.Context, thumbnailURL string) string {
	res, err := p.fetcher.Fetch(ctx, thumbnailURL)
	if err != nil || res.StatusCode != 200 || len(res.Body) == 0 {
		return ""
	}
	mime := res.ContentType
	if mime == "" {
		mime = "image/jpeg"
	}
	blob, err := p.uploader.UploadAsset(ctx, res.Body, mime)
	if err != nil {
		log.Debug().Err(err).Msg("Thumbnail upload failed, posting preview without image")
		return ""
	}
	return blob
}
