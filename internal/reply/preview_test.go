package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/privlink/internal/feed"
	"github.com/privlink/internal/video"
)

type fakeFetcher struct {
	responses map[string]*feed.FetchResult
	err       error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*feed.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	for prefix, res := range f.responses {
		if strings.HasPrefix(url, prefix) {
			return res, nil
		}
	}
	return &feed.FetchResult{StatusCode: 404}, nil
}

type fakeUploader struct {
	ref string
	err error
}

func (f *fakeUploader) UploadAsset(ctx context.Context, data []byte, mimeType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

var previewRef = video.Reference{
	Platform:     video.PlatformYouTube,
	ID:           "dQw4w9WgXcQ",
	CanonicalURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
}

func TestPreviewWithMetadataAndThumbnail(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]*feed.FetchResult{
		"https://www.youtube.com/oembed": {
			StatusCode: 200,
			Body:       []byte(`{"title":"Some Video","author_name":"Some Channel","thumbnail_url":"https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"}`),
		},
		"https://i.ytimg.com/": {
			StatusCode:  200,
			ContentType: "image/jpeg",
			Body:        []byte("jpegbytes"),
		},
	}}
	p := NewPreviewer(fetcher, &fakeUploader{ref: `{"$type":"blob","ref":"abc"}`})

	record := p.Fetch(context.Background(), previewRef, "https://priv.example/video?video=dQw4w9WgXcQ")
	if record.Title != "Some Video" {
		t.Errorf("title = %q", record.Title)
	}
	if record.Description != "Some Channel" {
		t.Errorf("description = %q", record.Description)
	}
	if record.ThumbnailRef == "" {
		t.Error("thumbnail should have been re-hosted")
	}
	if record.URL != "https://priv.example/video?video=dQw4w9WgXcQ" {
		t.Errorf("url = %q", record.URL)
	}
}

func TestPreviewDegradesOnMetadataFailure(t *testing.T) {
	p := NewPreviewer(&fakeFetcher{err: errors.New("timeout")}, &fakeUploader{})

	record := p.Fetch(context.Background(), previewRef, "https://priv.example/video?video=dQw4w9WgXcQ")
	if record == nil {
		t.Fatal("preview must never be nil")
	}
	if record.Title != defaultPreviewTitle || record.Description != defaultPreviewDescription {
		t.Errorf("expected default texts, got %q / %q", record.Title, record.Description)
	}
	if record.ThumbnailRef != "" {
		t.Error("no thumbnail expected on failure")
	}
}

func TestPreviewUploadFailureKeepsText(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]*feed.FetchResult{
		"https://www.youtube.com/oembed": {
			StatusCode: 200,
			Body:       []byte(`{"title":"Some Video","thumbnail_url":"https://i.ytimg.com/vi/x/hq.jpg"}`),
		},
		"https://i.ytimg.com/": {StatusCode: 200, Body: []byte("jpegbytes")},
	}}
	p := NewPreviewer(fetcher, &fakeUploader{err: errors.New("upload rejected")})

	record := p.Fetch(context.Background(), previewRef, "https://priv.example/v")
	if record.Title != "Some Video" {
		t.Errorf("title = %q", record.Title)
	}
	if record.ThumbnailRef != "" {
		t.Error("thumbnail ref should be empty when upload fails")
	}
}

func TestPreviewNonYouTubeGetsDefaults(t *testing.T) {
	p := NewPreviewer(&fakeFetcher{}, &fakeUploader{})
	ref := video.Reference{Platform: video.PlatformVimeo, ID: "76979871", CanonicalURL: "https://vimeo.com/76979871"}

	record := p.Fetch(context.Background(), ref, "https://priv.example/v")
	if record.Title != defaultPreviewTitle {
		t.Errorf("title = %q, want default", record.Title)
	}
}
