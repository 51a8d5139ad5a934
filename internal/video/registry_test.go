package video

import "testing"

func TestRegistryMatch(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		text     string
		platform Platform
		id       string
		subtype  Subtype
	}{
		{
			name:     "YouTube watch full URL",
			text:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			platform: PlatformYouTube,
			id:       "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube watch without scheme",
			text:     "www.youtube.com/watch?v=dQw4w9WgXcQ",
			platform: PlatformYouTube,
			id:       "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube watch without www",
			text:     "youtube.com/watch?v=dQw4w9WgXcQ",
			platform: PlatformYouTube,
			id:       "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube watch with tracking params",
			text:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&si=AbCdEf",
			platform: PlatformYouTube,
			id:       "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube watch with v not first",
			text:     "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ",
			platform: PlatformYouTube,
			id:       "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube short link",
			text:     "https://youtu.be/dQw4w9WgXcQ?si=share",
			platform: PlatformYouTube,
			id:       "dQw4w9WgXcQ",
		},
		{
			name:     "YouTube shorts",
			text:     "https://www.youtube.com/shorts/aBcDeFgHiJk",
			platform: PlatformYouTube,
			id:       "aBcDeFgHiJk",
			subtype:  SubtypeShortForm,
		},
		{
			name:     "Vimeo",
			text:     "check this https://vimeo.com/76979871 out",
			platform: PlatformVimeo,
			id:       "76979871",
		},
		{
			name:     "Twitch clip subdomain",
			text:     "https://clips.twitch.tv/AwkwardHelplessSalamanderSwiftRage",
			platform: PlatformTwitch,
			id:       "AwkwardHelplessSalamanderSwiftRage",
			subtype:  SubtypeClip,
		},
		{
			name:     "Twitch clip channel path",
			text:     "https://www.twitch.tv/somestreamer/clip/AwkwardClipSlug-abc123",
			platform: PlatformTwitch,
			id:       "AwkwardClipSlug-abc123",
			subtype:  SubtypeClip,
		},
		{
			name:     "Twitch video",
			text:     "twitch.tv/videos/123456789",
			platform: PlatformTwitch,
			id:       "123456789",
			subtype:  SubtypeVideo,
		},
		{
			name:     "Twitch channel",
			text:     "https://www.twitch.tv/somestreamer",
			platform: PlatformTwitch,
			id:       "somestreamer",
			subtype:  SubtypeChannel,
		},
		{
			name:     "Dailymotion video",
			text:     "https://www.dailymotion.com/video/x7tgad0",
			platform: PlatformDailymotion,
			id:       "x7tgad0",
		},
		{
			name:     "Dailymotion short domain",
			text:     "dai.ly/x7tgad0",
			platform: PlatformDailymotion,
			id:       "x7tgad0",
		},
		{
			name:     "TikTok video",
			text:     "https://www.tiktok.com/@some.user/video/7106594312292453675",
			platform: PlatformTikTok,
			id:       "7106594312292453675",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := r.Match(tt.text)
			if !ok {
				t.Fatalf("Match(%q) returned no reference", tt.text)
			}
			if ref.Platform != tt.platform {
				t.Errorf("platform = %s, want %s", ref.Platform, tt.platform)
			}
			if ref.ID != tt.id {
				t.Errorf("id = %q, want %q", ref.ID, tt.id)
			}
			if ref.Subtype != tt.subtype {
				t.Errorf("subtype = %q, want %q", ref.Subtype, tt.subtype)
			}
			if ref.CanonicalURL == "" {
				t.Error("canonical URL is empty")
			}
		})
	}
}

func TestRegistryNoMatch(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		text string
	}{
		{
			name: "plain text",
			text: "nothing to see here",
		},
		{
			name: "truncated YouTube id",
			text: "https://www.youtube.com/watch?v=dQw4w9",
		},
		{
			name: "overlong YouTube watch token",
			text: "https://www.youtube.com/watch?v=dQw4w9WgXcQextra",
		},
		{
			name: "overlong YouTube shorts token",
			text: "https://www.youtube.com/shorts/aBcDeFgHiJkLm",
		},
		{
			name: "overlong youtu.be token",
			text: "https://youtu.be/dQw4w9WgXcQextra",
		},
		{
			name: "Vimeo id below minimum length",
			text: "https://vimeo.com/123",
		},
		{
			name: "TikTok id below minimum length",
			text: "https://www.tiktok.com/@user/video/12345",
		},
		{
			name: "unrelated site",
			text: "https://example.com/watch?v=dQw4w9WgXcQnothere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ref, ok := r.Match(tt.text); ok {
				t.Errorf("Match(%q) = %+v, want no match", tt.text, ref)
			}
		})
	}
}

func TestRegistryOrdering(t *testing.T) {
	r := NewRegistry()

	// The videos shape must win over the loose channel shape.
	ref, ok := r.Match("https://www.twitch.tv/videos/123456789")
	if !ok {
		t.Fatal("no match")
	}
	if ref.Subtype != SubtypeVideo {
		t.Errorf("subtype = %q, want %q", ref.Subtype, SubtypeVideo)
	}

	// A shorts URL must not be treated as a standard watch URL.
	ref, ok = r.Match("youtube.com/shorts/aBcDeFgHiJk")
	if !ok {
		t.Fatal("no match")
	}
	if ref.Subtype != SubtypeShortForm {
		t.Errorf("subtype = %q, want %q", ref.Subtype, SubtypeShortForm)
	}
}
