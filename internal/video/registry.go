package video

import (
	"fmt"
	"regexp"
)

// recognizer is one entry in the ordered pattern table. The regex captures
// the minimal identifier token; build derives the canonical URL from it.
type recognizer struct {
	platform Platform
	subtype  Subtype
	re       *regexp.Regexp
	build    func(m []string) (id, canonical string, ok bool)
}

// Registry holds the ordered per-platform URL recognizers. The first
// recognizer that matches wins, so the order below is part of the contract:
// more specific shapes (shorts, clips, video ids) come before loose ones
// (bare channel paths).
type Registry struct {
	recognizers []recognizer
}

// twitchReservedPaths are first path segments on twitch.tv that are not
// channel names.
var twitchReservedPaths = map[string]bool{
	"videos":        true,
	"directory":     true,
	"clip":          true,
	"downloads":     true,
	"jobs":          true,
	"p":             true,
	"settings":      true,
	"search":        true,
	"subscriptions": true,
}

// NewRegistry builds the pattern table. All patterns accept URLs with or
// without a scheme and with or without a www. prefix, and capture only the
// identifier token so trailing query parameters and tracking suffixes are
// discarded.
func NewRegistry() *Registry {
	simple := func(canonicalFormat string) func(m []string) (string, string, bool) {
		return func(m []string) (string, string, bool) {
			return m[1], fmt.Sprintf(canonicalFormat, m[1]), true
		}
	}

	return &Registry{recognizers: []recognizer{
		{
			platform: PlatformYouTube,
			subtype:  SubtypeShortForm,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?youtube\.com/shorts/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
			build:    simple("https://www.youtube.com/shorts/%s"),
		},
		{
			platform: PlatformYouTube,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?youtube\.com/watch\?(?:[^\s&]*&)*v=([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
			build:    simple("https://www.youtube.com/watch?v=%s"),
		},
		{
			platform: PlatformYouTube,
			re:       regexp.MustCompile(`(?:https?://)?youtu\.be/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
			build:    simple("https://www.youtube.com/watch?v=%s"),
		},
		{
			platform: PlatformTwitch,
			subtype:  SubtypeClip,
			re:       regexp.MustCompile(`(?:https?://)?clips\.twitch\.tv/([A-Za-z][A-Za-z0-9_-]{3,})`),
			build:    simple("https://clips.twitch.tv/%s"),
		},
		{
			platform: PlatformTwitch,
			subtype:  SubtypeClip,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.)?twitch\.tv/[A-Za-z0-9_]+/clip/([A-Za-z][A-Za-z0-9_-]{3,})`),
			build:    simple("https://clips.twitch.tv/%s"),
		},
		{
			platform: PlatformTwitch,
			subtype:  SubtypeVideo,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.)?twitch\.tv/videos/([0-9]{6,})`),
			build:    simple("https://www.twitch.tv/videos/%s"),
		},
		{
			platform: PlatformVimeo,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.)?vimeo\.com/([0-9]{6,})`),
			build:    simple("https://vimeo.com/%s"),
		},
		{
			platform: PlatformDailymotion,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.)?dailymotion\.com/video/([a-zA-Z0-9]{6,})`),
			build:    simple("https://www.dailymotion.com/video/%s"),
		},
		{
			platform: PlatformDailymotion,
			re:       regexp.MustCompile(`(?:https?://)?dai\.ly/([a-zA-Z0-9]{6,})`),
			build:    simple("https://www.dailymotion.com/video/%s"),
		},
		{
			platform: PlatformTikTok,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.)?tiktok\.com/@([A-Za-z0-9_.-]+)/video/([0-9]{15,})`),
			build: func(m []string) (string, string, bool) {
				return m[2], fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", m[1], m[2]), true
			},
		},
		{
			platform: PlatformTwitch,
			subtype:  SubtypeChannel,
			re:       regexp.MustCompile(`(?:https?://)?(?:www\.)?twitch\.tv/([A-Za-z0-9_]{4,25})\b`),
			build: func(m []string) (string, string, bool) {
				if twitchReservedPaths[m[1]] {
					return "", "", false
				}
				return m[1], fmt.Sprintf("https://www.twitch.tv/%s", m[1]), true
			},
		},
	}}
}

// Match scans text with each recognizer in order and returns the reference
// produced by the first one that matches.
func (r *Registry) Match(text string) (Reference, bool) {
	for _, rec := range r.recognizers {
		m := rec.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		id, canonical, ok := rec.build(m)
		if !ok {
			continue
		}
		return Reference{
			Platform:     rec.platform,
			ID:           id,
			CanonicalURL: canonical,
			Subtype:      rec.subtype,
		}, true
	}
	return Reference{}, false
}
