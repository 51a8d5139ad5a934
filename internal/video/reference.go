// Package video recognizes video URLs across the supported platforms and
// normalizes them into canonical references.
package video

// Platform identifies a supported video-sharing site.
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformVimeo       Platform = "vimeo"
	PlatformTwitch      Platform = "twitch"
	PlatformDailymotion Platform = "dailymotion"
	PlatformTikTok      Platform = "tiktok"
)

// Subtype distinguishes URL shapes within a platform. It only influences
// reply wording, never identifier derivation.
type Subtype string

const (
	SubtypeStandard  Subtype = ""
	SubtypeShortForm Subtype = "short-form"
	SubtypeClip      Subtype = "clip"
	SubtypeVideo     Subtype = "video"
	SubtypeChannel   Subtype = "channel"
)

// Reference is the result of a successful extraction. ID is always derived
// from CanonicalURL by the same pattern that recognized it, never guessed.
type Reference struct {
	Platform     Platform
	ID           string
	CanonicalURL string
	Subtype      Subtype
}
