package reply

import (
	"github.com/privlink/internal/feed"
	"github.com/privlink/internal/video"
)

// lead returns the short fixed template preceding the privacy URL. The
// reference subtype only changes wording, nothing structural.
func lead(ref video.Reference) string {
	switch ref.Subtype {
	case video.SubtypeShortForm:
		return "Here’s a privacy-friendly link for that short:\n"
	case video.SubtypeClip:
		return "Here’s a privacy-friendly link for that clip:\n"
	case video.SubtypeChannel:
		return "Here’s a privacy-friendly link for that channel:\n"
	default:
		return "Here’s a privacy-friendly link for that video:\n"
	}
}

// Compose builds the outgoing reply for trigger. The link annotation range
// is measured in bytes of the UTF-8 encoded text, not runes: multi-byte
// characters in the template shift the URL's true span.
//
// Thread linkage: the reply always lands inside the existing conversation.
// If trigger is itself a reply its thread root is reused as the root;
// otherwise trigger is both root and parent.
func Compose(trigger feed.CandidateMessage, ref video.Reference, privacyURL string, preview *feed.PreviewRecord) feed.ReplyInstruction {
	prefix := lead(ref)
	text := prefix + privacyURL

	start := len([]byte(prefix))
	end := start + len([]byte(privacyURL))

	rootURI, rootCID := trigger.URI, trigger.CID
	if trigger.IsReply() {
		rootURI, rootCID = trigger.RootURI, trigger.RootCID
	}

	return feed.ReplyInstruction{
		Text: text,
		Links: []feed.LinkAnnotation{
			{ByteStart: start, ByteEnd: end, URL: privacyURL},
		},
		RootURI:   rootURI,
		RootCID:   rootCID,
		ParentURI: trigger.URI,
		ParentCID: trigger.CID,
		Preview:   preview,
	}
}
