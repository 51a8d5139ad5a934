package bsky

import "encoding/json"

// Wire types for the subset of the XRPC API the bot uses. Kept separate
// from the feed data model; conversion and validation happen in convert.go.

type sessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type author struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

type facetIndex struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type facetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

type facet struct {
	Index    facetIndex     `json:"index"`
	Features []facetFeature `json:"features"`
}

type strongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type replyRefs struct {
	Root   strongRef `json:"root"`
	Parent strongRef `json:"parent"`
}

type externalEmbed struct {
	URI         string          `json:"uri"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Thumb       json.RawMessage `json:"thumb,omitempty"`
}

type embed struct {
	Type     string         `json:"$type"`
	External *externalEmbed `json:"external,omitempty"`
}

type postRecord struct {
	Type      string     `json:"$type"`
	Text      string     `json:"text"`
	CreatedAt string     `json:"createdAt"`
	Reply     *replyRefs `json:"reply,omitempty"`
	Facets    []facet    `json:"facets,omitempty"`
	Embed     *embed     `json:"embed,omitempty"`
}

type postView struct {
	URI    string     `json:"uri"`
	CID    string     `json:"cid"`
	Author author     `json:"author"`
	Record postRecord `json:"record"`
}

type searchPostsResponse struct {
	Posts []postView `json:"posts"`
}

type timelineResponse struct {
	Feed []struct {
		Post postView `json:"post"`
	} `json:"feed"`
}

type threadViewPost struct {
	Type    string           `json:"$type"`
	Post    *postView        `json:"post"`
	Replies []threadViewPost `json:"replies"`
}

type threadResponse struct {
	Thread threadViewPost `json:"thread"`
}

type createRecordRequest struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

type uploadBlobResponse struct {
	Blob json.RawMessage `json:"blob"`
}
