package bsky

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlink/internal/feed"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sessionResponse{AccessJwt: "token", DID: "did:plc:bot", Handle: "bot.test"})
	})
	if handler != nil {
		mux.Handle("/", handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), server.URL, "bot.test", "app-password")
	require.NoError(t, err)
	require.Equal(t, "did:plc:bot", client.DID())
	return client, server
}

func TestSearchCandidatesConversion(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xrpc/app.bsky.feed.searchPosts", r.URL.Path)
		assert.Equal(t, "#tag", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(searchPostsResponse{Posts: []postView{
			{
				URI:    "at://did:plc:u/app.bsky.feed.post/1",
				CID:    "cid1",
				Author: author{DID: "did:plc:u", Handle: "user.test"},
				Record: postRecord{
					Type:      "app.bsky.feed.post",
					Text:      "#tag watch this",
					CreatedAt: "2026-08-30T12:00:00Z",
					Embed: &embed{
						Type:     "app.bsky.embed.external",
						External: &externalEmbed{URI: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Title: "vid"},
					},
					Facets: []facet{
						{
							Index: facetIndex{ByteStart: 5, ByteEnd: 15},
							Features: []facetFeature{
								{Type: "app.bsky.richtext.facet#link", URI: "https://example.com"},
								{Type: "app.bsky.richtext.facet#tag", Tag: "tag"},
							},
						},
					},
				},
			},
			{
				// Missing CID: dropped at the boundary.
				URI:    "at://did:plc:u/app.bsky.feed.post/2",
				Author: author{DID: "did:plc:u"},
				Record: postRecord{Text: "broken"},
			},
		}})
	})
	client, _ := newTestClient(t, handler)

	msgs, err := client.SearchCandidates(context.Background(), "#tag", 25)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "malformed record must be dropped")

	msg := msgs[0]
	assert.Equal(t, "at://did:plc:u/app.bsky.feed.post/1", msg.URI)
	assert.Equal(t, "did:plc:u", msg.AuthorDID)
	require.NotNil(t, msg.Embed)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", msg.Embed.URL)
	require.Len(t, msg.Links, 1, "only link facets become annotations")
	assert.Equal(t, "https://example.com", msg.Links[0].URL)
	assert.False(t, msg.IsReply())
}

func TestFetchThreadDepth(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xrpc/app.bsky.feed.getPostThread", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("depth"))

		json.NewEncoder(w).Encode(threadResponse{Thread: threadViewPost{
			Post: &postView{
				URI:    "at://did:plc:u/app.bsky.feed.post/root",
				CID:    "cidroot",
				Author: author{DID: "did:plc:u"},
				Record: postRecord{Text: "root post", CreatedAt: "2026-08-30T12:00:00Z"},
			},
			Replies: []threadViewPost{
				{
					Post: &postView{
						URI:    "at://did:plc:bot/app.bsky.feed.post/r1",
						CID:    "cidr1",
						Author: author{DID: "did:plc:bot"},
						Record: postRecord{Text: "bot reply"},
					},
				},
				{
					// Blocked node without a post: pruned.
					Post: nil,
				},
			},
		}})
	})
	client, _ := newTestClient(t, handler)

	node, err := client.FetchThread(context.Background(), "at://did:plc:u/app.bsky.feed.post/root", 1)
	require.NoError(t, err)
	require.Len(t, node.Replies, 1)
	assert.Equal(t, "did:plc:bot", node.Replies[0].Message.AuthorDID)
}

func TestPostReplyPayload(t *testing.T) {
	var received createRecordRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xrpc/com.atproto.repo.createRecord", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{}`))
	})
	client, _ := newTestClient(t, handler)

	err := client.PostReply(context.Background(), feed.ReplyInstruction{
		Text:      "Here is a link: https://priv.example/video?video=x",
		Links:     []feed.LinkAnnotation{{ByteStart: 16, ByteEnd: 50, URL: "https://priv.example/video?video=x"}},
		RootURI:   "at://root",
		RootCID:   "cidroot",
		ParentURI: "at://parent",
		ParentCID: "cidparent",
		Preview: &feed.PreviewRecord{
			Title:       "t",
			Description: "d",
			URL:         "https://priv.example/video?video=x",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "did:plc:bot", received.Repo)
	assert.Equal(t, "app.bsky.feed.post", received.Collection)
	require.NotNil(t, received.Record.Reply)
	assert.Equal(t, "at://root", received.Record.Reply.Root.URI)
	assert.Equal(t, "at://parent", received.Record.Reply.Parent.URI)
	require.Len(t, received.Record.Facets, 1)
	assert.Equal(t, 16, received.Record.Facets[0].Index.ByteStart)
	assert.Equal(t, "app.bsky.richtext.facet#link", received.Record.Facets[0].Features[0].Type)
	require.NotNil(t, received.Record.Embed)
	assert.Equal(t, "app.bsky.embed.external", received.Record.Embed.Type)
}

func TestFetchFollowsRedirects(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("landed"))
	}))
	defer final.Close()
	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/target", http.StatusFound)
	}))
	defer redirecting.Close()

	client, _ := newTestClient(t, nil)

	res, err := client.Fetch(context.Background(), redirecting.URL)
	require.NoError(t, err)
	assert.Equal(t, final.URL+"/target", res.FinalURL)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, []byte("landed"), res.Body)
}

func TestXRPCErrorStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"RateLimitExceeded"}`, http.StatusTooManyRequests)
	})
	client, _ := newTestClient(t, handler)

	_, err := client.SearchCandidates(context.Background(), "#tag", 25)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
