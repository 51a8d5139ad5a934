// Package bsky implements the feed.Client interface against an
// AT-protocol-style XRPC HTTP API.
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/privlink/internal/feed"
)

const (
	requestTimeout = 15 * time.Second
	maxFetchBytes  = 4 << 20 // cap generic fetches at 4 MiB
)

// Client talks to one XRPC service with a session token. It rate-limits
// its own requests; callers never see 429s from ordinary operation.
type Client struct {
	serviceURL string
	accessJwt  string
	did        string
	httpClient *http.Client
	fetchHTTP  *http.Client // separate client for generic outbound fetches
	limiter    *rate.Limiter
}

// NewClient creates a session with the feed service. The app password flow
// is the only auth the service offers for bots; the returned token is an
// opaque string.
func NewClient(ctx context.Context, serviceURL, handle, appPassword string) (*Client, error) {
	c := &Client{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		fetchHTTP:  &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
	}

	body, err := json.Marshal(sessionRequest{Identifier: handle, Password: appPassword})
	if err != nil {
		return nil, err
	}
	var session sessionResponse
	if err := c.doXRPC(ctx, http.MethodPost, "com.atproto.server.createSession", nil, body, &session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if session.AccessJwt == "" || session.DID == "" {
		return nil, fmt.Errorf("session response missing token or DID")
	}
	c.accessJwt = session.AccessJwt
	c.did = session.DID
	log.Info().Str("handle", handle).Str("did", session.DID).Msg("Feed session established")
	return c, nil
}

// DID returns the bot's own identity as resolved during session creation.
func (c *Client) DID() string {
	return c.did
}

// SearchCandidates returns posts matching the tag, newest first.
func (c *Client) SearchCandidates(ctx context.Context, tag string, limit int) ([]feed.CandidateMessage, error) {
	params := url.Values{}
	params.Set("q", tag)
	params.Set("sort", "latest")
	params.Set("limit", strconv.Itoa(limit))

	var res searchPostsResponse
	if err := c.doXRPC(ctx, http.MethodGet, "app.bsky.feed.searchPosts", params, nil, &res); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return convertPosts(res.Posts), nil
}

// ListTimeline returns the bot's home timeline, newest first. Used as the
// fallback listing strategy when search is unavailable.
func (c *Client) ListTimeline(ctx context.Context, limit int) ([]feed.CandidateMessage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var res timelineResponse
	if err := c.doXRPC(ctx, http.MethodGet, "app.bsky.feed.getTimeline", params, nil, &res); err != nil {
		return nil, fmt.Errorf("timeline fetch failed: %w", err)
	}
	posts := make([]postView, 0, len(res.Feed))
	for _, item := range res.Feed {
		posts = append(posts, item.Post)
	}
	return convertPosts(posts), nil
}

// FetchThread returns the thread around uri with the requested reply depth.
func (c *Client) FetchThread(ctx context.Context, uri string, depth int) (*feed.ThreadNode, error) {
	params := url.Values{}
	params.Set("uri", uri)
	params.Set("depth", strconv.Itoa(depth))

	var res threadResponse
	if err := c.doXRPC(ctx, http.MethodGet, "app.bsky.feed.getPostThread", params, nil, &res); err != nil {
		return nil, fmt.Errorf("thread fetch failed for %s: %w", uri, err)
	}
	node := convertThread(res.Thread)
	if node == nil {
		return nil, fmt.Errorf("thread for %s is missing or blocked", uri)
	}
	return node, nil
}

// PostReply publishes a composed reply as a post record in the bot's repo.
func (c *Client) PostReply(ctx context.Context, instruction feed.ReplyInstruction) error {
	record := postRecord{
		Type:      "app.bsky.feed.post",
		Text:      instruction.Text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Reply: &replyRefs{
			Root:   strongRef{URI: instruction.RootURI, CID: instruction.RootCID},
			Parent: strongRef{URI: instruction.ParentURI, CID: instruction.ParentCID},
		},
	}
	for _, l := range instruction.Links {
		record.Facets = append(record.Facets, facet{
			Index: facetIndex{ByteStart: l.ByteStart, ByteEnd: l.ByteEnd},
			Features: []facetFeature{
				{Type: "app.bsky.richtext.facet#link", URI: l.URL},
			},
		})
	}
	if p := instruction.Preview; p != nil {
		external := &externalEmbed{
			URI:         p.URL,
			Title:       p.Title,
			Description: p.Description,
		}
		if p.ThumbnailRef != "" {
			external.Thumb = json.RawMessage(p.ThumbnailRef)
		}
		record.Embed = &embed{Type: "app.bsky.embed.external", External: external}
	}

	body, err := json.Marshal(createRecordRequest{
		Repo:       c.did,
		Collection: "app.bsky.feed.post",
		Record:     record,
	})
	if err != nil {
		return err
	}
	if err := c.doXRPC(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil, body, nil); err != nil {
		return fmt.Errorf("reply post failed: %w", err)
	}
	return nil
}

// UploadAsset stores raw bytes as a blob and returns the blob reference as
// an opaque JSON string, usable verbatim in a preview record.
func (c *Client) UploadAsset(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/xrpc/com.atproto.repo.uploadBlob", c.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+c.accessJwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("blob upload returned status %d", resp.StatusCode)
	}
	var res uploadBlobResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("blob upload response unreadable: %w", err)
	}
	if len(res.Blob) == 0 {
		return "", fmt.Errorf("blob upload response missing blob reference")
	}
	return string(res.Blob), nil
}

// Fetch performs a generic outbound GET, following redirects to completion.
// It is unauthenticated and bypasses the XRPC rate limiter.
func (c *Client) Fetch(ctx context.Context, target string) (*feed.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.fetchHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch of %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch of %s unreadable: %w", target, err)
	}
	return &feed.FetchResult{
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// doXRPC performs one XRPC call and decodes the JSON response into out.
func (c *Client) doXRPC(ctx context.Context, method, nsid string, params url.Values, body []byte, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/xrpc/%s", c.serviceURL, nsid)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s returned status %d: %s", nsid, resp.StatusCode, payload)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s response unreadable: %w", nsid, err)
	}
	return nil
}
