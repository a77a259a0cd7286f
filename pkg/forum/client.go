package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// Client talks to the forum backend. It performs no caching and no retries;
// every non-2xx response surfaces as *HTTPError.
//
// A Client is unusable for domain calls until Bootstrap has acquired a
// session. The session is written once and read-only afterwards.
type Client struct {
	baseURL string
	hc      *http.Client

	mu      sync.RWMutex
	session *Session
}

// New creates a client for the backend at baseURL. A non-positive timeout
// falls back to the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// Session returns the acquired session, if any.
func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Bootstrap acquires the anonymous session identity with a single
// unauthenticated POST /auth and configures the client to attach the issued
// token to all subsequent requests. It is meant to be called once at startup;
// a failure leaves the client without a session.
func (c *Client) Bootstrap(ctx context.Context) (Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth", nil)
	if err != nil {
		return Session{}, fmt.Errorf("creating auth request: %w", err)
	}
	req.Header.Set("X-Request-Id", newRequestID())

	resp, err := c.hc.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("calling auth endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, decodeHTTPError(resp)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, fmt.Errorf("decoding auth response: %w", err)
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()

	log.Debugf("[forum] session acquired, uuid:%s", session.UUID)
	return session, nil
}

// Posts fetches one page of the post feed.
func (c *Client) Posts(ctx context.Context, sort SortType, search string, offset int) (*PostsPage, error) {
	var page PostsPage
	if err := c.do(ctx, http.MethodGet, "posts", listQuery(sort, search, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreatePost submits a new post. Counts and like state of the feed are
// server-authoritative; callers re-fetch instead of patching locally.
func (c *Client) CreatePost(ctx context.Context, content string) error {
	body := map[string]string{"content": content}
	return c.do(ctx, http.MethodPost, "posts", nil, body, nil)
}

func (c *Client) LikePost(ctx context.Context, postID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("posts/%d/like", postID), nil, nil, nil)
}

func (c *Client) UnlikePost(ctx context.Context, postID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("posts/%d/like", postID), nil, nil, nil)
}

// DeletePost removes one of the caller's own posts. The backend answers 403
// for posts authored by another session.
func (c *Client) DeletePost(ctx context.Context, postID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("posts/%d", postID), nil, nil, nil)
}

// Comments fetches one page of a post's comment thread.
func (c *Client) Comments(ctx context.Context, postID int, sort SortType, search string, offset int) (*CommentsPage, error) {
	var page CommentsPage
	path := fmt.Sprintf("posts/%d/comments", postID)
	if err := c.do(ctx, http.MethodGet, path, listQuery(sort, search, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Comment fetches a single comment by id, the lookup used to resolve reply
// back-references. A deleted target comes back as an *HTTPError with status
// 404 (see IsNotFound).
func (c *Client) Comment(ctx context.Context, commentID int) (*Comment, error) {
	var comment Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("comments/%d", commentID), nil, nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// CreateComment submits a comment under postID. A nil replyTo denotes a
// top-level comment; the reply field is included in the body only when set.
func (c *Client) CreateComment(ctx context.Context, postID int, content string, replyTo *int) error {
	body := map[string]any{"content": content}
	if replyTo != nil {
		body["reply"] = *replyTo
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("posts/%d/comments", postID), nil, body, nil)
}

func (c *Client) LikeComment(ctx context.Context, commentID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("comments/%d/like", commentID), nil, nil, nil)
}

func (c *Client) UnlikeComment(ctx context.Context, commentID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("comments/%d/like", commentID), nil, nil, nil)
}

// DeleteComment removes one of the caller's own comments.
func (c *Client) DeleteComment(ctx context.Context, commentID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("comments/%d", commentID), nil, nil, nil)
}

// do issues one authenticated request. Every domain operation goes through
// here so the bootstrap gate and the error contract live in a single place.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session == nil {
		return ErrNoSession
	}

	targetURL := c.baseURL + "/" + path
	if len(query) > 0 {
		targetURL += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, reader)
	if err != nil {
		return fmt.Errorf("creating request %s %s: %w", method, path, err)
	}

	req.Header.Set("Authorization", session.Token)
	req.Header.Set("X-Request-Id", newRequestID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debugf("[forum] %s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeHTTPError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response of %s %s: %w", method, path, err)
		}
	}

	return nil
}

// listQuery builds the parameter set shared by the two listing endpoints.
// The search term is trimmed before it goes on the wire; an empty search is a
// valid "no filter" value and is still sent.
func listQuery(sort SortType, search string, offset int) url.Values {
	values := url.Values{}
	values.Set("sortBy", string(sort))
	values.Set("search", strings.TrimSpace(search))
	values.Set("offset", strconv.Itoa(offset))

	return values
}

func decodeHTTPError(resp *http.Response) error {
	httpErr := &HTTPError{Status: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		httpErr.Message = body.Error
	}

	return httpErr
}

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}
