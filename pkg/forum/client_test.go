package forum

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/h2non/gock"
)

const testServerURL = "http://forum.test"

func bootstrappedClient(t *testing.T, token string) *Client {
	t.Helper()

	gock.New(testServerURL).
		Post("/auth").
		Reply(http.StatusOK).
		JSON(map[string]string{
			"uuid":  "8e2ad0cb-2f9b-4a3c-a78d-6c6e2a9a2f01",
			"token": token,
		})

	c := New(testServerURL, 0)
	if _, err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() returned error: %v", err)
	}

	return c
}

func TestClientBootstrap(t *testing.T) {
	defer gock.Off()

	c := bootstrappedClient(t, "test-token")

	session, ok := c.Session()
	if !ok {
		t.Fatal("want session after bootstrap, got none")
	}
	if session.Token != "test-token" {
		t.Errorf("want token %q, got %q", "test-token", session.Token)
	}
	if session.UUID == "" {
		t.Error("want non-empty session uuid")
	}
}

func TestClientBootstrapFailure(t *testing.T) {
	defer gock.Off()

	gock.New(testServerURL).
		Post("/auth").
		Reply(http.StatusInternalServerError).
		JSON(map[string]string{"error": "Internal server error"})

	c := New(testServerURL, 0)
	_, err := c.Bootstrap(context.Background())
	if err == nil {
		t.Fatal("want error from failed bootstrap, got nil")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("want *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("want status %d, got %d", http.StatusInternalServerError, httpErr.Status)
	}

	if _, ok := c.Session(); ok {
		t.Error("want no session after failed bootstrap")
	}
}

func TestClientGatesOnSession(t *testing.T) {
	// No mocks registered on purpose: a request hitting the network here
	// would fail the test with a transport error instead of ErrNoSession.
	c := New(testServerURL, 0)

	_, err := c.Posts(context.Background(), SortDateDesc, "", 0)
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("want ErrNoSession before bootstrap, got %v", err)
	}

	if err := c.LikePost(context.Background(), 1); !errors.Is(err, ErrNoSession) {
		t.Errorf("want ErrNoSession before bootstrap, got %v", err)
	}
}

func TestClientAttachesToken(t *testing.T) {
	defer gock.Off()

	c := bootstrappedClient(t, "secret-token")

	gock.New(testServerURL).
		Get("/posts").
		MatchHeader("Authorization", "^secret-token$").
		Reply(http.StatusOK).
		JSON(map[string]any{"posts": []any{}, "nextOffset": nil})

	page, err := c.Posts(context.Background(), SortDateAsc, "", 0)
	if err != nil {
		t.Fatalf("Posts() returned error: %v", err)
	}
	if len(page.Posts) != 0 {
		t.Errorf("want empty page, got %d posts", len(page.Posts))
	}
	if page.NextOffset != nil {
		t.Errorf("want nil nextOffset for empty collection, got %d", *page.NextOffset)
	}
}

func TestClientTrimsSearch(t *testing.T) {
	defer gock.Off()

	c := bootstrappedClient(t, "test-token")

	gock.New(testServerURL).
		Get("/posts").
		MatchParam("search", "^golang$").
		MatchParam("sortBy", "^datedesc$").
		MatchParam("offset", "^15$").
		Reply(http.StatusOK).
		JSON(map[string]any{"posts": []any{}, "nextOffset": nil})

	if _, err := c.Posts(context.Background(), SortDateDesc, "  golang  ", 15); err != nil {
		t.Fatalf("Posts() returned error: %v", err)
	}

	if !gock.IsDone() {
		t.Error("want trimmed search param on the wire, request did not match")
	}
}

func TestClientPostsPage(t *testing.T) {
	defer gock.Off()

	c := bootstrappedClient(t, "test-token")

	gock.New(testServerURL).
		Get("/posts").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"posts": []map[string]any{
				{
					"id":            1,
					"author":        "8e2ad0cb-2f9b-4a3c-a78d-6c6e2a9a2f01",
					"createdAt":     "2025-11-02T10:00:00Z",
					"content":       "first",
					"likesCount":    2,
					"commentsCount": 1,
					"isLiked":       true,
				},
			},
			"nextOffset": 15,
		})

	page, err := c.Posts(context.Background(), SortDateAsc, "", 0)
	if err != nil {
		t.Fatalf("Posts() returned error: %v", err)
	}

	if len(page.Posts) != 1 {
		t.Fatalf("want 1 post, got %d", len(page.Posts))
	}
	if page.Posts[0].LikesCount != 2 || !page.Posts[0].IsLiked {
		t.Errorf("want likesCount 2 and isLiked, got %+v", page.Posts[0])
	}
	if page.NextOffset == nil || *page.NextOffset != 15 {
		t.Errorf("want nextOffset 15, got %v", page.NextOffset)
	}
}

func TestClientCreateCommentReplyField(t *testing.T) {
	defer gock.Off()

	c := bootstrappedClient(t, "test-token")

	// Top-level comment: the reply key must be absent from the body.
	gock.New(testServerURL).
		Post("/posts/7/comments").
		JSON(map[string]any{"content": "top level"}).
		Reply(http.StatusOK).
		JSON(map[string]any{"id": 10})

	if err := c.CreateComment(context.Background(), 7, "top level", nil); err != nil {
		t.Fatalf("CreateComment() returned error: %v", err)
	}

	replyTo := 3
	gock.New(testServerURL).
		Post("/posts/7/comments").
		JSON(map[string]any{"content": "a reply", "reply": 3}).
		Reply(http.StatusOK).
		JSON(map[string]any{"id": 11})

	if err := c.CreateComment(context.Background(), 7, "a reply", &replyTo); err != nil {
		t.Fatalf("CreateComment() with reply returned error: %v", err)
	}

	if !gock.IsDone() {
		t.Error("comment bodies did not match the expected wire format")
	}
}

func TestClientHTTPErrorBody(t *testing.T) {
	defer gock.Off()

	c := bootstrappedClient(t, "test-token")

	gock.New(testServerURL).
		Post("/posts").
		Reply(http.StatusBadRequest).
		JSON(map[string]string{"error": "'content' is empty"})

	err := c.CreatePost(context.Background(), "")
	if err == nil {
		t.Fatal("want error for rejected post, got nil")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("want *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusBadRequest {
		t.Errorf("want status %d, got %d", http.StatusBadRequest, httpErr.Status)
	}
	if httpErr.Message != "'content' is empty" {
		t.Errorf("want server message %q, got %q", "'content' is empty", httpErr.Message)
	}
}

func TestClientCommentNotFound(t *testing.T) {
	defer gock.Off()

	c := bootstrappedClient(t, "test-token")

	gock.New(testServerURL).
		Get("/comments/42").
		Reply(http.StatusNotFound).
		JSON(map[string]string{"error": "comment not found"})

	_, err := c.Comment(context.Background(), 42)
	if !IsNotFound(err) {
		t.Errorf("want not-found error for deleted reply target, got %v", err)
	}
}
