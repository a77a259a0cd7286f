// Package stub is an in-process forum backend speaking the same wire
// contract as the real one, backed by an in-memory store. It exists for
// tests and offline development; it keeps no state across restarts.
package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/Seyves/SnakesSsSs/pkg/forum"
)

type API struct {
	r  *mux.Router
	db *Store
}

func (api *API) Router() *mux.Router {
	return api.r
}

func New(db *Store) *API {
	api := API{r: mux.NewRouter(), db: db}
	api.endpoints()

	return &api
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)

	api.r.HandleFunc("/auth", api.authHandler).Methods(http.MethodPost)

	s := api.r.PathPrefix("/").Subrouter()
	s.Use(api.authMiddleware)

	s.HandleFunc("/posts", api.getPostsHandler).Methods(http.MethodGet)
	s.HandleFunc("/posts", api.createPostHandler).Methods(http.MethodPost)
	s.HandleFunc("/posts/{postId:[0-9]+}", api.deletePostHandler).Methods(http.MethodDelete)
	s.HandleFunc("/posts/{postId:[0-9]+}/like", api.likePostHandler).Methods(http.MethodPost)
	s.HandleFunc("/posts/{postId:[0-9]+}/like", api.unlikePostHandler).Methods(http.MethodDelete)
	s.HandleFunc("/posts/{postId:[0-9]+}/comments", api.getCommentsHandler).Methods(http.MethodGet)
	s.HandleFunc("/posts/{postId:[0-9]+}/comments", api.createCommentHandler).Methods(http.MethodPost)
	s.HandleFunc("/comments/{commentId:[0-9]+}", api.getCommentHandler).Methods(http.MethodGet)
	s.HandleFunc("/comments/{commentId:[0-9]+}", api.deleteCommentHandler).Methods(http.MethodDelete)
	s.HandleFunc("/comments/{commentId:[0-9]+}/like", api.likeCommentHandler).Methods(http.MethodPost)
	s.HandleFunc("/comments/{commentId:[0-9]+}/like", api.unlikeCommentHandler).Methods(http.MethodDelete)
}

func (api *API) authHandler(w http.ResponseWriter, r *http.Request) {
	session, err := api.db.CreateSession()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		log.Errorf("[authHandler] failed to create session: %v", err)
		return
	}

	if err := json.NewEncoder(w).Encode(session); err != nil {
		log.Errorf("[authHandler] failed to encode response: %v", err)
		return
	}
	log.Debugf("[authHandler] session issued, uuid:%s", session.UUID)
}

func (api *API) getPostsHandler(w http.ResponseWriter, r *http.Request) {
	author := getAuthor(r)

	sortBy, search, offset, ok := listParams(w, r)
	if !ok {
		return
	}

	posts, nextOffset := api.db.Posts(author, sortBy, search, offset)

	resp := forum.PostsPage{Posts: posts, NextOffset: nextOffset}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("[getPostsHandler] failed to encode response: %v", err)
	}
}

func (api *API) createPostHandler(w http.ResponseWriter, r *http.Request) {
	author := getAuthor(r)

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Body is invalid")
		return
	}
	if body.Content == "" {
		writeError(w, http.StatusBadRequest, "'content' is empty")
		return
	}

	created := api.db.CreatePost(author, body.Content)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		log.Errorf("[createPostHandler] failed to encode response: %v", err)
	}
}

func (api *API) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	err := api.db.DeletePost(getAuthor(r), pathID(r, "postId"))
	writeMutationResult(w, err)
}

func (api *API) likePostHandler(w http.ResponseWriter, r *http.Request) {
	err := api.db.LikePost(getAuthor(r), pathID(r, "postId"))
	writeMutationResult(w, err)
}

func (api *API) unlikePostHandler(w http.ResponseWriter, r *http.Request) {
	err := api.db.UnlikePost(getAuthor(r), pathID(r, "postId"))
	writeMutationResult(w, err)
}

func (api *API) getCommentsHandler(w http.ResponseWriter, r *http.Request) {
	author := getAuthor(r)
	postID := pathID(r, "postId")

	sortBy, search, offset, ok := listParams(w, r)
	if !ok {
		return
	}

	comments, nextOffset, err := api.db.Comments(author, postID, sortBy, search, offset)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := forum.CommentsPage{Comments: comments, NextOffset: nextOffset}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("[getCommentsHandler] failed to encode response: %v", err)
	}
}

func (api *API) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	author := getAuthor(r)
	postID := pathID(r, "postId")

	var body struct {
		Content string `json:"content"`
		Reply   *int   `json:"reply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Body is invalid")
		return
	}
	if body.Content == "" {
		writeError(w, http.StatusBadRequest, "'content' is empty")
		return
	}

	created, err := api.db.CreateComment(author, postID, body.Content, body.Reply)
	if err != nil {
		writeMutationResult(w, err)
		return
	}

	if err := json.NewEncoder(w).Encode(created); err != nil {
		log.Errorf("[createCommentHandler] failed to encode response: %v", err)
	}
}

func (api *API) getCommentHandler(w http.ResponseWriter, r *http.Request) {
	comment, err := api.db.Comment(getAuthor(r), pathID(r, "commentId"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(comment); err != nil {
		log.Errorf("[getCommentHandler] failed to encode response: %v", err)
	}
}

func (api *API) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	err := api.db.DeleteComment(getAuthor(r), pathID(r, "commentId"))
	writeMutationResult(w, err)
}

func (api *API) likeCommentHandler(w http.ResponseWriter, r *http.Request) {
	err := api.db.LikeComment(getAuthor(r), pathID(r, "commentId"))
	writeMutationResult(w, err)
}

func (api *API) unlikeCommentHandler(w http.ResponseWriter, r *http.Request) {
	err := api.db.UnlikeComment(getAuthor(r), pathID(r, "commentId"))
	writeMutationResult(w, err)
}

// listParams parses the shared listing parameters. An unknown sortBy falls
// back to dateasc like the real backend; a malformed offset is a 400.
func listParams(w http.ResponseWriter, r *http.Request) (forum.SortType, string, int, bool) {
	sortBy := forum.SortType(r.URL.Query().Get("sortBy"))
	switch sortBy {
	case forum.SortDateAsc, forum.SortDateDesc, forum.SortTopAsc:
	default:
		sortBy = forum.SortDateAsc
	}

	search := r.URL.Query().Get("search")

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "'offset' is not a number")
			return sortBy, search, 0, false
		}
	}

	return sortBy, search, offset, true
}

// pathID reads a numeric path variable. Routes constrain the variables to
// digits, so a failed parse cannot happen for requests that matched.
func pathID(r *http.Request, name string) int {
	id, _ := strconv.Atoi(mux.Vars(r)[name])
	return id
}

func writeMutationResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrCommentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		log.Errorf("[writeError] failed to encode error body: %v", err)
	}
}
