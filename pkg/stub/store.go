package stub

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/Seyves/SnakesSsSs/pkg/forum"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("forbidden")
)

const defaultPerPage = 15

type post struct {
	id        int
	author    string
	createdAt time.Time
	content   string
	likes     map[string]bool
}

type comment struct {
	id        int
	post      int
	author    string
	createdAt time.Time
	content   string
	reply     *int
	likes     map[string]bool
}

// Store is the in-memory state behind the stub backend: sessions, posts,
// comments and per-author like sets. Listing views are rendered for a given
// author so isLiked matches the requesting session.
type Store struct {
	mu            sync.Mutex
	perPage       int
	nextPostID    int
	nextCommentID int
	sessions      map[string]string // token -> author uuid
	posts         map[int]*post
	comments      map[int]*comment
}

// NewStore creates an empty store. A non-positive perPage falls back to the
// backend's page size of 15.
func NewStore(perPage int) *Store {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &Store{
		perPage:  perPage,
		sessions: make(map[string]string),
		posts:    make(map[int]*post),
		comments: make(map[int]*comment),
	}
}

// CreateSession issues a fresh anonymous identity and its bearer token.
func (db *Store) CreateSession() (forum.Session, error) {
	author, err := uuid.NewV4()
	if err != nil {
		return forum.Session{}, err
	}
	token, err := uuid.NewV4()
	if err != nil {
		return forum.Session{}, err
	}

	db.mu.Lock()
	db.sessions[token.String()] = author.String()
	db.mu.Unlock()

	return forum.Session{UUID: author.String(), Token: token.String()}, nil
}

// Author resolves a bearer token to its session identity.
func (db *Store) Author(token string) (string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	author, ok := db.sessions[token]
	return author, ok
}

func (db *Store) CreatePost(author, content string) forum.Post {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.nextPostID++
	p := &post{
		id:        db.nextPostID,
		author:    author,
		createdAt: time.Now().UTC(),
		content:   content,
		likes:     make(map[string]bool),
	}
	db.posts[p.id] = p

	return db.postView(p, author)
}

// Posts renders one page of the feed for the given author. nextOffset is
// present exactly when the returned page is full, mirroring the backend's
// end-of-collection signalling: an exactly-full final page yields one more
// empty fetch.
func (db *Store) Posts(author string, sortBy forum.SortType, search string, offset int) ([]forum.Post, *int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	matched := make([]*post, 0, len(db.posts))
	for _, p := range db.posts {
		if matchesSearch(p.content, search) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return less(sortBy,
			matched[i].createdAt, len(matched[i].likes), matched[i].id,
			matched[j].createdAt, len(matched[j].likes), matched[j].id)
	})

	page, next := paginate(len(matched), offset, db.perPage)
	posts := make([]forum.Post, 0, db.perPage)
	for _, p := range matched[page[0]:page[1]] {
		posts = append(posts, db.postView(p, author))
	}

	return posts, next
}

func (db *Store) LikePost(author string, postID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return ErrPostNotFound
	}
	p.likes[author] = true
	return nil
}

func (db *Store) UnlikePost(author string, postID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return ErrPostNotFound
	}
	delete(p.likes, author)
	return nil
}

func (db *Store) DeletePost(author string, postID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return ErrPostNotFound
	}
	if p.author != author {
		return ErrForbidden
	}

	delete(db.posts, postID)
	for id, c := range db.comments {
		if c.post == postID {
			delete(db.comments, id)
		}
	}
	return nil
}

func (db *Store) CreateComment(author string, postID int, content string, reply *int) (forum.Comment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.posts[postID]; !ok {
		return forum.Comment{}, ErrPostNotFound
	}
	if reply != nil {
		if _, ok := db.comments[*reply]; !ok {
			return forum.Comment{}, ErrCommentNotFound
		}
	}

	db.nextCommentID++
	c := &comment{
		id:        db.nextCommentID,
		post:      postID,
		author:    author,
		createdAt: time.Now().UTC(),
		content:   content,
		reply:     reply,
		likes:     make(map[string]bool),
	}
	db.comments[c.id] = c

	return db.commentView(c, author), nil
}

// Comments renders one page of a post's thread for the given author.
func (db *Store) Comments(author string, postID int, sortBy forum.SortType, search string, offset int) ([]forum.Comment, *int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.posts[postID]; !ok {
		return nil, nil, ErrPostNotFound
	}

	matched := make([]*comment, 0)
	for _, c := range db.comments {
		if c.post == postID && matchesSearch(c.content, search) {
			matched = append(matched, c)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return less(sortBy,
			matched[i].createdAt, len(matched[i].likes), matched[i].id,
			matched[j].createdAt, len(matched[j].likes), matched[j].id)
	})

	page, next := paginate(len(matched), offset, db.perPage)
	comments := make([]forum.Comment, 0, db.perPage)
	for _, c := range matched[page[0]:page[1]] {
		comments = append(comments, db.commentView(c, author))
	}

	return comments, next, nil
}

func (db *Store) Comment(author string, commentID int) (forum.Comment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.comments[commentID]
	if !ok {
		return forum.Comment{}, ErrCommentNotFound
	}
	return db.commentView(c, author), nil
}

func (db *Store) LikeComment(author string, commentID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.comments[commentID]
	if !ok {
		return ErrCommentNotFound
	}
	c.likes[author] = true
	return nil
}

func (db *Store) UnlikeComment(author string, commentID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.comments[commentID]
	if !ok {
		return ErrCommentNotFound
	}
	delete(c.likes, author)
	return nil
}

func (db *Store) DeleteComment(author string, commentID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.comments[commentID]
	if !ok {
		return ErrCommentNotFound
	}
	if c.author != author {
		return ErrForbidden
	}
	delete(db.comments, commentID)
	return nil
}

// postView renders a post as the requesting author sees it.
func (db *Store) postView(p *post, author string) forum.Post {
	commentsCount := 0
	for _, c := range db.comments {
		if c.post == p.id {
			commentsCount++
		}
	}

	return forum.Post{
		ID:            p.id,
		Author:        p.author,
		CreatedAt:     p.createdAt,
		Content:       p.content,
		LikesCount:    len(p.likes),
		CommentsCount: commentsCount,
		IsLiked:       p.likes[author],
	}
}

func (db *Store) commentView(c *comment, author string) forum.Comment {
	view := forum.Comment{
		ID:         c.id,
		Author:     c.author,
		CreatedAt:  c.createdAt,
		Content:    c.content,
		LikesCount: len(c.likes),
		IsLiked:    c.likes[author],
	}

	if c.reply != nil {
		view.ReplyCommentID = c.reply
		if target, ok := db.comments[*c.reply]; ok {
			replyAuthor := target.author
			view.ReplyCommentAuthor = &replyAuthor
		}
	}

	return view
}

func matchesSearch(content, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(search))
}

// less orders two entries under the given sort type: dateasc/datedesc by
// creation time, topasc by ascending like count, ids as tiebreak for stable
// pages.
func less(sortBy forum.SortType, timeI time.Time, likesI, idI int, timeJ time.Time, likesJ, idJ int) bool {
	switch sortBy {
	case forum.SortDateDesc:
		if !timeI.Equal(timeJ) {
			return timeI.After(timeJ)
		}
		return idI > idJ
	case forum.SortTopAsc:
		if likesI != likesJ {
			return likesI < likesJ
		}
		return idI < idJ
	default:
		if !timeI.Equal(timeJ) {
			return timeI.Before(timeJ)
		}
		return idI < idJ
	}
}

// paginate clamps [offset, offset+perPage) to the collection and reports the
// next offset, nil unless the page came back full.
func paginate(total, offset, perPage int) ([2]int, *int) {
	if offset < 0 {
		offset = 0
	}

	start := offset
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	if end-start >= perPage {
		next := offset + perPage
		return [2]int{start, end}, &next
	}
	return [2]int{start, end}, nil
}
