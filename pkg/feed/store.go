package feed

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Seyves/SnakesSsSs/pkg/forum"
)

// Backend is the slice of the forum client the feed layer depends on.
// *forum.Client satisfies it; tests substitute fakes.
type Backend interface {
	Posts(ctx context.Context, sort forum.SortType, search string, offset int) (*forum.PostsPage, error)
	CreatePost(ctx context.Context, content string) error
	LikePost(ctx context.Context, postID int) error
	UnlikePost(ctx context.Context, postID int) error
	DeletePost(ctx context.Context, postID int) error
	Comments(ctx context.Context, postID int, sort forum.SortType, search string, offset int) (*forum.CommentsPage, error)
	Comment(ctx context.Context, commentID int) (*forum.Comment, error)
	CreateComment(ctx context.Context, postID int, content string, replyTo *int) error
	LikeComment(ctx context.Context, commentID int) error
	UnlikeComment(ctx context.Context, commentID int) error
	DeleteComment(ctx context.Context, commentID int) error
}

// Group names a set of cached page sequences that invalidate together.
type Group string

// GroupPosts covers the post feed across all sort/search variants.
const GroupPosts Group = "posts"

// CommentsGroup covers every cached page sequence of one post's thread.
func CommentsGroup(postID int) Group {
	return Group(fmt.Sprintf("comments/%d", postID))
}

// Store is the keyed cache over the backend: one pager per
// (group, query identity), plus a lookup cache for reply targets. Mutations
// go through the Store so the invalidation contract holds in one place:
//
//	CreatePost              -> posts
//	LikePost/UnlikePost     -> posts
//	CreateComment           -> posts + comments/{postID}
//	LikeComment/Unlike...   -> comments/{postID}
//	DeletePost              -> posts + comments/{postID}
//	DeleteComment           -> posts + comments/{postID}
//
// A failed mutation invalidates nothing; cached pages stay exactly as they
// were before the attempt.
type Store struct {
	backend Backend

	mu            sync.Mutex
	postPagers    map[string]*Pager[forum.Post]
	commentPagers map[int]map[string]*Pager[forum.Comment]
	replyTargets  map[int]forum.Comment
	likeInFlight  map[string]bool
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend:       backend,
		postPagers:    make(map[string]*Pager[forum.Post]),
		commentPagers: make(map[int]map[string]*Pager[forum.Comment]),
		replyTargets:  make(map[int]forum.Comment),
		likeInFlight:  make(map[string]bool),
	}
}

// PostFeed returns the cached pager for the given query identity, creating it
// on first observation.
func (s *Store) PostFeed(q Query) *Pager[forum.Post] {
	q = NewQuery(q.Sort, q.Search)

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.postPagers[q.Key()]; ok {
		return p
	}

	p := NewPager(q, func(ctx context.Context, q Query, offset int) ([]forum.Post, *int, error) {
		page, err := s.backend.Posts(ctx, q.Sort, q.Search, offset)
		if err != nil {
			return nil, nil, err
		}
		return page.Posts, page.NextOffset, nil
	})
	s.postPagers[q.Key()] = p

	return p
}

// CommentThread returns the cached pager for one post's comment thread under
// the given query identity.
func (s *Store) CommentThread(postID int, q Query) *Pager[forum.Comment] {
	q = NewQuery(q.Sort, q.Search)

	s.mu.Lock()
	defer s.mu.Unlock()

	pagers, ok := s.commentPagers[postID]
	if !ok {
		pagers = make(map[string]*Pager[forum.Comment])
		s.commentPagers[postID] = pagers
	}

	if p, ok := pagers[q.Key()]; ok {
		return p
	}

	p := NewPager(q, func(ctx context.Context, q Query, offset int) ([]forum.Comment, *int, error) {
		page, err := s.backend.Comments(ctx, postID, q.Sort, q.Search, offset)
		if err != nil {
			return nil, nil, err
		}
		return page.Comments, page.NextOffset, nil
	})
	pagers[q.Key()] = p

	return p
}

// Invalidate discards every cached page sequence in the group. The discard is
// always whole-group; the next observation of an affected pager refetches
// from offset zero.
func (s *Store) Invalidate(group Group) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int

	switch {
	case group == GroupPosts:
		for _, p := range s.postPagers {
			p.Reset()
			dropped++
		}
	default:
		for postID, pagers := range s.commentPagers {
			if CommentsGroup(postID) != group {
				continue
			}
			for _, p := range pagers {
				p.Reset()
				dropped++
			}
		}
	}

	log.Debugf("[feed] invalidated group %q, %d page sequences dropped", group, dropped)
}

// Comment resolves a reply back-reference by id. Successful lookups are
// cached for the lifetime of the store; a deleted target surfaces as the
// backend's 404 (forum.IsNotFound) and is not cached.
func (s *Store) Comment(ctx context.Context, commentID int) (*forum.Comment, error) {
	s.mu.Lock()
	if c, ok := s.replyTargets[commentID]; ok {
		s.mu.Unlock()
		return &c, nil
	}
	s.mu.Unlock()

	c, err := s.backend.Comment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.replyTargets[commentID] = *c
	s.mu.Unlock()

	return c, nil
}

func (s *Store) CreatePost(ctx context.Context, content string) error {
	if err := s.backend.CreatePost(ctx, content); err != nil {
		return err
	}
	s.Invalidate(GroupPosts)
	return nil
}

func (s *Store) LikePost(ctx context.Context, postID int) error {
	return s.toggleLike(fmt.Sprintf("post/%d", postID), GroupPosts, func() error {
		return s.backend.LikePost(ctx, postID)
	})
}

func (s *Store) UnlikePost(ctx context.Context, postID int) error {
	return s.toggleLike(fmt.Sprintf("post/%d", postID), GroupPosts, func() error {
		return s.backend.UnlikePost(ctx, postID)
	})
}

func (s *Store) DeletePost(ctx context.Context, postID int) error {
	if err := s.backend.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.Invalidate(GroupPosts)
	s.Invalidate(CommentsGroup(postID))
	return nil
}

func (s *Store) CreateComment(ctx context.Context, postID int, content string, replyTo *int) error {
	if err := s.backend.CreateComment(ctx, postID, content, replyTo); err != nil {
		return err
	}
	s.Invalidate(GroupPosts)
	s.Invalidate(CommentsGroup(postID))
	return nil
}

func (s *Store) LikeComment(ctx context.Context, postID, commentID int) error {
	return s.toggleLike(fmt.Sprintf("comment/%d", commentID), CommentsGroup(postID), func() error {
		return s.backend.LikeComment(ctx, commentID)
	})
}

func (s *Store) UnlikeComment(ctx context.Context, postID, commentID int) error {
	return s.toggleLike(fmt.Sprintf("comment/%d", commentID), CommentsGroup(postID), func() error {
		return s.backend.UnlikeComment(ctx, commentID)
	})
}

func (s *Store) DeleteComment(ctx context.Context, postID, commentID int) error {
	if err := s.backend.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.Invalidate(GroupPosts)
	s.Invalidate(CommentsGroup(postID))
	return nil
}

// toggleLike runs one like/unlike call with a per-entity in-flight guard:
// the backend's idempotency for repeated toggles is unconfirmed, so a second
// toggle for the same entity while one is outstanding is dropped.
func (s *Store) toggleLike(entity string, group Group, call func() error) error {
	s.mu.Lock()
	if s.likeInFlight[entity] {
		s.mu.Unlock()
		log.Debugf("[feed] toggle for %s already in flight, dropped", entity)
		return nil
	}
	s.likeInFlight[entity] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.likeInFlight, entity)
		s.mu.Unlock()
	}()

	if err := call(); err != nil {
		return err
	}

	s.Invalidate(group)
	return nil
}
