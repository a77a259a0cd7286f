package forum

import "time"

// SortType selects the server-side ordering of a listing. The client never
// re-sorts locally.
type SortType string

const (
	SortDateAsc  SortType = "dateasc"
	SortDateDesc SortType = "datedesc"
	SortTopAsc   SortType = "topasc"
)

// Session is the anonymous identity issued by POST /auth. It is set exactly
// once per client and is immutable afterwards.
type Session struct {
	UUID  string `json:"uuid"`
	Token string `json:"token"`
}

type Post struct {
	ID            int       `json:"id"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"createdAt"`
	Content       string    `json:"content"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	IsLiked       bool      `json:"isLiked"`
}

type Comment struct {
	ID                 int       `json:"id"`
	Author             string    `json:"author"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"createdAt"`
	LikesCount         int       `json:"likesCount"`
	IsLiked            bool      `json:"isLiked"`
	ReplyCommentID     *int      `json:"replyCommentId"`
	ReplyCommentAuthor *string   `json:"replyCommentAuthor"`
}

// PostsPage is one page of the posts listing. A nil NextOffset means the
// collection is exhausted.
type PostsPage struct {
	Posts      []Post `json:"posts"`
	NextOffset *int   `json:"nextOffset"`
}

// CommentsPage is one page of a post's comment thread.
type CommentsPage struct {
	Comments   []Comment `json:"comments"`
	NextOffset *int      `json:"nextOffset"`
}
