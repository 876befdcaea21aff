package post

import (
	"time"

	"backend-feedhub/internal/apperr"
	"backend-feedhub/internal/user"
)

// Privacy is the closed set of visibility tiers a post can carry.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

// ParsePrivacy validates a tier at the boundary. Anything outside the three
// tiers, including the empty string, is rejected before a write can happen.
func ParsePrivacy(s string) (Privacy, error) {
	switch Privacy(s) {
	case PrivacyPublic, PrivacyFriends, PrivacyPrivate:
		return Privacy(s), nil
	default:
		return "", apperr.InvalidInput("invalid privacy setting %q", s)
	}
}

// Post is the stored aggregate: likes, comments and shares live inside the
// post row and are written together.
type Post struct {
	ID             string
	AuthorID       string
	Content        string
	ImageURL       string
	Privacy        Privacy
	Tagged         []string
	LikedBy        []string
	Likes          int
	Comments       []Comment
	Shares         []Share
	OriginalPostID string
	Location       *user.Location
	Version        int
	CreatedAt      time.Time
}

type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Share struct {
	UserID  string `json:"user_id"`
	Comment string `json:"comment"`
}

type CreateInput struct {
	AuthorID string         `json:"author_id"`
	Content  string         `json:"content"`
	ImageURL string         `json:"image"`
	Privacy  string         `json:"privacy"`
	Tagged   []string       `json:"tagged_users"`
	Location *user.Location `json:"location"`
}

// View is a post resolved for display: identifiers replaced with user
// summaries. Building a view never writes.
type View struct {
	ID           string         `json:"id"`
	Author       user.Summary   `json:"author"`
	Content      string         `json:"content"`
	ImageURL     string         `json:"image,omitempty"`
	Privacy      Privacy        `json:"privacy"`
	TaggedUsers  []user.Summary `json:"tagged_users"`
	Likes        int            `json:"likes"`
	LikedBy      []string       `json:"liked_by"`
	Comments     []CommentView  `json:"comments"`
	Shares       []Share        `json:"shared_by"`
	OriginalPost *View          `json:"original_post,omitempty"`
	Location     *user.Location `json:"location,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type CommentView struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Author    user.Summary `json:"author"`
	CreatedAt time.Time    `json:"created_at"`
}
