package post

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"backend-feedhub/internal/apperr"
	"backend-feedhub/internal/db"
	"backend-feedhub/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// likeRetryAttempts bounds the optimistic write loop before a Conflict
// surfaces to the caller.
const likeRetryAttempts = 3

const sharedPostContent = "Shared a post"

const postColumns = `id, author_id, content, image_url, privacy, tagged, liked_by, likes, comments, shares, original_post_id, location, version, created_at`

var timeNow = time.Now

type Service struct {
	db    db.Querier
	users *user.Service
}

func NewService(db db.Querier, users *user.Service) *Service {
	return &Service{db: db, users: users}
}

func (s *Service) Get(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM posts WHERE id=$1
	`, id)
	p, err := scanPost(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, apperr.NotFound("post %s not found", id)
		}
		return Post{}, err
	}
	return p, nil
}

// GetView resolves a single post for display, including the original post's
// view when the post is a share.
func (s *Service) GetView(ctx context.Context, id string) (View, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	view, err := s.view(ctx, p)
	if err != nil {
		return View{}, err
	}
	if p.OriginalPostID != "" {
		original, err := s.Get(ctx, p.OriginalPostID)
		switch {
		case apperr.KindOf(err) == apperr.KindNotFound:
			// original deleted out of band, the share still renders
		case err != nil:
			return View{}, err
		default:
			originalView, err := s.view(ctx, original)
			if err != nil {
				return View{}, err
			}
			view.OriginalPost = &originalView
		}
	}
	return view, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (View, error) {
	privacy, err := ParsePrivacy(input.Privacy)
	if err != nil {
		return View{}, err
	}
	if strings.TrimSpace(input.Content) == "" {
		return View{}, apperr.InvalidInput("post content cannot be empty")
	}
	if err := s.requireUser(ctx, input.AuthorID); err != nil {
		return View{}, err
	}

	p := Post{
		ID:       uuid.NewString(),
		AuthorID: input.AuthorID,
		Content:  input.Content,
		ImageURL: input.ImageURL,
		Privacy:  privacy,
		Tagged:   input.Tagged,
		Location: input.Location,
		Version:  1,
	}
	if err := s.insert(ctx, &p); err != nil {
		return View{}, err
	}
	return s.view(ctx, p)
}

// ToggleLike flips the (post, user) like state. The likes counter is derived
// from the membership set inside one guarded UPDATE, so a reader can never
// observe the two diverge.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (View, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return View{}, err
	}

	for attempt := 0; attempt < likeRetryAttempts; attempt++ {
		p, err := s.Get(ctx, postID)
		if err != nil {
			return View{}, err
		}

		liked := false
		next := make([]string, 0, len(p.LikedBy)+1)
		for _, id := range p.LikedBy {
			if id == userID {
				liked = true
				continue
			}
			next = append(next, id)
		}
		if !liked {
			next = append(next, userID)
		}

		tag, err := s.db.Exec(ctx, `
			UPDATE posts SET liked_by=$2, likes=$3, version=version+1
			WHERE id=$1 AND version=$4
		`, p.ID, next, len(next), p.Version)
		if err != nil {
			return View{}, err
		}
		if tag.RowsAffected() == 1 {
			p.LikedBy = next
			p.Likes = len(next)
			p.Version++
			return s.view(ctx, p)
		}
	}
	return View{}, apperr.Conflict("post %s was modified concurrently, retry", postID)
}

// AddComment appends an immutable comment with a server-assigned timestamp.
func (s *Service) AddComment(ctx context.Context, postID, authorID, content string) (View, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return View{}, apperr.InvalidInput("comment content cannot be empty")
	}
	if err := s.requireUser(ctx, authorID); err != nil {
		return View{}, err
	}

	for attempt := 0; attempt < likeRetryAttempts; attempt++ {
		p, err := s.Get(ctx, postID)
		if err != nil {
			return View{}, err
		}

		comment := Comment{
			ID:        uuid.NewString(),
			Content:   content,
			AuthorID:  authorID,
			CreatedAt: timeNow(),
		}
		next := append(append([]Comment{}, p.Comments...), comment)
		payload, err := json.Marshal(next)
		if err != nil {
			return View{}, err
		}

		tag, err := s.db.Exec(ctx, `
			UPDATE posts SET comments=$2, version=version+1
			WHERE id=$1 AND version=$3
		`, p.ID, payload, p.Version)
		if err != nil {
			return View{}, err
		}
		if tag.RowsAffected() == 1 {
			p.Comments = next
			p.Version++
			return s.view(ctx, p)
		}
	}
	return View{}, apperr.Conflict("post %s was modified concurrently, retry", postID)
}

func (s *Service) Comments(ctx context.Context, postID string) ([]CommentView, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, c := range p.Comments {
		ids = append(ids, c.AuthorID)
	}
	sums, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	return commentViews(p.Comments, sums), nil
}

// Share forks a new post referencing the original. The fork is always
// friends-only regardless of the original's tier, and the original row is
// never touched.
func (s *Service) Share(ctx context.Context, originalID, sharerID, comment string) (View, error) {
	original, err := s.Get(ctx, originalID)
	if err != nil {
		return View{}, err
	}
	if err := s.requireUser(ctx, sharerID); err != nil {
		return View{}, err
	}

	comment = strings.TrimSpace(comment)
	content := comment
	if content == "" {
		content = sharedPostContent
	}

	p := Post{
		ID:             uuid.NewString(),
		AuthorID:       sharerID,
		Content:        content,
		Privacy:        PrivacyFriends,
		Shares:         []Share{{UserID: sharerID, Comment: comment}},
		OriginalPostID: original.ID,
		Version:        1,
	}
	if err := s.insert(ctx, &p); err != nil {
		return View{}, err
	}

	view, err := s.view(ctx, p)
	if err != nil {
		return View{}, err
	}
	originalView, err := s.view(ctx, original)
	if err != nil {
		return View{}, err
	}
	view.OriginalPost = &originalView
	return view, nil
}

func (s *Service) LikedUsers(ctx context.Context, postID string) ([]user.Summary, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	sums, err := s.users.Summaries(ctx, p.LikedBy)
	if err != nil {
		return nil, err
	}
	users := []user.Summary{}
	for _, id := range p.LikedBy {
		if sum, ok := sums[id]; ok {
			users = append(users, sum)
		}
	}
	return users, nil
}

// Public returns all public posts, newest first.
func (s *Service) Public(ctx context.Context) ([]Post, error) {
	return s.list(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE privacy='public'
		ORDER BY created_at DESC
	`)
}

// VisibleTo returns the candidate set for a known viewer: public posts,
// friends-only posts by the viewer's friends (or the viewer), and the
// viewer's own private posts. Equivalent to applying the visibility policy
// post by post.
func (s *Service) VisibleTo(ctx context.Context, viewerID string, friendIDs []string) ([]Post, error) {
	authors := append(append([]string{}, friendIDs...), viewerID)
	return s.list(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE privacy='public'
		   OR (privacy='friends' AND author_id = ANY($2))
		   OR (privacy='private' AND author_id=$1)
		ORDER BY created_at DESC
	`, viewerID, authors)
}

// Views resolves a batch of posts for display with a single summary lookup.
func (s *Service) Views(ctx context.Context, posts []Post) ([]View, error) {
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
		ids = append(ids, p.Tagged...)
		for _, c := range p.Comments {
			ids = append(ids, c.AuthorID)
		}
	}
	sums, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := []View{}
	for _, p := range posts {
		views = append(views, buildView(p, sums))
	}
	return views, nil
}

func (s *Service) view(ctx context.Context, p Post) (View, error) {
	views, err := s.Views(ctx, []Post{p})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

func (s *Service) requireUser(ctx context.Context, id string) error {
	if id == "" {
		return apperr.InvalidInput("user id required")
	}
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user %s not found", id)
	}
	return nil
}

func (s *Service) insert(ctx context.Context, p *Post) error {
	if p.Tagged == nil {
		p.Tagged = []string{}
	}
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	commentsJSON, err := json.Marshal(p.Comments)
	if err != nil {
		return err
	}
	sharesJSON, err := json.Marshal(p.Shares)
	if err != nil {
		return err
	}
	var locJSON []byte
	if p.Location != nil {
		locJSON, err = json.Marshal(p.Location)
		if err != nil {
			return err
		}
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, content, image_url, privacy, tagged, liked_by, likes, comments, shares, original_post_id, location, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at
	`, p.ID, p.AuthorID, p.Content, p.ImageURL, string(p.Privacy), p.Tagged, p.LikedBy, p.Likes, commentsJSON, sharesJSON, p.OriginalPostID, locJSON, p.Version)
	return row.Scan(&p.CreatedAt)
}

func (s *Service) list(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func scanPost(scan func(dest ...any) error) (Post, error) {
	var p Post
	var privacy string
	var commentsJSON, sharesJSON, locJSON []byte
	if err := scan(&p.ID, &p.AuthorID, &p.Content, &p.ImageURL, &privacy, &p.Tagged, &p.LikedBy, &p.Likes, &commentsJSON, &sharesJSON, &p.OriginalPostID, &locJSON, &p.Version, &p.CreatedAt); err != nil {
		return Post{}, err
	}
	p.Privacy = Privacy(privacy)
	if len(commentsJSON) > 0 {
		if err := json.Unmarshal(commentsJSON, &p.Comments); err != nil {
			return Post{}, err
		}
	}
	if len(sharesJSON) > 0 {
		if err := json.Unmarshal(sharesJSON, &p.Shares); err != nil {
			return Post{}, err
		}
	}
	if len(locJSON) > 0 {
		var loc user.Location
		if err := json.Unmarshal(locJSON, &loc); err == nil {
			p.Location = &loc
		}
	}
	return p, nil
}

func buildView(p Post, sums map[string]user.Summary) View {
	view := View{
		ID:        p.ID,
		Author:    sums[p.AuthorID],
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Privacy:   p.Privacy,
		Likes:     p.Likes,
		LikedBy:   p.LikedBy,
		Shares:    p.Shares,
		Location:  p.Location,
		CreatedAt: p.CreatedAt,
	}
	if view.LikedBy == nil {
		view.LikedBy = []string{}
	}
	if view.Shares == nil {
		view.Shares = []Share{}
	}
	view.TaggedUsers = []user.Summary{}
	for _, id := range p.Tagged {
		if sum, ok := sums[id]; ok {
			view.TaggedUsers = append(view.TaggedUsers, sum)
		}
	}
	view.Comments = commentViews(p.Comments, sums)
	return view
}

func commentViews(comments []Comment, sums map[string]user.Summary) []CommentView {
	views := []CommentView{}
	for _, c := range comments {
		views = append(views, CommentView{
			ID:        c.ID,
			Content:   c.Content,
			Author:    sums[c.AuthorID],
			CreatedAt: c.CreatedAt,
		})
	}
	return views
}
