package feed

import (
	"context"
	"sort"

	"backend-feedhub/internal/apperr"
	"backend-feedhub/internal/post"
	"backend-feedhub/internal/user"
)

type Service struct {
	users *user.Service
	posts *post.Service
}

func NewService(users *user.Service, posts *post.Service) *Service {
	return &Service{users: users, posts: posts}
}

// Get assembles the feed for a viewer. An empty viewerID yields the anonymous
// feed (public posts only). A known viewer gets the candidate set from the
// store, re-checked post by post through CanView, ordered newest first.
func (s *Service) Get(ctx context.Context, viewerID string) ([]post.View, error) {
	if viewerID == "" {
		candidates, err := s.posts.Public(ctx)
		if err != nil {
			return nil, err
		}
		return s.assemble(ctx, viewerID, nil, candidates)
	}

	if _, err := s.users.Get(ctx, viewerID); err != nil {
		return nil, err
	}
	friendIDs, err := s.users.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.posts.VisibleTo(ctx, viewerID, friendIDs)
	if err != nil {
		return nil, err
	}

	friends := make(map[string]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = struct{}{}
	}
	return s.assemble(ctx, viewerID, friends, candidates)
}

// GetPost returns a single post if the viewer may see it. A post hidden from
// the viewer is indistinguishable from a missing one.
func (s *Service) GetPost(ctx context.Context, viewerID, postID string) (post.View, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return post.View{}, err
	}

	var friends map[string]struct{}
	if viewerID != "" {
		if _, err := s.users.Get(ctx, viewerID); err != nil {
			return post.View{}, err
		}
		friendIDs, err := s.users.FriendIDs(ctx, viewerID)
		if err != nil {
			return post.View{}, err
		}
		friends = make(map[string]struct{}, len(friendIDs))
		for _, id := range friendIDs {
			friends[id] = struct{}{}
		}
	}

	if !CanView(viewerID, friends, p) {
		return post.View{}, apperr.NotFound("post %s not found", postID)
	}
	return s.posts.GetView(ctx, postID)
}

func (s *Service) assemble(ctx context.Context, viewerID string, friends map[string]struct{}, candidates []post.Post) ([]post.View, error) {
	visible := make([]post.Post, 0, len(candidates))
	for _, p := range candidates {
		if CanView(viewerID, friends, p) {
			visible = append(visible, p)
		}
	}
	sortPosts(visible)
	return s.posts.Views(ctx, visible)
}

// sortPosts orders newest first; equal timestamps fall back to the id so the
// output is stable across calls.
func sortPosts(posts []post.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
