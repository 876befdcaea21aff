package feed

import "backend-feedhub/internal/post"

// CanView decides whether a viewer may see a post. It depends only on the
// post's tier, its author and the viewer's friendship with the author, so it
// is safe to evaluate per post in any order. An empty viewerID means an
// anonymous read, which only public posts survive.
func CanView(viewerID string, viewerFriends map[string]struct{}, p post.Post) bool {
	switch p.Privacy {
	case post.PrivacyPublic:
		return true
	case post.PrivacyFriends:
		if viewerID == "" {
			return false
		}
		if viewerID == p.AuthorID {
			return true
		}
		_, ok := viewerFriends[p.AuthorID]
		return ok
	case post.PrivacyPrivate:
		return viewerID != "" && viewerID == p.AuthorID
	default:
		return false
	}
}
