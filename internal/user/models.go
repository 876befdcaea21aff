package user

import "time"

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	AvatarURL      string    `json:"avatar_url"`
	CoverURL       string    `json:"cover_url,omitempty"`
	Location       *Location `json:"location,omitempty"`
	Friends        []Summary `json:"friends"`
	FriendRequests []Summary `json:"friend_requests"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary is the display-ready projection of a user used when resolving
// post authors, tagged users and comment authors.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}
