package user

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-feedhub/internal/apperr"
	"backend-feedhub/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

const summaryCacheTTL = time.Minute

type Service struct {
	db    db.Querier
	cache *redis.Client
}

// NewService builds the user directory. cache may be nil, which disables
// summary caching.
func NewService(db db.Querier, cache *redis.Client) *Service {
	return &Service{db: db, cache: cache}
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, avatar_url, cover_url, location, created_at
		FROM users WHERE id=$1
	`, id)

	var u User
	var locJSON []byte
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.CoverURL, &locJSON, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user %s not found", id)
		}
		return User{}, err
	}
	if len(locJSON) > 0 {
		var loc Location
		if err := json.Unmarshal(locJSON, &loc); err == nil {
			u.Location = &loc
		}
	}
	return u, nil
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)
	`, id).Scan(&ok)
	return ok, err
}

// List returns every user with friend and pending-request sets resolved to
// summaries.
func (s *Service) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, email, avatar_url, cover_url, location, created_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	byID := map[string]Summary{}
	for rows.Next() {
		var u User
		var locJSON []byte
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.CoverURL, &locJSON, &u.CreatedAt); err != nil {
			return nil, err
		}
		if len(locJSON) > 0 {
			var loc Location
			if err := json.Unmarshal(locJSON, &loc); err == nil {
				u.Location = &loc
			}
		}
		u.Friends = []Summary{}
		u.FriendRequests = []Summary{}
		users = append(users, u)
		byID[u.ID] = Summary{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
	}

	friendEdges, err := s.loadEdges(ctx, `SELECT user_id, friend_id FROM friendships`)
	if err != nil {
		return nil, err
	}
	requestEdges, err := s.loadEdges(ctx, `SELECT target_id, requester_id FROM friend_requests`)
	if err != nil {
		return nil, err
	}

	for i := range users {
		for _, fid := range friendEdges[users[i].ID] {
			if sum, ok := byID[fid]; ok {
				users[i].Friends = append(users[i].Friends, sum)
			}
		}
		for _, rid := range requestEdges[users[i].ID] {
			if sum, ok := byID[rid]; ok {
				users[i].FriendRequests = append(users[i].FriendRequests, sum)
			}
		}
	}
	return users, nil
}

func (s *Service) loadEdges(ctx context.Context, query string) (map[string][]string, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := map[string][]string{}
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, err
		}
		edges[from] = append(edges[from], to)
	}
	return edges, nil
}

func (s *Service) Friends(ctx context.Context, id string) ([]Summary, error) {
	ok, err := s.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("user %s not found", id)
	}

	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.name, u.avatar_url
		FROM users u
		JOIN friendships f ON f.friend_id = u.id
		WHERE f.user_id=$1
		ORDER BY u.name
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.AvatarURL); err != nil {
			return nil, err
		}
		friends = append(friends, sum)
	}
	return friends, nil
}

func (s *Service) FriendIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT friend_id FROM friendships WHERE user_id=$1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var fid string
		if err := rows.Scan(&fid); err != nil {
			return nil, err
		}
		ids = append(ids, fid)
	}
	return ids, nil
}

func (s *Service) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id=$1 AND friend_id=$2)
	`, a, b).Scan(&ok)
	return ok, err
}

// SendFriendRequest records a pending request from one user to another.
// Resending an already-pending request is a no-op.
func (s *Service) SendFriendRequest(ctx context.Context, fromID, toID string) error {
	for _, id := range []string{fromID, toID} {
		ok, err := s.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("user %s not found", id)
		}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO friend_requests (requester_id, target_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, fromID, toID)
	return err
}

// AcceptFriendRequest links both users and clears any matching pending
// request. Both friendship rows land in one statement so the symmetric
// invariant can never be observed broken. A pending request is not required
// for the accept to succeed.
func (s *Service) AcceptFriendRequest(ctx context.Context, userID, requesterID string) error {
	for _, id := range []string{userID, requesterID} {
		ok, err := s.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("user %s not found", id)
		}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1,$2),($2,$1)
		ON CONFLICT DO NOTHING
	`, userID, requesterID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		DELETE FROM friend_requests WHERE requester_id=$2 AND target_id=$1
	`, userID, requesterID)
	return err
}

func (s *Service) UpdateLocation(ctx context.Context, id string, loc Location) (User, error) {
	locJSON, err := json.Marshal(loc)
	if err != nil {
		return User{}, err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE users SET location=$2 WHERE id=$1
	`, id, locJSON)
	if err != nil {
		return User{}, err
	}
	if tag.RowsAffected() == 0 {
		return User{}, apperr.NotFound("user %s not found", id)
	}
	s.invalidateSummary(ctx, id)
	return s.Get(ctx, id)
}

// Summaries resolves a set of user ids to display summaries, consulting the
// redis cache first. Unknown ids are silently absent from the result.
func (s *Service) Summaries(ctx context.Context, ids []string) (map[string]Summary, error) {
	result := map[string]Summary{}
	if len(ids) == 0 {
		return result, nil
	}

	seen := map[string]struct{}{}
	var missing []string
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		if sum, ok := s.cachedSummary(ctx, id); ok {
			result[id] = sum
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, avatar_url FROM users WHERE id = ANY($1)
	`, missing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.AvatarURL); err != nil {
			return nil, err
		}
		result[sum.ID] = sum
		s.storeSummary(ctx, sum)
	}
	return result, nil
}

func (s *Service) cachedSummary(ctx context.Context, id string) (Summary, bool) {
	if s.cache == nil {
		return Summary{}, false
	}
	payload, err := s.cache.Get(ctx, summaryKey(id)).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var sum Summary
	if err := json.Unmarshal(payload, &sum); err != nil {
		return Summary{}, false
	}
	return sum, true
}

func (s *Service) storeSummary(ctx context.Context, sum Summary) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, summaryKey(sum.ID), payload, summaryCacheTTL).Err()
}

func (s *Service) invalidateSummary(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, summaryKey(id)).Err()
}

func summaryKey(id string) string {
	return "user:summary:" + id
}
