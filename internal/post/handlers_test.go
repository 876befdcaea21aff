package post

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func newApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/posts"), svc, func(c *fiber.Ctx) error { return c.Next() })
	return app
}

func TestCreatePostHandler(t *testing.T) {
	mock := newMock(t)

	expectUserExists(mock, "user-1", true)
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), "user-1", "hello", "", "public", []string{},
			[]string{}, 0, pgxmock.AnyArg(), pgxmock.AnyArg(), "", pgxmock.AnyArg(), 1).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	expectSummaries(mock, []string{"user-1"})

	app := newApp(newService(mock))

	body, _ := json.Marshal(CreateInput{AuthorID: "user-1", Content: "hello", Privacy: "public"})
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v %d", err, resp.StatusCode)
	}

	var view View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Content != "hello" || view.Author.ID != "user-1" {
		t.Fatalf("unexpected view body")
	}
}

func TestCreatePostHandlerMissingAuthor(t *testing.T) {
	app := newApp(newService(nil))

	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader([]byte(`{"content":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestCreatePostHandlerInvalidPrivacy(t *testing.T) {
	app := newApp(newService(nil))

	body, _ := json.Marshal(CreateInput{AuthorID: "user-1", Content: "x", Privacy: "everyone"})
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestLikeHandler(t *testing.T) {
	mock := newMock(t)
	createdAt := time.Now()

	expectUserExists(mock, "user-2", true)
	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(postRow("post-1", "user-1", []string{}, nil, 1, createdAt))
	mock.ExpectExec(`UPDATE posts SET liked_by`).
		WithArgs("post-1", []string{"user-2"}, 1, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	expectSummaries(mock, []string{"user-1"})

	app := newApp(newService(mock))

	body, _ := json.Marshal(map[string]string{"user_id": "user-2"})
	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/like", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("like status: %v", err)
	}

	var view View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Likes != 1 {
		t.Fatalf("expected one like")
	}
}

func TestLikeHandlerMissingUser(t *testing.T) {
	app := newApp(newService(nil))

	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/like", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestShareHandler(t *testing.T) {
	mock := newMock(t)
	createdAt := time.Now()

	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(postRow("post-1", "user-1", []string{}, nil, 1, createdAt))
	expectUserExists(mock, "user-2", true)
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), "user-2", "look at this", "", "friends", []string{},
			[]string{}, 0, pgxmock.AnyArg(), pgxmock.AnyArg(), "post-1", pgxmock.AnyArg(), 1).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	expectSummaries(mock, []string{"user-2"})
	expectSummaries(mock, []string{"user-1"})

	app := newApp(newService(mock))

	body, _ := json.Marshal(map[string]string{"user_id": "user-2", "comment": "look at this"})
	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/share", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("share status: %v", err)
	}

	var view View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.OriginalPost == nil || view.OriginalPost.ID != "post-1" {
		t.Fatalf("expected original post in response")
	}
}

func TestCommentHandlers(t *testing.T) {
	mock := newMock(t)
	createdAt := time.Now()

	expectUserExists(mock, "user-2", true)
	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(postRow("post-1", "user-1", []string{}, nil, 1, createdAt))
	mock.ExpectExec(`UPDATE posts SET comments`).
		WithArgs("post-1", pgxmock.AnyArg(), 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	expectSummaries(mock, []string{"user-1", "user-2"})

	existing := []Comment{{ID: "c1", Content: "hi", AuthorID: "user-2", CreatedAt: createdAt}}
	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(postRow("post-1", "user-1", []string{}, existing, 2, createdAt))
	expectSummaries(mock, []string{"user-2"})

	app := newApp(newService(mock))

	body, _ := json.Marshal(map[string]string{"author_id": "user-2", "content": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("add comment status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/posts/post-1/comments", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list comments status: %v", err)
	}

	var comments []CommentView
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(comments) != 1 || comments[0].Content != "hi" {
		t.Fatalf("unexpected comments")
	}
}

func TestCommentHandlerEmptyContent(t *testing.T) {
	app := newApp(newService(nil))

	body, _ := json.Marshal(map[string]string{"author_id": "user-2", "content": "   "})
	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestLikesHandler(t *testing.T) {
	mock := newMock(t)
	createdAt := time.Now()

	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(postRow("post-1", "user-1", []string{"user-2"}, nil, 1, createdAt))
	expectSummaries(mock, []string{"user-2"})

	app := newApp(newService(mock))

	req := httptest.NewRequest(http.MethodGet, "/posts/post-1/likes", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("likes status: %v", err)
	}
}

func TestLikesHandlerPostMissing(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	app := newApp(newService(mock))

	req := httptest.NewRequest(http.MethodGet, "/posts/ghost/likes", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}
