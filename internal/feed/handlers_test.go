package feed

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func fiberApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/posts"), svc)
	return app
}

func TestFeedHandler(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(feedPostColumns)
	addPostRow(rows, "post-1", "user-1", "public", now)
	mock.ExpectQuery(`SELECT id, author_id, content`).
		WillReturnRows(rows)
	expectFeedSummaries(mock, "user-1")

	app := fiberApp(newFeed(mock))
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("feed status: %v", err)
	}
}

func TestPostHandlerAnonymousPrivateHidden(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(feedPostColumns)
	addPostRow(rows, "post-1", "user-1", "private", now)
	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(rows)

	app := fiberApp(newFeed(mock))
	req := httptest.NewRequest(http.MethodGet, "/posts/post-1", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "content post-1") {
		t.Fatalf("private content leaked to anonymous caller")
	}
}

func TestPostHandlerPublic(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(feedPostColumns)
	addPostRow(rows, "post-1", "user-1", "public", now)
	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(rows)

	viewRows := pgxmock.NewRows(feedPostColumns)
	addPostRow(viewRows, "post-1", "user-1", "public", now)
	mock.ExpectQuery(`SELECT id, author_id, content`).
		WithArgs("post-1").
		WillReturnRows(viewRows)
	expectFeedSummaries(mock, "user-1")

	app := fiberApp(newFeed(mock))
	req := httptest.NewRequest(http.MethodGet, "/posts/post-1", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("post status: %v", err)
	}
}

func TestFeedHandlerUnknownViewer(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, name, email, avatar_url, cover_url, location, created_at`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	app := fiberApp(newFeed(mock))
	req := httptest.NewRequest(http.MethodGet, "/posts?user_id=ghost", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}
