package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
	"github.com/ginaqueenval/alina-mvp/internal/core/services"
)

// --- Fakes ---

type stubAccounts struct {
	users map[string]*domain.User // par username
}

func (s *stubAccounts) Register(ctx context.Context, cmd ports.RegisterCmd) (*ports.AuthResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAccounts) Login(ctx context.Context, cmd ports.LoginCmd) (*ports.AuthResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAccounts) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubAccounts) ResolveSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "valid-token" {
		return &domain.Session{UserID: "user-1", Email: "gina@example.com", Username: "gina"}, nil
	}
	return nil, errors.New("invalid token")
}

type stubPostRepo struct {
	posts []*domain.Post
	err   error
}

func (s *stubPostRepo) Save(ctx context.Context, post *domain.Post) error { return s.err }

func (s *stubPostRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	for _, p := range s.posts {
		if p.ID == postID {
			return p, nil
		}
	}
	return nil, domain.ErrPostNotFound
}

func (s *stubPostRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Post, error) {
	return s.posts, s.err
}

func (s *stubPostRepo) ListByAuthor(ctx context.Context, authorID string, limit int, cursorTime time.Time) ([]*domain.Post, error) {
	return s.posts, s.err
}

func newTestServer(repo ports.PostRepository) (*Server, *services.FeedManager) {
	feed := services.NewFeedManager(repo, nil)
	posts := services.NewPostService(repo, nil)
	accounts := &stubAccounts{users: map[string]*domain.User{
		"gina": {ID: "user-1", Email: "gina@example.com", Username: "gina", IsCreator: true},
	}}
	return NewServer(accounts, posts, feed, testCookie, false), feed
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "valid-token"})
	return req
}

// --- Tests ---

func TestCreatePostRequiresSession(t *testing.T) {
	srv, _ := newTestServer(&stubPostRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/feed/posts", strings.NewReader(`{"caption":"hello"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Log in to post") {
		t.Fatalf("expected login affordance, got %s", rec.Body.String())
	}
}

func TestCreatePostAppliesOptimisticInsert(t *testing.T) {
	srv, feed := newTestServer(&stubPostRepo{})

	view, err := feed.OpenView(context.Background(), 10)
	if err != nil {
		t.Fatalf("open view: %v", err)
	}
	defer feed.CloseView(view.ID())

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/feed/posts", strings.NewReader(`{"caption":"hello"}`)))
	req.Header.Set(ViewHeader, view.ID())

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Post postDTO `json:"post"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Post.ID == "" {
		t.Fatal("expected server-assigned id in response")
	}

	// Insert optimiste visible immédiatement, écho push dédupliqué
	if view.Len() != 1 {
		t.Fatalf("expected optimistic insert in view, got %d posts", view.Len())
	}
	feed.HandleInsert(context.Background(), &domain.Post{ID: resp.Post.ID})
	if view.Len() != 1 {
		t.Fatalf("push echo duplicated the post: %d entries", view.Len())
	}
}

func TestCreatePostValidation(t *testing.T) {
	srv, _ := newTestServer(&stubPostRepo{})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: `{"caption":"","image_url":""}`},
		{name: "over limit", body: `{"caption":"` + strings.Repeat("a", 281) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withSession(httptest.NewRequest(http.MethodPost, "/api/feed/posts", strings.NewReader(tt.body)))
			rec := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
		})
	}
}

func TestCreatePostStoreFailure(t *testing.T) {
	srv, _ := newTestServer(&stubPostRepo{err: errors.New("pg down")})

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/feed/posts", strings.NewReader(`{"caption":"hello"}`)))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on rejected write, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to post") {
		t.Fatalf("expected inline failure message, got %s", rec.Body.String())
	}
}

// Un échec de chargement rend 200, liste vide et message inline — jamais
// une erreur bloquante.
func TestFeedBootstrapLoadFailure(t *testing.T) {
	srv, _ := newTestServer(&stubPostRepo{err: errors.New("pg down")})

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Posts []postDTO `json:"posts"`
		Error string    `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Posts) != 0 || resp.Error == "" {
		t.Fatalf("expected empty list with inline error, got %+v", resp)
	}
}

func TestFeedStreamInitAndTeardown(t *testing.T) {
	srv, feed := newTestServer(&stubPostRepo{posts: []*domain.Post{{ID: "p1"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // le client est déjà parti : init émis, puis démontage

	req := httptest.NewRequest(http.MethodGet, "/api/feed/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: init") {
		t.Fatalf("expected init event, got %s", body)
	}

	var init struct {
		ViewID string    `json:"view_id"`
		Posts  []postDTO `json:"posts"`
	}
	payload := strings.TrimPrefix(strings.Split(body, "data: ")[1], "data: ")
	payload = strings.Split(payload, "\n")[0]
	if err := json.Unmarshal([]byte(payload), &init); err != nil {
		t.Fatalf("decode init payload: %v", err)
	}
	if len(init.Posts) != 1 || init.Posts[0].ID != "p1" {
		t.Fatalf("expected seeded init, got %+v", init.Posts)
	}

	// La vue ne survit pas au départ du client
	if _, ok := feed.View(init.ViewID); ok {
		t.Fatal("view must be closed when the stream ends")
	}
}

func TestPostDetail(t *testing.T) {
	srv, _ := newTestServer(&stubPostRepo{posts: []*domain.Post{
		{ID: "p1", AuthorID: "user-1", Caption: "hello", CreatedAt: time.Now().UTC()},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/posts/p1", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Post postDTO `json:"post"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Post.ID != "p1" || resp.Post.Caption != "hello" {
		t.Fatalf("expected post p1, got %+v", resp.Post)
	}
}

func TestPostDetailNotFound(t *testing.T) {
	srv, _ := newTestServer(&stubPostRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts/ghost", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreatorPostsUnknownUser(t *testing.T) {
	srv, _ := newTestServer(&stubPostRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/creators/nobody/posts", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreatorPostsPaginates(t *testing.T) {
	now := time.Now().UTC()
	srv, _ := newTestServer(&stubPostRepo{posts: []*domain.Post{
		{ID: "p1", AuthorID: "user-1", CreatedAt: now},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/creators/gina/posts", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Posts      []postDTO `json:"posts"`
		NextCursor string    `json:"next_cursor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Posts) != 1 || resp.NextCursor == "" {
		t.Fatalf("expected one post and a cursor, got %+v", resp)
	}
}
