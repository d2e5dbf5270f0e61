package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
)

type fakePostService struct {
	created []*domain.Post
	err     error
}

func (f *fakePostService) CreatePost(ctx context.Context, authorID, caption, imageURL string) (*domain.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	post := &domain.Post{
		ID:        "srv-1",
		AuthorID:  authorID,
		Caption:   caption,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}
	f.created = append(f.created, post)
	return post, nil
}

func (f *fakePostService) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	return nil, domain.ErrPostNotFound
}

func (f *fakePostService) ListRecent(ctx context.Context, limit int) ([]*domain.Post, error) {
	return nil, nil
}

func (f *fakePostService) ListByAuthor(ctx context.Context, authorID string, limit int, cursor string) ([]*domain.Post, string, error) {
	return nil, "", nil
}

func session() *domain.Session {
	return &domain.Session{UserID: "user-1", Email: "gina@example.com", Username: "gina"}
}

func TestCanSubmit(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		imageURL string
		want     bool
	}{
		{name: "empty", caption: "", imageURL: "", want: false},
		{name: "whitespace caption", caption: "   ", imageURL: "", want: false},
		{name: "caption only", caption: "hello", imageURL: "", want: true},
		{name: "image only", caption: "", imageURL: "/uploads/pic.png", want: true},
		{name: "281 characters", caption: strings.Repeat("a", 281), imageURL: "", want: false},
		{name: "280 characters", caption: strings.Repeat("a", 280), imageURL: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer(session(), &fakePostService{}, nil)
			c.SetCaption(tt.caption)
			c.SetImageURL(tt.imageURL)
			if got := c.CanSubmit(); got != tt.want {
				t.Fatalf("expected CanSubmit %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSubmitSuccessClearsDraftAndAppliesLocalInsert(t *testing.T) {
	view := domain.NewFeedView()
	view.Initialize(nil)

	c := NewComposer(session(), &fakePostService{}, view)
	c.SetCaption("hello")

	post, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if post.ID != "srv-1" {
		t.Fatalf("expected server-assigned id, got %q", post.ID)
	}
	if c.State() != StatePosted {
		t.Fatalf("expected posted state, got %v", c.State())
	}

	caption, imageURL := c.Draft()
	if caption != "" || imageURL != "" {
		t.Fatalf("expected cleared draft, got %q %q", caption, imageURL)
	}

	// Insert optimiste appliqué à la vue, écho push dédupliqué ensuite
	if view.Len() != 1 {
		t.Fatalf("expected 1 post in view, got %d", view.Len())
	}
	if view.ApplyRemoteInsert(post) {
		t.Fatal("push echo of own post must be a no-op")
	}

	// L'acquittement est transitoire : la prochaine édition revient à idle
	c.SetCaption("next")
	if c.State() != StateIdle {
		t.Fatalf("expected idle after edit, got %v", c.State())
	}
}

func TestSubmitFailurePreservesDraft(t *testing.T) {
	view := domain.NewFeedView()
	view.Initialize(nil)

	boom := errors.New("insert rejected")
	c := NewComposer(session(), &fakePostService{err: boom}, view)
	c.SetCaption("hello")
	c.SetImageURL("/uploads/pic.png")

	if _, err := c.Submit(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if c.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", c.State())
	}
	if !errors.Is(c.Err(), boom) {
		t.Fatalf("expected surfaced error, got %v", c.Err())
	}

	// Champs préservés pour retenter
	caption, imageURL := c.Draft()
	if caption != "hello" || imageURL != "/uploads/pic.png" {
		t.Fatalf("expected preserved draft, got %q %q", caption, imageURL)
	}

	// Aucune mutation de la vue sur échec
	if view.Len() != 0 {
		t.Fatalf("expected untouched view, got %d posts", view.Len())
	}

	// Retour à idle à la prochaine action utilisateur
	c.SetCaption("hello again")
	if c.State() != StateIdle || c.Err() != nil {
		t.Fatalf("expected idle without error, got %v %v", c.State(), c.Err())
	}
}

func TestSubmitOverLimitStaysIdle(t *testing.T) {
	svc := &fakePostService{}
	c := NewComposer(session(), svc, nil)
	c.SetCaption(strings.Repeat("a", 281))

	_, err := c.Submit(context.Background())
	if !errors.Is(err, domain.ErrCaptionTooLong) {
		t.Fatalf("expected ErrCaptionTooLong, got %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle (precondition, not failure), got %v", c.State())
	}
	if len(svc.created) != 0 {
		t.Fatal("store must not be called for an over-limit caption")
	}

	caption, _ := c.Draft()
	if caption == "" {
		t.Fatal("draft must not be cleared")
	}
}

func TestSubmitEmptyDraftIsRejected(t *testing.T) {
	c := NewComposer(session(), &fakePostService{}, nil)

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotSubmittable) {
		t.Fatalf("expected ErrNotSubmittable, got %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle, got %v", c.State())
	}
}
