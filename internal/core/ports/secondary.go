package ports

import (
	"context"
	"time"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
)

// --- DRIVEN (Ce dont le coeur a besoin) ---

type PostRepository interface {
	Save(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, postID string) (*domain.Post, error)

	// ListRecent retourne les posts du plus récent au plus ancien.
	ListRecent(ctx context.Context, limit int) ([]*domain.Post, error)

	// ListByAuthor pagine par keyset (le repo parle "date", pas "token").
	ListByAuthor(ctx context.Context, authorID string, limit int, cursorTime time.Time) ([]*domain.Post, error)
}

type RecentCache interface {
	// Push ajoute un post au cache global "récents" (capé).
	Push(ctx context.Context, post *domain.Post) error

	// Recent lit le cache, du plus récent au plus ancien.
	Recent(ctx context.Context, limit int64) ([]*domain.Post, error)
}

type EventPublisher interface {
	PublishPostCreated(ctx context.Context, post *domain.Post) error
}

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(encodedHash, password string) error
}

type TokenProvider interface {
	Generate(user *domain.User) (string, error)
	Validate(token string) (*domain.Session, error)
}
