package ports

import (
	"context"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
)

// --- DRIVING (Ce que le coeur expose) ---

type FeedService interface {
	// OpenView charge le feed initial et attache la vue au flux push.
	// Un échec de chargement retourne une vue vide ET l'erreur : la vue
	// reste attachée au live (état d'erreur affiché inline côté client).
	OpenView(ctx context.Context, limit int) (*domain.FeedView, error)

	// HandleInsert est appelé quand un évènement "post.created" arrive.
	HandleInsert(ctx context.Context, post *domain.Post)

	// View retrouve une vue ouverte (utilisé par le composer pour
	// l'insert optimiste).
	View(id string) (*domain.FeedView, bool)

	// CloseView détache la vue puis la démonte. Aucun HandleInsert
	// postérieur n'atteint une vue fermée.
	CloseView(id string)
}

type PostService interface {
	// CreatePost valide, persiste, puis publie l'évènement (best effort).
	CreatePost(ctx context.Context, authorID, caption, imageURL string) (*domain.Post, error)

	// GetPost sert la page détail d'un post.
	GetPost(ctx context.Context, postID string) (*domain.Post, error)

	ListRecent(ctx context.Context, limit int) ([]*domain.Post, error)

	// ListByAuthor pagine le profil créateur (cursor = created_at RFC3339Nano).
	ListByAuthor(ctx context.Context, authorID string, limit int, cursor string) ([]*domain.Post, string, error)
}

type RegisterCmd struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
	IsCreator   bool
}

type LoginCmd struct {
	Email    string
	Password string
}

type AuthResponse struct {
	User        *domain.User
	AccessToken string
}

type AccountService interface {
	Register(ctx context.Context, cmd RegisterCmd) (*AuthResponse, error)
	Login(ctx context.Context, cmd LoginCmd) (*AuthResponse, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// ResolveSession retourne l'identité portée par un token, ou une
	// erreur si le token est invalide. Le gate n'utilise PAS ceci : il ne
	// teste que la présence du cookie.
	ResolveSession(ctx context.Context, token string) (*domain.Session, error)
}
