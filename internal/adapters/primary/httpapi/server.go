package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

// Server est la surface JSON/SSE consommée par le client web. Les pages
// elles-mêmes (rendu, styles) ne sont pas de son ressort.
type Server struct {
	accounts ports.AccountService
	posts    ports.PostService
	feed     ports.FeedService

	cookieName   string
	secureCookie bool
}

func NewServer(accounts ports.AccountService, posts ports.PostService, feed ports.FeedService, cookieName string, secureCookie bool) *Server {
	return &Server{
		accounts:     accounts,
		posts:        posts,
		feed:         feed,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/signup", s.handleSignup)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.handleMe)

	mux.HandleFunc("GET /api/feed", s.handleFeedBootstrap)
	mux.HandleFunc("GET /api/feed/stream", s.handleFeedStream)
	mux.HandleFunc("POST /api/feed/posts", s.handleCreatePost)

	mux.HandleFunc("GET /api/posts/{id}", s.handlePostDetail)
	mux.HandleFunc("GET /api/creators/{username}/posts", s.handleCreatorPosts)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// session relit l'identité à chaque requête (jamais mise en cache ici).
// Absence de session = état normal, pas une erreur.
func (s *Server) session(r *http.Request) *domain.Session {
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := s.accounts.ResolveSession(r.Context(), c.Value)
	if err != nil {
		return nil
	}
	return sess
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// --- Helpers JSON ---

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("❌ JSON encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- DTOs ---

type postDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Caption   string    `json:"caption,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toPostDTO(p *domain.Post) postDTO {
	return postDTO{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Caption:   p.Caption,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}

func toPostDTOs(posts []*domain.Post) []postDTO {
	out := make([]postDTO, len(posts))
	for i, p := range posts {
		out[i] = toPostDTO(p)
	}
	return out
}

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	IsCreator   bool   `json:"is_creator"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsCreator:   u.IsCreator,
	}
}
