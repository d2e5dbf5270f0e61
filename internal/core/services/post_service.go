package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

type postService struct {
	repo      ports.PostRepository
	publisher ports.EventPublisher
}

func NewPostService(repo ports.PostRepository, pub ports.EventPublisher) ports.PostService {
	return &postService{repo: repo, publisher: pub}
}

func (s *postService) CreatePost(ctx context.Context, authorID, caption, imageURL string) (*domain.Post, error) {
	// 1. Invariants du domaine (caption <= 280, caption OU image)
	post, err := domain.NewPost(authorID, caption, imageURL)
	if err != nil {
		return nil, err
	}

	// 2. Sauvegarde DB (Source of Truth). L'insert optimiste côté vue ne
	// se fait QU'APRÈS ce retour : l'ID rendu est celui qui fait foi.
	if err := s.repo.Save(ctx, post); err != nil {
		return nil, err
	}

	// 3. Publication de l'évènement (déclencheur du fan-in). Best effort :
	// la donnée est sauvée, on ne fait pas échouer la requête utilisateur.
	if s.publisher != nil {
		if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
			slog.Error("❌ Publish post.created failed", "post_id", post.ID, "error", err)
		}
	}

	return post, nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	return s.repo.FindByID(ctx, postID)
}

func (s *postService) ListRecent(ctx context.Context, limit int) ([]*domain.Post, error) {
	return s.repo.ListRecent(ctx, limit)
}

func (s *postService) ListByAuthor(ctx context.Context, authorID string, limit int, cursor string) ([]*domain.Post, string, error) {
	var cursorTime time.Time
	var err error

	// Décodage du token (string -> time). RFC3339Nano pour garder la
	// précision de created_at.
	if cursor != "" {
		cursorTime, err = time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", errors.New("invalid page token")
		}
	}

	posts, err := s.repo.ListByAuthor(ctx, authorID, limit, cursorTime)
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(posts) > 0 {
		// Le curseur suivant est la date du DERNIER post rendu : la
		// requête suivante fera "WHERE created_at < curseur".
		nextCursor = posts[len(posts)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return posts, nextCursor, nil
}
