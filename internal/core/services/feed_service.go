package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

// DefaultFeedLimit borne le chargement initial d'une vue.
const DefaultFeedLimit = 50

// FeedManager tient le registre des vues ouvertes et leur distribue les
// inserts arrivant du canal push. Chaque vue appartient à UNE session de
// consultation ; le registre ne sert qu'au fan-in.
type FeedManager struct {
	repo  ports.PostRepository
	cache ports.RecentCache

	mu    sync.RWMutex
	views map[string]*domain.FeedView
}

func NewFeedManager(repo ports.PostRepository, cache ports.RecentCache) *FeedManager {
	return &FeedManager{
		repo:  repo,
		cache: cache,
		views: make(map[string]*domain.FeedView),
	}
}

// OpenView fait le bulk load (cache d'abord, Postgres en repli) puis
// enregistre la vue pour le live. Un échec de chargement n'est PAS fatal :
// la vue part vide, l'erreur remonte pour affichage, le live reste branché.
func (m *FeedManager) OpenView(ctx context.Context, limit int) (*domain.FeedView, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	view := domain.NewFeedView()

	seed, err := m.load(ctx, limit)
	if err != nil {
		slog.Error("❌ Feed bulk load failed", "view", view.ID(), "error", err)
		seed = nil
	}
	view.Initialize(seed)

	m.mu.Lock()
	m.views[view.ID()] = view
	m.mu.Unlock()

	return view, err
}

func (m *FeedManager) load(ctx context.Context, limit int) ([]*domain.Post, error) {
	if m.cache != nil {
		if posts, err := m.cache.Recent(ctx, int64(limit)); err == nil && len(posts) > 0 {
			return posts, nil
		}
	}
	return m.repo.ListRecent(ctx, limit)
}

// HandleInsert route un post poussé vers le cache puis vers chaque vue
// ouverte. La dédup est portée par les vues (set d'IDs vus), pas ici.
func (m *FeedManager) HandleInsert(ctx context.Context, post *domain.Post) {
	if m.cache != nil {
		if err := m.cache.Push(ctx, post); err != nil {
			slog.Error("❌ Recent cache push failed", "post_id", post.ID, "error", err)
		}
	}

	m.mu.RLock()
	targets := make([]*domain.FeedView, 0, len(m.views))
	for _, v := range m.views {
		targets = append(targets, v)
	}
	m.mu.RUnlock()

	for _, v := range targets {
		v.ApplyRemoteInsert(post)
	}
	slog.Debug("📨 Insert fanned in", "post_id", post.ID, "views", len(targets))
}

func (m *FeedManager) View(id string) (*domain.FeedView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[id]
	return v, ok
}

// CloseView retire la vue du registre PUIS la démonte : un HandleInsert
// concurrent qui tient encore la vue tombe sur son flag closed.
func (m *FeedManager) CloseView(id string) {
	m.mu.Lock()
	view, ok := m.views[id]
	delete(m.views, id)
	m.mu.Unlock()

	if ok {
		view.Teardown()
	}
}
