package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
)

const (
	recentKey = "feed:recent"
	recentCap = 500 // max d'items gardés en RAM
)

// postMember est le DTO stocké dans le sorted set (le Domain reste sans
// tags JSON).
type postMember struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Caption   string    `json:"caption,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisRecentCache tient le cache global des posts récents : un sorted set
// scoré par created_at, capé, avec TTL glissant.
type RedisRecentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRecentCache(client *redis.Client) *RedisRecentCache {
	return &RedisRecentCache{
		client: client,
		ttl:    24 * 30 * time.Hour,
	}
}

func (r *RedisRecentCache) Push(ctx context.Context, post *domain.Post) error {
	member, err := json.Marshal(postMember{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Caption:   post.Caption,
		ImageURL:  post.ImageURL,
		CreatedAt: post.CreatedAt,
	})
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, recentKey, redis.Z{
		Score:  float64(post.CreatedAt.Unix()),
		Member: string(member),
	})
	// Capping : on ne garde que les recentCap plus récents
	pipe.ZRemRangeByRank(ctx, recentKey, 0, -(recentCap + 1))
	pipe.Expire(ctx, recentKey, r.ttl)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRecentCache) Recent(ctx context.Context, limit int64) ([]*domain.Post, error) {
	results, err := r.client.ZRevRange(ctx, recentKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(results))
	for _, raw := range results {
		var m postMember
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			// Donnée corrompue ? On saute, le repli Postgres fait foi.
			continue
		}
		posts = append(posts, &domain.Post{
			ID:        m.ID,
			AuthorID:  m.AuthorID,
			Caption:   m.Caption,
			ImageURL:  m.ImageURL,
			CreatedAt: m.CreatedAt,
		})
	}
	return posts, nil
}
