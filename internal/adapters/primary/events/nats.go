package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

// EventHandler consomme "post.created" et alimente le fan-in du feed.
type EventHandler struct {
	feed ports.FeedService
}

func NewEventHandler(feed ports.FeedService) *EventHandler {
	return &EventHandler{feed: feed}
}

func (h *EventHandler) HandlePostCreated(msg *nats.Msg) {
	// Extraction du contexte de trace depuis les headers NATS
	ctx := context.Background()
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))

	tracer := otel.Tracer("alina-mvp")
	ctx, span := tracer.Start(ctx, "process_post_created", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	type postCreatedEvent struct {
		ID        string    `json:"id"`
		AuthorID  string    `json:"author_id"`
		Caption   string    `json:"caption"`
		ImageURL  string    `json:"image_url"`
		CreatedAt time.Time `json:"created_at"`
	}

	var event postCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		span.RecordError(err)
		slog.Error("❌ Invalid event format", "error", err)
		return
	}

	slog.Info("📨 Insert notification received", "post_id", event.ID, "author_id", event.AuthorID)

	post := &domain.Post{
		ID:        event.ID,
		AuthorID:  event.AuthorID,
		Caption:   event.Caption,
		ImageURL:  event.ImageURL,
		CreatedAt: event.CreatedAt,
	}

	// Fan-in en background : le callback NATS ne doit pas bloquer sur
	// l'écriture cache.
	go func() {
		childCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		h.feed.HandleInsert(childCtx, post)
	}()
}
