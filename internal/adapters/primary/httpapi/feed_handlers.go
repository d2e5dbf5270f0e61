package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/services"
)

// ViewHeader relie une soumission à la vue de feed du même onglet pour
// l'insert optimiste (l'écho push sera dédupliqué par la vue).
const ViewHeader = "X-Feed-View"

// handleFeedBootstrap sert le chargement initial du feed. Un échec de
// lecture n'est pas une 500 : liste vide + message inline, consigne du
// composant (l'échec de chargement ne bloque pas le composer).
func (s *Server) handleFeedBootstrap(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", services.DefaultFeedLimit)

	payload := map[string]any{}
	if sess := s.session(r); sess != nil {
		payload["viewer"] = map[string]string{"id": sess.UserID, "email": sess.Email}
	}

	posts, err := s.posts.ListRecent(r.Context(), limit)
	if err != nil {
		slog.Error("❌ Feed bootstrap failed", "error", err)
		payload["posts"] = []postDTO{}
		payload["error"] = "Could not load the feed."
		writeJSON(w, http.StatusOK, payload)
		return
	}

	payload["posts"] = toPostDTOs(posts)
	writeJSON(w, http.StatusOK, payload)
}

// handleFeedStream monte une vue de feed et pousse les inserts acceptés
// en SSE jusqu'au départ du client. Le démontage de la vue est garanti
// sur toutes les sorties.
func (s *Server) handleFeedStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	view, loadErr := s.feed.OpenView(r.Context(), queryInt(r, "limit", services.DefaultFeedLimit))
	defer s.feed.CloseView(view.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	init := map[string]any{
		"view_id": view.ID(),
		"posts":   toPostDTOs(view.Posts()),
	}
	if loadErr != nil {
		// Vue vide mais flux branché : dégradation, pas de crash
		init["error"] = "Could not load the feed."
	}
	writeSSE(w, "init", init)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case post, open := <-view.Updates():
			if !open {
				return
			}
			writeSSE(w, "post", toPostDTO(post))
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("❌ SSE encode failed", "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

// handleCreatePost est la soumission du composer. Sans session, le
// composer n'existe pas : affordance "log in to post" côté client.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Log in to post")
		return
	}

	var body struct {
		Caption  string `json:"caption"`
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Vue du même onglet, si le client en a une d'ouverte
	var view *domain.FeedView
	if id := r.Header.Get(ViewHeader); id != "" {
		view, _ = s.feed.View(id)
	}

	composer := services.NewComposer(sess, s.posts, view)
	composer.SetCaption(body.Caption)
	composer.SetImageURL(body.ImageURL)

	post, err := composer.Submit(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotSubmittable),
			errors.Is(err, domain.ErrEmptyPost):
			writeError(w, http.StatusUnprocessableEntity, "post needs a caption or an image")
		case errors.Is(err, domain.ErrCaptionTooLong):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to post")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"post": toPostDTO(post)})
}

// handlePostDetail sert la page détail d'un post.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load post")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"post": toPostDTO(post)})
}

// handleCreatorPosts sert le feed public d'un créateur, paginé par curseur.
func (s *Server) handleCreatorPosts(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	user, err := s.accounts.GetUserByUsername(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusNotFound, "creator not found")
		return
	}

	limit := queryInt(r, "limit", 20)
	posts, next, err := s.posts.ListByAuthor(r.Context(), user.ID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load posts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":       toPostDTOs(posts),
		"next_cursor": next,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
