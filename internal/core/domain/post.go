package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// --- ERREURS DU DOMAINE ---
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrEmptyPost      = errors.New("post needs a caption or an image")
	ErrCaptionTooLong = errors.New("caption exceeds 280 characters")
)

const MaxCaptionLen = 280

// Post est l'entité centrale du feed. Jamais mutée après création :
// elle apparaît via le composer (insert local) ou via le canal push.
type Post struct {
	ID        string
	AuthorID  string
	Caption   string // optionnel si ImageURL est présent
	ImageURL  string // optionnel si Caption est présent
	CreatedAt time.Time
}

// NewPost valide les invariants du composer et génère l'identité.
// C'est le SEUL moyen de créer un post proprement.
func NewPost(authorID, caption, imageURL string) (*Post, error) {
	caption = strings.TrimSpace(caption)
	imageURL = strings.TrimSpace(imageURL)

	// Précondition composer : au moins un des deux champs
	if caption == "" && imageURL == "" {
		return nil, ErrEmptyPost
	}
	if len([]rune(caption)) > MaxCaptionLen {
		return nil, ErrCaptionTooLong
	}

	return &Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Caption:   caption,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}, nil
}
