package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

// ErrNotSubmittable est rendu quand Submit est appelé hors précondition
// (brouillon vide, caption trop longue ou soumission déjà en cours).
// Ce n'est pas un échec de soumission : la machine reste en idle.
var ErrNotSubmittable = errors.New("composer not submittable")

type ComposerState int

const (
	StateIdle ComposerState = iota
	StateSubmitting
	StatePosted
	StateFailed
)

// Composer est la machine d'états de soumission :
//
//	idle → submitting → (posted | failed → idle)
//
// Un viewer sans session ne construit jamais de Composer — la dégradation
// "log in to post" est un check de capacité côté handler, pas un état ici.
type Composer struct {
	session *domain.Session
	posts   ports.PostService
	view    *domain.FeedView // vue du viewer, pour l'insert optimiste

	mu       sync.Mutex
	state    ComposerState
	caption  string
	imageURL string
	err      error
}

// NewComposer exige une session : c'est le point de capacité.
func NewComposer(session *domain.Session, posts ports.PostService, view *domain.FeedView) *Composer {
	return &Composer{session: session, posts: posts, view: view}
}

// SetCaption édite le brouillon. Toute édition sort des états transitoires
// posted/failed (l'erreur affichée disparaît à la prochaine action).
func (c *Composer) SetCaption(caption string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.caption = caption
	c.settle()
}

func (c *Composer) SetImageURL(imageURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageURL = imageURL
	c.settle()
}

func (c *Composer) settle() {
	if c.state == StatePosted || c.state == StateFailed {
		c.state = StateIdle
		c.err = nil
	}
}

// CanSubmit : (caption trimée non vide OU image non vide) ET caption dans
// la limite ET pas de soumission en cours.
func (c *Composer) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Composer) canSubmitLocked() bool {
	if c.state == StateSubmitting {
		return false
	}
	caption := strings.TrimSpace(c.caption)
	if len([]rune(caption)) > domain.MaxCaptionLen {
		return false
	}
	return caption != "" || strings.TrimSpace(c.imageURL) != ""
}

// Submit pousse le brouillon vers le store. Succès : brouillon vidé,
// insert optimiste dans la vue, état posted (acquittement transitoire).
// Échec : brouillon PRÉSERVÉ pour retenter, erreur exposée via Err().
func (c *Composer) Submit(ctx context.Context) (*domain.Post, error) {
	c.mu.Lock()
	caption := strings.TrimSpace(c.caption)
	imageURL := strings.TrimSpace(c.imageURL)

	// Précondition, pas un état d'échec : on ne quitte jamais idle.
	if len([]rune(caption)) > domain.MaxCaptionLen {
		c.mu.Unlock()
		return nil, domain.ErrCaptionTooLong
	}
	if !c.canSubmitLocked() {
		c.mu.Unlock()
		return nil, ErrNotSubmittable
	}

	c.state = StateSubmitting
	c.err = nil
	c.mu.Unlock()

	post, err := c.posts.CreatePost(ctx, c.session.UserID, caption, imageURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// Champs intacts : l'utilisateur corrige et retente.
		c.state = StateFailed
		c.err = err
		return nil, err
	}

	c.caption = ""
	c.imageURL = ""
	c.state = StatePosted

	// L'insert optimiste n'a lieu qu'ICI, après confirmation du store.
	// L'écho du canal push sera dédupliqué par la vue.
	if c.view != nil {
		c.view.ApplyLocalInsert(post)
	}

	return post, nil
}

func (c *Composer) State() ComposerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Composer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Draft expose le brouillon courant (préservé après un échec).
func (c *Composer) Draft() (caption, imageURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caption, c.imageURL
}
