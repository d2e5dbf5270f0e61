package domain

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// updateBuffer borne le canal de sortie d'une vue. Pas de backpressure :
// un consommateur trop lent perd des évènements live, jamais l'état.
const updateBuffer = 32

// FeedView est l'état dérivé d'une session de consultation : une séquence
// de posts ordonnée du plus récent au plus ancien, réconciliant trois
// sources qui peuvent se croiser :
//  1. le chargement initial (seed),
//  2. les inserts optimistes du viewer (composer),
//  3. le flux push des inserts distants (qui peut inclure l'écho du
//     propre post du viewer, arrivé après l'insert optimiste).
//
// La garantie centrale : un même ID de post ne survit qu'une seule fois,
// quel que soit l'ordre d'arrivée des deux chemins de livraison. Le check
// se fait sur l'ID serveur via un set `seen` (O(1)), pas sur l'heure
// d'arrivée.
//
// L'original tourne sur une seule boucle d'évènements ; ici le push arrive
// sur sa propre goroutine, donc un mutex sérialise les opérations. Le
// comportement observable (ordre, dédup, coupure au teardown) est le même.
type FeedView struct {
	id string

	mu      sync.Mutex
	posts   []*Post
	seen    map[string]struct{}
	closed  bool
	updates chan *Post
}

func NewFeedView() *FeedView {
	return &FeedView{
		id:      uuid.NewString(),
		seen:    make(map[string]struct{}),
		updates: make(chan *Post, updateBuffer),
	}
}

func (v *FeedView) ID() string { return v.id }

// Initialize remplace l'état par le chargement initial. Idempotent :
// rappelée avec le même seed, la vue est identique.
func (v *FeedView) Initialize(seed []*Post) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.posts = make([]*Post, 0, len(seed))
	v.seen = make(map[string]struct{}, len(seed))
	for _, p := range seed {
		key := normalizeID(p.ID)
		if _, dup := v.seen[key]; dup {
			continue
		}
		v.seen[key] = struct{}{}
		v.posts = append(v.posts, p)
	}
}

// ApplyLocalInsert insère le propre post du viewer, déjà confirmé par le
// store (l'ID est celui assigné côté serveur — jamais fabriqué ici).
// Retourne false si l'ID était déjà présent ou si la vue est fermée.
func (v *FeedView) ApplyLocalInsert(p *Post) bool {
	return v.insert(p)
}

// ApplyRemoteInsert insère un post notifié par le canal push. L'évènement
// peut provenir de n'importe quel viewer, y compris celui-ci : si l'ID est
// déjà connu (chemin optimiste passé en premier), c'est un no-op.
func (v *FeedView) ApplyRemoteInsert(p *Post) bool {
	return v.insert(p)
}

func (v *FeedView) insert(p *Post) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	key := normalizeID(p.ID)
	if _, dup := v.seen[key]; dup {
		return false
	}
	v.seen[key] = struct{}{}

	// Prepend : index 0 = le plus récent
	v.posts = append([]*Post{p}, v.posts...)

	// Émission live, sans blocage
	select {
	case v.updates <- p:
	default:
	}
	return true
}

// Teardown libère la vue : plus aucun insert n'est observable après son
// retour, les évènements en attente sont abandonnés.
func (v *FeedView) Teardown() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	close(v.updates)
}

// Updates expose le flux des inserts acceptés (exactement une émission
// par ID). Le canal est fermé au teardown.
func (v *FeedView) Updates() <-chan *Post { return v.updates }

// Posts retourne un snapshot de la séquence, du plus récent au plus ancien.
func (v *FeedView) Posts() []*Post {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]*Post, len(v.posts))
	copy(out, v.posts)
	return out
}

func (v *FeedView) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.posts)
}

// normalizeID aligne la comparaison d'IDs (le store amont mélange parfois
// identifiants numériques et chaînes).
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
