package httpapi

import (
	"net/http"
	"net/url"
	"strings"
)

// Gate est l'intercepteur de routes protégées : sans état, sans log.
//
// Une route est protégée ssi son chemin commence par un des préfixes
// configurés (union booléenne, l'ordre est sans importance). Protégée et
// sans marqueur de session → redirection vers /login?next=<chemin
// d'origine, query comprise> pour reprendre la navigation après login.
//
// Deux simplifications assumées, héritées de la politique d'origine :
//   - le check porte sur la PRÉSENCE du cookie, pas sur sa validité — un
//     marqueur périmé ou forgé passe le gate (la vérification réelle a
//     lieu là où une identité est affichée ou attribuée) ;
//   - fail open : un chemin inclassable est traité comme non protégé.
//     Compromis disponibilité contre sécurité, documenté, pas corrigé.
type Gate struct {
	prefixes   []string
	cookieName string
}

func NewGate(prefixes []string, cookieName string) *Gate {
	return &Gate{prefixes: prefixes, cookieName: cookieName}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.isProtected(r.URL) {
			next.ServeHTTP(w, r)
			return
		}

		if g.hasSessionMarker(r) {
			next.ServeHTTP(w, r)
			return
		}

		target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	})
}

func (g *Gate) isProtected(u *url.URL) bool {
	if u == nil || u.Path == "" {
		// Inclassable → non protégé (fail open)
		return false
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(u.Path, p) {
			return true
		}
	}
	return false
}

func (g *Gate) hasSessionMarker(r *http.Request) bool {
	c, err := r.Cookie(g.cookieName)
	return err == nil && c.Value != ""
}
