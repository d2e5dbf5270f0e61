package domain

// Session est une identité référencée, pas possédée : le coeur demande
// seulement "y a-t-il une session" et "quel est son identifiant".
type Session struct {
	UserID   string
	Email    string
	Username string
}
