package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		IsCreator   bool   `json:"is_creator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.accounts.Register(r.Context(), ports.RegisterCmd{
		Email:       body.Email,
		Username:    body.Username,
		Password:    body.Password,
		DisplayName: body.DisplayName,
		IsCreator:   body.IsCreator,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailAlreadyExists),
			errors.Is(err, domain.ErrInvalidEmail),
			errors.Is(err, domain.ErrInvalidUsername):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "signup failed")
		}
		return
	}

	s.setSessionCookie(w, resp.AccessToken)
	writeJSON(w, http.StatusCreated, map[string]any{"user": toUserDTO(resp.User)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.accounts.Login(r.Context(), ports.LoginCmd{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.setSessionCookie(w, resp.AccessToken)
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(resp.User)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	user, err := s.accounts.GetUser(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}
