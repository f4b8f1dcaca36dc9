package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bitelog/bitelog/server/internal/api/respond"
	"github.com/bitelog/bitelog/server/internal/api/validate"
	"github.com/bitelog/bitelog/server/internal/services"
)

type AuthHandler struct {
	svc *services.UserService
}

func NewAuthHandler(svc *services.UserService) *AuthHandler { return &AuthHandler{svc: svc} }

type loginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Login(in.Email, in.Name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	u, err := h.svc.Login(r.Context(), in.Email, in.Name)
	if err != nil {
		respond.WriteDomainError(w, r, err, "User not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]loginUser{
		"user": {ID: u.ID, Email: u.Email, Name: u.Name},
	})
}
