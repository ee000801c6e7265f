package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"pmo-bot/middleware"
	"pmo-bot/models"
	"pmo-bot/store"
	"strings"
)

type UserStore interface {
	UserLookup
	CreateUser(username, displayName, password string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	ValidatePassword(user *models.User, password string) bool
}

type AuthHandler struct {
	store UserStore
	auth  *middleware.Authenticator
}

func NewAuthHandler(s UserStore, auth *middleware.Authenticator) *AuthHandler {
	return &AuthHandler{store: s, auth: auth}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || strings.TrimSpace(req.DisplayName) == "" {
		http.Error(w, "Username, display name, and password are required", http.StatusBadRequest)
		return
	}

	if len(req.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	user, err := h.store.CreateUser(req.Username, req.DisplayName, req.Password)
	if errors.Is(err, store.ErrUsernameTaken) {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("[AUTH] register %s: %v", req.Username, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !h.store.ValidatePassword(user, req.Password) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	h.respondWithToken(w, user, http.StatusOK)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	user, err := h.store.GetUserByID(userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, user.ToResponse())
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user *models.User, status int) {
	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}
