package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"pmo-bot/middleware"
	"pmo-bot/models"
	"pmo-bot/store"
)

type UserDirectory interface {
	UserLookup
	GetAllUsers() ([]models.User, error)
	UpdateUserDisplayName(userID, displayName string) error
}

// UserHandler serves the team roster. The display name set here is the name
// the bot records on reminders and acknowledgments.
type UserHandler struct {
	store UserDirectory
}

func NewUserHandler(s UserDirectory) *UserHandler {
	return &UserHandler{store: s}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.GetAllUsers()
	if err != nil {
		log.Printf("[AUTH] list users: %v", err)
		http.Error(w, "Failed to fetch users", http.StatusInternalServerError)
		return
	}

	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	writeJSON(w, responses)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		http.Error(w, "User ID required", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, user.ToResponse())
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req struct {
		DisplayName *string `json:"display_name,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			http.Error(w, "Display name cannot be empty", http.StatusBadRequest)
			return
		}
		err := h.store.UpdateUserDisplayName(userID, name)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("[AUTH] rename %s: %v", userID, err)
			http.Error(w, "Failed to update display name", http.StatusInternalServerError)
			return
		}
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, user.ToResponse())
}
