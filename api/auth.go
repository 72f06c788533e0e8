package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mkarpis/jobtrail/internal/token"
	"github.com/mkarpis/jobtrail/pkg/models"
	"github.com/mkarpis/jobtrail/pkg/repository"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	userRepo repository.UserRepo
	issuer   *token.Issuer
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, issuer *token.Issuer) *AuthHandler {
	return &AuthHandler{userRepo: ur, issuer: issuer}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	ctx := r.Context()

	existing, err := h.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		logger.Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Created:      time.Now().UTC().UnixMilli(),
		PasswordHash: string(hash),
	}
	userID, err := h.userRepo.CreateUser(ctx, &user)
	if err != nil {
		logger.Error("create user", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	tokenStr, err := h.issuer.Issue(userID, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"token": tokenStr})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	user, err := h.userRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		logger.Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if user == nil {
		// the login surface uses "message" instead of "msg"; kept for the
		// deployed frontend
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}

	tokenStr, err := h.issuer.Issue(user.ID, user.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"token": tokenStr})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	user, err := h.userRepo.GetUserByID(r.Context(), ident.UserID)
	if err != nil {
		logger.Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": user})
}
