package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/service"
)

// AccountService is the subset of *service.AccountService the handler uses.
type AccountService interface {
	Signup(ctx context.Context, in service.SignupInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler serves signup, login and the current-account profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup → create an account, return its ID and a token
//   - HandleLogin  → verify credentials, return the ID and a token
//   - HandleMe     → return the profile of the token's account
type AuthHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAuthHandler(accounts AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both signup and login. The UI keeps userId
// and sends it back on note calls; token is optional for clients that
// do not use it.
type AuthResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// HandleSignup creates an account.
//
// HTTP: POST /api/signup
// REQUEST BODY: {"name":"Ann","username":"ann","email":"a@x.com","password":"pw1"}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.accounts.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message:  "Signup successful",
		UserID:   res.User.ID,
		Username: res.User.Username,
		Token:    res.Token,
	})
}

// HandleLogin verifies credentials.
//
// HTTP: POST /api/login
// REQUEST BODY: {"email":"a@x.com","password":"pw1"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message:  "Login successful",
		UserID:   res.User.ID,
		Username: res.User.Username,
		Token:    res.Token,
	})
}

// HandleMe returns the currently authenticated account's profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Only reachable if the route is mounted without RequireAuth.
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.accounts.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
