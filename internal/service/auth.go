// Account business logic.
//
// AccountService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AccountService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt), TokenService (JWT)
//
// KEY RESPONSIBILITIES:
//   - Signup: presence checks, email uniqueness, bcrypt hashing
//   - Login: verify the secret without revealing whether the email exists
//   - Issue a bearer token on both paths

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/repository"
)

// Client-facing messages. The browser UI shows these verbatim.
const (
	msgAllFieldsRequired = "All fields required"
	msgUserExists        = "User already exists"
	msgPasswordTooLong   = "Password must be 72 bytes or fewer"
)

// AccountService handles signup, login and profile lookup.
//
// DEPENDENCIES (injected via NewAccountService):
//   - users      repository.UserRepository  → read/write account records
//   - passwords  *auth.PasswordService      → bcrypt hashing and comparison
//   - tokens     *auth.TokenService         → issue JWTs
//   - logger     *slog.Logger               → structured logging
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService with all required dependencies.
func NewAccountService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// SignupInput carries the four signup fields exactly as the client sent them.
type SignupInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// AuthResult is returned by Signup and Login.
// It bundles the account record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup creates a new account.
//
// Presence means a non-empty string; values are stored as sent, without
// trimming or case folding. The lookup by email is a fast path for the
// common duplicate case; the unique index in the store settles concurrent
// signups, and CreateUser reports that loss as apperror.ErrDuplicate too.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperror.MissingFields(msgAllFieldsRequired)
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperror.Duplicate(msgUserExists)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/account: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", msgPasswordTooLong)
		}
		return nil, fmt.Errorf("service/account: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			s.logger.Info("signup lost email race", slog.String("email", in.Email))
			return nil, err
		}
		return nil, fmt.Errorf("service/account: creating user: %w", err)
	}

	s.logger.Info("account created",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issue(user)
}

// Login verifies email and password.
//
// An unknown email and a wrong password produce the same error. For unknown
// emails a comparison against a dummy hash still runs, so both paths cost one
// bcrypt evaluation.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/account: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// A stored hash bcrypt cannot parse. Still a failed login to the client.
			s.logger.Error("unusable password hash",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("login succeeded", slog.String("userID", user.ID))
	return s.issue(user)
}

// GetByID returns the account for the given ID.
//
// Used by the /api/me handler after the middleware has validated the token.
func (s *AccountService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AccountService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
