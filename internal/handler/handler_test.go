package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/handler"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/service"
)

// =========================================================================
// MOCKS
// =========================================================================

type mockAccounts struct {
	gotSignup service.SignupInput
	gotEmail  string
	gotPass   string
	result    *service.AuthResult
	user      *model.User
	err       error
}

func (m *mockAccounts) Signup(_ context.Context, in service.SignupInput) (*service.AuthResult, error) {
	m.gotSignup = in
	return m.result, m.err
}

func (m *mockAccounts) Login(_ context.Context, email, password string) (*service.AuthResult, error) {
	m.gotEmail, m.gotPass = email, password
	return m.result, m.err
}

func (m *mockAccounts) GetByID(_ context.Context, _ string) (*model.User, error) {
	return m.user, m.err
}

type mockNotes struct {
	gotCaller string
	gotArgs   []string
	note      *model.Note
	notes     []model.Note
	err       error
}

func (m *mockNotes) Create(_ context.Context, caller, title, description, userID string) (*model.Note, error) {
	m.gotCaller, m.gotArgs = caller, []string{title, description, userID}
	return m.note, m.err
}

func (m *mockNotes) ListByOwner(_ context.Context, caller, userID string) ([]model.Note, error) {
	m.gotCaller, m.gotArgs = caller, []string{userID}
	return m.notes, m.err
}

func (m *mockNotes) Delete(_ context.Context, caller, id string) error {
	m.gotCaller, m.gotArgs = caller, []string{id}
	return m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newRouter mounts the handlers on the same paths the server uses.
func newRouter(accounts handler.AccountService, notes handler.NoteService) http.Handler {
	logger := testLogger()
	ah := handler.NewAuthHandler(accounts, logger)
	nh := handler.NewNoteHandler(notes, logger)

	r := chi.NewRouter()
	r.Post("/api/signup", ah.HandleSignup)
	r.Post("/api/login", ah.HandleLogin)
	r.Get("/api/me", ah.HandleMe)
	r.Post("/api/notes", nh.HandleCreate)
	r.Get("/api/notes/{userId}", nh.HandleList)
	r.Delete("/api/notes/{id}", nh.HandleDelete)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body, caller string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), caller))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

// =========================================================================
// AUTH HANDLER
// =========================================================================

func TestHandleSignup(t *testing.T) {
	accounts := &mockAccounts{result: &service.AuthResult{
		User:  &model.User{ID: "u1", Username: "ann"},
		Token: "tok",
	}}
	h := newRouter(accounts, &mockNotes{})

	rr := do(t, h, http.MethodPost, "/api/signup",
		`{"name":"Ann","username":"ann","email":"a@x.com","password":"pw1"}`, "")

	require.Equal(t, http.StatusOK, rr.Code)
	var body handler.AuthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, handler.AuthResponse{Message: "Signup successful", UserID: "u1", Username: "ann", Token: "tok"}, body)
	assert.Equal(t, service.SignupInput{Name: "Ann", Username: "ann", Email: "a@x.com", Password: "pw1"}, accounts.gotSignup)
}

func TestHandleSignup_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{"malformed json", `{"name":`, nil, http.StatusBadRequest, "validation_error", "Invalid JSON body"},
		{"wrong type", `{"name":42}`, nil, http.StatusBadRequest, "validation_error", "Invalid JSON body"},
		{"trailing data", `{"name":"Ann"} trailing`, nil, http.StatusBadRequest, "validation_error", "Invalid JSON body"},
		{"two values", `{"name":"Ann"}{"name":"Bob"}`, nil, http.StatusBadRequest, "validation_error", "Invalid JSON body"},
		{"missing fields", `{}`, apperror.MissingFields("All fields required"), http.StatusBadRequest, "validation_error", "All fields required"},
		{"duplicate", `{}`, apperror.Duplicate("User already exists"), http.StatusBadRequest, "duplicate", "User already exists"},
		{"store down", `{}`, apperror.Unavailable("Database unavailable", errors.New("refused")), http.StatusServiceUnavailable, "unavailable", "Database unavailable"},
		{"unclassified", `{}`, errors.New("pq: syntax error at SELECT"), http.StatusInternalServerError, "internal_error", "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(&mockAccounts{err: tt.err}, &mockNotes{})

			rr := do(t, h, http.MethodPost, "/api/signup", tt.body, "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestHandleSignup_EmptyBodyReadsAsEmptyObject(t *testing.T) {
	accounts := &mockAccounts{
		gotSignup: service.SignupInput{Name: "stale"},
		err:       apperror.MissingFields("All fields required"),
	}
	h := newRouter(accounts, &mockNotes{})

	rr := do(t, h, http.MethodPost, "/api/signup", "", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "All fields required", decodeError(t, rr).Message)
	assert.Equal(t, service.SignupInput{}, accounts.gotSignup, "service must be called with zero input")
}

func TestHandleSignup_TrailingDataNeverReachesService(t *testing.T) {
	accounts := &mockAccounts{result: &service.AuthResult{User: &model.User{ID: "u1"}}}
	h := newRouter(accounts, &mockNotes{})

	rr := do(t, h, http.MethodPost, "/api/signup",
		`{"name":"Ann","username":"ann","email":"a@x.com","password":"pw1"} trailing`, "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, accounts.gotSignup.Email)
}

func TestHandleLogin(t *testing.T) {
	accounts := &mockAccounts{result: &service.AuthResult{
		User:  &model.User{ID: "u1", Username: "ann"},
		Token: "tok",
	}}
	h := newRouter(accounts, &mockNotes{})

	rr := do(t, h, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"pw1"}`, "")

	require.Equal(t, http.StatusOK, rr.Code)
	var body handler.AuthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Login successful", body.Message)
	assert.Equal(t, "u1", body.UserID)
	assert.Equal(t, "a@x.com", accounts.gotEmail)
	assert.Equal(t, "pw1", accounts.gotPass)
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	h := newRouter(&mockAccounts{err: apperror.InvalidCredentials()}, &mockNotes{})

	rr := do(t, h, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"bad"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid credentials", decodeError(t, rr).Message)
}

func TestHandleLogin_EmptyBody(t *testing.T) {
	accounts := &mockAccounts{gotEmail: "stale", err: apperror.InvalidCredentials()}
	h := newRouter(accounts, &mockNotes{})

	rr := do(t, h, http.MethodPost, "/api/login", "", "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid_credentials", decodeError(t, rr).Error)
	assert.Empty(t, accounts.gotEmail)
	assert.Empty(t, accounts.gotPass)
}

func TestHandleMe(t *testing.T) {
	user := &model.User{ID: "u1", Name: "Ann", Username: "ann", Email: "a@x.com", PasswordHash: "$2a$secret"}
	h := newRouter(&mockAccounts{user: user}, &mockNotes{})

	t.Run("with caller", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/me", "", "u1")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret", "password hash must never be serialized")
		assert.Contains(t, rr.Body.String(), `"email":"a@x.com"`)
	})

	t.Run("without caller", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

// =========================================================================
// NOTE HANDLER
// =========================================================================

func TestHandleCreateNote(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	notes := &mockNotes{note: &model.Note{
		ID: "n1", Title: "T", Description: "D", UserID: "u1", CreatedAt: created, UpdatedAt: created,
	}}
	h := newRouter(&mockAccounts{}, notes)

	rr := do(t, h, http.MethodPost, "/api/notes", `{"title":"T","description":"D","userId":"u1"}`, "u1")

	require.Equal(t, http.StatusCreated, rr.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "n1", body["_id"])
	assert.Equal(t, "u1", body["userId"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["createdAt"])
	assert.Equal(t, "u1", notes.gotCaller)
	assert.Equal(t, []string{"T", "D", "u1"}, notes.gotArgs)
}

func TestHandleCreateNote_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing", apperror.MissingFields("Missing fields"), http.StatusBadRequest},
		{"forbidden", apperror.Forbidden("You can only access your own notes"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(&mockAccounts{}, &mockNotes{err: tt.err})
			rr := do(t, h, http.MethodPost, "/api/notes", `{}`, "")
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestHandleCreateNote_BodyShapes(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		notes := &mockNotes{err: apperror.MissingFields("Missing fields")}
		h := newRouter(&mockAccounts{}, notes)

		rr := do(t, h, http.MethodPost, "/api/notes", "", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Missing fields", decodeError(t, rr).Message)
		assert.Equal(t, []string{"", "", ""}, notes.gotArgs)
	})

	t.Run("trailing data", func(t *testing.T) {
		notes := &mockNotes{note: &model.Note{ID: "n1"}}
		h := newRouter(&mockAccounts{}, notes)

		rr := do(t, h, http.MethodPost, "/api/notes", `{"title":"T","description":"D","userId":"u1"} trailing`, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid JSON body", decodeError(t, rr).Message)
		assert.Nil(t, notes.gotArgs, "service must not be called")
	})

	t.Run("trailing whitespace", func(t *testing.T) {
		notes := &mockNotes{note: &model.Note{ID: "n1"}}
		h := newRouter(&mockAccounts{}, notes)

		rr := do(t, h, http.MethodPost, "/api/notes", "{\"title\":\"T\",\"description\":\"D\",\"userId\":\"u1\"}\n  ", "")

		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestHandleListNotes(t *testing.T) {
	notes := &mockNotes{notes: []model.Note{{ID: "n2"}, {ID: "n1"}}}
	h := newRouter(&mockAccounts{}, notes)

	rr := do(t, h, http.MethodGet, "/api/notes/u1", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var body []model.Note
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body, 2)
	assert.Equal(t, "n2", body[0].ID)
	assert.Equal(t, []string{"u1"}, notes.gotArgs)
	assert.Empty(t, notes.gotCaller)
}

func TestHandleListNotes_EmptyIsArray(t *testing.T) {
	h := newRouter(&mockAccounts{}, &mockNotes{notes: []model.Note{}})

	rr := do(t, h, http.MethodGet, "/api/notes/u1", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHandleDeleteNote(t *testing.T) {
	notes := &mockNotes{}
	h := newRouter(&mockAccounts{}, notes)

	rr := do(t, h, http.MethodDelete, "/api/notes/n1", "", "u1")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Note deleted"}`, rr.Body.String())
	assert.Equal(t, []string{"n1"}, notes.gotArgs)
	assert.Equal(t, "u1", notes.gotCaller)
}

func TestHandleDeleteNote_Forbidden(t *testing.T) {
	h := newRouter(&mockAccounts{}, &mockNotes{err: apperror.Forbidden("You can only access your own notes")})

	rr := do(t, h, http.MethodDelete, "/api/notes/n1", "", "u2")

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "forbidden", decodeError(t, rr).Error)
}

// =========================================================================
// HEALTH
// =========================================================================

func TestHandleHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := handler.NewHealthHandler(mockPinger{}, testLogger())
		rr := httptest.NewRecorder()
		h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		h := handler.NewHealthHandler(mockPinger{err: errors.New("down")}, testLogger())
		rr := httptest.NewRecorder()
		h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "unavailable", decodeError(t, rr).Error)
	})
}
