package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loggingmw "github.com/Skotchmaster/task_manager/internal/middleware/logging"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

type fakeUsers map[uint]string

func (f fakeUsers) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	name, ok := f[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &models.User{ID: id, Name: name}, nil
}

type brokenUsers struct{}

func (brokenUsers) FindUserByID(context.Context, uint) (*models.User, error) {
	return nil, errors.New("db down")
}

func newGate(t *testing.T) (*Gate, *tokens.Manager) {
	t.Helper()
	m := tokens.NewManager([]byte("gate-secret"), time.Hour)
	return NewGate(m, fakeUsers{1: "alice", 2: "bob"}), m
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	g, m := newGate(t)
	ctx := context.Background()

	aliceToken, _, err := m.Issue(1, time.Hour)
	require.NoError(t, err)
	goneToken, _, err := m.Issue(99, time.Hour)
	require.NoError(t, err)
	expiredToken, _, err := m.Issue(1, -time.Minute)
	require.NoError(t, err)
	foreignToken, _, err := tokens.NewManager([]byte("other"), time.Hour).Issue(1, time.Hour)
	require.NoError(t, err)

	id, err := g.Authenticate(ctx, aliceToken)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 1, Name: "alice"}, id)

	tests := []struct {
		name  string
		token string
		cause error
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "abc", cause: tokens.ErrMalformed},
		{name: "expired", token: expiredToken, cause: tokens.ErrExpired},
		{name: "wrong secret", token: foreignToken, cause: tokens.ErrInvalidSignature},
		{name: "subject gone", token: goneToken},
	}
	for _, tt := range tests {
		_, err := g.Authenticate(ctx, tt.token)
		assert.ErrorIs(t, err, ErrUnauthenticated, tt.name)
		if tt.cause != nil {
			assert.ErrorIs(t, err, tt.cause, tt.name)
		}
	}
}

func TestAuthenticate_LookupFailureIsNotUnauthenticated(t *testing.T) {
	t.Parallel()

	m := tokens.NewManager([]byte("gate-secret"), time.Hour)
	g := NewGate(m, brokenUsers{})
	token, _, err := m.Issue(1, time.Hour)
	require.NoError(t, err)

	_, err = g.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeOwns(t *testing.T) {
	t.Parallel()

	alice := Identity{UserID: 1, Name: "alice"}
	assert.NoError(t, AuthorizeOwns(alice, 1))
	assert.ErrorIs(t, AuthorizeOwns(alice, 2), ErrForbidden)
	assert.ErrorIs(t, AuthorizeOwns(Identity{}, 0), ErrForbidden)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{header: "bearer abc", want: "abc", ok: true},
		{header: "BEARER   abc  ", want: "abc", ok: true},
		{header: "", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer ", ok: false},
		{header: "Basic dXNlcjpwYXNz", ok: false},
		{header: "abc.def.ghi", ok: false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	g, m := newGate(t)
	token, _, err := m.Issue(2, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/private", func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		assert.Equal(t, id.UserID, c.Get(loggingmw.UserIDKey))
		return c.String(http.StatusOK, id.Name)
	}, g.RequireAuth)

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := do("Bearer " + token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", rec.Body.String())

	for _, header := range []string{"", "Bearer nope", "Token " + token} {
		rec := do(header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate), header)
	}
}
