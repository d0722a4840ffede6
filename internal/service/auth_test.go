package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/events"
)

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Name)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "pw1")

	stored, err := f.auth.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)

	evs := f.events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TopicUsers, evs[0].Topic)
	ev := evs[0].Event.(events.UserEvent)
	assert.Equal(t, events.UserRegistered, ev.Type)
	assert.Equal(t, user.ID, ev.UserID)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, "alice", "another")
	assert.ErrorIs(t, err, ErrDuplicateName)

	stored, err := f.auth.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.PasswordHash, stored.PasswordHash)
}

func TestAuthService_Register_ConcurrentSameName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.auth.Register(ctx, "carol", "pw")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateName)
	}
	assert.Equal(t, 1, ok)
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name, username, password string
	}{
		{name: "empty name", username: "", password: "pw"},
		{name: "blank name", username: "   ", password: "pw"},
		{name: "empty password", username: "dave", password: ""},
		{name: "password over 72 bytes", username: "erin", password: strings.Repeat("x", 73)},
	}
	for _, tt := range tests {
		_, err := f.auth.Register(ctx, tt.username, tt.password)
		assert.ErrorIs(t, err, ErrValidation, tt.name)
	}
	assert.Empty(t, f.events.all())
}

func TestAuthService_Register_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	user, err := f.auth.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
}

func TestAuthService_FindByName_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.FindByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.UserID)
	require.NotEmpty(t, res.AccessToken)

	subject, err := f.tokens.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	evs := f.events.all()
	require.Len(t, evs, 2)
	assert.Equal(t, events.UserLoggedIn, evs[1].Event.(events.UserEvent).Type)
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	tests := []struct {
		name, username, password string
	}{
		{name: "wrong password", username: "alice", password: "wrong"},
		{name: "case differs", username: "alice", password: "PW1"},
		{name: "empty password", username: "alice", password: ""},
		{name: "unknown user", username: "nobody", password: "pw1"},
		{name: "name case differs", username: "Alice", password: "pw1"},
	}
	for _, tt := range tests {
		res, err := f.auth.Login(ctx, tt.username, tt.password)
		assert.Nil(t, res, tt.name)
		assert.ErrorIs(t, err, ErrInvalidCredentials, tt.name)
		assert.Equal(t, ErrInvalidCredentials.Error(), err.Error(), tt.name)
	}
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice")

	got, err := f.auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	_, err = f.auth.Me(ctx, user.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthService_Login_RejectsSuffixPastBcryptLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	password := strings.Repeat("a", 72)
	_, err := f.auth.Register(ctx, "alice", password)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "alice", password)
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, "alice", password+"x")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
