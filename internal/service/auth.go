package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/task_manager/internal/events"
	"github.com/Skotchmaster/task_manager/internal/hash"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Hasher *hash.Hasher
	Tokens *tokens.Manager
	Events events.Publisher
	Now    func() time.Time
}

type LoginResult struct {
	UserID      uint
	AccessToken string
	AccessExp   time.Time
}

func (h *AuthService) Register(ctx context.Context, name, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name must not be empty: %w", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("password must not be empty: %w", ErrValidation)
	}

	pwHash, err := h.Hasher.Hash(password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, fmt.Errorf("password longer than 72 bytes: %w", ErrValidation)
		}
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{Name: name, PasswordHash: pwHash}
	if err := h.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicateName) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("user %q: %w", name, ErrDuplicateName)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	h.publish(ctx, events.UserEvent{Type: events.UserRegistered, UserID: user.ID, Name: user.Name, OccurredAt: h.now()})
	l.Info("register_successful", "user_id", user.ID)
	return &user, nil
}

func (h *AuthService) FindByName(ctx context.Context, name string) (*models.User, error) {
	user, err := h.Repo.FindUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (h *AuthService) Me(ctx context.Context, id uint) (*models.User, error) {
	user, err := h.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// Login checks the password and issues an access token. Unknown names and
// wrong passwords return the same ErrInvalidCredentials, and an unknown name
// still pays for one bcrypt comparison.
func (h *AuthService) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := h.FindByName(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.Error("login_failed", "status", 500, "error", err)
			return nil, err
		}
		h.Hasher.Verify(password, h.Hasher.Dummy())
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return nil, ErrInvalidCredentials
	}

	if !h.Hasher.Verify(password, user.PasswordHash) {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	accessToken, accessExp, err := h.Tokens.Issue(user.ID, h.Tokens.TTL())
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	h.publish(ctx, events.UserEvent{Type: events.UserLoggedIn, UserID: user.ID, Name: user.Name, OccurredAt: h.now()})
	l.Info("login_successful", "user_id", user.ID)
	return &LoginResult{
		UserID:      user.ID,
		AccessToken: accessToken,
		AccessExp:   accessExp,
	}, nil
}

func (h *AuthService) publish(ctx context.Context, ev events.UserEvent) {
	if h.Events == nil {
		return
	}
	key := strconv.FormatUint(uint64(ev.UserID), 10)
	if err := h.Events.Publish(ctx, events.TopicUsers, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicUsers, "type", ev.Type, "error", err)
	}
}

func (h *AuthService) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}
