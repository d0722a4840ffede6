// Package auth turns a bearer token into a caller identity and decides
// whether that identity may touch a given resource.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/repo"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Verifier interface {
	Verify(token string) (uint, error)
}

type UserLookup interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Identity is the authenticated caller.
type Identity struct {
	UserID uint
	Name   string
}

type Gate struct {
	Tokens Verifier
	Users  UserLookup
}

func NewGate(tokens Verifier, users UserLookup) *Gate {
	return &Gate{Tokens: tokens, Users: users}
}

// Authenticate verifies token and resolves its subject. Every token failure
// and a subject that no longer exists collapse into ErrUnauthenticated; the
// underlying reason stays in the wrapped chain for logging only.
func (g *Gate) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	userID, err := g.Tokens.Verify(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if g.Users == nil {
		return Identity{UserID: userID}, nil
	}
	user, err := g.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Identity{}, fmt.Errorf("%w: subject %d gone", ErrUnauthenticated, userID)
		}
		return Identity{}, fmt.Errorf("lookup subject: %w", err)
	}
	return Identity{UserID: user.ID, Name: user.Name}, nil
}

func AuthorizeOwns(id Identity, ownerID uint) error {
	if id.UserID == 0 || id.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}
