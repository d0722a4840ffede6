package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/task_manager/internal/db/dbtest"
	"github.com/Skotchmaster/task_manager/internal/hash"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

type published struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type recordingSearcher struct {
	indexed []uint
	removed []uint
	err     error
}

func (s *recordingSearcher) Index(_ context.Context, task models.Task) error {
	s.indexed = append(s.indexed, task.ID)
	return s.err
}

func (s *recordingSearcher) Remove(_ context.Context, id uint) error {
	s.removed = append(s.removed, id)
	return s.err
}

func (s *recordingSearcher) Search(context.Context, uint, string, int, int) (int64, []models.Task, error) {
	return 0, nil, errors.New("not used")
}

type fixture struct {
	repo   *repo.GormRepo
	auth   *AuthService
	tasks  *TaskService
	events *recordingPublisher
	tokens *tokens.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := repo.New(dbtest.Open(t))
	pub := &recordingPublisher{}
	tm := tokens.NewManager([]byte("test-jwt-secret"), 30*time.Minute)
	fixed := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	return &fixture{
		repo: r,
		auth: &AuthService{
			Repo:   r,
			Hasher: hash.New(bcrypt.MinCost),
			Tokens: tm,
			Events: pub,
			Now:    fixed,
		},
		tasks: &TaskService{
			Repo:   r,
			Events: pub,
			Now:    fixed,
		},
		events: pub,
		tokens: tm,
	}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), name, name+"-password")
	require.NoError(t, err)
	return u
}
