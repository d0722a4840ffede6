// Package search finds tasks by title within a single owner's tasks.
package search

import (
	"context"

	"github.com/Skotchmaster/task_manager/internal/models"
)

type Searcher interface {
	Index(ctx context.Context, task models.Task) error
	Remove(ctx context.Context, id uint) error
	Search(ctx context.Context, ownerID uint, q string, offset, limit int) (int64, []models.Task, error)
}

type taskFinder interface {
	SearchTasks(ctx context.Context, ownerID uint, q string, offset, limit int) (int64, []models.Task, error)
}

// RepoSearcher answers searches straight from the database. It keeps no
// index of its own.
type RepoSearcher struct {
	Repo taskFinder
}

func (s *RepoSearcher) Index(context.Context, models.Task) error { return nil }

func (s *RepoSearcher) Remove(context.Context, uint) error { return nil }

func (s *RepoSearcher) Search(ctx context.Context, ownerID uint, q string, offset, limit int) (int64, []models.Task, error) {
	return s.Repo.SearchTasks(ctx, ownerID, q, offset, limit)
}
