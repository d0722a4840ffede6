package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/task_manager/internal/auth"
	"github.com/Skotchmaster/task_manager/internal/events"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/models"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/search"
	"github.com/Skotchmaster/task_manager/internal/util"
)

type TaskService struct {
	Repo     *repo.GormRepo
	Searcher search.Searcher
	Events   events.Publisher
	Now      func() time.Time
}

func (s *TaskService) List(ctx context.Context, id auth.Identity) ([]models.Task, error) {
	return s.Repo.ListTasks(ctx, id.UserID)
}

// Create stores a new incomplete task owned by the caller. The owner always
// comes from the identity, never from the request.
func (s *TaskService) Create(ctx context.Context, id auth.Identity, title string) (*models.Task, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	task := models.Task{Title: title, OwnerID: id.UserID}
	if err := s.Repo.CreateTask(ctx, &task); err != nil {
		if errors.Is(err, repo.ErrOwnerMissing) {
			return nil, fmt.Errorf("owner %d does not exist: %w", id.UserID, ErrValidation)
		}
		return nil, err
	}

	s.afterWrite(ctx, events.TaskCreated, task)
	return &task, nil
}

// Update applies only the fields present in patch. Tasks owned by someone
// else are reported as ErrNotFound so their existence does not leak.
func (s *TaskService) Update(ctx context.Context, id auth.Identity, taskID uint, patch repo.TaskPatch) (*models.Task, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}

	if err := s.authorize(ctx, id, taskID); err != nil {
		return nil, err
	}

	task, err := s.Repo.UpdateTask(ctx, taskID, id.UserID, patch)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		return nil, err
	}

	s.afterWrite(ctx, events.TaskUpdated, *task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id auth.Identity, taskID uint) error {
	if err := s.authorize(ctx, id, taskID); err != nil {
		return err
	}

	if err := s.Repo.DeleteTask(ctx, taskID, id.UserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		return err
	}

	s.afterWrite(ctx, events.TaskDeleted, models.Task{ID: taskID, OwnerID: id.UserID})
	return nil
}

// Search pages through the caller's tasks whose title matches q.
func (s *TaskService) Search(ctx context.Context, id auth.Identity, q string, page, size int) (int64, []models.Task, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query must not be empty: %w", ErrValidation)
	}

	offset, limit := util.Calculate(page, size)
	return s.searcher().Search(ctx, id.UserID, q, offset, limit)
}

func (s *TaskService) authorize(ctx context.Context, id auth.Identity, taskID uint) error {
	l := logging.FromContext(ctx).With("svc", "tasks.authorize")

	task, err := s.Repo.FindTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		return err
	}

	if err := auth.AuthorizeOwns(id, task.OwnerID); err != nil {
		l.Warn("task_access_denied", "task_id", taskID, "user_id", id.UserID, "error", err)
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

func (s *TaskService) searcher() search.Searcher {
	if s.Searcher != nil {
		return s.Searcher
	}
	return &search.RepoSearcher{Repo: s.Repo}
}

// afterWrite keeps the search index and the event stream in step with a
// committed write. Failures are logged and never undo the write.
func (s *TaskService) afterWrite(ctx context.Context, kind string, task models.Task) {
	l := logging.FromContext(ctx)

	var err error
	if kind == events.TaskDeleted {
		err = s.searcher().Remove(ctx, task.ID)
	} else {
		err = s.searcher().Index(ctx, task)
	}
	if err != nil {
		l.Warn("search_index_failed", "task_id", task.ID, "type", kind, "error", err)
	}

	if s.Events == nil {
		return
	}
	ev := events.TaskEvent{
		Type:       kind,
		TaskID:     task.ID,
		OwnerID:    task.OwnerID,
		Title:      task.Title,
		Completed:  task.Completed,
		OccurredAt: s.now(),
	}
	key := strconv.FormatUint(uint64(task.OwnerID), 10)
	if err := s.Events.Publish(ctx, events.TopicTasks, key, ev); err != nil {
		l.Warn("event_publish_failed", "topic", events.TopicTasks, "type", kind, "error", err)
	}
}

func (s *TaskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title must not be empty: %w", ErrValidation)
	}
	return nil
}
