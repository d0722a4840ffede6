package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/models"
)

// TaskPatch carries the fields of an update; nil fields are left untouched.
type TaskPatch struct {
	Title     *string
	Completed *bool
}

func (p TaskPatch) columns() map[string]any {
	cols := make(map[string]any, 2)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Completed != nil {
		cols["completed"] = *p.Completed
	}
	return cols
}

func (r *GormRepo) ListTasks(ctx context.Context, ownerID uint) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	if err := r.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, task *models.Task) error {
	if err := r.DB.WithContext(ctx).Create(task).Error; err != nil {
		if isForeignKeyViolation(err) {
			return ErrOwnerMissing
		}
		return err
	}
	return nil
}

func (r *GormRepo) FindTask(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies patch to the task only when it belongs to ownerID and
// returns the stored row afterwards.
func (r *GormRepo) UpdateTask(ctx context.Context, id, ownerID uint, patch TaskPatch) (*models.Task, error) {
	var task models.Task
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		cols := patch.columns()
		if len(cols) == 0 {
			return nil
		}
		res := tx.Model(&models.Task{}).Where("id = ? AND owner_id = ?", id, ownerID).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		return tx.Where("id = ?", id).First(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormRepo) DeleteTask(ctx context.Context, id, ownerID uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchTasks matches q as a case-insensitive substring of the title within
// one owner's tasks.
func (r *GormRepo) SearchTasks(ctx context.Context, ownerID uint, q string, offset, limit int) (int64, []models.Task, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	base := r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("owner_id = ? AND LOWER(title) LIKE ? ESCAPE '\\'", ownerID, pattern).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	tasks := make([]models.Task, 0)
	if err := base.Order("id ASC").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return 0, nil, err
	}
	return total, tasks, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
