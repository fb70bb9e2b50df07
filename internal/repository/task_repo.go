package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// taskRepo implements TaskRepository using GORM.
type taskRepo struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting task by ID: %w", err)
	}
	return &task, nil
}

func (r *taskRepo) GetAll(ctx context.Context) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("getting all tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepo) GetPending(ctx context.Context) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := r.db.WithContext(ctx).
		Where("started_at IS NULL").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("getting pending tasks: %w", err)
	}
	return tasks, nil
}

// ClaimNextPending atomically marks the oldest pending task as started and
// returns it, so a single scheduler loop never hands the same task to two
// runs. The locking strategy differs by driver because SQLite has no
// SELECT ... FOR UPDATE SKIP LOCKED.
func (r *taskRepo) ClaimNextPending(ctx context.Context) (*models.Task, error) {
	switch r.db.Dialector.Name() {
	case "postgres", "mysql":
		return r.claimWithRowLocking(ctx)
	default:
		return r.claimSQLite(ctx)
	}
}

func (r *taskRepo) claimWithRowLocking(ctx context.Context) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("started_at IS NULL").
			Order("id ASC").
			First(&task).Error
		if err != nil {
			return err
		}
		task.MarkStarted()
		return tx.Model(&task).UpdateColumns(map[string]interface{}{
			"started_at": task.StartedAt,
			"updated_at": models.Now(),
		}).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("claiming next pending task: %w", err)
	}
	return &task, nil
}

// claimSQLite performs the claim in one transaction: it selects the oldest
// pending id, then marks it started with an UPDATE guarded by
// started_at IS NULL, since SQLite serializes writers and has no row
// locking primitive to piggyback on.
func (r *taskRepo) claimSQLite(ctx context.Context) (*models.Task, error) {
	var task models.Task
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var id uint64
		err := tx.Raw(
			`SELECT id FROM tasks WHERE started_at IS NULL AND deleted_at IS NULL ORDER BY id ASC LIMIT 1`,
		).Scan(&id).Error
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}

		now := models.Now()
		result := tx.Exec(`UPDATE tasks SET started_at = ?, updated_at = ? WHERE id = ? AND started_at IS NULL`, now, now, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claiming next pending task: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &task, nil
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

var _ TaskRepository = (*taskRepo)(nil)
