package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// rejectedFileRepo implements RejectedFileRepository using GORM.
type rejectedFileRepo struct {
	db *gorm.DB
}

// NewRejectedFileRepository creates a new RejectedFileRepository.
func NewRejectedFileRepository(db *gorm.DB) RejectedFileRepository {
	return &rejectedFileRepo{db: db}
}

func (r *rejectedFileRepo) Create(ctx context.Context, rf *models.RejectedFile) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason", "updated_at"}),
		}).Create(rf).Error; err != nil {
		return fmt.Errorf("creating rejected file: %w", err)
	}
	return nil
}

// CreateInBatches records a batch of rejected paths from a single ingestion
// pass. Set semantics: a path rejected again overwrites its reason rather
// than erroring on the unique path constraint.
func (r *rejectedFileRepo) CreateInBatches(ctx context.Context, rfs []*models.RejectedFile, batchSize int) error {
	if len(rfs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason", "updated_at"}),
		}).CreateInBatches(rfs, batchSize).Error; err != nil {
		return fmt.Errorf("creating rejected files in batches: %w", err)
	}
	return nil
}

func (r *rejectedFileRepo) GetByPath(ctx context.Context, path string) (*models.RejectedFile, error) {
	var rf models.RejectedFile
	if err := r.db.WithContext(ctx).First(&rf, "path = ?", path).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting rejected file by path: %w", err)
	}
	return &rf, nil
}

func (r *rejectedFileRepo) GetAll(ctx context.Context) ([]*models.RejectedFile, error) {
	var rfs []*models.RejectedFile
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rfs).Error; err != nil {
		return nil, fmt.Errorf("getting all rejected files: %w", err)
	}
	return rfs, nil
}

func (r *rejectedFileRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.RejectedFile{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting rejected file: %w", err)
	}
	return nil
}

var _ RejectedFileRepository = (*rejectedFileRepo)(nil)
