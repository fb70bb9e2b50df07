package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fileVersionRepo implements FileVersionRepository using GORM.
type fileVersionRepo struct {
	db *gorm.DB
}

// NewFileVersionRepository creates a new FileVersionRepository.
func NewFileVersionRepository(db *gorm.DB) FileVersionRepository {
	return &fileVersionRepo{db: db}
}

func (r *fileVersionRepo) Create(ctx context.Context, fv *models.FileVersion) error {
	if err := r.db.WithContext(ctx).Create(fv).Error; err != nil {
		return fmt.Errorf("creating file version: %w", err)
	}
	return nil
}

// CreateInBatches inserts file versions discovered during ingestion, skipping
// any whose path is already stored rather than erroring the whole
// batch on the first duplicate.
func (r *fileVersionRepo) CreateInBatches(ctx context.Context, fvs []*models.FileVersion, batchSize int) error {
	if len(fvs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "path"}}, DoNothing: true}).
		CreateInBatches(fvs, batchSize).Error; err != nil {
		return fmt.Errorf("creating file versions in batches: %w", err)
	}
	return nil
}

func (r *fileVersionRepo) GetByID(ctx context.Context, id uint64) (*models.FileVersion, error) {
	var fv models.FileVersion
	if err := r.db.WithContext(ctx).First(&fv, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting file version by ID: %w", err)
	}
	return &fv, nil
}

func (r *fileVersionRepo) GetByPath(ctx context.Context, path string) (*models.FileVersion, error) {
	var fv models.FileVersion
	if err := r.db.WithContext(ctx).First(&fv, "path = ?", path).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting file version by path: %w", err)
	}
	return &fv, nil
}

func (r *fileVersionRepo) GetByGenericID(ctx context.Context, genericID uint64) ([]*models.FileVersion, error) {
	var fvs []*models.FileVersion
	if err := r.db.WithContext(ctx).
		Where("generic_id = ?", genericID).
		Order("master DESC, id ASC").
		Find(&fvs).Error; err != nil {
		return nil, fmt.Errorf("getting file versions by generic ID: %w", err)
	}
	return fvs, nil
}

// GetMastersMissingHash returns master FileVersions with hash = none, the
// working set for the Hash task.
func (r *fileVersionRepo) GetMastersMissingHash(ctx context.Context) ([]*models.FileVersion, error) {
	var fvs []*models.FileVersion
	if err := r.db.WithContext(ctx).
		Where("master = ? AND hash IS NULL", true).
		Order("id ASC").
		Find(&fvs).Error; err != nil {
		return nil, fmt.Errorf("getting masters missing hash: %w", err)
	}
	return fvs, nil
}

// GetMastersMissingProfile returns master FileVersions with profile = none,
// the working set for the GenerateProfiles task.
func (r *fileVersionRepo) GetMastersMissingProfile(ctx context.Context) ([]*models.FileVersion, error) {
	var fvs []*models.FileVersion
	if err := r.db.WithContext(ctx).
		Where("master = ? AND resolution_class IS NULL", true).
		Order("id ASC").
		Find(&fvs).Error; err != nil {
		return nil, fmt.Errorf("getting masters missing profile: %w", err)
	}
	return fvs, nil
}

func (r *fileVersionRepo) Update(ctx context.Context, fv *models.FileVersion) error {
	if err := r.db.WithContext(ctx).Save(fv).Error; err != nil {
		return fmt.Errorf("updating file version: %w", err)
	}
	return nil
}

func (r *fileVersionRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.FileVersion{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting file version: %w", err)
	}
	return nil
}

var _ FileVersionRepository = (*fileVersionRepo)(nil)
