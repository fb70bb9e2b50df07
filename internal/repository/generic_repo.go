package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
)

// genericRepo implements GenericRepository using GORM.
type genericRepo struct {
	db *gorm.DB
}

// NewGenericRepository creates a new GenericRepository.
func NewGenericRepository(db *gorm.DB) GenericRepository {
	return &genericRepo{db: db}
}

func (r *genericRepo) Create(ctx context.Context, generic *models.Generic) error {
	if err := r.db.WithContext(ctx).Create(generic).Error; err != nil {
		return fmt.Errorf("creating generic: %w", err)
	}
	return nil
}

func (r *genericRepo) GetByID(ctx context.Context, id uint64) (*models.Generic, error) {
	var generic models.Generic
	if err := r.db.WithContext(ctx).First(&generic, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting generic by ID: %w", err)
	}
	return &generic, nil
}

func (r *genericRepo) GetByIDWithFileVersions(ctx context.Context, id uint64) (*models.Generic, error) {
	var generic models.Generic
	if err := r.db.WithContext(ctx).Preload("FileVersions").First(&generic, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting generic with file versions: %w", err)
	}
	return &generic, nil
}

func (r *genericRepo) GetAll(ctx context.Context) ([]*models.Generic, error) {
	var generics []*models.Generic
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&generics).Error; err != nil {
		return nil, fmt.Errorf("getting all generics: %w", err)
	}
	return generics, nil
}

func (r *genericRepo) GetByDesignation(ctx context.Context, designation models.Designation) ([]*models.Generic, error) {
	var generics []*models.Generic
	if err := r.db.WithContext(ctx).Where("designation = ?", designation).Order("id ASC").Find(&generics).Error; err != nil {
		return nil, fmt.Errorf("getting generics by designation: %w", err)
	}
	return generics, nil
}

func (r *genericRepo) Update(ctx context.Context, generic *models.Generic) error {
	if err := r.db.WithContext(ctx).Save(generic).Error; err != nil {
		return fmt.Errorf("updating generic: %w", err)
	}
	return nil
}

func (r *genericRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Generic{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting generic: %w", err)
	}
	return nil
}

var _ GenericRepository = (*genericRepo)(nil)
