package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
)

// encodeProfileRepo implements EncodeProfileRepository using GORM.
type encodeProfileRepo struct {
	db *gorm.DB
}

// NewEncodeProfileRepository creates a new EncodeProfileRepository.
func NewEncodeProfileRepository(db *gorm.DB) EncodeProfileRepository {
	return &encodeProfileRepo{db: db}
}

func (r *encodeProfileRepo) Create(ctx context.Context, profile *models.EncodeProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("creating encode profile: %w", err)
	}
	return nil
}

func (r *encodeProfileRepo) GetByID(ctx context.Context, id uint64) (*models.EncodeProfile, error) {
	var profile models.EncodeProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting encode profile by ID: %w", err)
	}
	return &profile, nil
}

func (r *encodeProfileRepo) GetByName(ctx context.Context, name string) (*models.EncodeProfile, error) {
	var profile models.EncodeProfile
	if err := r.db.WithContext(ctx).First(&profile, "name = ?", name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting encode profile by name: %w", err)
	}
	return &profile, nil
}

func (r *encodeProfileRepo) GetAll(ctx context.Context) ([]*models.EncodeProfile, error) {
	var profiles []*models.EncodeProfile
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("getting all encode profiles: %w", err)
	}
	return profiles, nil
}

func (r *encodeProfileRepo) Update(ctx context.Context, profile *models.EncodeProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("updating encode profile: %w", err)
	}
	return nil
}

func (r *encodeProfileRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.EncodeProfile{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting encode profile: %w", err)
	}
	return nil
}

var _ EncodeProfileRepository = (*encodeProfileRepo)(nil)
