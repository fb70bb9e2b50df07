package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
)

// profileRepo implements ProfileRepository using GORM.
type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}

func (r *profileRepo) GetByID(ctx context.Context, id uint64) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile by ID: %w", err)
	}
	return &profile, nil
}

// GetOrCreate returns the Profile for a (resolution class, container) pair,
// creating it the first time that combination is observed. Profiles are
// immutable once created, so this is the only write path.
func (r *profileRepo) GetOrCreate(ctx context.Context, class models.ResolutionClass, container models.Container) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "resolution_class = ? AND container = ?", class, container).Error
	if err == nil {
		return &profile, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("getting profile by class and container: %w", err)
	}

	profile = models.Profile{ResolutionClass: class, Container: container}
	if err := r.Create(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) GetAll(ctx context.Context) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("getting all profiles: %w", err)
	}
	return profiles, nil
}

var _ ProfileRepository = (*profileRepo)(nil)
