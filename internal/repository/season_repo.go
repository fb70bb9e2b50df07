package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
)

// seasonRepo implements SeasonRepository using GORM.
type seasonRepo struct {
	db *gorm.DB
}

// NewSeasonRepository creates a new SeasonRepository.
func NewSeasonRepository(db *gorm.DB) SeasonRepository {
	return &seasonRepo{db: db}
}

func (r *seasonRepo) Create(ctx context.Context, season *models.Season) error {
	if err := r.db.WithContext(ctx).Create(season).Error; err != nil {
		return fmt.Errorf("creating season: %w", err)
	}
	return nil
}

func (r *seasonRepo) GetByID(ctx context.Context, id uint64) (*models.Season, error) {
	var season models.Season
	if err := r.db.WithContext(ctx).First(&season, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting season by ID: %w", err)
	}
	return &season, nil
}

func (r *seasonRepo) GetByShowAndNumber(ctx context.Context, showID uint64, number int) (*models.Season, error) {
	var season models.Season
	if err := r.db.WithContext(ctx).First(&season, "show_id = ? AND number = ?", showID, number).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting season by show and number: %w", err)
	}
	return &season, nil
}

// GetOrCreate looks up a season by (show, number), creating it when the
// ingestion pipeline encounters this season for the first time.
func (r *seasonRepo) GetOrCreate(ctx context.Context, showID uint64, number int) (*models.Season, error) {
	season, err := r.GetByShowAndNumber(ctx, showID, number)
	if err != nil {
		return nil, err
	}
	if season != nil {
		return season, nil
	}

	season = &models.Season{ShowID: showID, Number: number}
	if err := r.Create(ctx, season); err != nil {
		return nil, err
	}
	return season, nil
}

func (r *seasonRepo) GetByShowID(ctx context.Context, showID uint64) ([]*models.Season, error) {
	var seasons []*models.Season
	if err := r.db.WithContext(ctx).Where("show_id = ?", showID).Order("number ASC").Find(&seasons).Error; err != nil {
		return nil, fmt.Errorf("getting seasons by show ID: %w", err)
	}
	return seasons, nil
}

func (r *seasonRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Season{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting season: %w", err)
	}
	return nil
}

var _ SeasonRepository = (*seasonRepo)(nil)
