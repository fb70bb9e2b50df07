package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
)

// episodeRepo implements EpisodeRepository using GORM.
type episodeRepo struct {
	db *gorm.DB
}

// NewEpisodeRepository creates a new EpisodeRepository.
func NewEpisodeRepository(db *gorm.DB) EpisodeRepository {
	return &episodeRepo{db: db}
}

func (r *episodeRepo) Create(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Create(episode).Error; err != nil {
		return fmt.Errorf("creating episode: %w", err)
	}
	return nil
}

func (r *episodeRepo) GetByID(ctx context.Context, id uint64) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).First(&episode, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting episode by ID: %w", err)
	}
	return &episode, nil
}

func (r *episodeRepo) GetBySeasonAndNumber(ctx context.Context, seasonID uint64, number int) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).First(&episode, "season_id = ? AND number = ?", seasonID, number).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting episode by season and number: %w", err)
	}
	return &episode, nil
}

func (r *episodeRepo) GetByGenericID(ctx context.Context, genericID uint64) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).First(&episode, "generic_id = ?", genericID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting episode by generic ID: %w", err)
	}
	return &episode, nil
}

func (r *episodeRepo) GetBySeasonID(ctx context.Context, seasonID uint64) ([]*models.Episode, error) {
	var episodes []*models.Episode
	if err := r.db.WithContext(ctx).Where("season_id = ?", seasonID).Order("number ASC").Find(&episodes).Error; err != nil {
		return nil, fmt.Errorf("getting episodes by season ID: %w", err)
	}
	return episodes, nil
}

func (r *episodeRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Episode{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting episode: %w", err)
	}
	return nil
}

var _ EpisodeRepository = (*episodeRepo)(nil)
