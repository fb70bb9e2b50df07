package repository

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/models"
	"gorm.io/gorm"
)

// showRepo implements ShowRepository using GORM.
type showRepo struct {
	db *gorm.DB
}

// NewShowRepository creates a new ShowRepository.
func NewShowRepository(db *gorm.DB) ShowRepository {
	return &showRepo{db: db}
}

func (r *showRepo) Create(ctx context.Context, show *models.Show) error {
	if err := r.db.WithContext(ctx).Create(show).Error; err != nil {
		return fmt.Errorf("creating show: %w", err)
	}
	return nil
}

func (r *showRepo) GetByID(ctx context.Context, id uint64) (*models.Show, error) {
	var show models.Show
	if err := r.db.WithContext(ctx).First(&show, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting show by ID: %w", err)
	}
	return &show, nil
}

func (r *showRepo) GetByTitle(ctx context.Context, title string) (*models.Show, error) {
	var show models.Show
	if err := r.db.WithContext(ctx).First(&show, "title = ?", title).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting show by title: %w", err)
	}
	return &show, nil
}

// GetOrCreateByTitle looks up a show by its derived title, creating it if the
// ingestion pipeline has not seen this show before.
func (r *showRepo) GetOrCreateByTitle(ctx context.Context, title string) (*models.Show, error) {
	show, err := r.GetByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if show != nil {
		return show, nil
	}

	show = &models.Show{Title: title}
	if err := r.Create(ctx, show); err != nil {
		return nil, err
	}
	return show, nil
}

func (r *showRepo) GetAll(ctx context.Context) ([]*models.Show, error) {
	var shows []*models.Show
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&shows).Error; err != nil {
		return nil, fmt.Errorf("getting all shows: %w", err)
	}
	return shows, nil
}

func (r *showRepo) Update(ctx context.Context, show *models.Show) error {
	if err := r.db.WithContext(ctx).Save(show).Error; err != nil {
		return fmt.Errorf("updating show: %w", err)
	}
	return nil
}

func (r *showRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Show{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting show: %w", err)
	}
	return nil
}

var _ ShowRepository = (*showRepo)(nil)
