// Package repository defines data access interfaces for transcast entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"

	"github.com/transcast-io/transcast/internal/models"
)

// GenericRepository defines operations for Generic persistence.
type GenericRepository interface {
	Create(ctx context.Context, generic *models.Generic) error
	GetByID(ctx context.Context, id uint64) (*models.Generic, error)
	GetByIDWithFileVersions(ctx context.Context, id uint64) (*models.Generic, error)
	GetAll(ctx context.Context) ([]*models.Generic, error)
	GetByDesignation(ctx context.Context, designation models.Designation) ([]*models.Generic, error)
	Update(ctx context.Context, generic *models.Generic) error
	Delete(ctx context.Context, id uint64) error
}

// FileVersionRepository defines operations for FileVersion persistence.
type FileVersionRepository interface {
	Create(ctx context.Context, fv *models.FileVersion) error
	CreateInBatches(ctx context.Context, fvs []*models.FileVersion, batchSize int) error
	GetByID(ctx context.Context, id uint64) (*models.FileVersion, error)
	GetByPath(ctx context.Context, path string) (*models.FileVersion, error)
	GetByGenericID(ctx context.Context, genericID uint64) ([]*models.FileVersion, error)
	GetMastersMissingHash(ctx context.Context) ([]*models.FileVersion, error)
	GetMastersMissingProfile(ctx context.Context) ([]*models.FileVersion, error)
	Update(ctx context.Context, fv *models.FileVersion) error
	Delete(ctx context.Context, id uint64) error
}

// ShowRepository defines operations for Show persistence.
type ShowRepository interface {
	Create(ctx context.Context, show *models.Show) error
	GetByID(ctx context.Context, id uint64) (*models.Show, error)
	GetByTitle(ctx context.Context, title string) (*models.Show, error)
	GetOrCreateByTitle(ctx context.Context, title string) (*models.Show, error)
	GetAll(ctx context.Context) ([]*models.Show, error)
	Update(ctx context.Context, show *models.Show) error
	Delete(ctx context.Context, id uint64) error
}

// SeasonRepository defines operations for Season persistence.
type SeasonRepository interface {
	Create(ctx context.Context, season *models.Season) error
	GetByID(ctx context.Context, id uint64) (*models.Season, error)
	GetByShowAndNumber(ctx context.Context, showID uint64, number int) (*models.Season, error)
	GetOrCreate(ctx context.Context, showID uint64, number int) (*models.Season, error)
	GetByShowID(ctx context.Context, showID uint64) ([]*models.Season, error)
	Delete(ctx context.Context, id uint64) error
}

// EpisodeRepository defines operations for Episode persistence.
type EpisodeRepository interface {
	Create(ctx context.Context, episode *models.Episode) error
	GetByID(ctx context.Context, id uint64) (*models.Episode, error)
	GetBySeasonAndNumber(ctx context.Context, seasonID uint64, number int) (*models.Episode, error)
	GetByGenericID(ctx context.Context, genericID uint64) (*models.Episode, error)
	GetBySeasonID(ctx context.Context, seasonID uint64) ([]*models.Episode, error)
	Delete(ctx context.Context, id uint64) error
}

// ProfileRepository defines operations for Profile persistence.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint64) (*models.Profile, error)
	GetOrCreate(ctx context.Context, class models.ResolutionClass, container models.Container) (*models.Profile, error)
	GetAll(ctx context.Context) ([]*models.Profile, error)
}

// EncodeProfileRepository defines operations for EncodeProfile persistence.
type EncodeProfileRepository interface {
	Create(ctx context.Context, profile *models.EncodeProfile) error
	GetByID(ctx context.Context, id uint64) (*models.EncodeProfile, error)
	GetByName(ctx context.Context, name string) (*models.EncodeProfile, error)
	GetAll(ctx context.Context) ([]*models.EncodeProfile, error)
	Update(ctx context.Context, profile *models.EncodeProfile) error
	Delete(ctx context.Context, id uint64) error
}

// TaskRepository defines operations for Task persistence, including the
// atomic claim used by the scheduler to hand a pending task to a worker
// loop without a second scheduler instance claiming it twice.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uint64) (*models.Task, error)
	GetAll(ctx context.Context) ([]*models.Task, error)
	GetPending(ctx context.Context) ([]*models.Task, error)
	ClaimNextPending(ctx context.Context) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uint64) error
}

// RejectedFileRepository defines operations for RejectedFile persistence.
type RejectedFileRepository interface {
	Create(ctx context.Context, rf *models.RejectedFile) error
	CreateInBatches(ctx context.Context, rfs []*models.RejectedFile, batchSize int) error
	GetByPath(ctx context.Context, path string) (*models.RejectedFile, error)
	GetAll(ctx context.Context) ([]*models.RejectedFile, error)
	Delete(ctx context.Context, id uint64) error
}
