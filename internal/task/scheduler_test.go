package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/transcast-io/transcast/internal/core"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSchedulerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}))
	return db
}

func TestScheduler_RunTaskMarksStartedAndCompleted(t *testing.T) {
	db := setupSchedulerTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	queue := NewQueue()

	handlers := map[models.TaskVariant]Handler{
		models.TaskImportFiles: func(ctx context.Context, stopCh <-chan struct{}) error { return nil },
	}
	s := New(queue, taskRepo, handlers, time.Millisecond, nil, func(error) {})

	tsk, err := s.Enqueue(context.Background(), models.TaskImportFiles)
	require.NoError(t, err)

	ok := s.runTask(context.Background(), tsk)
	assert.True(t, ok)
	assert.True(t, tsk.IsDone())

	reloaded, err := taskRepo.GetByID(context.Background(), tsk.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsDone())
	assert.Nil(t, reloaded.LastError)
}

func TestScheduler_RunTaskNonFatalErrorIsRecordedAndLoopContinues(t *testing.T) {
	db := setupSchedulerTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	queue := NewQueue()

	handlers := map[models.TaskVariant]Handler{
		models.TaskHash: func(ctx context.Context, stopCh <-chan struct{}) error {
			return errors.New("boom")
		},
	}
	s := New(queue, taskRepo, handlers, time.Millisecond, nil, func(error) {
		t.Fatal("onFatal should not be called for a non-fatal error")
	})

	tsk, err := s.Enqueue(context.Background(), models.TaskHash)
	require.NoError(t, err)

	ok := s.runTask(context.Background(), tsk)
	assert.True(t, ok)
	require.NotNil(t, tsk.LastError)
	assert.Contains(t, *tsk.LastError, "boom")
}

func TestScheduler_RunTaskFatalErrorStopsLoop(t *testing.T) {
	db := setupSchedulerTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	queue := NewQueue()

	var fatalErr error
	handlers := map[models.TaskVariant]Handler{
		models.TaskHash: func(ctx context.Context, stopCh <-chan struct{}) error {
			return core.Wrap(core.KindFatalInvariant, "library.LoadFromPersistence", errors.New("missing master"))
		},
	}
	s := New(queue, taskRepo, handlers, time.Millisecond, nil, func(err error) { fatalErr = err })

	tsk, err := s.Enqueue(context.Background(), models.TaskHash)
	require.NoError(t, err)

	ok := s.runTask(context.Background(), tsk)
	assert.False(t, ok)
	require.Error(t, fatalErr)
	assert.True(t, core.IsFatal(fatalErr))
}

func TestScheduler_StartDrainsQueueInOrder(t *testing.T) {
	db := setupSchedulerTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	queue := NewQueue()

	var mu sync.Mutex
	var order []models.TaskVariant
	recorder := func(variant models.TaskVariant) Handler {
		return func(ctx context.Context, stopCh <-chan struct{}) error {
			mu.Lock()
			order = append(order, variant)
			mu.Unlock()
			return nil
		}
	}
	handlers := map[models.TaskVariant]Handler{
		models.TaskImportFiles:      recorder(models.TaskImportFiles),
		models.TaskProcessNewFiles:  recorder(models.TaskProcessNewFiles),
		models.TaskHash:             recorder(models.TaskHash),
		models.TaskGenerateProfiles: recorder(models.TaskGenerateProfiles),
	}
	s := New(queue, taskRepo, handlers, time.Millisecond, nil, func(error) {})

	_, err := s.EnqueueBulk(context.Background())
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 4
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.TaskVariant{
		models.TaskImportFiles, models.TaskProcessNewFiles, models.TaskHash, models.TaskGenerateProfiles,
	}, order)
}
