package task

import (
	"testing"

	"github.com/transcast-io/transcast/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestQueue_PushPopOrder(t *testing.T) {
	q := NewQueue()
	a := &models.Task{Variant: models.TaskImportFiles}
	b := &models.Task{Variant: models.TaskProcessNewFiles}
	q.Push(a)
	q.Push(b)

	assert.Equal(t, 2, q.Len())
	assert.Same(t, a, q.Pop())
	assert.Same(t, b, q.Pop())
	assert.Nil(t, q.Pop())
}

func TestQueue_PushAllPreservesOrder(t *testing.T) {
	q := NewQueue()
	q.PushAll(
		&models.Task{Variant: models.TaskImportFiles},
		&models.Task{Variant: models.TaskProcessNewFiles},
		&models.Task{Variant: models.TaskHash},
		&models.Task{Variant: models.TaskGenerateProfiles},
	)

	var order []models.TaskVariant
	for q.Len() > 0 {
		order = append(order, q.Pop().Variant)
	}
	assert.Equal(t, []models.TaskVariant{
		models.TaskImportFiles, models.TaskProcessNewFiles, models.TaskHash, models.TaskGenerateProfiles,
	}, order)
}
