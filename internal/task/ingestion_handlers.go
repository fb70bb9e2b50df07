package task

import (
	"context"
	"fmt"

	"github.com/transcast-io/transcast/internal/ingestion"
)

// ImportFilesHandler walks the tracked roots and accepts or rejects each
// discovered path, without yet promoting anything into the Library.
type ImportFilesHandler struct {
	Pipeline *ingestion.Pipeline
}

// Handle runs one Enumerate pass. stopCh is not polled mid-walk since a
// single Enumerate call already completes quickly relative to the
// scheduler's other handlers.
func (h *ImportFilesHandler) Handle(ctx context.Context, _ <-chan struct{}) error {
	accepted, rejected, err := h.Pipeline.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("import_files: %w", err)
	}
	_ = accepted
	_ = rejected
	return nil
}

// ProcessNewFilesHandler promotes every path Enumerate accepted into
// Generic/Show/Season/Episode rows and inserts the master FileVersion.
type ProcessNewFilesHandler struct {
	Pipeline *ingestion.Pipeline
}

// Handle runs one Promote pass over the pending path queue.
func (h *ProcessNewFilesHandler) Handle(ctx context.Context, _ <-chan struct{}) error {
	if err := h.Pipeline.Promote(ctx); err != nil {
		return fmt.Errorf("process_new_files: %w", err)
	}
	return nil
}
