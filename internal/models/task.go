package models

import "gorm.io/gorm"

// TaskVariant tags which operation a Task represents. Each variant has a
// mostly-empty payload; the variant alone decides scheduler dispatch.
type TaskVariant string

const (
	// TaskImportFiles walks the tracked roots and records newly discovered paths.
	TaskImportFiles TaskVariant = "import_files"
	// TaskProcessNewFiles promotes imported paths into Generics/Episodes.
	TaskProcessNewFiles TaskVariant = "process_new_files"
	// TaskHash computes content/fast hashes for FileVersions missing them.
	TaskHash TaskVariant = "hash"
	// TaskGenerateProfiles derives video profiles for FileVersions missing them.
	TaskGenerateProfiles TaskVariant = "generate_profiles"
)

// Valid reports whether v is a recognized TaskVariant.
func (v TaskVariant) Valid() bool {
	switch v {
	case TaskImportFiles, TaskProcessNewFiles, TaskHash, TaskGenerateProfiles:
		return true
	default:
		return false
	}
}

// Task is a unit of scheduler work: enqueued by external triggers (a UI
// message or startup), dequeued and run to completion by the scheduler,
// and never automatically retried.
type Task struct {
	BaseModel
	Variant TaskVariant `gorm:"not null;index" json:"variant"`

	StartedAt   *Time `json:"started_at,omitempty"`
	CompletedAt *Time `json:"completed_at,omitempty"`
	LastError   *string `json:"last_error,omitempty"`
}

// TableName overrides the default pluralized table name.
func (Task) TableName() string {
	return "tasks"
}

// Validate checks Task invariants independent of persisted state.
func (t *Task) Validate() error {
	if t.Variant == "" {
		return ErrValidation{Field: "variant", Message: "is required"}
	}
	if !t.Variant.Valid() {
		return ErrInvalidTaskVariant
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	return t.Validate()
}

// IsPending reports whether the task has neither started nor finished.
func (t *Task) IsPending() bool {
	return t.StartedAt == nil
}

// IsRunning reports whether the task has started but not finished.
func (t *Task) IsRunning() bool {
	return t.StartedAt != nil && t.CompletedAt == nil
}

// IsDone reports whether the task has finished, successfully or not.
func (t *Task) IsDone() bool {
	return t.CompletedAt != nil
}

// MarkStarted records the task's start time.
func (t *Task) MarkStarted() {
	now := Now()
	t.StartedAt = &now
}

// MarkCompleted records completion, optionally with an error.
func (t *Task) MarkCompleted(err error) {
	now := Now()
	t.CompletedAt = &now
	if err != nil {
		msg := err.Error()
		t.LastError = &msg
	}
}
