package staging

import (
	"log/slog"
	"os"

	"github.com/transcast-io/transcast/internal/models"
)

// CompletenessChecker walks every FileVersion's recorded path and reports
// (logs) any that are missing from disk, without removing them — matching
// the original debug command's report-only behavior.
type CompletenessChecker struct {
	logger *slog.Logger
}

// NewCompletenessChecker creates a CompletenessChecker.
func NewCompletenessChecker(logger *slog.Logger) *CompletenessChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletenessChecker{logger: logger}
}

// Check stats every FileVersion's path and logs the ones that no longer
// exist on disk. It returns the missing paths for callers that want them.
func (c *CompletenessChecker) Check(fileVersions []models.FileVersion) []string {
	var missing []string
	for _, fv := range fileVersions {
		if _, err := os.Stat(fv.Path); err != nil {
			missing = append(missing, fv.Path)
			c.logger.Warn("file version missing from disk",
				slog.Uint64("generic_id", fv.GenericID), slog.String("path", fv.Path))
		}
	}
	c.logger.Info("completeness check finished",
		slog.Int("checked", len(fileVersions)), slog.Int("missing", len(missing)))
	return missing
}
