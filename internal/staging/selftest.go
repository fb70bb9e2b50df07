package staging

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Status is the outcome of a SelfTest run.
type Status int

const (
	StatusPass Status = iota
	StatusPassWithWarnings
	StatusFail
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusPassWithWarnings:
		return "pass with warnings"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

const selfTestFileName = ".transcast_self_test"

// SelfTest exercises the server's own read/write access to its cache
// directory and the global temp directory shared with workers: create a
// file in the cache directory, copy it into the temp directory, then
// remove both copies. It never panics; a failed step only degrades the
// reported Status and is logged, matching the "I only care about
// explicit failures" self-test philosophy.
func SelfTest(cacheDir, tempDir string, logger *slog.Logger) Status {
	if logger == nil {
		logger = slog.Default()
	}

	status := StatusPass
	degrade := func(fatal bool) {
		if fatal {
			status = StatusFail
		} else if status == StatusPass {
			status = StatusPassWithWarnings
		}
	}

	cachePath := filepath.Join(cacheDir, selfTestFileName)
	tempPath := filepath.Join(tempDir, selfTestFileName)

	createFailed := false
	if err := os.WriteFile(cachePath, nil, 0o644); err != nil {
		logger.Error("file access self test: create test file in cache directory failed",
			slog.String("cache_dir", cacheDir), slog.Any("error", err))
		createFailed = true
		degrade(true)
	} else {
		logger.Debug("file access self test: created test file in cache directory", slog.String("path", cachePath))
	}

	copyFailed := false
	if err := copyFile(cachePath, tempPath); err != nil {
		if createFailed {
			logger.Warn("file access self test: copy to temp directory failed, likely a consequence of the earlier create failure",
				slog.String("temp_dir", tempDir), slog.Any("error", err))
		} else {
			logger.Error("file access self test: copy test file to temp directory failed",
				slog.String("temp_dir", tempDir), slog.Any("error", err))
			copyFailed = true
			degrade(true)
		}
	} else {
		logger.Debug("file access self test: copied test file to temp directory", slog.String("path", tempPath))
	}

	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		if createFailed {
			logger.Warn("file access self test: remove test file from cache directory failed, likely a consequence of the earlier create failure",
				slog.Any("error", err))
		} else {
			logger.Error("file access self test: remove test file from cache directory failed", slog.Any("error", err))
			degrade(true)
		}
	}

	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		switch {
		case copyFailed:
			logger.Warn("file access self test: remove test file from temp directory failed, likely a consequence of the earlier copy failure",
				slog.Any("error", err))
		case createFailed:
			logger.Warn("file access self test: remove test file from temp directory failed, could also stem from the earlier create failure",
				slog.Any("error", err))
		default:
			logger.Error("file access self test: remove test file from temp directory failed", slog.Any("error", err))
			degrade(true)
		}
	}

	logger.Info("file access self test finished", slog.String("status", status.String()))
	return status
}
