// Package encode additionally holds the Coordinator: the glue between the
// central Encode Queue, the Worker Registry's assignment policy, and the
// completion path that adopts a finished artifact into the library.
package encode

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/transcast-io/transcast/internal/core"
	"github.com/transcast-io/transcast/internal/library"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
	"github.com/transcast-io/transcast/internal/staging"
	"github.com/transcast-io/transcast/internal/worker"
)

// defaultPollInterval matches the ≈0.5 Hz fill_worker_transcode_queues rate.
const defaultPollInterval = 2 * time.Second

// DefaultBulkProfileName is the EncodeProfile EncodeAll targets when called
// with no explicit name, mirroring debug.rs's encode_all_files hardcoding
// a single chosen EncodeProfile::H265_TV_1080p rather than taking one as
// a parameter.
const DefaultBulkProfileName = "h265_tv_1080p"

// Coordinator wires the central Encode Queue, the Worker Registry and the
// persistence layer together: it builds Encode work items, runs the
// periodic assignment poll, and adopts artifacts on completion.
type Coordinator struct {
	queue          *Queue
	registry       *worker.Registry
	library        *library.Library
	fileVersions   repository.FileVersionRepository
	encodeProfiles repository.EncodeProfileRepository
	logger         *slog.Logger

	pollInterval time.Duration
	stopCh       chan struct{}
	dispatch     func(worker.Dispatch)

	stagingDir string
}

// New creates a Coordinator. stagingDir is the server-visible temp
// directory workers write finished artifacts into before adoption. lib is
// the in-memory Library the scheduler shares with the rest of the server;
// adoption keeps it in sync so AllFileVersions/EncodeAll never read a
// stale view.
func New(
	queue *Queue,
	registry *worker.Registry,
	lib *library.Library,
	fileVersions repository.FileVersionRepository,
	encodeProfiles repository.EncodeProfileRepository,
	stagingDir string,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		queue:          queue,
		registry:       registry,
		library:        lib,
		fileVersions:   fileVersions,
		encodeProfiles: encodeProfiles,
		logger:         logger,
		pollInterval:   defaultPollInterval,
		stagingDir:     stagingDir,
	}
}

// BuildEncode materializes an Encode work item for a FileVersion/EncodeProfile
// pairing: it resolves the source path from the FileVersion, derives a
// staging path under the coordinator's temp directory, derives the target
// path by swapping the source's extension for the profile's output
// extension, and substitutes the source path and the staging path into the
// profile's CodecArgs source/target placeholders.
func (c *Coordinator) BuildEncode(ctx context.Context, genericID, fileVersionID, encodeProfileID uint64) (*models.Encode, error) {
	fv, err := c.fileVersions.GetByID(ctx, fileVersionID)
	if err != nil {
		return nil, fmt.Errorf("encode.BuildEncode: loading file version: %w", err)
	}
	if fv == nil {
		return nil, fmt.Errorf("encode.BuildEncode: file version %d not found", fileVersionID)
	}

	profile, err := c.encodeProfiles.GetByID(ctx, encodeProfileID)
	if err != nil {
		return nil, fmt.Errorf("encode.BuildEncode: loading encode profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("encode.BuildEncode: encode profile %d not found", encodeProfileID)
	}

	ext := strings.ToLower(profile.OutputExtension)
	base := strings.TrimSuffix(filepath.Base(fv.Path), filepath.Ext(fv.Path))
	targetPath := filepath.Join(filepath.Dir(fv.Path), fmt.Sprintf("%s.%s", base, ext))
	stagingPath := filepath.Join(c.stagingDir, fmt.Sprintf("generic-%d-profile-%d.%s", genericID, encodeProfileID, ext))

	args := make([]string, len(profile.CodecArgs))
	for i, a := range profile.CodecArgs {
		switch a {
		case models.SourcePlaceholder:
			args[i] = fv.Path
		case models.TargetPlaceholder:
			args[i] = stagingPath
		default:
			args[i] = a
		}
	}

	return &models.Encode{
		GenericID:       genericID,
		FileVersionID:   fileVersionID,
		EncodeProfileID: encodeProfileID,
		SourcePath:      fv.Path,
		TargetPath:      targetPath,
		StagingPath:     stagingPath,
		Args:            args,
	}, nil
}

// Submit places a materialized Encode according to mode. AddNow bypasses
// both the central queue and the worker mirror entirely: it looks up the
// requesting worker's sink directly and dispatches a single Encode
// envelope on it, using the same dispatch callback Start uses for polled
// assignments. AddBack/AddNext push onto the central Encode Queue for the
// next polling tick to pick up.
func (c *Coordinator) Submit(workerID *uint64, enc *models.Encode, mode models.AddMode) error {
	switch mode {
	case models.AddNow:
		if workerID == nil {
			return fmt.Errorf("encode.Submit: add-mode now requires a known worker id")
		}
		sink, ok := c.registry.SinkFor(*workerID)
		if !ok {
			return fmt.Errorf("encode.Submit: worker %d has no active sink", *workerID)
		}
		if c.dispatch == nil {
			return fmt.Errorf("encode.Submit: coordinator has not been started")
		}
		c.dispatch(worker.Dispatch{WorkerID: *workerID, Sink: sink, Encode: enc})
	case models.AddNext:
		c.queue.PushFront(enc)
	default:
		c.queue.Push(enc)
	}
	return nil
}

// Start runs the assignment poll loop until Stop is called. dispatch is
// invoked once per Encode newly pushed into a worker's mirror, and is
// reused by Submit's AddNow case for direct dispatch; the caller (the
// protocol layer) is responsible for actually encoding and sending the
// envelope on the returned sink.
func (c *Coordinator) Start(ctx context.Context, dispatch func(worker.Dispatch)) {
	c.dispatch = dispatch
	c.stopCh = make(chan struct{})
	ticker := time.NewTicker(c.pollInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				for _, d := range c.registry.PollingEvent() {
					dispatch(d)
				}
			}
		}
	}()
}

// Stop halts the assignment poll loop.
func (c *Coordinator) Stop() {
	if c.stopCh != nil {
		close(c.stopCh)
	}
}

// HandleEncodeFinished logs a worker's EncodeFinished report. The spec
// treats this purely as a status signal; adoption only happens once the
// corresponding MoveFinished arrives.
func (c *Coordinator) HandleEncodeFinished(workerID, genericID uint64) {
	c.logger.Info("encode finished", slog.Uint64("worker_id", workerID), slog.Uint64("generic_id", genericID))
}

// HandleMoveFinished adopts a completed Encode's artifact into the
// library and clears the worker's current-encode slot. A copy or remove
// failure here is fatal: it is wrapped as KindFatalInvariant by
// staging.Adopt and must propagate to the caller for process abort. The
// new non-master FileVersion is recorded both in the database and in the
// in-memory Library the scheduler and encode_all read from, so it is
// visible without waiting for a restart reload.
func (c *Coordinator) HandleMoveFinished(ctx context.Context, workerID uint64, enc *models.Encode) error {
	if err := staging.Adopt(enc.StagingPath, enc.TargetPath); err != nil {
		return err
	}

	profileID := enc.EncodeProfileID
	fv := &models.FileVersion{
		GenericID:       enc.GenericID,
		Path:            enc.TargetPath,
		Master:          false,
		EncodeProfileID: &profileID,
	}
	if err := c.fileVersions.Create(ctx, fv); err != nil {
		return core.Wrap(core.KindFatalInvariant, "encode.HandleMoveFinished",
			fmt.Errorf("recording adopted file version: %w", err))
	}

	if !c.library.InsertFileVersion(fv) {
		return core.Wrap(core.KindFatalInvariant, "encode.HandleMoveFinished",
			fmt.Errorf("generic %d not present in library", enc.GenericID))
	}

	c.registry.ClearCurrentTranscodeFromWorker(workerID, enc.GenericID)
	c.logger.Info("encode adopted", slog.Uint64("worker_id", workerID), slog.Uint64("generic_id", enc.GenericID),
		slog.String("target_path", enc.TargetPath))
	return nil
}

// EncodeAll enqueues an Encode against profileName for every master
// FileVersion whose Generic does not already hold a non-master FileVersion
// produced by that same profile, the skip-if-already-encoded policy
// decided for repeated debug-menu invocations. profileName defaults to
// DefaultBulkProfileName when empty. It returns the number enqueued.
func (c *Coordinator) EncodeAll(ctx context.Context, profileName string) (int, error) {
	if profileName == "" {
		profileName = DefaultBulkProfileName
	}

	profile, err := c.encodeProfiles.GetByName(ctx, profileName)
	if err != nil {
		return 0, fmt.Errorf("encode.EncodeAll: loading encode profile %q: %w", profileName, err)
	}
	if profile == nil {
		return 0, fmt.Errorf("encode.EncodeAll: encode profile %q not found", profileName)
	}

	fvs := c.library.AllFileVersions()
	byGeneric := make(map[uint64][]models.FileVersion, len(fvs))
	for _, fv := range fvs {
		byGeneric[fv.GenericID] = append(byGeneric[fv.GenericID], fv)
	}

	var enqueued int
	for _, fv := range fvs {
		if !fv.Master || alreadyEncodedWith(byGeneric[fv.GenericID], profile.ID) {
			continue
		}
		enc, err := c.BuildEncode(ctx, fv.GenericID, fv.ID, profile.ID)
		if err != nil {
			c.logger.Error("encode_all: failed to build encode", slog.Uint64("generic_id", fv.GenericID), slog.Any("error", err))
			continue
		}
		c.queue.Push(enc)
		enqueued++
	}

	c.logger.Info("encode_all enqueued", slog.Int("count", enqueued), slog.String("profile", profileName))
	return enqueued, nil
}

// alreadyEncodedWith reports whether fvs already contains a non-master
// FileVersion produced by encodeProfileID.
func alreadyEncodedWith(fvs []models.FileVersion, encodeProfileID uint64) bool {
	for _, fv := range fvs {
		if !fv.Master && fv.EncodeProfileID != nil && *fv.EncodeProfileID == encodeProfileID {
			return true
		}
	}
	return false
}
