package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/transcast-io/transcast/internal/config"
	"github.com/transcast-io/transcast/internal/core"
	"github.com/transcast-io/transcast/internal/database"
	"github.com/transcast-io/transcast/internal/encode"
	"github.com/transcast-io/transcast/internal/ingestion"
	"github.com/transcast-io/transcast/internal/library"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/observability"
	"github.com/transcast-io/transcast/internal/protocol"
	"github.com/transcast-io/transcast/internal/repository"
	"github.com/transcast-io/transcast/internal/staging"
	"github.com/transcast-io/transcast/internal/task"
	"github.com/transcast-io/transcast/internal/version"
	"github.com/transcast-io/transcast/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the transcast orchestrator server",
	Long: `Start the transcast server: ingest the tracked media roots, run the
Task Queue for import/hash/profile generation, and accept worker
connections on the stream-framed protocol to dispatch and adopt transcode
work.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting transcast-server", slog.String("version", version.Short()))

	db, err := database.New(cfg.Database, logger, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	genericRepo := repository.NewGenericRepository(db.DB)
	fileVersionRepo := repository.NewFileVersionRepository(db.DB)
	showRepo := repository.NewShowRepository(db.DB)
	seasonRepo := repository.NewSeasonRepository(db.DB)
	episodeRepo := repository.NewEpisodeRepository(db.DB)
	rejectedFileRepo := repository.NewRejectedFileRepository(db.DB)
	profileRepo := repository.NewProfileRepository(db.DB)
	encodeProfileRepo := repository.NewEncodeProfileRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)

	ctx := context.Background()

	lib := library.New(logger)
	generics, err := genericRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("loading generics: %w", err)
	}
	shows, err := showRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("loading shows: %w", err)
	}
	var fileVersions []*models.FileVersion
	var seasons []*models.Season
	var episodes []*models.Episode
	for _, g := range generics {
		fvs, err := fileVersionRepo.GetByGenericID(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("loading file versions for generic %d: %w", g.ID, err)
		}
		fileVersions = append(fileVersions, fvs...)
	}
	for _, s := range shows {
		ss, err := seasonRepo.GetByShowID(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("loading seasons for show %d: %w", s.ID, err)
		}
		seasons = append(seasons, ss...)
		for _, season := range ss {
			eps, err := episodeRepo.GetBySeasonID(ctx, season.ID)
			if err != nil {
				return fmt.Errorf("loading episodes for season %d: %w", season.ID, err)
			}
			episodes = append(episodes, eps...)
		}
	}
	if err := lib.LoadFromPersistence(generics, fileVersions, shows, seasons, episodes); err != nil {
		return fmt.Errorf("rebuilding library from persistence: %w", err)
	}
	logger.Info("library loaded", slog.Any("stats", lib.Stats()))

	pipeline, err := ingestion.New(cfg.Storage, cfg.Ingestion, ingestion.Repos{
		Generic:      genericRepo,
		FileVersion:  fileVersionRepo,
		Show:         showRepo,
		Season:       seasonRepo,
		Episode:      episodeRepo,
		RejectedFile: rejectedFileRepo,
	}, lib, logger)
	if err != nil {
		return fmt.Errorf("building ingestion pipeline: %w", err)
	}

	handlers := map[models.TaskVariant]task.Handler{
		models.TaskImportFiles:      (&task.ImportFilesHandler{Pipeline: pipeline}).Handle,
		models.TaskProcessNewFiles:  (&task.ProcessNewFilesHandler{Pipeline: pipeline}).Handle,
		models.TaskHash:             (&task.HashHandler{FileVersions: fileVersionRepo, Logger: logger}).Handle,
		models.TaskGenerateProfiles: (&task.GenerateProfilesHandler{FileVersions: fileVersionRepo, Profiles: profileRepo, Extractor: &task.FFProbeExtractor{}, Logger: logger}).Handle,
	}

	taskQueue := task.NewQueue()
	pendingTasks, err := taskRepo.GetPending(ctx)
	if err != nil {
		return fmt.Errorf("loading pending tasks: %w", err)
	}
	taskQueue.PushAll(pendingTasks...)

	var schedulerErr error
	scheduler := task.New(taskQueue, taskRepo, handlers, cfg.Scheduler.PollInterval, logger, func(err error) {
		schedulerErr = err
		logger.Error("scheduler hit a fatal invariant, aborting", slog.Any("error", err))
	})

	var rescan *task.RescanScheduler
	if cfg.Scheduler.RescanCron != "" {
		rescan, err = task.NewRescanScheduler(scheduler, cfg.Scheduler.RescanCron, logger)
		if err != nil {
			return fmt.Errorf("configuring rescan schedule: %w", err)
		}
	}

	if status := staging.SelfTest(cfg.Storage.CacheDir, cfg.Storage.GlobalTempDir, logger); status == staging.StatusFail {
		return fmt.Errorf("file access self-test failed for cache_dir=%s temp_dir=%s", cfg.Storage.CacheDir, cfg.Storage.GlobalTempDir)
	}

	encodeQueue := encode.NewQueue()
	registry := worker.New(encodeQueue, cfg.Server.WorkerTimeout, logger)
	coordinator := encode.New(encodeQueue, registry, lib, fileVersionRepo, encodeProfileRepo, cfg.Storage.GlobalTempDir, logger)

	protoHandlers := protocol.Handlers{
		OnText: func(cmd protocol.TextCommand) {
			handleTextCommand(ctx, cmd, scheduler, registry, coordinator, lib, cfg, logger)
		},
		OnInitialise: func(addr string, sink protocol.Sink, payload protocol.InitialisePayload) uint64 {
			if payload.ExistingID != nil && registry.ReestablishWorker(payload.ExistingID, addr, sink) {
				logger.Info("worker reestablished", slog.Uint64("worker_id", *payload.ExistingID), slog.String("addr", addr))
				return *payload.ExistingID
			}
			id := registry.AddWorker(addr, payload.Capacity, sink)
			logger.Info("worker connected", slog.Uint64("worker_id", id), slog.String("addr", addr), slog.Int("capacity", payload.Capacity))
			return id
		},
		OnEncodeGeneric: func(workerID *uint64, payload protocol.EncodeGenericPayload) {
			enc, err := coordinator.BuildEncode(ctx, payload.GenericID, payload.FileVersionID, payload.EncodeProfileID)
			if err != nil {
				logger.Error("failed to build encode", slog.Any("error", err))
				return
			}
			if err := coordinator.Submit(workerID, enc, models.AddMode(payload.AddMode)); err != nil {
				logger.Error("failed to submit encode", slog.Any("error", err))
			}
		},
		OnEncodeStarted: func(payload protocol.EncodeStartedPayload) {
			logger.Info("encode started", slog.Uint64("worker_id", payload.WorkerID), slog.Uint64("generic_id", payload.GenericID))
		},
		OnEncodeFinished: func(payload protocol.EncodeFinishedPayload) {
			coordinator.HandleEncodeFinished(payload.WorkerID, payload.GenericID)
		},
		OnMoveStarted: func(payload protocol.MoveStartedPayload) {
			logger.Info("move started", slog.Uint64("worker_id", payload.WorkerID), slog.Uint64("generic_id", payload.GenericID))
		},
		OnMoveFinished: func(payload protocol.MoveFinishedPayload) error {
			enc := &models.Encode{
				GenericID:       payload.GenericID,
				EncodeProfileID: payload.EncodeProfileID,
				StagingPath:     payload.StagingPath,
				TargetPath:      payload.TargetPath,
			}
			return coordinator.HandleMoveFinished(ctx, payload.WorkerID, enc)
		},
		OnDisconnect: func(addr string, workerID *uint64) {
			logger.Info("peer disconnected", slog.String("addr", addr), slog.Any("worker_id", workerID))
			if workerID != nil {
				registry.StartWorkerTimeout(*workerID)
			}
		},
	}

	server := protocol.New(protoHandlers, logger)

	shutdownCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	scheduler.Start(shutdownCtx)
	if rescan != nil {
		rescan.Start()
	}
	coordinator.Start(shutdownCtx, func(d worker.Dispatch) {
		dispatchEncode(d, logger)
	})

	serveErr := make(chan error, 2)
	if cfg.Server.HostV4 != "" {
		go func() { serveErr <- server.Serve(shutdownCtx, cfg.Server.AddressV4()) }()
	}
	if cfg.Server.HostV6 != "" {
		go func() { serveErr <- server.Serve(shutdownCtx, cfg.Server.AddressV6()) }()
	}

	logger.Info("transcast-server listening",
		slog.String("addr_v4", cfg.Server.AddressV4()),
		slog.String("addr_v6", cfg.Server.AddressV6()))

	<-shutdownCtx.Done()

	server.Close()
	scheduler.Stop()
	coordinator.Stop()
	if rescan != nil {
		rescan.Stop()
	}

	if schedulerErr != nil && core.IsFatal(schedulerErr) {
		return fmt.Errorf("server stopped after a fatal scheduler error: %w", schedulerErr)
	}
	return nil
}

// dispatchEncode encodes and sends a single Encode envelope to the worker
// that was assigned it. The Encode's paths and argument vector are sent
// unchanged, as the server built them.
func dispatchEncode(d worker.Dispatch, logger *slog.Logger) {
	env, err := protocol.NewEnvelope(protocol.VariantEncode, protocol.EncodePayload{
		GenericID:       d.Encode.GenericID,
		EncodeProfileID: d.Encode.EncodeProfileID,
		SourcePath:      d.Encode.SourcePath,
		TargetPath:      d.Encode.TargetPath,
		StagingPath:     d.Encode.StagingPath,
		Args:            d.Encode.Args,
	})
	if err != nil {
		logger.Error("failed to build encode envelope", slog.Any("error", err))
		return
	}

	var buf bytes.Buffer
	if err := protocol.WriteFrame(&buf, env); err != nil {
		logger.Error("failed to frame encode envelope", slog.Any("error", err))
		return
	}

	if err := d.Sink.Send(buf.Bytes()); err != nil {
		logger.Warn("failed to send encode to worker", slog.Uint64("worker_id", d.WorkerID), slog.Any("error", err))
	}
}

func handleTextCommand(ctx context.Context, cmd protocol.TextCommand, scheduler *task.Scheduler, registry *worker.Registry, coordinator *encode.Coordinator, lib *library.Library, cfg *config.Config, logger *slog.Logger) {
	switch cmd {
	case protocol.CmdImport:
		enqueue(ctx, scheduler, models.TaskImportFiles, logger)
	case protocol.CmdProcess:
		enqueue(ctx, scheduler, models.TaskProcessNewFiles, logger)
	case protocol.CmdHash:
		enqueue(ctx, scheduler, models.TaskHash, logger)
	case protocol.CmdGenerateProfiles:
		enqueue(ctx, scheduler, models.TaskGenerateProfiles, logger)
	case protocol.CmdBulk:
		if _, err := scheduler.EnqueueBulk(ctx); err != nil {
			logger.Error("failed to enqueue bulk task batch", slog.Any("error", err))
		}
	case protocol.CmdDisplayWorkers:
		logger.Info("workers", slog.Any("workers", registry.All()))
	case protocol.CmdFileAccessSelfTest:
		staging.SelfTest(cfg.Storage.CacheDir, cfg.Storage.GlobalTempDir, logger)
	case protocol.CmdOutputTrackedPaths:
		lib.DumpTrackedPaths()
	case protocol.CmdOutputFileVersions:
		lib.DumpFileVersions()
	case protocol.CmdRunCompletenessCheck:
		staging.NewCompletenessChecker(logger).Check(lib.AllFileVersions())
	case protocol.CmdEncodeAll:
		if _, err := coordinator.EncodeAll(ctx, ""); err != nil {
			logger.Error("failed to enqueue encode_all", slog.Any("error", err))
		}
	case protocol.CmdKillAllWorkers:
		logger.Warn("kill_all_workers requested but not implemented, matching the original debug command's own TODO")
	default:
		logger.Debug("text command has no server-side effect wired yet", slog.String("command", string(cmd)))
	}
}

func enqueue(ctx context.Context, scheduler *task.Scheduler, variant models.TaskVariant, logger *slog.Logger) {
	if _, err := scheduler.Enqueue(ctx, variant); err != nil {
		logger.Error("failed to enqueue task", slog.String("variant", string(variant)), slog.Any("error", err))
	}
}
