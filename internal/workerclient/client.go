// Package workerclient implements the transcast-worker side of the
// stream-framed protocol: connect to a transcast-server, announce
// capacity, accept Encode work items, run them through ffmpeg, and report
// progress back through Envelope/binary frames.
package workerclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/transcast-io/transcast/internal/ffmpeg"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/protocol"
)

// Config configures a Client. It is a plain struct rather than
// config.WorkerConfig itself so the package does not need to import
// internal/config, keeping its dependency surface to just what a single
// connection needs.
type Config struct {
	ServerURL   string
	ExistingID  *uint64
	Capacity    int
	LocalTmpDir string
	FFmpegPath  string
}

// Client owns one websocket connection to a transcast-server and the
// local job queue of Encode work items it has been handed.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	workerID uint64

	jobs chan *models.Encode
}

// New creates a Client. cfg.LocalTmpDir must exist or be creatable; it is
// where each Encode's artifact is written before being moved to the
// server's staging path.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan *models.Encode, cfg.Capacity),
	}
}

// Run dials the server, performs the Initialise handshake, and processes
// frames until ctx is cancelled or the connection drops. It automatically
// reconnects with backoff on disconnect, matching the teacher's
// reconnect-with-backoff daemon registration loop.
func (c *Client) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.connectAndServe(ctx); err != nil {
			c.logger.Warn("connection to server ended", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Client) connectAndServe(ctx context.Context) error {
	u, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("parsing server url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", u.String(), err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.sendInitialise(); err != nil {
		return err
	}

	stats := collectHostStats(ctx)
	c.logger.Info("host stats at connect",
		slog.Int("cpu_cores", stats.CPUCores),
		slog.Float64("cpu_percent", stats.CPUPercent),
		slog.Float64("load_avg_1m", stats.LoadAvg1),
		slog.Float64("memory_percent", stats.MemoryPercent),
	)

	go c.runJobs(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading from server: %w", err)
		}

		env, err := protocol.ReadFrame(bytes.NewReader(data))
		if err != nil {
			c.logger.Warn("malformed frame from server", slog.Any("error", err))
			continue
		}
		c.handleEnvelope(ctx, env)
	}
}

func (c *Client) sendInitialise() error {
	env, err := protocol.NewEnvelope(protocol.VariantInitialise, protocol.InitialisePayload{
		ExistingID: c.cfg.ExistingID,
		Capacity:   c.cfg.Capacity,
	})
	if err != nil {
		return fmt.Errorf("building initialise envelope: %w", err)
	}
	return c.send(env)
}

func (c *Client) handleEnvelope(ctx context.Context, env *protocol.Envelope) {
	switch env.Variant {
	case protocol.VariantWorkerID:
		var payload protocol.WorkerIDPayload
		if err := env.Decode(&payload); err != nil {
			return
		}
		c.mu.Lock()
		c.workerID = payload.ID
		assigned := payload.ID
		c.cfg.ExistingID = &assigned
		c.mu.Unlock()
		c.logger.Info("assigned worker id", slog.Uint64("worker_id", payload.ID))
	case protocol.VariantEncode:
		var payload protocol.EncodePayload
		if err := env.Decode(&payload); err != nil {
			c.logger.Warn("malformed encode payload", slog.Any("error", err))
			return
		}
		enc := &models.Encode{
			GenericID:       payload.GenericID,
			EncodeProfileID: payload.EncodeProfileID,
			SourcePath:      payload.SourcePath,
			TargetPath:      payload.TargetPath,
			StagingPath:     payload.StagingPath,
			Args:            payload.Args,
		}
		select {
		case c.jobs <- enc:
		case <-ctx.Done():
		}
	case protocol.VariantClose:
		c.logger.Info("server requested close")
	}
}

// runJobs drains the local job queue one Encode at a time, mirroring the
// original worker's single-transcode-at-a-time loop.
func (c *Client) runJobs(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case enc := <-c.jobs:
			if err := c.runOne(ctx, enc); err != nil {
				c.logger.Error("encode failed", slog.Uint64("generic_id", enc.GenericID), slog.Any("error", err))
			}
		}
	}
}

func (c *Client) runOne(ctx context.Context, enc *models.Encode) error {
	c.mu.Lock()
	workerID := c.workerID
	c.mu.Unlock()

	localTarget := filepath.Join(c.cfg.LocalTmpDir, filepath.Base(enc.StagingPath))
	localEnc := enc.ForWorker(enc.SourcePath, localTarget)

	if err := c.sendVariant(protocol.VariantEncodeStarted, protocol.EncodeStartedPayload{
		WorkerID: workerID, GenericID: enc.GenericID,
	}); err != nil {
		return err
	}

	binary := c.cfg.FFmpegPath
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := &ffmpeg.Command{Binary: binary, Args: localEnc.Args, Input: enc.SourcePath, Output: localTarget}
	if err := cmd.Run(ctx); err != nil {
		return fmt.Errorf("running ffmpeg: %w", err)
	}

	if err := c.sendVariant(protocol.VariantEncodeFinished, protocol.EncodeFinishedPayload{
		WorkerID: workerID, GenericID: enc.GenericID, ArtifactPath: localTarget,
	}); err != nil {
		return err
	}

	if err := c.sendVariant(protocol.VariantMoveStarted, protocol.MoveStartedPayload{
		WorkerID: workerID, GenericID: enc.GenericID, Source: localTarget, Dest: enc.StagingPath,
	}); err != nil {
		return err
	}

	if err := moveFile(localTarget, enc.StagingPath); err != nil {
		return fmt.Errorf("moving artifact to server staging: %w", err)
	}

	return c.sendVariant(protocol.VariantMoveFinished, protocol.MoveFinishedPayload{
		WorkerID: workerID, GenericID: enc.GenericID, EncodeProfileID: enc.EncodeProfileID,
		StagingPath: enc.StagingPath, TargetPath: enc.TargetPath,
	})
}

func (c *Client) sendVariant(variant protocol.Variant, payload any) error {
	env, err := protocol.NewEnvelope(variant, payload)
	if err != nil {
		return fmt.Errorf("building %s envelope: %w", variant, err)
	}
	return c.send(env)
}

func (c *Client) send(env *protocol.Envelope) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	var buf bytes.Buffer
	if err := protocol.WriteFrame(&buf, env); err != nil {
		return fmt.Errorf("framing envelope: %w", err)
	}
	return conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
}

// moveFile copies src to dst and removes src, the same copy-then-delete
// handoff the server performs on adoption, here run worker-side to hand
// the artifact across to server-visible staging storage.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating destination dir: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	return os.Remove(src)
}
