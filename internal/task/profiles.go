package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
)

// VideoMetadata is the subset of a probed file's structured output the
// GenerateProfiles task needs to fill in a FileVersion's derived fields.
type VideoMetadata struct {
	Width           int
	Height          int
	FrameRate       float64
	DurationSeconds float64
	Container       models.Container
}

// MetadataExtractor probes a file and returns its video metadata. The
// default implementation shells out to ffprobe; tests substitute a stub.
type MetadataExtractor interface {
	Extract(ctx context.Context, path string) (VideoMetadata, error)
}

// FFProbeExtractor invokes ffprobe with JSON output — the same
// invoke-the-binary-and-parse-its-output shape as the hardware
// accelerator detector uses against ffmpeg itself.
type FFProbeExtractor struct {
	FFProbePath string
}

type ffprobeStream struct {
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

// Extract implements MetadataExtractor.
func (e *FFProbeExtractor) Extract(ctx context.Context, path string) (VideoMetadata, error) {
	probePath := e.FFProbePath
	if probePath == "" {
		probePath = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, probePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("running ffprobe on %q: %w", path, err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return VideoMetadata{}, fmt.Errorf("parsing ffprobe output for %q: %w", path, err)
	}

	var videoStream *ffprobeStream
	for i := range parsed.Streams {
		if parsed.Streams[i].CodecType == "video" {
			videoStream = &parsed.Streams[i]
			break
		}
	}
	if videoStream == nil {
		return VideoMetadata{}, fmt.Errorf("no video stream found in %q", path)
	}

	duration, _ := strconv.ParseFloat(parsed.Format.Duration, 64)

	return VideoMetadata{
		Width:           videoStream.Width,
		Height:          videoStream.Height,
		FrameRate:       parseFrameRate(videoStream.RFrameRate),
		DurationSeconds: duration,
		Container:       containerFromFormatName(parsed.Format.FormatName),
	}, nil
}

// parseFrameRate parses ffprobe's "30000/1001"-style rational frame rate.
func parseFrameRate(raw string) float64 {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		v, _ := strconv.ParseFloat(raw, 64)
		return v
	}
	n, errN := strconv.ParseFloat(num, 64)
	d, errD := strconv.ParseFloat(den, 64)
	if errN != nil || errD != nil || d == 0 {
		return 0
	}
	return n / d
}

// containerFromFormatName maps ffprobe's comma-separated format_name to
// one of the three containers the resolution/container classification
// recognizes.
func containerFromFormatName(formatName string) models.Container {
	lower := strings.ToLower(formatName)
	switch {
	case strings.Contains(lower, "webm"):
		return models.ContainerWEBM
	case strings.Contains(lower, "matroska"):
		return models.ContainerMKV
	default:
		return models.ContainerMP4
	}
}

// GenerateProfilesHandler fills in the derived video fields for every
// master FileVersion missing a resolution class, then ensures a Profile
// row exists for the resulting (resolution class, container) pairing.
type GenerateProfilesHandler struct {
	FileVersions repository.FileVersionRepository
	Profiles     repository.ProfileRepository
	Extractor    MetadataExtractor
	Logger       *slog.Logger
}

// Handle implements Handler.
func (h *GenerateProfilesHandler) Handle(ctx context.Context, stopCh <-chan struct{}) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	versions, err := h.FileVersions.GetMastersMissingProfile(ctx)
	if err != nil {
		return fmt.Errorf("listing masters missing profile: %w", err)
	}

	for _, fv := range versions {
		select {
		case <-stopCh:
			return nil
		default:
		}

		meta, err := h.Extractor.Extract(ctx, fv.Path)
		if err != nil {
			logger.Warn("failed to extract video metadata, skipping", slog.String("path", fv.Path), slog.Any("error", err))
			continue
		}

		fv.ApplyVideoProfile(meta.Width, meta.Height, meta.FrameRate, meta.DurationSeconds, meta.Container)
		if err := h.FileVersions.Update(ctx, fv); err != nil {
			logger.Warn("failed to persist video profile, skipping", slog.String("path", fv.Path), slog.Any("error", err))
			continue
		}

		if profile, ok := models.DeriveProfile(fv); ok {
			if _, err := h.Profiles.GetOrCreate(ctx, profile.ResolutionClass, profile.Container); err != nil {
				logger.Warn("failed to record profile", slog.String("path", fv.Path), slog.Any("error", err))
			}
		}
	}

	return nil
}
