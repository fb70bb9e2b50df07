// Package ingestion walks the tracked filesystem roots, filters candidate
// paths against the ignored-path and extension-allowlist rules, and
// promotes accepted paths into Generics, FileVersions, and the Show/Season/
// Episode hierarchy.
package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/transcast-io/transcast/internal/config"
	"github.com/transcast-io/transcast/internal/library"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
)

// Repos bundles the repositories the pipeline persists through, grouped
// the way tvarr's service layer takes a handful of named repository
// dependencies rather than the whole repository package.
type Repos struct {
	Generic      repository.GenericRepository
	FileVersion  repository.FileVersionRepository
	Show         repository.ShowRepository
	Season       repository.SeasonRepository
	Episode      repository.EpisodeRepository
	RejectedFile repository.RejectedFileRepository
}

// Pipeline runs Enumerate and Promote against a shared Library.
type Pipeline struct {
	lib    *library.Library
	repos  Repos
	logger *slog.Logger

	roots             []string
	allowedExtensions map[string]struct{}
	ignoredPathRgx    []*regexp.Regexp
	seasonEpisodeRgx  *regexp.Regexp

	mu       sync.Mutex
	newFiles []string
}

// New builds a Pipeline from storage/ingestion configuration. It compiles
// the ignored-path and season/episode regexes once up front so Enumerate
// and Promote never return a config error mid-walk.
func New(storageCfg config.StorageConfig, ingestionCfg config.IngestionConfig, repos Repos, lib *library.Library, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make(map[string]struct{}, len(storageCfg.AllowedExtensions))
	for _, ext := range storageCfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	ignored := make([]*regexp.Regexp, 0, len(storageCfg.IgnoredPathRegex))
	for _, pattern := range storageCfg.IgnoredPathRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling ignored path regex %q: %w", pattern, err)
		}
		ignored = append(ignored, re)
	}

	seasonEpisodeRgx, err := regexp.Compile(ingestionCfg.SeasonEpisodeRgx)
	if err != nil {
		return nil, fmt.Errorf("compiling season/episode regex %q: %w", ingestionCfg.SeasonEpisodeRgx, err)
	}

	return &Pipeline{
		lib:               lib,
		repos:             repos,
		logger:            logger,
		roots:             storageCfg.TrackedRoots,
		allowedExtensions: allowed,
		ignoredPathRgx:    ignored,
		seasonEpisodeRgx:  seasonEpisodeRgx,
	}, nil
}

// rejectReason classifies a single candidate path without touching the
// library or database; Enumerate applies it during the filesystem walk.
func (p *Pipeline) rejectReason(path string) (models.RejectReason, bool) {
	for _, re := range p.ignoredPathRgx {
		if re.MatchString(path) {
			return models.RejectPathContainsIgnoredPath, true
		}
	}

	ext := filepath.Ext(path)
	if ext == "" {
		return models.RejectExtensionMissing, true
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if _, ok := p.allowedExtensions[ext]; !ok {
		return models.RejectExtensionDisallowed, true
	}

	return "", false
}

// Enumerate walks every tracked root depth-first, classifying each file it
// finds. Already-known paths are silently skipped; newly rejected paths
// are recorded (coalesced by path, latest reason wins); newly accepted
// paths are marked known and appended to the new-files queue for Promote.
func (p *Pipeline) Enumerate(ctx context.Context) (accepted int, rejected int, err error) {
	rejections := make(map[string]models.RejectReason)

	for _, root := range p.roots {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				p.logger.Warn("ingestion walk error", slog.String("path", path), slog.Any("error", walkErr))
				return nil
			}
			if d.IsDir() {
				return nil
			}

			if p.lib.HasPath(path) {
				return nil
			}

			if reason, isRejected := p.rejectReason(path); isRejected {
				rejections[path] = reason
				rejected++
				return nil
			}

			p.lib.AddPath(path)
			p.mu.Lock()
			p.newFiles = append(p.newFiles, path)
			p.mu.Unlock()
			accepted++
			return nil
		})
		if walkErr != nil {
			return accepted, rejected, fmt.Errorf("walking root %q: %w", root, walkErr)
		}
	}

	if len(rejections) > 0 {
		batch := make([]*models.RejectedFile, 0, len(rejections))
		for path, reason := range rejections {
			batch = append(batch, &models.RejectedFile{Path: path, Reason: reason})
		}
		if err := p.repos.RejectedFile.CreateInBatches(ctx, batch, 0); err != nil {
			return accepted, rejected, fmt.Errorf("persisting rejected files: %w", err)
		}
	}

	return accepted, rejected, nil
}

// PendingCount reports how many accepted paths are waiting for Promote.
func (p *Pipeline) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.newFiles)
}

// Promote drains the new-files queue, creating a Generic (and, when the
// filename matches the season/episode pattern, an Episode under a
// find-or-created Show/Season) plus a master FileVersion for each path.
// The queue is always left empty on return, even if individual paths fail.
func (p *Pipeline) Promote(ctx context.Context) error {
	p.mu.Lock()
	paths := p.newFiles
	p.newFiles = nil
	p.mu.Unlock()

	for _, path := range paths {
		if err := p.promoteOne(ctx, path); err != nil {
			p.logger.Warn("failed to promote file", slog.String("path", path), slog.Any("error", err))
		}
	}
	return nil
}

func (p *Pipeline) promoteOne(ctx context.Context, path string) error {
	season, episode, isEpisode := p.matchSeasonEpisode(path)

	designation := models.DesignationGeneric
	if isEpisode {
		designation = models.DesignationEpisode
	}

	generic := &models.Generic{Designation: designation}
	if err := p.repos.Generic.Create(ctx, generic); err != nil {
		return fmt.Errorf("creating generic: %w", err)
	}
	p.lib.AddGeneric(generic)

	fv := &models.FileVersion{GenericID: generic.ID, Path: path, Master: true}
	if err := p.repos.FileVersion.Create(ctx, fv); err != nil {
		return fmt.Errorf("creating master file version: %w", err)
	}
	if ok := p.lib.InsertFileVersion(fv); !ok {
		return fmt.Errorf("inserting file version: generic %d not found in library", generic.ID)
	}

	if !isEpisode {
		return nil
	}

	title := deriveShowTitle(path)
	show, err := p.repos.Show.GetOrCreateByTitle(ctx, title)
	if err != nil {
		// A show lookup failure, including an empty title (which Show
		// validation rejects), does not abort promotion: the Generic and
		// its master FileVersion stay, but no Show, Season or Episode row
		// is created for the path.
		p.logger.Warn("show lookup failed, episode kept without show linkage",
			slog.String("path", path), slog.Any("error", err))
		return nil
	}
	if _, known := p.lib.ShowByTitle(show.Title); !known {
		p.lib.AddShow(show)
	}

	seasonRow, err := p.repos.Season.GetOrCreate(ctx, show.ID, season)
	if err != nil {
		return fmt.Errorf("finding or creating season: %w", err)
	}

	episodeRow := &models.Episode{SeasonID: seasonRow.ID, Number: episode, GenericID: generic.ID}
	if err := p.repos.Episode.Create(ctx, episodeRow); err != nil {
		return fmt.Errorf("creating episode: %w", err)
	}
	p.lib.AttachEpisode(show.ID, *episodeRow)

	return nil
}

// matchSeasonEpisode reports the season and (first) episode number parsed
// from the filename, and whether the pattern matched at all.
func (p *Pipeline) matchSeasonEpisode(path string) (season, episode int, ok bool) {
	match := p.seasonEpisodeRgx.FindStringSubmatch(filepath.Base(path))
	if match == nil || len(match) < 3 {
		return 0, 0, false
	}
	season, seasonErr := strconv.Atoi(match[1])
	episode, episodeErr := strconv.Atoi(match[2])
	if seasonErr != nil || episodeErr != nil {
		return 0, 0, false
	}
	return season, episode, true
}

// deriveShowTitle reads the show title from a path's grandparent
// directory, the convention used by show/season/episode-on-disk layouts
// (.../<Show Title>/Season 01/S01E02 - ....mkv).
func deriveShowTitle(path string) string {
	grandparent := filepath.Dir(filepath.Dir(path))
	base := filepath.Base(grandparent)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
