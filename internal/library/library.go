// Package library holds the in-memory Library Model: the server's working
// copy of generics, shows, seasons, episodes and the set of known paths.
// It is shared by the scheduler thread and protocol handlers behind a
// single lock, mirroring the daemon registry's map-plus-mutex shape.
package library

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/transcast-io/transcast/internal/core"
	"github.com/transcast-io/transcast/internal/models"
)

// Library owns the server's in-memory media catalog.
type Library struct {
	logger *slog.Logger

	mu sync.RWMutex

	generics     map[uint64]*models.Generic
	shows        map[uint64]*models.Show
	showsByTitle map[string]uint64
	episodeByGen map[uint64]uint64 // generic id -> episode id, for the "not also free" invariant
	knownPaths   map[string]struct{}
}

// New creates an empty Library.
func New(logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		logger:       logger,
		generics:     make(map[uint64]*models.Generic),
		shows:        make(map[uint64]*models.Show),
		showsByTitle: make(map[string]uint64),
		episodeByGen: make(map[uint64]uint64),
		knownPaths:   make(map[string]struct{}),
	}
}

// LoadFromPersistence rebuilds the in-memory Library from rows read back
// from the database at startup. It enforces the master-at-index-0
// invariant for every generic that has FileVersions and fails fatally if
// none of a generic's FileVersions is flagged master, since that means the
// persisted state is inconsistent and no further mutation can be trusted
// to self-heal it. A generic with no FileVersions at all is loaded as is.
func (l *Library) LoadFromPersistence(
	generics []*models.Generic,
	fileVersions []*models.FileVersion,
	shows []*models.Show,
	seasons []*models.Season,
	episodes []*models.Episode,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generics = make(map[uint64]*models.Generic, len(generics))
	for _, g := range generics {
		gCopy := *g
		gCopy.FileVersions = nil
		l.generics[g.ID] = &gCopy
	}

	byGeneric := make(map[uint64][]models.FileVersion, len(fileVersions))
	for _, fv := range fileVersions {
		byGeneric[fv.GenericID] = append(byGeneric[fv.GenericID], *fv)
		l.knownPaths[fv.Path] = struct{}{}
	}

	for genericID, versions := range byGeneric {
		generic, ok := l.generics[genericID]
		if !ok {
			return core.Wrap(core.KindFatalInvariant, "library.LoadFromPersistence",
				fmt.Errorf("file version references unknown generic %d", genericID))
		}
		if err := ensureMasterFirst(versions); err != nil {
			return core.Wrap(core.KindFatalInvariant, "library.LoadFromPersistence", err)
		}
		generic.FileVersions = versions
	}

	l.shows = make(map[uint64]*models.Show, len(shows))
	l.showsByTitle = make(map[string]uint64, len(shows))
	for _, s := range shows {
		sCopy := *s
		sCopy.Seasons = nil
		l.shows[s.ID] = &sCopy
		l.showsByTitle[s.Title] = s.ID
	}

	seasonsByShow := make(map[uint64][]models.Season, len(seasons))
	episodesBySeason := make(map[uint64][]models.Episode, len(episodes))
	for _, e := range episodes {
		episodesBySeason[e.SeasonID] = append(episodesBySeason[e.SeasonID], *e)
		l.episodeByGen[e.GenericID] = e.ID
	}
	for _, s := range seasons {
		sCopy := *s
		sCopy.Episodes = episodesBySeason[s.ID]
		seasonsByShow[s.ShowID] = append(seasonsByShow[s.ShowID], sCopy)
	}
	for showID, show := range l.shows {
		show.Seasons = seasonsByShow[showID]
	}

	l.logger.Info("library loaded from persistence",
		slog.Int("generics", len(l.generics)),
		slog.Int("shows", len(l.shows)),
		slog.Int("known_paths", len(l.knownPaths)))

	return nil
}

// ensureMasterFirst swaps the master FileVersion into index 0 in place,
// returning an error if none of the versions is flagged master.
func ensureMasterFirst(versions []models.FileVersion) error {
	for i := range versions {
		if versions[i].Master {
			versions[0], versions[i] = versions[i], versions[0]
			return nil
		}
	}
	return models.ErrNoMasterFileVersion
}

// LookupGeneric finds a Generic by id across both free and episode-owned
// generics; the underlying map holds both, so this is a single lookup.
func (l *Library) LookupGeneric(id uint64) (*models.Generic, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	g, ok := l.generics[id]
	return g, ok
}

// IsEpisodeGeneric reports whether a generic is wrapped by an Episode.
func (l *Library) IsEpisodeGeneric(genericID uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.episodeByGen[genericID]
	return ok
}

// AddGeneric registers a newly persisted Generic in the in-memory catalog.
func (l *Library) AddGeneric(g *models.Generic) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generics[g.ID] = g
}

// InsertFileVersion attaches a FileVersion to its owning Generic, enforcing
// master-at-index-0 and that the generic id resolves to an existing
// Generic. It returns false if the parent Generic does not exist, which
// the caller must treat as an error rather than silently dropping the
// FileVersion.
func (l *Library) InsertFileVersion(fv *models.FileVersion) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	generic, ok := l.generics[fv.GenericID]
	if !ok {
		return false
	}

	if fv.Master {
		generic.FileVersions = append([]models.FileVersion{*fv}, generic.FileVersions...)
	} else {
		generic.FileVersions = append(generic.FileVersions, *fv)
	}
	l.knownPaths[fv.Path] = struct{}{}
	return true
}

// HasPath reports whether path is already tracked by the library.
func (l *Library) HasPath(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.knownPaths[path]
	return ok
}

// AddPath marks path as tracked without attaching it to any Generic yet,
// used by ingestion's Accept step before a Generic is minted.
func (l *Library) AddPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.knownPaths[path] = struct{}{}
}

// ShowByTitle returns the in-memory Show for a title, if known.
func (l *Library) ShowByTitle(title string) (*models.Show, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.showsByTitle[title]
	if !ok {
		return nil, false
	}
	return l.shows[id], true
}

// AddShow registers a newly persisted Show in the in-memory catalog.
func (l *Library) AddShow(s *models.Show) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.shows[s.ID] = s
	l.showsByTitle[s.Title] = s.ID
}

// AttachEpisode records that genericID is wrapped by episode episodeID and
// appends the episode to its in-memory Season.
func (l *Library) AttachEpisode(showID uint64, episode models.Episode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.episodeByGen[episode.GenericID] = episode.ID

	show, ok := l.shows[showID]
	if !ok {
		return
	}
	for i := range show.Seasons {
		if show.Seasons[i].ID == episode.SeasonID {
			show.Seasons[i].Episodes = append(show.Seasons[i].Episodes, episode)
			return
		}
	}
}

// AllFileVersions enumerates every FileVersion across every Generic, used
// by bulk encode-all and profile-generation sweeps.
func (l *Library) AllFileVersions() []models.FileVersion {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.FileVersion
	for _, g := range l.generics {
		out = append(out, g.FileVersions...)
	}
	return out
}

// DumpTrackedPaths logs every path the Library currently tracks at info
// level, for the debug-menu output_tracked_paths command.
func (l *Library) DumpTrackedPaths() {
	l.mu.RLock()
	defer l.mu.RUnlock()

	paths := make([]string, 0, len(l.knownPaths))
	for p := range l.knownPaths {
		paths = append(paths, p)
	}
	l.logger.Info("tracked paths", slog.Int("count", len(paths)), slog.Any("paths", paths))
}

// DumpFileVersions logs every FileVersion across every Generic at info
// level, for the debug-menu output_file_versions command.
func (l *Library) DumpFileVersions() {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, g := range l.generics {
		for _, fv := range g.FileVersions {
			l.logger.Info("file version",
				slog.Uint64("generic_id", fv.GenericID),
				slog.String("path", fv.Path),
				slog.Bool("master", fv.Master))
		}
	}
}

// Stats reports catalog counts for logging/metrics.
type Stats struct {
	Generics   int
	Shows      int
	KnownPaths int
}

// Stats returns current catalog sizes.
func (l *Library) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Stats{
		Generics:   len(l.generics),
		Shows:      len(l.shows),
		KnownPaths: len(l.knownPaths),
	}
}
