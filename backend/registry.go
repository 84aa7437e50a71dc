package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/requestarr/requestarr/config"
)

// Entry binds one configured media name to its adapter and the static
// configuration driving it. Entries are built once at startup and shared
// read-only by every session.
type Entry struct {
	Config  config.BackendConfig
	Adapter Adapter
}

// Override reports the statically configured value for a setting, if the
// operator fixed one.
func (e *Entry) Override(kind SettingKind) (string, bool) {
	var v string
	switch kind {
	case SettingQualityProfile:
		v = e.Config.QualityProfile
	case SettingRootFolder:
		v = e.Config.RootFolder
	case SettingMonitorType:
		v = e.Config.MonitorType
	case SettingMinimumAvailability:
		v = e.Config.MinimumAvailability
	case SettingSeriesType:
		v = e.Config.SeriesType
	case SettingSeasonFolder:
		if e.Config.SeasonFolders != nil {
			if *e.Config.SeasonFolders {
				return "true", true
			}
			return "false", true
		}
		return "", false
	}
	return v, v != ""
}

// Allowed returns the operator's whitelist for a runtime-selectable
// setting, or nil when any backend value may be picked.
func (e *Entry) Allowed(kind SettingKind) []string {
	switch kind {
	case SettingMonitorType:
		return e.Config.AllowedMonitorTypes
	case SettingQualityProfile:
		return e.Config.AllowedQualityProfiles
	case SettingRootFolder:
		return e.Config.AllowedRootFolders
	}
	return nil
}

// AdapterFactory builds a connected adapter for one backend config. The
// factory validates configured overrides against the live backend and
// fails fast on anything it cannot serve.
type AdapterFactory func(ctx context.Context, cfg config.BackendConfig, logger zerolog.Logger) (Adapter, error)

// Registry maps each configured media name to its backend entry.
type Registry struct {
	entries map[string]*Entry
}

// BuildRegistry connects every configured backend concurrently and
// returns the finished registry. Any failure aborts startup.
func BuildRegistry(ctx context.Context, backends []config.BackendConfig, factories map[Family]AdapterFactory, logger zerolog.Logger) (*Registry, error) {
	entries := make(map[string]*Entry, len(backends))
	for _, bc := range backends {
		if _, ok := entries[bc.Media]; ok {
			return nil, fmt.Errorf("duplicate backend media name: %s", bc.Media)
		}
		entries[bc.Media] = &Entry{Config: bc}
	}

	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, bc := range backends {
		g.Go(func() error {
			factory, ok := factories[Family(bc.Type)]
			if !ok {
				return fmt.Errorf("backend %q: no adapter for type %q", bc.Media, bc.Type)
			}

			adapter, err := factory(ctx, bc, logger)
			if err != nil {
				return fmt.Errorf("backend %q: %w", bc.Media, err)
			}

			mu.Lock()
			entries[bc.Media].Adapter = adapter
			mu.Unlock()

			logger.Info().
				Str("media", bc.Media).
				Str("type", bc.Type).
				Str("url", bc.URL).
				Msg("Connected to backend")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Registry{entries: entries}, nil
}

// Resolve looks up the entry for a media name.
func (r *Registry) Resolve(media string) (*Entry, error) {
	entry, ok := r.entries[media]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, media)
	}
	return entry, nil
}

// MediaNames returns every configured media name in sorted order, used
// for slash command registration.
func (r *Registry) MediaNames() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
