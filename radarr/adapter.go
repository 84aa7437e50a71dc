package radarr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golift.io/starr"
	"golift.io/starr/radarr"

	"github.com/requestarr/requestarr/backend"
	"github.com/requestarr/requestarr/config"
)

const requestTimeout = 30 * time.Second

// monitorOptions are the monitor modes Radarr accepts on an add call.
var monitorOptions = []backend.Option{
	{Label: "Movie Only", Value: "movieOnly"},
	{Label: "Movie and Collection", Value: "movieAndCollection"},
	{Label: "None", Value: "none"},
}

// availabilityOptions are Radarr's minimum availability states.
var availabilityOptions = []backend.Option{
	{Label: "To Be Announced", Value: "tba"},
	{Label: "Announced", Value: "announced"},
	{Label: "In Cinemas", Value: "inCinemas"},
	{Label: "Released", Value: "released"},
}

// Adapter implements backend.Adapter for Radarr instances.
type Adapter struct {
	client RadarrAPI
	logger zerolog.Logger
}

// NewAdapter connects to Radarr, verifies the configured overrides exist
// on the instance, and returns the adapter. Any failure here aborts
// startup.
func NewAdapter(ctx context.Context, cfg config.BackendConfig, logger zerolog.Logger) (backend.Adapter, error) {
	sc := starr.New(cfg.APIKey, cfg.URL, requestTimeout)
	client := radarr.New(sc)

	a := &Adapter{
		client: client,
		logger: logger.With().Str("backend", cfg.Media).Logger(),
	}

	if err := client.Ping(); err != nil {
		return nil, backend.Unreachable(fmt.Errorf("failed to connect to Radarr: %w", err))
	}

	if err := a.validateOverrides(ctx, cfg); err != nil {
		return nil, err
	}

	return a, nil
}

// validateOverrides checks every statically configured setting against
// what the instance actually offers.
func (a *Adapter) validateOverrides(ctx context.Context, cfg config.BackendConfig) error {
	if cfg.MonitorType != "" && !optionExists(monitorOptions, cfg.MonitorType) {
		return fmt.Errorf("monitor_type %q is not valid: must be one of %s",
			cfg.MonitorType, optionValues(monitorOptions))
	}
	if cfg.MinimumAvailability != "" && !optionExists(availabilityOptions, cfg.MinimumAvailability) {
		return fmt.Errorf("minimum_availability %q is not valid: must be one of %s",
			cfg.MinimumAvailability, optionValues(availabilityOptions))
	}

	if cfg.QualityProfile != "" {
		profiles, err := a.Options(ctx, backend.SettingQualityProfile)
		if err != nil {
			return err
		}
		if !optionExists(profiles, cfg.QualityProfile) {
			return fmt.Errorf("quality profile %q not found, available: %s",
				cfg.QualityProfile, optionValues(profiles))
		}
	}

	if cfg.RootFolder != "" {
		folders, err := a.Options(ctx, backend.SettingRootFolder)
		if err != nil {
			return err
		}
		if !optionExists(folders, cfg.RootFolder) {
			return fmt.Errorf("root folder %q not found, available: %s",
				cfg.RootFolder, optionValues(folders))
		}
	}

	return nil
}

// Family implements backend.Adapter
func (a *Adapter) Family() backend.Family {
	return backend.FamilyRadarr
}

// Search looks a movie up via Radarr's TMDB-backed lookup endpoint.
func (a *Adapter) Search(ctx context.Context, query string) ([]backend.Candidate, error) {
	movies, err := a.client.LookupContext(ctx, query)
	if err != nil {
		return nil, classifyErr(err)
	}
	a.logger.Debug().Str("query", query).Int("results", len(movies)).Msg("Movie lookup completed")

	candidates := make([]backend.Candidate, 0, len(movies))
	for _, m := range movies {
		candidates = append(candidates, backend.Candidate{
			Title:     m.Title,
			Year:      m.Year,
			Overview:  m.Overview,
			PosterURL: posterURL(m.Images),
			RemoteID:  m.TmdbID,
			BackendID: m.ID,
			TitleSlug: m.TitleSlug,
		})
	}
	return candidates, nil
}

// RequiredSettings implements backend.Adapter
func (a *Adapter) RequiredSettings() []backend.SettingKind {
	return []backend.SettingKind{
		backend.SettingRootFolder,
		backend.SettingMonitorType,
		backend.SettingMinimumAvailability,
		backend.SettingQualityProfile,
	}
}

// Options returns the selectable values for a setting. Root folders and
// quality profiles come from the instance; the rest are fixed enums.
func (a *Adapter) Options(ctx context.Context, kind backend.SettingKind) ([]backend.Option, error) {
	switch kind {
	case backend.SettingRootFolder:
		folders, err := a.client.GetRootFoldersContext(ctx)
		if err != nil {
			return nil, classifyErr(err)
		}
		opts := make([]backend.Option, 0, len(folders))
		for _, f := range folders {
			opts = append(opts, backend.Option{Label: f.Path, Value: f.Path, ID: f.ID})
		}
		return opts, nil

	case backend.SettingQualityProfile:
		profiles, err := a.client.GetQualityProfilesContext(ctx)
		if err != nil {
			return nil, classifyErr(err)
		}
		opts := make([]backend.Option, 0, len(profiles))
		for _, p := range profiles {
			opts = append(opts, backend.Option{Label: p.Name, Value: p.Name, ID: p.ID})
		}
		return opts, nil

	case backend.SettingMonitorType:
		return monitorOptions, nil

	case backend.SettingMinimumAvailability:
		return availabilityOptions, nil
	}

	return nil, fmt.Errorf("radarr has no setting %q", kind)
}

// DefaultOption implements backend.Adapter
func (a *Adapter) DefaultOption(kind backend.SettingKind) backend.Option {
	switch kind {
	case backend.SettingMonitorType:
		return monitorOptions[0]
	case backend.SettingMinimumAvailability:
		// released is the conservative choice: no pre-release grabs
		return availabilityOptions[3]
	}
	return backend.Option{}
}

// AlreadyTracked reports whether the lookup payload shows the movie in
// the library. Radarr assigns an internal ID only to tracked movies.
func (a *Adapter) AlreadyTracked(c backend.Candidate) bool {
	return c.BackendID != 0
}

// Submit adds the movie with the resolved settings and triggers a search
// for it.
func (a *Adapter) Submit(ctx context.Context, c backend.Candidate, resolved backend.Settings) (backend.SubmitResult, error) {
	if c.BackendID != 0 {
		a.logger.Info().Str("title", c.Title).Msg("Movie already tracked, skipping add")
		return backend.SubmitResult{AlreadyRequested: true}, nil
	}

	monitor := resolved[backend.SettingMonitorType].Value

	profileID, err := a.qualityProfileID(ctx, resolved[backend.SettingQualityProfile])
	if err != nil {
		return backend.SubmitResult{}, err
	}

	input := &radarr.AddMovieInput{
		TmdbID:              c.RemoteID,
		Title:               c.Title,
		TitleSlug:           c.TitleSlug,
		Year:                c.Year,
		QualityProfileID:    profileID,
		RootFolderPath:      resolved[backend.SettingRootFolder].Value,
		MinimumAvailability: radarr.Availability(resolved[backend.SettingMinimumAvailability].Value),
		Monitored:           monitor != "none",
		AddOptions: &radarr.AddMovieOptions{
			SearchForMovie: true,
			Monitor:        monitor,
		},
	}

	a.logger.Info().
		Str("title", c.Title).
		Int64("tmdb_id", c.RemoteID).
		Str("root_folder", input.RootFolderPath).
		Int64("quality_profile_id", input.QualityProfileID).
		Str("monitor", monitor).
		Msg("Adding movie to Radarr")

	if _, err := a.client.AddMovieContext(ctx, input); err != nil {
		if isAlreadyAdded(err) {
			return backend.SubmitResult{AlreadyRequested: true}, nil
		}
		return backend.SubmitResult{}, classifyErr(err)
	}

	return backend.SubmitResult{}, nil
}

// qualityProfileID resolves the profile option to its numeric id.
// Options picked from a prompt already carry one; a statically
// configured profile name is looked up here instead.
func (a *Adapter) qualityProfileID(ctx context.Context, opt backend.Option) (int64, error) {
	if opt.ID != 0 {
		return opt.ID, nil
	}
	profiles, err := a.client.GetQualityProfilesContext(ctx)
	if err != nil {
		return 0, classifyErr(err)
	}
	for _, p := range profiles {
		if p.Name == opt.Value {
			return p.ID, nil
		}
	}
	return 0, backend.Rejected(fmt.Errorf("quality profile %q no longer exists", opt.Value))
}

// classifyErr maps starr client errors onto the adapter error taxonomy.
// HTTP 4xx means the backend rejected the payload; everything else is
// treated as unreachable.
func classifyErr(err error) error {
	var reqErr *starr.ReqError
	if errors.As(err, &reqErr) && reqErr.Code >= 400 && reqErr.Code < 500 {
		return backend.Rejected(err)
	}
	return backend.Unreachable(err)
}

// isAlreadyAdded detects Radarr's duplicate-movie validation failure.
func isAlreadyAdded(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already been added")
}

// posterURL picks the poster out of a lookup result's image set. The
// remote URL is preferred: lookup results are not in the library yet,
// so the local URL may not resolve.
func posterURL(images []*starr.Image) string {
	for _, img := range images {
		if img.CoverType != "poster" {
			continue
		}
		if img.RemoteURL != "" {
			return img.RemoteURL
		}
		return img.URL
	}
	return ""
}

func optionExists(opts []backend.Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

func optionValues(opts []backend.Option) string {
	values := make([]string, len(opts))
	for i, o := range opts {
		values[i] = o.Value
	}
	return "[" + strings.Join(values, ", ") + "]"
}
