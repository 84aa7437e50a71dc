package sonarr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golift.io/starr"
	"golift.io/starr/sonarr"

	"github.com/requestarr/requestarr/backend"
	"github.com/requestarr/requestarr/config"
)

const requestTimeout = 30 * time.Second

// monitorOptions are the monitor modes Sonarr accepts on an add call.
// Sonarr distinguishes a lot more than Radarr here because monitoring
// applies per season and per episode.
var monitorOptions = []backend.Option{
	{Label: "All", Value: "all"},
	{Label: "Future", Value: "future"},
	{Label: "Missing", Value: "missing"},
	{Label: "Existing", Value: "existing"},
	{Label: "First Season", Value: "firstSeason"},
	{Label: "Last Season", Value: "lastSeason"},
	{Label: "Latest Season", Value: "latestSeason"},
	{Label: "Pilot", Value: "pilot"},
	{Label: "Recent", Value: "recent"},
	{Label: "Monitor Specials", Value: "monitorSpecials"},
	{Label: "Unmonitor Specials", Value: "unmonitorSpecials"},
	{Label: "None", Value: "none"},
}

var seriesTypeOptions = []backend.Option{
	{Label: "Standard", Value: "standard"},
	{Label: "Daily", Value: "daily"},
	{Label: "Anime", Value: "anime"},
}

var seasonFolderOptions = []backend.Option{
	{Label: "Yes", Value: "true"},
	{Label: "No", Value: "false"},
}

// Adapter implements backend.Adapter for Sonarr instances.
type Adapter struct {
	client SonarrAPI
	logger zerolog.Logger
}

// NewAdapter connects to Sonarr, verifies the configured overrides exist
// on the instance, and returns the adapter.
func NewAdapter(ctx context.Context, cfg config.BackendConfig, logger zerolog.Logger) (backend.Adapter, error) {
	sc := starr.New(cfg.APIKey, cfg.URL, requestTimeout)
	client := sonarr.New(sc)

	a := &Adapter{
		client: client,
		logger: logger.With().Str("backend", cfg.Media).Logger(),
	}

	if err := client.Ping(); err != nil {
		return nil, backend.Unreachable(fmt.Errorf("failed to connect to Sonarr: %w", err))
	}

	if err := a.validateOverrides(ctx, cfg); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Adapter) validateOverrides(ctx context.Context, cfg config.BackendConfig) error {
	if cfg.MonitorType != "" && !optionExists(monitorOptions, cfg.MonitorType) {
		return fmt.Errorf("monitor_type %q is not valid: must be one of %s",
			cfg.MonitorType, optionValues(monitorOptions))
	}
	if cfg.SeriesType != "" && !optionExists(seriesTypeOptions, cfg.SeriesType) {
		return fmt.Errorf("series_type %q is not valid: must be one of %s",
			cfg.SeriesType, optionValues(seriesTypeOptions))
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
	return backend.FamilySonarr
}

// Search looks a series up via Sonarr's TVDB-backed lookup endpoint.
func (a *Adapter) Search(ctx context.Context, query string) ([]backend.Candidate, error) {
	series, err := a.client.LookupContext(ctx, query)
	if err != nil {
		return nil, classifyErr(err)
	}
	a.logger.Debug().Str("query", query).Int("results", len(series)).Msg("Series lookup completed")

	candidates := make([]backend.Candidate, 0, len(series))
	for _, s := range series {
		candidates = append(candidates, backend.Candidate{
			Title:     s.Title,
			Year:      s.Year,
			Overview:  s.Overview,
			PosterURL: posterURL(s.Images),
			RemoteID:  s.TvdbID,
			BackendID: s.ID,
			TitleSlug: s.TitleSlug,
		})
	}
	return candidates, nil
}

// RequiredSettings implements backend.Adapter
func (a *Adapter) RequiredSettings() []backend.SettingKind {
	return []backend.SettingKind{
		backend.SettingRootFolder,
		backend.SettingMonitorType,
		backend.SettingSeriesType,
		backend.SettingQualityProfile,
		backend.SettingSeasonFolder,
	}
}

// Options returns the selectable values for a setting.
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

	case backend.SettingSeriesType:
		return seriesTypeOptions, nil

	case backend.SettingSeasonFolder:
		return seasonFolderOptions, nil
	}

	return nil, fmt.Errorf("sonarr has no setting %q", kind)
}

// DefaultOption implements backend.Adapter
func (a *Adapter) DefaultOption(kind backend.SettingKind) backend.Option {
	switch kind {
	case backend.SettingMonitorType:
		return monitorOptions[0]
	case backend.SettingSeriesType:
		return seriesTypeOptions[0]
	case backend.SettingSeasonFolder:
		return seasonFolderOptions[0]
	}
	return backend.Option{}
}

// AlreadyTracked always reports false for series. A tracked series may
// be partially monitored, and users legitimately re-request existing
// series to pick up new seasons; idempotence is enforced at Submit.
func (a *Adapter) AlreadyTracked(backend.Candidate) bool {
	return false
}

// Submit adds the series with the resolved settings and triggers a
// search for missing episodes. A series Sonarr already tracks is
// acknowledged without touching the existing entry.
func (a *Adapter) Submit(ctx context.Context, c backend.Candidate, resolved backend.Settings) (backend.SubmitResult, error) {
	if c.BackendID != 0 {
		a.logger.Info().Str("title", c.Title).Msg("Series already tracked, skipping add")
		return backend.SubmitResult{AlreadyRequested: true}, nil
	}

	monitor := resolved[backend.SettingMonitorType].Value

	profileID, err := a.qualityProfileID(ctx, resolved[backend.SettingQualityProfile])
	if err != nil {
		return backend.SubmitResult{}, err
	}

	input := &sonarr.AddSeriesInput{
		TvdbID:           c.RemoteID,
		Title:            c.Title,
		TitleSlug:        c.TitleSlug,
		QualityProfileID: profileID,
		RootFolderPath:   resolved[backend.SettingRootFolder].Value,
		SeriesType:       resolved[backend.SettingSeriesType].Value,
		SeasonFolder:     resolved[backend.SettingSeasonFolder].Value == "true",
		Monitored:        monitor != "none",
		AddOptions: &sonarr.AddSeriesOptions{
			SearchForMissingEpisodes: true,
			Monitor:                  sonarr.MonitorType(monitor),
		},
	}

	a.logger.Info().
		Str("title", c.Title).
		Int64("tvdb_id", c.RemoteID).
		Str("root_folder", input.RootFolderPath).
		Int64("quality_profile_id", input.QualityProfileID).
		Str("monitor", monitor).
		Msg("Adding series to Sonarr")

	if _, err := a.client.AddSeriesContext(ctx, input); err != nil {
		if isAlreadyAdded(err) {
			return backend.SubmitResult{AlreadyRequested: true}, nil
		}
		return backend.SubmitResult{}, classifyErr(err)
	}

	return backend.SubmitResult{}, nil
}

// qualityProfileID resolves the profile option to its numeric id,
// looking a statically configured name up on the instance.
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
func classifyErr(err error) error {
	var reqErr *starr.ReqError
	if errors.As(err, &reqErr) && reqErr.Code >= 400 && reqErr.Code < 500 {
		return backend.Rejected(err)
	}
	return backend.Unreachable(err)
}

// isAlreadyAdded detects Sonarr's duplicate-series validation failure.
func isAlreadyAdded(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already been added")
}

// posterURL picks the poster out of a lookup result's image set,
// preferring the remote URL since lookup results may not be in the
// library yet.
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
