package radarr

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golift.io/starr"
	"golift.io/starr/radarr"

	"github.com/requestarr/requestarr/backend"
	"github.com/requestarr/requestarr/config"
)

// mockRadarrAPI implements RadarrAPI for testing
type mockRadarrAPI struct {
	lookupResult []*radarr.Movie
	lookupErr    error

	addResult *radarr.Movie
	addErr    error
	addCalls  []*radarr.AddMovieInput

	profiles    []*radarr.QualityProfile
	profilesErr error

	folders    []*radarr.RootFolder
	foldersErr error

	pingErr error
}

func (m *mockRadarrAPI) LookupContext(ctx context.Context, term string) ([]*radarr.Movie, error) {
	return m.lookupResult, m.lookupErr
}

func (m *mockRadarrAPI) AddMovieContext(ctx context.Context, movie *radarr.AddMovieInput) (*radarr.Movie, error) {
	m.addCalls = append(m.addCalls, movie)
	return m.addResult, m.addErr
}

func (m *mockRadarrAPI) GetQualityProfilesContext(ctx context.Context) ([]*radarr.QualityProfile, error) {
	return m.profiles, m.profilesErr
}

func (m *mockRadarrAPI) GetRootFoldersContext(ctx context.Context) ([]*radarr.RootFolder, error) {
	return m.folders, m.foldersErr
}

func (m *mockRadarrAPI) Ping() error {
	return m.pingErr
}

func newTestAdapter(mock *mockRadarrAPI) *Adapter {
	return &Adapter{client: mock, logger: zerolog.Nop()}
}

func TestSearch(t *testing.T) {
	mock := &mockRadarrAPI{
		lookupResult: []*radarr.Movie{
			{
				Title:    "Dune: Part Two",
				Year:     2024,
				Overview: "Paul Atreides unites with Chani.",
				Images: []*starr.Image{
					{CoverType: "fanart", RemoteURL: "https://image.tmdb.org/fanart.jpg"},
					{CoverType: "poster", URL: "/MediaCover/1/poster.jpg", RemoteURL: "https://image.tmdb.org/poster.jpg"},
				},
				TmdbID: 693134,
			},
			{
				Title:  "Dune",
				Year:   2021,
				TmdbID: 438631,
				ID:     42,
			},
		},
	}

	candidates, err := newTestAdapter(mock).Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Dune: Part Two", candidates[0].Title)
	assert.Equal(t, 2024, candidates[0].Year)
	assert.Equal(t, "Paul Atreides unites with Chani.", candidates[0].Overview)
	assert.Equal(t, "https://image.tmdb.org/poster.jpg", candidates[0].PosterURL)
	assert.Equal(t, int64(693134), candidates[0].RemoteID)
	assert.Zero(t, candidates[0].BackendID)

	assert.Equal(t, int64(42), candidates[1].BackendID)
}

func TestPosterURL(t *testing.T) {
	tests := []struct {
		name   string
		images []*starr.Image
		want   string
	}{
		{
			name: "remote url preferred",
			images: []*starr.Image{
				{CoverType: "poster", URL: "/MediaCover/1/poster.jpg", RemoteURL: "https://image.tmdb.org/poster.jpg"},
			},
			want: "https://image.tmdb.org/poster.jpg",
		},
		{
			name: "local url fallback",
			images: []*starr.Image{
				{CoverType: "poster", URL: "/MediaCover/1/poster.jpg"},
			},
			want: "/MediaCover/1/poster.jpg",
		},
		{
			name: "non-poster covers skipped",
			images: []*starr.Image{
				{CoverType: "banner", RemoteURL: "https://image.tmdb.org/banner.jpg"},
				{CoverType: "fanart", RemoteURL: "https://image.tmdb.org/fanart.jpg"},
			},
			want: "",
		},
		{
			name: "no images",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, posterURL(tt.images))
		})
	}
}

func TestSearchError(t *testing.T) {
	mock := &mockRadarrAPI{lookupErr: errors.New("connection refused")}

	_, err := newTestAdapter(mock).Search(context.Background(), "dune")
	assert.ErrorIs(t, err, backend.ErrUnreachable)
}

func TestOptions(t *testing.T) {
	mock := &mockRadarrAPI{
		profiles: []*radarr.QualityProfile{
			{ID: 1, Name: "Any"},
			{ID: 4, Name: "HD-1080p"},
		},
		folders: []*radarr.RootFolder{
			{ID: 1, Path: "/movies"},
		},
	}
	a := newTestAdapter(mock)
	ctx := context.Background()

	profiles, err := a.Options(ctx, backend.SettingQualityProfile)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, backend.Option{Label: "HD-1080p", Value: "HD-1080p", ID: 4}, profiles[1])

	folders, err := a.Options(ctx, backend.SettingRootFolder)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "/movies", folders[0].Value)

	monitors, err := a.Options(ctx, backend.SettingMonitorType)
	require.NoError(t, err)
	assert.Equal(t, monitorOptions, monitors)

	avail, err := a.Options(ctx, backend.SettingMinimumAvailability)
	require.NoError(t, err)
	assert.Equal(t, availabilityOptions, avail)

	_, err = a.Options(ctx, backend.SettingSeriesType)
	assert.Error(t, err)
}

func TestRequiredSettingsOrder(t *testing.T) {
	a := newTestAdapter(&mockRadarrAPI{})
	assert.Equal(t, []backend.SettingKind{
		backend.SettingRootFolder,
		backend.SettingMonitorType,
		backend.SettingMinimumAvailability,
		backend.SettingQualityProfile,
	}, a.RequiredSettings())
}

func TestDefaultOption(t *testing.T) {
	a := newTestAdapter(&mockRadarrAPI{})

	assert.Equal(t, "movieOnly", a.DefaultOption(backend.SettingMonitorType).Value)
	assert.Equal(t, "released", a.DefaultOption(backend.SettingMinimumAvailability).Value)
	assert.Empty(t, a.DefaultOption(backend.SettingRootFolder).Value)
}

func TestAlreadyTracked(t *testing.T) {
	a := newTestAdapter(&mockRadarrAPI{})

	assert.True(t, a.AlreadyTracked(backend.Candidate{BackendID: 7}))
	assert.False(t, a.AlreadyTracked(backend.Candidate{}))
}

func resolvedSettings() backend.Settings {
	return backend.Settings{
		backend.SettingRootFolder:          {Label: "/movies", Value: "/movies", ID: 1},
		backend.SettingMonitorType:         {Label: "Movie Only", Value: "movieOnly"},
		backend.SettingMinimumAvailability: {Label: "Released", Value: "released"},
		backend.SettingQualityProfile:      {Label: "HD-1080p", Value: "HD-1080p", ID: 4},
	}
}

func TestSubmit(t *testing.T) {
	mock := &mockRadarrAPI{}
	a := newTestAdapter(mock)

	candidate := backend.Candidate{
		Title:     "Dune: Part Two",
		Year:      2024,
		RemoteID:  693134,
		TitleSlug: "dune-part-two-693134",
	}

	result, err := a.Submit(context.Background(), candidate, resolvedSettings())
	require.NoError(t, err)
	assert.False(t, result.AlreadyRequested)

	require.Len(t, mock.addCalls, 1)
	input := mock.addCalls[0]
	assert.Equal(t, int64(693134), input.TmdbID)
	assert.Equal(t, "Dune: Part Two", input.Title)
	assert.Equal(t, "dune-part-two-693134", input.TitleSlug)
	assert.Equal(t, 2024, input.Year)
	assert.Equal(t, int64(4), input.QualityProfileID)
	assert.Equal(t, "/movies", input.RootFolderPath)
	assert.Equal(t, radarr.Availability("released"), input.MinimumAvailability)
	assert.True(t, input.Monitored)
	require.NotNil(t, input.AddOptions)
	assert.True(t, input.AddOptions.SearchForMovie)
	assert.Equal(t, "movieOnly", input.AddOptions.Monitor)
}

func TestSubmitMonitorNone(t *testing.T) {
	mock := &mockRadarrAPI{}
	a := newTestAdapter(mock)

	resolved := resolvedSettings()
	resolved[backend.SettingMonitorType] = backend.Option{Label: "None", Value: "none"}

	_, err := a.Submit(context.Background(), backend.Candidate{RemoteID: 1}, resolved)
	require.NoError(t, err)

	require.Len(t, mock.addCalls, 1)
	assert.False(t, mock.addCalls[0].Monitored)
	assert.Equal(t, "none", mock.addCalls[0].AddOptions.Monitor)
}

func TestSubmitAlreadyTracked(t *testing.T) {
	mock := &mockRadarrAPI{}
	a := newTestAdapter(mock)

	result, err := a.Submit(context.Background(), backend.Candidate{BackendID: 42}, resolvedSettings())
	require.NoError(t, err)
	assert.True(t, result.AlreadyRequested)
	assert.Empty(t, mock.addCalls, "tracked movies must not be re-added")
}

func TestSubmitDuplicateValidation(t *testing.T) {
	mock := &mockRadarrAPI{
		addErr: errors.New("This movie has already been added"),
	}
	a := newTestAdapter(mock)

	result, err := a.Submit(context.Background(), backend.Candidate{RemoteID: 1}, resolvedSettings())
	require.NoError(t, err)
	assert.True(t, result.AlreadyRequested)
}

func TestSubmitRejected(t *testing.T) {
	mock := &mockRadarrAPI{
		addErr: &starr.ReqError{Code: 400},
	}
	a := newTestAdapter(mock)

	_, err := a.Submit(context.Background(), backend.Candidate{RemoteID: 1}, resolvedSettings())
	assert.ErrorIs(t, err, backend.ErrRejected)
}

func TestSubmitUnreachable(t *testing.T) {
	mock := &mockRadarrAPI{
		addErr: errors.New("dial tcp: connection refused"),
	}
	a := newTestAdapter(mock)

	_, err := a.Submit(context.Background(), backend.Candidate{RemoteID: 1}, resolvedSettings())
	assert.ErrorIs(t, err, backend.ErrUnreachable)
}

func TestQualityProfileIDLookup(t *testing.T) {
	mock := &mockRadarrAPI{
		profiles: []*radarr.QualityProfile{
			{ID: 1, Name: "Any"},
			{ID: 4, Name: "HD-1080p"},
		},
	}
	a := newTestAdapter(mock)

	// A configured override only carries the profile name.
	resolved := resolvedSettings()
	resolved[backend.SettingQualityProfile] = backend.Option{Label: "HD-1080p", Value: "HD-1080p"}

	_, err := a.Submit(context.Background(), backend.Candidate{RemoteID: 1}, resolved)
	require.NoError(t, err)
	require.Len(t, mock.addCalls, 1)
	assert.Equal(t, int64(4), mock.addCalls[0].QualityProfileID)
}

func TestQualityProfileIDMissing(t *testing.T) {
	mock := &mockRadarrAPI{
		profiles: []*radarr.QualityProfile{{ID: 1, Name: "Any"}},
	}
	a := newTestAdapter(mock)

	resolved := resolvedSettings()
	resolved[backend.SettingQualityProfile] = backend.Option{Value: "Gone"}

	_, err := a.Submit(context.Background(), backend.Candidate{RemoteID: 1}, resolved)
	assert.ErrorIs(t, err, backend.ErrRejected)
	assert.Empty(t, mock.addCalls)
}

func TestValidateOverrides(t *testing.T) {
	mock := &mockRadarrAPI{
		profiles: []*radarr.QualityProfile{{ID: 4, Name: "HD-1080p"}},
		folders:  []*radarr.RootFolder{{ID: 1, Path: "/movies"}},
	}
	a := newTestAdapter(mock)
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.BackendConfig
		wantErr string
	}{
		{
			name: "all overrides valid",
			cfg: config.BackendConfig{
				MonitorType:         "movieOnly",
				MinimumAvailability: "announced",
				QualityProfile:      "HD-1080p",
				RootFolder:          "/movies",
			},
		},
		{
			name:    "unknown monitor type",
			cfg:     config.BackendConfig{MonitorType: "everything"},
			wantErr: "monitor_type",
		},
		{
			name:    "unknown minimum availability",
			cfg:     config.BackendConfig{MinimumAvailability: "preorder"},
			wantErr: "minimum_availability",
		},
		{
			name:    "quality profile not on instance",
			cfg:     config.BackendConfig{QualityProfile: "Ultra-HD"},
			wantErr: "quality profile",
		},
		{
			name:    "root folder not on instance",
			cfg:     config.BackendConfig{RootFolder: "/mnt/other"},
			wantErr: "root folder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.validateOverrides(ctx, tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
