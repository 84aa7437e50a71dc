package sonarr

import (
	"context"

	"golift.io/starr/sonarr"
)

// SonarrAPI defines the starr surface the adapter depends on
type SonarrAPI interface {
	// Lookup operations
	LookupContext(ctx context.Context, term string) ([]*sonarr.Series, error)

	// Add operations
	AddSeriesContext(ctx context.Context, series *sonarr.AddSeriesInput) (*sonarr.Series, error)

	// Setting enumeration
	GetQualityProfilesContext(ctx context.Context) ([]*sonarr.QualityProfile, error)
	GetRootFoldersContext(ctx context.Context) ([]*sonarr.RootFolder, error)

	// Health check
	Ping() error
}
