package radarr

import (
	"context"

	"golift.io/starr/radarr"
)

// RadarrAPI defines the starr surface the adapter depends on
type RadarrAPI interface {
	// Lookup operations
	LookupContext(ctx context.Context, term string) ([]*radarr.Movie, error)

	// Add operations
	AddMovieContext(ctx context.Context, movie *radarr.AddMovieInput) (*radarr.Movie, error)

	// Setting enumeration
	GetQualityProfilesContext(ctx context.Context) ([]*radarr.QualityProfile, error)
	GetRootFoldersContext(ctx context.Context) ([]*radarr.RootFolder, error)

	// Health check
	Ping() error
}
