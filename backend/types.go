package backend

import (
	"context"
	"fmt"
)

// Family identifies which *arr implementation serves a configured media name.
type Family string

const (
	FamilyRadarr Family = "radarr"
	FamilySonarr Family = "sonarr"
)

// SettingKind names one request setting that must be resolved before a
// candidate can be submitted to a backend.
type SettingKind string

const (
	SettingRootFolder          SettingKind = "rootFolder"
	SettingQualityProfile      SettingKind = "qualityProfile"
	SettingMonitorType         SettingKind = "monitorType"
	SettingMinimumAvailability SettingKind = "minimumAvailability"
	SettingSeriesType          SettingKind = "seriesType"
	SettingSeasonFolder        SettingKind = "seasonFolder"
)

// Title returns the prompt heading shown to users for a setting.
func (k SettingKind) Title() string {
	switch k {
	case SettingRootFolder:
		return "Root Folder"
	case SettingQualityProfile:
		return "Quality Profile"
	case SettingMonitorType:
		return "Monitor"
	case SettingMinimumAvailability:
		return "Minimum Availability"
	case SettingSeriesType:
		return "Series Type"
	case SettingSeasonFolder:
		return "Use Season Folders"
	}
	return string(k)
}

// Option is one selectable value for a setting.
type Option struct {
	// Label is the human-readable form shown in prompts and summaries.
	Label string
	// Value is the backend enum string, path, or name submitted to the API.
	Value string
	// ID carries the numeric identifier where the backend uses one
	// (quality profiles). Zero for purely string-valued settings.
	ID int64
}

// Settings maps each resolved setting to the option chosen for it.
type Settings map[SettingKind]Option

// Candidate is one search result returned by an adapter. The display
// fields feed prompts and summaries; RemoteID and BackendID feed the
// submit call.
type Candidate struct {
	Title     string
	Year      int
	Overview  string
	PosterURL string
	// RemoteID is the external identifier: TMDB for movies, TVDB for series.
	RemoteID int64
	// BackendID is nonzero when the backend already tracks this title.
	BackendID int64
	// TitleSlug is the backend's URL-safe title, required by add calls.
	TitleSlug string
}

// Display returns the candidate's title disambiguated by its year, so
// identically-titled results remain distinguishable in a menu.
func (c Candidate) Display() string {
	if c.Year == 0 {
		return c.Title
	}
	return fmt.Sprintf("%s (%d)", c.Title, c.Year)
}

// SubmitResult reports the outcome of an add call.
type SubmitResult struct {
	// AlreadyRequested is set when the backend already tracks the
	// candidate. The existing entry is left untouched.
	AlreadyRequested bool
}

// Adapter is the uniform capability surface implemented once per backend
// family. Implementations are stateless with respect to workflows: all
// per-request state lives in the session.
type Adapter interface {
	// Family reports which implementation this adapter wraps.
	Family() Family

	// Search looks the query up on the backend and returns candidates in
	// backend relevance order.
	Search(ctx context.Context, query string) ([]Candidate, error)

	// RequiredSettings lists every setting this family needs resolved,
	// in the order users should be prompted.
	RequiredSettings() []SettingKind

	// Options returns the backend's full value set for a setting. Root
	// folders and quality profiles hit the backend; enum-valued settings
	// are answered locally.
	Options(ctx context.Context, kind SettingKind) ([]Option, error)

	// DefaultOption is the fallback used when allowed-choice filtering
	// leaves a setting with no values.
	DefaultOption(kind SettingKind) Option

	// AlreadyTracked reports whether a candidate is known, from the
	// search payload alone, to be tracked by the backend already. Used
	// to stop the flow before configuration. Families that cannot tell
	// (or where re-requesting is meaningful) return false and rely on
	// Submit idempotence instead.
	AlreadyTracked(c Candidate) bool

	// Submit issues the add/monitor call. Submitting a candidate the
	// backend already tracks reports AlreadyRequested instead of failing.
	Submit(ctx context.Context, c Candidate, resolved Settings) (SubmitResult, error)
}
