package workflow

import (
	"errors"
	"regexp"
	"strings"

	"github.com/requestarr/requestarr/backend"
)

// User-facing notice text. Everything shown to users passes through
// here; raw backend errors stay in the logs.
const (
	msgExpired      = "This request has expired, please start again."
	msgUnauthorized = "This is not your request. Start your own with /request."
	msgBusy         = "Still working on your previous action, give it a second."
	msgNoMatches    = "No matches found."
	msgUnreachable  = "The backend server could not be reached. Please try again later."
	msgInternal     = "Something went wrong while processing your request. Please try again or contact your administrator."
	msgCancelled    = "Request cancelled."
	msgAlreadyAdded = "Already requested - nothing more to add."
)

var (
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key=)[^&\s"]+`)
	urlPattern    = regexp.MustCompile(`https?://[^\s"]+`)
)

// userMessage translates an internal error into the sanitized text a
// Discord user may see. This is the only place where errors become
// user-facing strings.
func userMessage(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnreachable):
		return msgUnreachable
	case errors.Is(err, backend.ErrRejected):
		return "The backend rejected the request: " + sanitizeReason(err)
	case errors.Is(err, backend.ErrUnknownBackend):
		return "No backend is configured for that media type."
	default:
		return msgInternal
	}
}

// sanitizeReason strips credentials and server addresses out of a
// backend rejection before it reaches chat.
func sanitizeReason(err error) string {
	reason := err.Error()
	reason = apiKeyPattern.ReplaceAllString(reason, "${1}[redacted]")
	reason = urlPattern.ReplaceAllString(reason, "[backend]")
	// Drop our own wrapping prefix, users only care about the cause.
	reason = strings.TrimPrefix(reason, backend.ErrRejected.Error()+": ")
	return reason
}
