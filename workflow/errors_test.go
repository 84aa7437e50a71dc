package workflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/requestarr/requestarr/backend"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unreachable",
			err:  backend.Unreachable(errors.New("dial tcp 10.0.0.5:7878: connection refused")),
			want: msgUnreachable,
		},
		{
			name: "unknown backend",
			err:  fmt.Errorf("%w: anime", backend.ErrUnknownBackend),
			want: "No backend is configured for that media type.",
		},
		{
			name: "unclassified",
			err:  errors.New("nil pointer dereference"),
			want: msgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}

func TestUserMessageRedactsRejections(t *testing.T) {
	err := backend.Rejected(errors.New(
		`invalid response from http://10.0.0.5:7878/api/v3/movie?apikey=deadbeef1234: rootFolderPath invalid`))

	msg := userMessage(err)
	assert.Contains(t, msg, "rejected")
	assert.NotContains(t, msg, "deadbeef1234")
	assert.NotContains(t, msg, "10.0.0.5")
	assert.Contains(t, msg, "rootFolderPath invalid")
}

func TestSanitizeReasonAPIKeyForms(t *testing.T) {
	for _, raw := range []string{
		"GET /status?api_key=secret123 failed",
		"GET /status?api-key=secret123 failed",
		"GET /status?apikey=secret123 failed",
	} {
		cleaned := sanitizeReason(errors.New(raw))
		assert.NotContains(t, cleaned, "secret123", "raw %q", raw)
	}
}
