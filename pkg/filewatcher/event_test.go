package filewatcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conduit/pkg/filewatcher"
)

func TestParseEventType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"created", "modified", "deleted"} {
		parsed, err := filewatcher.ParseEventType(name)
		require.NoError(t, err)
		assert.Equal(t, name, parsed.String())
	}

	_, err := filewatcher.ParseEventType("renamed")
	require.ErrorIs(t, err, filewatcher.ErrUnknownEventType)
}

func TestEventString(t *testing.T) {
	t.Parallel()

	event := filewatcher.Event{Type: filewatcher.Modified, Path: "/etc/app.yaml"}
	assert.Equal(t, "modified: /etc/app.yaml", event.String())
}
