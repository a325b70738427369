package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ level, format string }{
		{"debug", "console"},
		{"info", "json"},
		{"WARN", "text"},
		{"", "json"},
	} {
		l, err := New(tt.level, tt.format)
		require.NoError(t, err, "%s/%s", tt.level, tt.format)
		require.NotNil(t, l)
	}

	l, err := New("debug", "json")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New("error", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.WarnLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
