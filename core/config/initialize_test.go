package config

import (
	"bytes"
	"io"
	"log"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Initialize(fs, "/srv/shell", log.New(io.Discard, "", 0)))

	// Check that the config is valid
	cfg, err := Load(fs, "/srv/shell")
	require.NoError(t, err)
	assert.Equal(t, Default().MaxCallDepth, cfg.MaxCallDepth)

	t.Run("keeps-existing", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/srv/shell/config.yaml", []byte("max_call_depth: 7\n"), 0644))

		var out bytes.Buffer
		require.NoError(t, Initialize(fs, "/srv/shell", log.New(&out, "", 0)))
		assert.Contains(t, out.String(), "already exists")

		cfg, err := Load(fs, "/srv/shell")
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.MaxCallDepth)
	})
}
