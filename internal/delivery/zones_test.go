package delivery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZones_FeeFor(t *testing.T) {
	zones := NewZones(map[string]float64{
		"Curicaca":      7.00,
		"Centro":        5.00,
		"São Cristóvão": 8.00,
	})

	t.Run("Known neighborhood", func(t *testing.T) {
		fee, err := zones.FeeFor("Curicaca")
		require.NoError(t, err)
		assert.Equal(t, 7.00, fee)
	})

	t.Run("Match ignores accents and casing", func(t *testing.T) {
		fee, err := zones.FeeFor("sao cristovao")
		require.NoError(t, err)
		assert.Equal(t, 8.00, fee)
	})

	t.Run("Unknown neighborhood is Unserved, not zero fee", func(t *testing.T) {
		_, err := zones.FeeFor("Bairro Inexistente")
		assert.ErrorIs(t, err, ErrUnservedZone)
	})
}

func TestLoadZones(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zones.yaml")
	content := `
zones:
  Curicaca: 7.00
  Centro: 5.00
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	zones, err := LoadZones(path)
	require.NoError(t, err)

	fee, err := zones.FeeFor("curicaca")
	require.NoError(t, err)
	assert.Equal(t, 7.00, fee)

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadZones(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}
