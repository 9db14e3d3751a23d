package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
overrides:
  models:
    auth_otp: OTPCode
  fields:
    user_id: userID
skip_unchanged_maps: true
search_paths:
  - db/schema.prisma
exclude_models:
  - _prisma_migrations
`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"auth_otp": "OTPCode"}, cfg.Overrides.Models)
	assert.Equal(t, map[string]string{"user_id": "userID"}, cfg.Overrides.Fields)
	assert.True(t, cfg.SkipUnchangedMaps)
	assert.Equal(t, []string{"db/schema.prisma"}, cfg.SearchPaths)
	assert.Equal(t, []string{"_prisma_migrations"}, cfg.ExcludeModels)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "acronyms: [ID]\n"},
		{"bad yaml", "overrides: [\n"},
		{"empty override", "overrides:\n  fields:\n    user_id: \"\"\n"},
		{"flat override table", "overrides:\n  user_id: userID\n"},
		{"empty search path", "search_paths: [\"\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("skip_unchanged_maps: true\n"), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.True(t, cfg.SkipUnchangedMaps)
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	_, err = Load(missing, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nope: 1\n"), 0o644))

	_, err := Load(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
