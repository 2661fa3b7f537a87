package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-guidescan/internal/guide"
)

// isolate points HOME and the working directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".vibe-guidescan", "guidescan.duckdb"), cfg.Database.Path)
	assert.Equal(t, "bam", cfg.Guides.Backend)
	assert.Equal(t, []int{2, 3}, cfg.Query.SummaryDistances)
	assert.Equal(t, 3, cfg.Query.MaxMismatches)
	assert.Equal(t, "cut-site", cfg.Query.Annotation)
	assert.Equal(t, "info", cfg.Log.Level)

	cas9, err := cfg.Enzyme("Cas9")
	require.NoError(t, err)
	assert.Equal(t, guide.Enzyme{Name: "cas9", PAM: "NGG", PAMPosition: guide.PAM3Prime, GuideLength: 23, HasScores: true}, cas9)

	cas12a, err := cfg.Enzyme("cas12a")
	require.NoError(t, err)
	assert.False(t, cas12a.HasScores)
	assert.Equal(t, guide.PAM5Prime, cas12a.PAMPosition)

	_, err = cfg.Enzyme("cas13")
	assert.Error(t, err)

	assert.Equal(t, int64(0), cfg.OffsetFor("sacCer3", "cas9"))
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
guides:
  path_prefix: /data/guides
  paths:
    sacCer3:
      cas9: sacCer3.bam
      cas12a: /abs/sacCer3.cas12a.bam
    hg38:
      cas12a: hg38.cas12a.bam
legacy_offsets:
  sacCer3:
    cas9: 1
query:
  summary_distances: [1, 2, 3]
  workers: 4
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, int64(1), cfg.OffsetFor("sacCer3", "cas9"))
	assert.Equal(t, int64(1), cfg.OffsetFor("SACCER3", "CAS9"))
	assert.Equal(t, int64(0), cfg.OffsetFor("sacCer3", "cas12a"))

	p, err := cfg.GuidePath("sacCer3", "cas9")
	require.NoError(t, err)
	assert.Equal(t, "/data/guides/sacCer3.bam", p)

	p, err = cfg.GuidePath("sacCer3", "cas12a")
	require.NoError(t, err)
	assert.Equal(t, "/abs/sacCer3.cas12a.bam", p)

	_, err = cfg.GuidePath("mm10", "cas9")
	assert.Error(t, err)

	assert.Equal(t, []int{1, 2, 3}, cfg.Query.SummaryDistances)
	assert.Equal(t, 4, cfg.Query.Workers)

	assert.Equal(t, [][2]string{{"hg38", "cas12a"}, {"saccer3", "cas12a"}, {"saccer3", "cas9"}}, cfg.Databases())

	// Default enzymes survive a file that does not mention them.
	_, err = cfg.Enzyme("cas9")
	assert.NoError(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GUIDESCAN_DATABASE_PATH", "/tmp/override.duckdb")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GUIDESCAN_LOG_LEVEL=debug\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GUIDESCAN_LOG_LEVEL") })

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.duckdb", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(viper.New(), filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := isolate(t)

	path := writeConfig(t, dir, "guides:\n  backend: postgres\n")
	_, err := Load(viper.New(), path)
	assert.ErrorContains(t, err, "guides.backend")

	cfg := &Config{
		Guides:  GuidesConfig{Backend: "duckdb"},
		Enzymes: map[string]EnzymeConfig{"x": {PAM: "NGG", PAMPosition: "middle", GuideLength: 23}},
	}
	assert.ErrorContains(t, cfg.Validate(), "pam_position")

	cfg.Enzymes["x"] = EnzymeConfig{PAM: "NGG", PAMPosition: "3prime", GuideLength: 3}
	assert.ErrorContains(t, cfg.Validate(), "guide_length")

	cfg.Enzymes["x"] = EnzymeConfig{PAM: "NGG", PAMPosition: "3prime", GuideLength: 23}
	cfg.Query.SummaryDistances = []int{-1}
	assert.ErrorContains(t, cfg.Validate(), "summary_distances")
}
