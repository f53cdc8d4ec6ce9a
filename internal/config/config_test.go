package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 0.3, cfg.Import.SimilarityThreshold)
	assert.Equal(t, 60*time.Second, cfg.Import.FetchTimeout.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":8080"

[llm]
provider = "claude"
model = "claude-3-5-haiku-latest"

[import]
similarity_threshold = 0.45
fetch_timeout = "5s"
rerank_matches = true

[extraction]
annuaire = "fields %s text %s"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(32), cfg.Server.MaxUploadMB, "unset keys keep defaults")
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, 0.45, cfg.Import.SimilarityThreshold)
	assert.Equal(t, 5*time.Second, cfg.Import.FetchTimeout.Duration)
	assert.True(t, cfg.Import.RerankMatches)
	assert.Equal(t, "fields %s text %s", cfg.Extraction.Annuaire)
	assert.Equal(t, defaultEvenementPrompt, cfg.Extraction.Evenement)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr="), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL":         "postgres://localhost/test",
		"PORT":                 "9090",
		"LLM_MODEL":            "gpt-4o",
		"OPENAI_API_KEY":       "sk-test",
		"SIMILARITY_THRESHOLD": "0.5",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "postgres://localhost/test", cfg.Database.URL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 0.5, cfg.Import.SimilarityThreshold)

	env["SIMILARITY_THRESHOLD"] = "high"
	assert.Error(t, Default().ApplyEnv(lookup))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "mistral"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Import.SimilarityThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}
