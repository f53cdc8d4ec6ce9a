package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "config/config.toml"

type ServerConfig struct {
	Addr        string   `toml:"addr" validate:"required"`
	CORSOrigins []string `toml:"cors_origins"`
	MaxUploadMB int64    `toml:"max_upload_mb" validate:"gte=1,lte=512"`
}

type DatabaseConfig struct {
	URL         string `toml:"url"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

type LLMConfig struct {
	Provider string `toml:"provider" validate:"oneof=openai gemini claude ollama"`
	Model    string `toml:"model" validate:"required"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url" validate:"omitempty,url"`
}

type ImportConfig struct {
	SimilarityThreshold float64  `toml:"similarity_threshold" validate:"gt=0,lt=1"`
	FetchTimeout        Duration `toml:"fetch_timeout"`
	RerankMatches       bool     `toml:"rerank_matches"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

// ExtractionPrompts are fmt templates receiving the field list then the raw text.
type ExtractionPrompts struct {
	Annuaire  string `toml:"annuaire" validate:"required"`
	Evenement string `toml:"evenement" validate:"required"`
}

type Config struct {
	Server     ServerConfig      `toml:"server"`
	Database   DatabaseConfig    `toml:"database"`
	LLM        LLMConfig         `toml:"llm"`
	Import     ImportConfig      `toml:"import"`
	Log        LogConfig         `toml:"log"`
	Extraction ExtractionPrompts `toml:"extraction"`
}

// Duration reads TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":5000",
			CORSOrigins: []string{"*"},
			MaxUploadMB: 32,
		},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Import: ImportConfig{
			SimilarityThreshold: 0.3,
			FetchTimeout:        Duration{60 * time.Second},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Extraction: ExtractionPrompts{
			Annuaire:  defaultAnnuairePrompt,
			Evenement: defaultEvenementPrompt,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	return cfg, nil
}

// FromEnv loads .env if present, reads CONFIG_PATH (or DefaultPath), applies
// environment overrides and validates the result.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("DATABASE_URL", &c.Database.URL)
	set("LLM_PROVIDER", &c.LLM.Provider)
	set("LLM_MODEL", &c.LLM.Model)
	set("LLM_API_KEY", &c.LLM.APIKey)
	set("LLM_BASE_URL", &c.LLM.BaseURL)
	set("LOG_LEVEL", &c.Log.Level)

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	if v, ok := lookup("SIMILARITY_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: SIMILARITY_THRESHOLD: %w", err)
		}
		c.Import.SimilarityThreshold = f
	}
	// OPENAI_API_KEY is honoured for existing deployments.
	if c.LLM.APIKey == "" && c.LLM.Provider == "openai" {
		set("OPENAI_API_KEY", &c.LLM.APIKey)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

const defaultAnnuairePrompt = `Extract every directory entry (partner, supplier, doctor or other contact) described in the text below.
Return ONLY a JSON object of the form {"entries": [ {...}, ... ]}.
Each entry may use these keys, typed as indicated; omit keys you cannot fill:
%s
Use YYYY-MM-DD for dates and true/false for booleans. "nom" and "prenom" are required.

Text:
%s`

const defaultEvenementPrompt = `Extract every event described in the text below.
Return ONLY a JSON object of the form {"entries": [ {...}, ... ]}.
Each entry may use these keys, typed as indicated; omit keys you cannot fill:
%s
Use YYYY-MM-DD for dates and HH:MM for times. "nom_evenement" is required.

Text:
%s`
