// Package config loads process settings from the environment, optionally
// layered over a YAML file named by CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingConfig reports a required setting that is absent.
var ErrMissingConfig = errors.New("config: missing required setting")

// Song count bounds for one recommendation.
const (
	MinSongs = 5
	MaxSongs = 10
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Session drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

type (
	// Config is the full process configuration.
	Config struct {
		Port           string        `yaml:"port"`
		FrontendURL    string        `yaml:"frontend_url"`
		LedgerDSN      string        `yaml:"ledger_dsn"`
		CatalogTimeout time.Duration `yaml:"catalog_timeout"`
		HistoryWindow  int           `yaml:"history_window"`
		MatchMinScore  float64       `yaml:"match_min_score"`

		Spotify SpotifyConfig `yaml:"spotify"`
		LLM     LLMConfig     `yaml:"llm"`
		Session SessionConfig `yaml:"session"`
		Policy  PolicyConfig  `yaml:"policy"`
		Songs   SongsConfig   `yaml:"songs"`
		Log     LogConfig     `yaml:"log"`
	}

	SpotifyConfig struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURI  string `yaml:"redirect_uri"`
		APIURL       string `yaml:"api_url"`
	}

	LLMConfig struct {
		Provider      string        `yaml:"provider"`
		APIKey        string        `yaml:"api_key"`
		BaseURL       string        `yaml:"base_url"`
		Model         string        `yaml:"model"`
		Temperature   float64       `yaml:"temperature"`
		MaxTokens     int           `yaml:"max_tokens"`
		Timeout       time.Duration `yaml:"timeout"`
		RatePerMinute float64       `yaml:"rate_per_minute"`
	}

	SessionConfig struct {
		Driver    string        `yaml:"driver"`
		RedisAddr string        `yaml:"redis_addr"`
		TTL       time.Duration `yaml:"ttl"`
		Capacity  int           `yaml:"capacity"`
	}

	PolicyConfig struct {
		CoverageThreshold   int `yaml:"coverage_threshold"`
		TurnCap             int `yaml:"turn_cap"`
		FinalizeMinCoverage int `yaml:"finalize_min_coverage"`
		FinalizeMinTurns    int `yaml:"finalize_min_turns"`
	}

	SongsConfig struct {
		Min int `yaml:"min"`
		Max int `yaml:"max"`
	}

	LogConfig struct {
		Debug  bool   `yaml:"debug"`
		Format string `yaml:"format"`
	}
)

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Port:           "8080",
		FrontendURL:    "http://localhost:5173",
		LedgerDSN:      "file:moodtunes?mode=memory&cache=shared",
		CatalogTimeout: 20 * time.Second,
		HistoryWindow:  6,
		Spotify: SpotifyConfig{
			RedirectURI: "http://localhost:8080/callback",
			APIURL:      "https://api.spotify.com/v1",
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.7,
			MaxTokens:   600,
			Timeout:     30 * time.Second,
		},
		Session: SessionConfig{
			Driver:    DriverMemory,
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
			Capacity:  10000,
		},
		Policy: PolicyConfig{
			CoverageThreshold:   3,
			TurnCap:             6,
			FinalizeMinCoverage: 2,
			FinalizeMinTurns:    3,
		},
		Songs: SongsConfig{Min: MinSongs, Max: MaxSongs},
	}
}

// Load reads CONFIG_FILE when set, applies environment overrides and
// validates the result. Environment values win over the file.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	e := &envReader{}
	e.str("PORT", &cfg.Port)
	e.str("FRONTEND_URL", &cfg.FrontendURL)
	e.str("LEDGER_DSN", &cfg.LedgerDSN)
	e.duration("CATALOG_TIMEOUT", &cfg.CatalogTimeout)
	e.integer("HISTORY_WINDOW", &cfg.HistoryWindow)
	e.float("MATCH_MIN_SCORE", &cfg.MatchMinScore)

	e.str("SPOTIFY_CLIENT_ID", &cfg.Spotify.ClientID)
	e.str("SPOTIFY_CLIENT_SECRET", &cfg.Spotify.ClientSecret)
	e.str("SPOTIFY_REDIRECT_URI", &cfg.Spotify.RedirectURI)
	e.str("SPOTIFY_API_URL", &cfg.Spotify.APIURL)

	e.str("LLM_PROVIDER", &cfg.LLM.Provider)
	e.str("LLM_API_KEY", &cfg.LLM.APIKey)
	e.str("LLM_BASE_URL", &cfg.LLM.BaseURL)
	e.str("LLM_MODEL", &cfg.LLM.Model)
	e.float("LLM_TEMPERATURE", &cfg.LLM.Temperature)
	e.integer("LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)
	e.duration("LLM_TIMEOUT", &cfg.LLM.Timeout)
	e.float("LLM_RATE_PER_MINUTE", &cfg.LLM.RatePerMinute)

	e.str("SESSION_DRIVER", &cfg.Session.Driver)
	e.str("REDIS_ADDR", &cfg.Session.RedisAddr)
	e.duration("SESSION_TTL", &cfg.Session.TTL)
	e.integer("SESSION_CAPACITY", &cfg.Session.Capacity)

	e.integer("POLICY_COVERAGE_THRESHOLD", &cfg.Policy.CoverageThreshold)
	e.integer("POLICY_TURN_CAP", &cfg.Policy.TurnCap)
	e.integer("POLICY_FINALIZE_MIN_COVERAGE", &cfg.Policy.FinalizeMinCoverage)
	e.integer("POLICY_FINALIZE_MIN_TURNS", &cfg.Policy.FinalizeMinTurns)

	e.integer("SONGS_MIN", &cfg.Songs.Min)
	e.integer("SONGS_MAX", &cfg.Songs.Max)

	e.boolean("LOG_DEBUG", &cfg.Log.Debug)
	e.str("LOG_FORMAT", &cfg.Log.Format)

	if e.err != nil {
		return Config{}, e.err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings and enumerations.
func (c Config) Validate() error {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, "SPOTIFY_CLIENT_ID")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "SPOTIFY_CLIENT_SECRET")
	}
	if c.LLM.Provider != ProviderOllama && c.LLM.APIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	switch c.Session.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("config: unknown SESSION_DRIVER %q", c.Session.Driver)
	}
	if c.MatchMinScore < 0 || c.MatchMinScore > 1 {
		return fmt.Errorf("config: MATCH_MIN_SCORE must be within 0..1, got %v", c.MatchMinScore)
	}
	return nil
}

// normalize clamps the song bounds and lowercases enumerations.
func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Session.Driver = strings.ToLower(strings.TrimSpace(c.Session.Driver))
	c.Songs.Min = clamp(c.Songs.Min, MinSongs, MaxSongs)
	c.Songs.Max = clamp(c.Songs.Max, MinSongs, MaxSongs)
	if c.Songs.Max < c.Songs.Min {
		c.Songs.Max = c.Songs.Min
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// envReader applies non-empty environment values and keeps the first parse
// error.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != "" && e.err == nil
}

func (e *envReader) fail(key, v string, err error) {
	e.err = fmt.Errorf("config: invalid %s=%q: %w", key, v, err)
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}
