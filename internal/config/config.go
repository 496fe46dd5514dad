// Package config loads tabscrape settings. Values are layered: built-in
// defaults, then an optional YAML file, then environment variables (a .env
// file in the working directory is loaded first), then command-line flags
// applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leofalp/tabscrape/core/chunk"
	"github.com/leofalp/tabscrape/core/parse"
	"github.com/leofalp/tabscrape/core/pipeline"
	"github.com/leofalp/tabscrape/core/table"
	"github.com/leofalp/tabscrape/providers/ai/ollama"
	"github.com/leofalp/tabscrape/providers/web/cleaner"
	"github.com/leofalp/tabscrape/providers/web/webfetch"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when Load is given no path and the file exists.
const DefaultFile = "tabscrape.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TABSCRAPE_"

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of tabscrape settings.
type Config struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`

	Chunk   ChunkConfig   `yaml:"chunk"`
	Parse   ParseConfig   `yaml:"parse"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Request RequestConfig `yaml:"request"`
	Output  OutputConfig  `yaml:"output"`
}

// ChunkConfig controls how page text is split and sent.
type ChunkConfig struct {
	MaxLength int    `yaml:"max_length"`
	Mode      string `yaml:"mode"`
}

// ParseConfig controls response repair and table normalization.
type ParseConfig struct {
	Policy      string   `yaml:"policy"`
	RecordsKeys []string `yaml:"records_keys"`
	Sentinel    string   `yaml:"sentinel"`
	KeepSign    bool     `yaml:"keep_sign"`
}

// FetchConfig controls page retrieval and cleaning.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Cleaner   string        `yaml:"cleaner"`
}

// RequestConfig controls the extraction service call. Retries of zero
// disables the retry middleware.
type RequestConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// OutputConfig holds sink paths. An empty path disables that sink.
type OutputConfig struct {
	CSV    string `yaml:"csv"`
	JSON   string `yaml:"json"`
	XLSX   string `yaml:"xlsx"`
	SQLite string `yaml:"sqlite"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Provider:  ProviderOllama,
		Model:     ollama.DefaultModel,
		APIKeyEnv: "OPENAI_API_KEY",
		Chunk: ChunkConfig{
			MaxLength: chunk.DefaultMaxLength,
			Mode:      string(pipeline.ModeJoined),
		},
		Parse: ParseConfig{
			Policy:      parse.DefaultPolicy.Name,
			RecordsKeys: append([]string(nil), table.DefaultRecordsKeys...),
			Sentinel:    table.DefaultSentinel,
		},
		Fetch: FetchConfig{
			Timeout:   webfetch.DefaultTimeout,
			UserAgent: webfetch.DefaultUserAgent,
			Cleaner:   string(cleaner.ModeText),
		},
		Request: RequestConfig{
			Timeout: ollama.DefaultTimeout,
		},
		Output: OutputConfig{
			CSV:  "extracted_data.csv",
			JSON: "extracted_data.json",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path falls back to DefaultFile when present.
// The result is not validated; callers apply flags first.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return c.Decode(file)
}

// Decode overlays YAML from r onto c. Keys absent from the document keep
// their current values.
func (c *Config) Decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// ApplyEnv overlays TABSCRAPE_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("PROVIDER", &c.Provider)
	str("MODEL", &c.Model)
	str("BASE_URL", &c.BaseURL)
	str("API_KEY_ENV", &c.APIKeyEnv)
	str("MODE", &c.Chunk.Mode)
	str("POLICY", &c.Parse.Policy)
	str("SENTINEL", &c.Parse.Sentinel)
	str("USER_AGENT", &c.Fetch.UserAgent)
	str("CLEANER", &c.Fetch.Cleaner)
	str("CSV", &c.Output.CSV)
	str("JSON", &c.Output.JSON)
	str("XLSX", &c.Output.XLSX)
	str("SQLITE", &c.Output.SQLite)

	if v, ok := lookup(EnvPrefix + "RECORDS_KEYS"); ok && v != "" {
		c.Parse.RecordsKeys = splitList(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_CHUNK", &c.Chunk.MaxLength},
		{"RETRIES", &c.Request.Retries},
	}
	for _, e := range ints {
		v, ok := lookup(EnvPrefix + e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, e.key, err)
		}
		*e.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"FETCH_TIMEOUT", &c.Fetch.Timeout},
		{"REQUEST_TIMEOUT", &c.Request.Timeout},
	}
	for _, e := range durations {
		v, ok := lookup(EnvPrefix + e.key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, e.key, err)
		}
		*e.dst = d
	}
	return nil
}

// Validate checks every field that has a closed set of values or a range.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: provider %q (want %s or %s)", ErrInvalid, c.Provider, ProviderOllama, ProviderOpenAI)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is empty", ErrInvalid)
	}
	if c.Chunk.MaxLength < 0 {
		return fmt.Errorf("%w: chunk max_length %d is negative", ErrInvalid, c.Chunk.MaxLength)
	}
	if _, err := pipeline.ParseMode(c.Chunk.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, ok := parse.PolicyByName(c.Parse.Policy); !ok {
		return fmt.Errorf("%w: parse policy %q", ErrInvalid, c.Parse.Policy)
	}
	if len(c.Parse.RecordsKeys) == 0 {
		return fmt.Errorf("%w: records_keys is empty", ErrInvalid)
	}
	if _, err := cleaner.ParseMode(c.Fetch.Cleaner); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("%w: fetch timeout must be positive", ErrInvalid)
	}
	if c.Request.Timeout < 0 {
		return fmt.Errorf("%w: request timeout is negative", ErrInvalid)
	}
	if c.Request.Retries < 0 {
		return fmt.Errorf("%w: retries %d is negative", ErrInvalid, c.Request.Retries)
	}
	return nil
}

// APIKey returns the value of the variable named by APIKeyEnv.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
