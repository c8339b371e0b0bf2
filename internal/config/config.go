package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config holds the linkdex service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Rules     RulesConfig     `yaml:"rules"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"` // default: determined by env
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// CORSOrigins enables CORS for the listed origins; empty disables it.
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig holds persistence backend settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver" validate:"oneof=redis badger memory"` // default: memory
	Addrs            []string `yaml:"addrs" validate:"required_if=Driver redis"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // badger directory; empty opens in-memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider" validate:"oneof=openai none"` // default: none
	BaseURL          string `yaml:"base_url" validate:"required_if=Provider openai"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model" validate:"required_if=Provider openai"`
	Dimensions       int    `yaml:"dimensions" validate:"min=0"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
}

// DatasetConfig locates the collection files. Vector files carry the
// precomputed representations; record files carry the full records the
// linker resolves against. Missing files leave the collection empty.
type DatasetConfig struct {
	Dir             string `yaml:"dir"`
	Activities      string `yaml:"activities"`
	Zones           string `yaml:"zones"`
	Decisions       string `yaml:"decisions"`
	ActivityRecords string `yaml:"activity_records"`
	ZoneRecords     string `yaml:"zone_records"`
	DecisionRecords string `yaml:"decision_records"`
}

// RulesConfig points at an optional rule file overriding the embedded set.
type RulesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// EngineConfig holds the retrieval and linking tunables.
type EngineConfig struct {
	FastLimit        int     `yaml:"fast_limit" validate:"min=0"`
	DeepLimit        int     `yaml:"deep_limit" validate:"min=0"`
	FinalLimit       int     `yaml:"final_limit" validate:"min=0"`
	ScanCap          int     `yaml:"scan_cap" validate:"min=0"`
	Dimensions       int     `yaml:"dimensions" validate:"min=0"`
	Workers          int     `yaml:"workers" validate:"min=0"`
	RequestTimeoutMs int     `yaml:"request_timeout_ms"`
	MinConfidence    float64 `yaml:"min_confidence" validate:"gte=0,lte=1"`
	MaxThreshold     float64 `yaml:"max_threshold" validate:"gte=0,lte=1"`
	MaxNotes         int     `yaml:"max_notes" validate:"min=0"`
	LinkTopN         int     `yaml:"link_top_n" validate:"min=0"`
	CrossLinkTopN    int     `yaml:"cross_link_top_n" validate:"min=0"`
	LinkLowScore     float64 `yaml:"link_low_score" validate:"gte=0,lte=1"`
	LinkAcceptScore  float64 `yaml:"link_accept_score" validate:"gte=0,lte=1"`
	LinkEarlyStop    float64 `yaml:"link_early_stop" validate:"gte=0,lte=1"`
	PatternScore     float64 `yaml:"pattern_score" validate:"gte=0,lte=1"`
}

// CacheConfig holds the tiered cache settings.
type CacheConfig struct {
	SessionTTLSec      int     `yaml:"session_ttl_sec"`
	DurableMaxAgeHours int     `yaml:"durable_max_age_hours"`
	DurableThreshold   float64 `yaml:"durable_threshold" validate:"gte=0,lte=1"`
	Capacity           int     `yaml:"capacity" validate:"min=0"`
	EvictFraction      float64 `yaml:"evict_fraction" validate:"gte=0,lte=1"`
	PersistEvery       int     `yaml:"persist_every" validate:"min=0"`
	HistoryLimit       int     `yaml:"history_limit" validate:"min=0"`
	ConversationWindow int     `yaml:"conversation_window" validate:"min=0"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references and
// applying defaults before validation.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment so ${VAR}
// references in the YAML can come from them. Variables already set are not
// overridden. Missing files are skipped. Defaults to ".env".
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var found []string
	for _, f := range files {
		if fileExists(f) {
			found = append(found, f)
		}
	}
	if len(found) == 0 {
		return nil
	}
	if err := godotenv.Load(found...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Default returns a configuration with every default applied, for callers
// that run the engine without a config file.
func Default() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 20
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "linkdex:"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderNone
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 5000
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24 * 7
	}
	c.Dataset.applyDefaults()
	c.Engine.applyDefaults()
	c.Cache.applyDefaults()
}

func (d *DatasetConfig) applyDefaults() {
	if d.Dir == "" {
		d.Dir = "data"
	}
	setDefault(&d.Activities, "activities.json")
	setDefault(&d.Zones, "zones.json")
	setDefault(&d.Decisions, "decisions.json")
	setDefault(&d.ActivityRecords, "activity_records.json")
	setDefault(&d.ZoneRecords, "zone_records.json")
	setDefault(&d.DecisionRecords, "decision_records.json")
}

func (e *EngineConfig) applyDefaults() {
	setDefaultInt(&e.FastLimit, 50)
	setDefaultInt(&e.DeepLimit, 20)
	setDefaultInt(&e.FinalLimit, 15)
	setDefaultInt(&e.ScanCap, 5000)
	setDefaultInt(&e.Dimensions, 384)
	setDefaultInt(&e.Workers, 8)
	setDefaultInt(&e.RequestTimeoutMs, 15000)
	setDefaultFloat(&e.MinConfidence, 0.15)
	setDefaultFloat(&e.MaxThreshold, 0.7)
	setDefaultInt(&e.MaxNotes, 3)
	setDefaultInt(&e.LinkTopN, 3)
	setDefaultInt(&e.CrossLinkTopN, 5)
	setDefaultFloat(&e.LinkLowScore, 0.4)
	setDefaultFloat(&e.LinkAcceptScore, 0.5)
	setDefaultFloat(&e.LinkEarlyStop, 0.9)
	setDefaultFloat(&e.PatternScore, 0.8)
}

func (c *CacheConfig) applyDefaults() {
	setDefaultInt(&c.SessionTTLSec, 300)
	setDefaultInt(&c.DurableMaxAgeHours, 24)
	setDefaultFloat(&c.DurableThreshold, 0.7)
	setDefaultInt(&c.Capacity, 100)
	setDefaultFloat(&c.EvictFraction, 0.1)
	setDefaultInt(&c.PersistEvery, 10)
	setDefaultInt(&c.HistoryLimit, 20)
	setDefaultInt(&c.ConversationWindow, 5)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q check (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Engine.DeepLimit > c.Engine.FastLimit {
		return fmt.Errorf("engine.deep_limit (%d) must not exceed engine.fast_limit (%d)",
			c.Engine.DeepLimit, c.Engine.FastLimit)
	}
	if c.Engine.FinalLimit > c.Engine.DeepLimit {
		return fmt.Errorf("engine.final_limit (%d) must not exceed engine.deep_limit (%d)",
			c.Engine.FinalLimit, c.Engine.DeepLimit)
	}
	if c.Engine.MinConfidence > c.Engine.MaxThreshold {
		return fmt.Errorf("engine.min_confidence must not exceed engine.max_threshold")
	}
	return nil
}

// fieldPath turns "Config.Database.Addrs" into "Database.Addrs".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func setDefault(s *string, v string) {
	if *s == "" {
		*s = v
	}
}

func setDefaultInt(n *int, v int) {
	if *n <= 0 {
		*n = v
	}
}

func setDefaultFloat(f *float64, v float64) {
	if *f <= 0 {
		*f = v
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
