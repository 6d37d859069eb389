// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"GOVAI_HOST" yaml:"host"`
	Port int    `envconfig:"GOVAI_PORT" yaml:"port"`

	// Search providers
	Search SearchConfig `yaml:"search"`

	// Answer generation
	LLM LLMConfig `yaml:"llm"`

	// Query log store
	QueryLog QueryLogConfig `yaml:"query_log"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`

	// Pipeline limits
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// SearchConfig holds search provider settings.
type SearchConfig struct {
	TavilyAPIKey    string        `envconfig:"TAVILY_API_KEY" yaml:"tavily_api_key"`
	TavilyBaseURL   string        `envconfig:"GOVAI_TAVILY_URL" yaml:"tavily_base_url"`
	TavilyDepth     string        `envconfig:"GOVAI_TAVILY_DEPTH" yaml:"tavily_depth"`
	SerpAPIKey      string        `envconfig:"SERPAPI_API_KEY" yaml:"serpapi_api_key"`
	SerpAPIBaseURL  string        `envconfig:"GOVAI_SERPAPI_URL" yaml:"serpapi_base_url"`
	MaxResults      int           `envconfig:"GOVAI_SEARCH_MAX_RESULTS" yaml:"max_results"`
	Timeout         time.Duration `envconfig:"GOVAI_SEARCH_TIMEOUT" yaml:"timeout"`
	Retries         int           `envconfig:"GOVAI_SEARCH_RETRIES" yaml:"retries"`
	RetryBackoff    time.Duration `envconfig:"GOVAI_SEARCH_RETRY_BACKOFF" yaml:"retry_backoff"`
	QuerySuffix     string        `envconfig:"GOVAI_SEARCH_QUERY_SUFFIX" yaml:"query_suffix"`
	CatalogFallback bool          `envconfig:"GOVAI_SEARCH_CATALOG_FALLBACK" yaml:"catalog_fallback"`
}

// LLMConfig holds answer generation settings.
type LLMConfig struct {
	Provider     string        `envconfig:"GOVAI_LLM_PROVIDER" yaml:"provider"`
	Model        string        `envconfig:"GOVAI_LLM_MODEL" yaml:"model"`
	HFToken      string        `envconfig:"HF_TOKEN" yaml:"hf_token"`
	HFBaseURL    string        `envconfig:"GOVAI_HF_BASE_URL" yaml:"hf_base_url"`
	GeminiAPIKey string        `envconfig:"GEMINI_API_KEY" yaml:"gemini_api_key"`
	MaxTokens    int           `envconfig:"GOVAI_LLM_MAX_TOKENS" yaml:"max_tokens"`
	Temperature  float64       `envconfig:"GOVAI_LLM_TEMPERATURE" yaml:"temperature"`
	Timeout      time.Duration `envconfig:"GOVAI_LLM_TIMEOUT" yaml:"timeout"`
	MaxRetries   int           `envconfig:"GOVAI_LLM_MAX_RETRIES" yaml:"max_retries"`
	MinBackoff   time.Duration `envconfig:"GOVAI_LLM_MIN_BACKOFF" yaml:"min_backoff"`
	MaxBackoff   time.Duration `envconfig:"GOVAI_LLM_MAX_BACKOFF" yaml:"max_backoff"`
	MaxSnippets  int           `envconfig:"GOVAI_LLM_MAX_SNIPPETS" yaml:"max_snippets"`
	SnippetChars int           `envconfig:"GOVAI_LLM_SNIPPET_CHARS" yaml:"snippet_chars"`
}

// QueryLogConfig holds query log storage settings.
type QueryLogConfig struct {
	Store        string        `envconfig:"GOVAI_QUERY_LOG_STORE" yaml:"store"`
	Path         string        `envconfig:"GOVAI_QUERY_LOG_PATH" yaml:"path"`
	RedisURL     string        `envconfig:"GOVAI_REDIS_URL" yaml:"redis_url"`
	RedisKey     string        `envconfig:"GOVAI_REDIS_KEY" yaml:"redis_key"`
	Retention    time.Duration `envconfig:"GOVAI_QUERY_LOG_RETENTION" yaml:"retention"` // 0 = keep forever
	WriteTimeout time.Duration `envconfig:"GOVAI_QUERY_LOG_WRITE_TIMEOUT" yaml:"write_timeout"`
	Ship         bool          `envconfig:"GOVAI_QUERY_LOG_SHIP" yaml:"ship"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"GOVAI_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"GOVAI_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"GOVAI_KAFKA_GROUP" yaml:"kafka_group"`
	Topic        string `envconfig:"GOVAI_BUS_TOPIC" yaml:"topic"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"GOVAI_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"GOVAI_LOG_FORMAT" yaml:"format"`
	File   string `envconfig:"GOVAI_LOG_FILE" yaml:"file"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit   int    `envconfig:"GOVAI_RATE_LIMIT" yaml:"rate_limit"` // per minute per client, 0 = disabled
	AdminToken  string `envconfig:"GOVAI_ADMIN_TOKEN" yaml:"admin_token"`
	CORSOrigins string `envconfig:"GOVAI_CORS_ORIGINS" yaml:"cors_origins"`
}

// PipelineConfig holds request pipeline limits.
type PipelineConfig struct {
	MaxQueryChars int `envconfig:"GOVAI_MAX_QUERY_CHARS" yaml:"max_query_chars"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8000

	cfg.Search = SearchConfig{
		TavilyBaseURL:  "https://api.tavily.com",
		TavilyDepth:    "advanced",
		SerpAPIBaseURL: "https://serpapi.com",
		MaxResults:     5,
		Timeout:        10 * time.Second,
		Retries:        0,
		RetryBackoff:   250 * time.Millisecond,
		QuerySuffix:    "Bangladesh government official site:gov.bd OR site:bangladesh.gov.bd",
	}

	cfg.LLM = LLMConfig{
		Provider:     "huggingface",
		Model:        "openai/gpt-oss-120b",
		HFBaseURL:    "https://router.huggingface.co/v1",
		MaxTokens:    3000,
		Temperature:  0.2,
		Timeout:      60 * time.Second,
		MaxRetries:   2,
		MinBackoff:   500 * time.Millisecond,
		MaxBackoff:   4 * time.Second,
		MaxSnippets:  5,
		SnippetChars: 300,
	}

	cfg.QueryLog = QueryLogConfig{
		Store:        "file",
		Path:         "logs/queries.jsonl",
		RedisURL:     "redis://localhost:6379",
		RedisKey:     "govai:queries",
		WriteTimeout: 5 * time.Second,
	}

	cfg.Bus = BusConfig{
		Type:       "memory",
		KafkaGroup: "govai-querylog",
		Topic:      "govai.query.processed",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit:   10,
		CORSOrigins: "*",
	}

	cfg.Pipeline = PipelineConfig{
		MaxQueryChars: 1000,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// Search validation
	if c.Search.MaxResults < 1 {
		errs = append(errs, "search.max_results must be positive")
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, "search.timeout must be positive")
	}
	if c.Search.Retries < 0 {
		errs = append(errs, "search.retries must not be negative")
	}
	if c.Search.Retries > 0 && c.Search.RetryBackoff <= 0 {
		errs = append(errs, "search.retry_backoff must be positive when retries are enabled")
	}
	validDepths := map[string]bool{"basic": true, "advanced": true}
	if !validDepths[c.Search.TavilyDepth] {
		errs = append(errs, fmt.Sprintf("invalid tavily depth: %s (must be basic or advanced)", c.Search.TavilyDepth))
	}

	// LLM validation
	validProviders := map[string]bool{"huggingface": true, "gemini": true}
	if !validProviders[c.LLM.Provider] {
		errs = append(errs, fmt.Sprintf("invalid llm provider: %s (must be huggingface or gemini)", c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		errs = append(errs, "llm.model is required")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "llm.max_tokens must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, "llm.timeout must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, "llm.max_retries must not be negative")
	}
	if c.LLM.MaxBackoff < c.LLM.MinBackoff {
		errs = append(errs, "llm.max_backoff must not be less than llm.min_backoff")
	}
	if c.LLM.MaxSnippets < 0 || c.LLM.SnippetChars < 1 {
		errs = append(errs, "llm.max_snippets must not be negative and llm.snippet_chars must be positive")
	}

	// Query log validation
	validStores := map[string]bool{"file": true, "redis": true, "memory": true}
	if !validStores[c.QueryLog.Store] {
		errs = append(errs, fmt.Sprintf("invalid query log store: %s (must be file, redis, or memory)", c.QueryLog.Store))
	}
	if c.QueryLog.Store == "file" && c.QueryLog.Path == "" {
		errs = append(errs, "query_log.path is required for the file store")
	}
	if c.QueryLog.WriteTimeout <= 0 {
		errs = append(errs, "query_log.write_timeout must be positive")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}
	if c.Bus.Type == "kafka" && c.Bus.KafkaBrokers == "" {
		errs = append(errs, "bus.kafka_brokers is required for the kafka bus")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if c.Security.RateLimit < 0 {
		errs = append(errs, "security.rate_limit must not be negative")
	}

	if c.Pipeline.MaxQueryChars < 1 {
		errs = append(errs, "pipeline.max_query_chars must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaBrokerList splits the comma-separated broker setting.
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.Bus.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
