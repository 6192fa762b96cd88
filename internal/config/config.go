// Package config handles configuration loading for CoinScope.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"`
	Payment   PaymentConfig   `mapstructure:"payment"   yaml:"payment"`
	Board     BoardConfig     `mapstructure:"board"     yaml:"board"`
	Promo     PromoConfig     `mapstructure:"promo"     yaml:"promo"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProvidersConfig holds market-data provider settings and keys.
type ProvidersConfig struct {
	CoinGeckoKey    string `mapstructure:"coingecko_key"     yaml:"coingecko_key"`
	AlphaVantageKey string `mapstructure:"alphavantage_key"  yaml:"alphavantage_key"`
	RequestTimeout  int    `mapstructure:"request_timeout"   yaml:"request_timeout"` // seconds
}

// LLMConfig holds the generative-summary provider configuration.
type LLMConfig struct {
	Primary     string  `mapstructure:"primary"      yaml:"primary"` // "openai" or "ollama"
	OpenAIKey   string  `mapstructure:"openai_key"   yaml:"openai_key"`
	OllamaURL   string  `mapstructure:"ollama_url"   yaml:"ollama_url"`
	Model       string  `mapstructure:"model"        yaml:"model"`
	Temperature float64 `mapstructure:"temperature"  yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"   yaml:"max_tokens"`
}

// PaymentConfig holds the payment widget integration settings.
type PaymentConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"`
}

// BoardConfig holds dashboard data settings.
type BoardConfig struct {
	CoinPageSize    int      `mapstructure:"coin_page_size"     yaml:"coin_page_size"`
	StockWatchlist  []string `mapstructure:"stock_watchlist"    yaml:"stock_watchlist"`
	QuoteRefreshSec int      `mapstructure:"quote_refresh_sec"  yaml:"quote_refresh_sec"`
	NewsLimit       int      `mapstructure:"news_limit"         yaml:"news_limit"`
}

// PromoConfig holds banner rotation timing.
type PromoConfig struct {
	RotateSec     int `mapstructure:"rotate_sec"      yaml:"rotate_sec"`
	TransitionMs  int `mapstructure:"transition_ms"   yaml:"transition_ms"`
	ReevalSec     int `mapstructure:"reeval_sec"      yaml:"reeval_sec"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// activeConfigFile records which file Load resolved, for the settings
// handlers that persist updates back to disk.
var activeConfigFile string

// ConfigFilePath returns the path of the loaded config file, or the
// default location when none was found.
func ConfigFilePath() string {
	if activeConfigFile != "" {
		return activeConfigFile
	}
	return filepath.Join(homeDir(), ".coinscope", "config.yaml")
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.coinscope/config.yaml (home directory)
//  3. /etc/coinscope/config.yaml (system)
//
// Environment variables override config file values.
// Format: COINSCOPE_<SECTION>_<KEY>, e.g. COINSCOPE_PROVIDERS_ALPHAVANTAGE_KEY.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".coinscope"))
	v.AddConfigPath("/etc/coinscope")

	v.SetEnvPrefix("COINSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file — defaults plus env vars.
	}
	activeConfigFile = v.ConfigFileUsed()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("COINSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	activeConfigFile = path

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// SaveToFile writes cfg as YAML to path, creating parent directories.
func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	activeConfigFile = path
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Providers
	v.SetDefault("providers.request_timeout", 30)

	// LLM
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.max_tokens", 1024)

	// Payment
	v.SetDefault("payment.base_url", "https://pay.coinscope.dev")

	// Board
	v.SetDefault("board.coin_page_size", 100)
	v.SetDefault("board.stock_watchlist", []string{"AAPL", "MSFT", "GOOGL", "TSLA"})
	v.SetDefault("board.quote_refresh_sec", 60)
	v.SetDefault("board.news_limit", 30)

	// Promo
	v.SetDefault("promo.rotate_sec", 5)
	v.SetDefault("promo.transition_ms", 500)
	v.SetDefault("promo.reeval_sec", 30)

	// API
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Storage
	v.SetDefault("storage.data_dir", filepath.Join(homeDir(), ".coinscope", "data"))

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("COINSCOPE_PROVIDERS_COINGECKO_KEY"); key != "" {
		cfg.Providers.CoinGeckoKey = key
	}
	if key := os.Getenv("COINSCOPE_PROVIDERS_ALPHAVANTAGE_KEY"); key != "" {
		cfg.Providers.AlphaVantageKey = key
	}
	if key := os.Getenv("COINSCOPE_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("COINSCOPE_PAYMENT_API_KEY"); key != "" {
		cfg.Payment.APIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
