package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceStore  APIKeySource = "store"
	KeySourceNone   APIKeySource = "none"
)

// APIKeys is the locally-persisted key bundle edited from the settings
// form. Non-empty values override the config file.
type APIKeys struct {
	CoinGecko    string `json:"coingecko"`
	AlphaVantage string `json:"alphavantage"`
	OpenAI       string `json:"openai"`
	Payment      string `json:"payment"`
}

// Merge applies the stored bundle on top of cfg: a non-empty stored key
// wins over the config/env value.
func (k APIKeys) Merge(cfg *Config) {
	if k.CoinGecko != "" {
		cfg.Providers.CoinGeckoKey = k.CoinGecko
	}
	if k.AlphaVantage != "" {
		cfg.Providers.AlphaVantageKey = k.AlphaVantage
	}
	if k.OpenAI != "" {
		cfg.LLM.OpenAIKey = k.OpenAI
	}
	if k.Payment != "" {
		cfg.Payment.APIKey = k.Payment
	}
}

// KeyStatus represents the status of an API key for display.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"`
}

// CheckAPIKeys returns the status of all configurable API keys. stored is
// the locally-persisted bundle, which takes precedence for display.
func CheckAPIKeys(cfg *Config, stored APIKeys) []KeyStatus {
	return []KeyStatus{
		checkKey("CoinGecko API Key", cfg.Providers.CoinGeckoKey, stored.CoinGecko, "COINSCOPE_PROVIDERS_COINGECKO_KEY"),
		checkKey("Alpha Vantage API Key", cfg.Providers.AlphaVantageKey, stored.AlphaVantage, "COINSCOPE_PROVIDERS_ALPHAVANTAGE_KEY"),
		checkKey("OpenAI API Key", cfg.LLM.OpenAIKey, stored.OpenAI, "COINSCOPE_LLM_OPENAI_KEY"),
		checkKey("Payment API Key", cfg.Payment.APIKey, stored.Payment, "COINSCOPE_PAYMENT_API_KEY"),
	}
}

// checkKey determines whether a key is set and where it came from.
func checkKey(name, cfgValue, storedValue, envVar string) KeyStatus {
	status := KeyStatus{Name: name}

	switch {
	case storedValue != "":
		status.Source = KeySourceStore
		status.Masked = maskKey(storedValue)
	case os.Getenv(envVar) != "":
		status.Source = KeySourceEnv
		status.Masked = maskKey(cfgValue)
	case cfgValue != "":
		status.Source = KeySourceConfig
		status.Masked = maskKey(cfgValue)
	default:
		status.Source = KeySourceNone
		return status
	}
	status.IsSet = true
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
