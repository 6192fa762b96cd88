// Package providers wires the concrete data providers into a registry.
package providers

import (
	"github.com/seenimoa/coinscope/internal/config"
	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/internal/providers/alphavantage"
	"github.com/seenimoa/coinscope/internal/providers/coingecko"
	"github.com/seenimoa/coinscope/internal/providers/newswire"
)

// BuildRegistry creates a registry with every provider the configuration
// allows. CoinGecko and the RSS newswire work without keys and are always
// registered; Alpha Vantage requires an API key and is skipped without one.
func BuildRegistry(cfg *config.Config) (*provider.Registry, error) {
	reg := provider.NewRegistry()

	cg := coingecko.New()
	if err := cg.Init(map[string]string{"api_key": cfg.Providers.CoinGeckoKey}); err != nil {
		return nil, err
	}
	if err := reg.Register(cg); err != nil {
		return nil, err
	}

	nw := newswire.New()
	if err := nw.Init(nil); err != nil {
		return nil, err
	}
	if err := reg.Register(nw); err != nil {
		return nil, err
	}

	if cfg.Providers.AlphaVantageKey != "" {
		av := alphavantage.New()
		if err := av.Init(map[string]string{"api_key": cfg.Providers.AlphaVantageKey}); err != nil {
			return nil, err
		}
		if err := reg.Register(av); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
