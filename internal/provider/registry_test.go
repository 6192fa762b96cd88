package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// stubFetcher returns a fixed payload or error.
type stubFetcher struct {
	BaseFetcher
	payload any
	err     error
	calls   int
}

func newStubFetcher(model ModelType, required []string, payload any, err error) *stubFetcher {
	return &stubFetcher{
		BaseFetcher: NewBaseFetcher(model, "stub "+string(model), required, nil),
		payload:     payload,
		err:         err,
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{Data: f.payload}, nil
}

// stubProvider registers stub fetchers under a name.
type stubProvider struct {
	BaseProvider
}

func newStubProvider(name string, fetchers ...Fetcher) *stubProvider {
	p := &stubProvider{BaseProvider: NewBaseProvider(name, "stub provider", "", nil)}
	for _, f := range fetchers {
		p.RegisterFetcher(f)
	}
	return p
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	p := newStubProvider("alpha", newStubFetcher(ModelCoinList, nil, "coins", nil))

	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Info().Name != "alpha" {
		t.Fatalf("Get returned %q, want alpha", got.Info().Name)
	}

	_, err = r.Get("missing")
	var nf *ErrProviderNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("Get(missing): %v, want *ErrProviderNotFound", err)
	}
}

func TestRegistryRejectsUnnamedProvider(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("")); err == nil {
		t.Fatal("Register accepted an unnamed provider")
	}
}

func TestRegistryFetch(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelCoinList, nil, "coins", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := r.Fetch(context.Background(), ModelCoinList, QueryParams{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Data != "coins" {
		t.Fatalf("Fetch data = %v, want coins", res.Data)
	}
	if res.Provider != "alpha" || res.Model != ModelCoinList {
		t.Fatalf("Fetch metadata = %q/%q", res.Provider, res.Model)
	}
	if res.FetchedAt.IsZero() {
		t.Fatal("Fetch did not stamp FetchedAt")
	}
}

func TestRegistryFetchUnsupportedModel(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelCoinList, nil, "coins", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := r.Fetch(context.Background(), ModelStockQuote, QueryParams{ParamProvider: "alpha"})
	var ns *ErrModelNotSupported
	if !errors.As(err, &ns) {
		t.Fatalf("Fetch: %v, want *ErrModelNotSupported", err)
	}
}

func TestRegistryFetchMissingParam(t *testing.T) {
	r := NewRegistry()
	f := newStubFetcher(ModelStockQuote, []string{ParamSymbol}, "quote", nil)
	if err := r.Register(newStubProvider("alpha", f)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := r.Fetch(context.Background(), ModelStockQuote, QueryParams{})
	var mp *ErrMissingParam
	if !errors.As(err, &mp) {
		t.Fatalf("Fetch: %v, want *ErrMissingParam", err)
	}
	if mp.Param != ParamSymbol {
		t.Fatalf("missing param = %q, want %q", mp.Param, ParamSymbol)
	}
	if f.calls != 0 {
		t.Fatal("fetcher was called despite missing param")
	}
}

func TestRegistryProviderOverride(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelCoinList, nil, "from-alpha", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(newStubProvider("beta", newStubFetcher(ModelCoinList, nil, "from-beta", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// First registration wins the default.
	res, err := r.Fetch(context.Background(), ModelCoinList, QueryParams{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Provider != "alpha" {
		t.Fatalf("default provider = %q, want alpha", res.Provider)
	}

	// ParamProvider overrides the default.
	res, err = r.Fetch(context.Background(), ModelCoinList, QueryParams{ParamProvider: "beta"})
	if err != nil {
		t.Fatalf("Fetch with override: %v", err)
	}
	if res.Data != "from-beta" {
		t.Fatalf("override data = %v, want from-beta", res.Data)
	}
}

func TestRegistrySetDefault(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelCoinList, nil, "a", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(newStubProvider("beta", newStubFetcher(ModelCoinList, nil, "b", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.SetDefault(ModelCoinList, "beta"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if name, ok := r.DefaultProvider(ModelCoinList); !ok || name != "beta" {
		t.Fatalf("DefaultProvider = %q/%v, want beta", name, ok)
	}

	if err := r.SetDefault(ModelCoinList, "missing"); err == nil {
		t.Fatal("SetDefault accepted an unregistered provider")
	}
	if err := r.SetDefault(ModelStockQuote, "beta"); err == nil {
		t.Fatal("SetDefault accepted an unsupported model")
	}
}

func TestRegistryFetchWithFallback(t *testing.T) {
	r := NewRegistry()
	broken := newStubFetcher(ModelMarketNews, nil, nil, fmt.Errorf("upstream down"))
	healthy := newStubFetcher(ModelMarketNews, nil, "news", nil)
	if err := r.Register(newStubProvider("alpha", broken)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(newStubProvider("beta", healthy)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := r.FetchWithFallback(context.Background(), ModelMarketNews, QueryParams{})
	if err != nil {
		t.Fatalf("FetchWithFallback: %v", err)
	}
	if res.Provider != "beta" || res.Data != "news" {
		t.Fatalf("fallback result = %q/%v, want beta/news", res.Provider, res.Data)
	}
	if broken.calls == 0 {
		t.Fatal("preferred provider was never tried")
	}
}

func TestRegistryFetchWithFallbackAllFail(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelMarketNews, nil, nil, fmt.Errorf("down")))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := r.FetchWithFallback(context.Background(), ModelMarketNews, QueryParams{}); err == nil {
		t.Fatal("FetchWithFallback succeeded with no healthy providers")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newStubProvider("alpha", newStubFetcher(ModelCoinList, nil, "a", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(newStubProvider("beta", newStubFetcher(ModelCoinList, nil, "b", nil))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.Unregister("alpha")

	if _, err := r.Get("alpha"); err == nil {
		t.Fatal("unregistered provider still resolvable")
	}
	// The default moves to the surviving provider.
	if name, ok := r.DefaultProvider(ModelCoinList); !ok || name != "beta" {
		t.Fatalf("DefaultProvider after unregister = %q/%v, want beta", name, ok)
	}

	r.Unregister("beta")
	if _, ok := r.DefaultProvider(ModelCoinList); ok {
		t.Fatal("model still has a default with no providers")
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(ModelCoinList, QueryParams{ParamLimit: "10", ParamCurrency: "usd"})
	b := CacheKey(ModelCoinList, QueryParams{ParamCurrency: "usd", ParamLimit: "10"})
	if a != b {
		t.Fatalf("CacheKey is order-sensitive: %q vs %q", a, b)
	}

	// The provider override is routing, not identity.
	c := CacheKey(ModelCoinList, QueryParams{ParamLimit: "10", ParamCurrency: "usd", ParamProvider: "beta"})
	if a != c {
		t.Fatalf("CacheKey includes the provider override: %q vs %q", a, c)
	}

	d := CacheKey(ModelCoinList, QueryParams{ParamLimit: "20", ParamCurrency: "usd"})
	if a == d {
		t.Fatal("CacheKey ignores parameter values")
	}
}

func TestValidateParams(t *testing.T) {
	if err := ValidateParams(QueryParams{ParamSymbol: "AAPL"}, []string{ParamSymbol}); err != nil {
		t.Fatalf("ValidateParams: %v", err)
	}
	if err := ValidateParams(QueryParams{ParamSymbol: ""}, []string{ParamSymbol}); err == nil {
		t.Fatal("ValidateParams accepted an empty value")
	}
	if err := ValidateParams(QueryParams{}, nil); err != nil {
		t.Fatalf("ValidateParams with no requirements: %v", err)
	}
}
