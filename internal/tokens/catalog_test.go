package tokens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/cache"
)

func catalogFixture() []Token {
	return []Token{
		{
			Address:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			ChainID:  101,
			Decimals: 6,
			Name:     "USD Coin",
			Symbol:   "USDC",
			Tags:     []string{"stablecoin"},
		},
		{
			Address:  "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
			ChainID:  101,
			Decimals: 6,
			Name:     "Jupiter",
			Symbol:   "JUP",
		},
		{
			Address:  "hntyVP6YFm1Hg25TN9WGLqM12b8TQmcknKrdu1oxWux",
			ChainID:  101,
			Decimals: 8,
			Name:     "Helium",
			Symbol:   "HNT",
		},
	}
}

func catalogServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		json.NewEncoder(w).Encode(catalogFixture())
	}))
}

// trackingCache is an in-memory Cache recording get/set calls.
type trackingCache struct {
	data map[string]interface{}
	gets int
	sets int
}

func newTrackingCache() *trackingCache {
	return &trackingCache{data: make(map[string]interface{})}
}

func (m *trackingCache) Get(ctx context.Context, key string) (interface{}, error) {
	m.gets++
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, cache.ErrNotFound
}

func (m *trackingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *trackingCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *trackingCache) Close() error { return nil }

func TestCatalog_Load(t *testing.T) {
	server := catalogServer(t, nil)
	defer server.Close()

	catalog := NewCatalog(CatalogConfig{ListURL: server.URL})

	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if catalog.Size() != 3 {
		t.Errorf("expected 3 tokens, got %d", catalog.Size())
	}

	token, ok := catalog.LookupSymbol("hnt")
	if !ok {
		t.Fatal("expected case-insensitive symbol lookup")
	}
	if token.Decimals != 8 {
		t.Errorf("expected 8 decimals for HNT, got %d", token.Decimals)
	}

	if _, ok := catalog.LookupMint("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"); !ok {
		t.Error("expected mint lookup to succeed")
	}

	if catalog.LoadedAt().IsZero() {
		t.Error("expected loadedAt to be set")
	}

	t.Log("✓ Catalog loads and indexes the token list")
}

func TestCatalog_LoadUsesCache(t *testing.T) {
	var calls int32
	server := catalogServer(t, &calls)
	defer server.Close()

	store := newTrackingCache()
	catalog := NewCatalog(CatalogConfig{ListURL: server.URL, Cache: store})

	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 HTTP fetch with warm cache, got %d", got)
	}
	if store.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", store.sets)
	}

	t.Log("✓ Warm cache avoids refetching the token list")
}

func TestCatalog_LoadServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	catalog := NewCatalog(CatalogConfig{ListURL: server.URL})

	if err := catalog.Load(context.Background()); err == nil {
		t.Fatal("expected error from failing endpoint")
	}

	t.Log("✓ Load surfaces endpoint failures")
}

func TestResolver_RegistryFirst(t *testing.T) {
	var calls int32
	server := catalogServer(t, &calls)
	defer server.Close()

	resolver := NewResolver(NewCatalog(CatalogConfig{ListURL: server.URL}))

	// All registry symbols: catalog must not be touched
	tokens, err := resolver.Resolve(context.Background(), []string{"SOL", "USDC", "USDT"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected no catalog fetch for registry symbols, got %d", got)
	}
	if tokens[0].Symbol != "SOL" || tokens[1].Symbol != "USDC" || tokens[2].Symbol != "USDT" {
		t.Errorf("input order not preserved: %v", tokens)
	}

	t.Log("✓ Registry symbols resolve without the catalog")
}

func TestResolver_CatalogFallback(t *testing.T) {
	server := catalogServer(t, nil)
	defer server.Close()

	resolver := NewResolver(NewCatalog(CatalogConfig{ListURL: server.URL}))

	tokens, err := resolver.Resolve(context.Background(), []string{"SOL", "HNT"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	hnt := tokens[1]
	if hnt.Mint != "hntyVP6YFm1Hg25TN9WGLqM12b8TQmcknKrdu1oxWux" {
		t.Errorf("unexpected HNT mint: %s", hnt.Mint)
	}
	if hnt.Decimals != 8 {
		t.Errorf("unexpected HNT decimals: %d", hnt.Decimals)
	}
	if hnt.IsStablecoin {
		t.Error("HNT must not be marked stablecoin")
	}

	t.Log("✓ Non-registry symbols fall back to the catalog")
}

func TestResolver_StablecoinTag(t *testing.T) {
	server := catalogServer(t, nil)
	defer server.Close()

	catalog := NewCatalog(CatalogConfig{ListURL: server.URL})
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	usdc, _ := catalog.LookupSymbol("USDC")
	if !isStablecoin(usdc) {
		t.Error("expected USDC catalog entry to be tagged stablecoin")
	}
	jup, _ := catalog.LookupSymbol("JUP")
	if isStablecoin(jup) {
		t.Error("JUP must not be tagged stablecoin")
	}
}

func TestResolver_Unknown(t *testing.T) {
	server := catalogServer(t, nil)
	defer server.Close()

	resolver := NewResolver(NewCatalog(CatalogConfig{ListURL: server.URL}))

	if _, err := resolver.Resolve(context.Background(), []string{"WAGMI"}); err == nil {
		t.Fatal("expected error for symbol missing everywhere")
	}
}

func TestResolver_Duplicate(t *testing.T) {
	resolver := NewResolver(nil)

	if _, err := resolver.Resolve(context.Background(), []string{"SOL", "SOL"}); err == nil {
		t.Fatal("expected error for duplicate symbol")
	}
}

func TestResolver_NilCatalog(t *testing.T) {
	resolver := NewResolver(nil)

	tokens, err := resolver.Resolve(context.Background(), []string{"SOL", "USDC"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("expected 2 tokens, got %d", len(tokens))
	}

	if _, err := resolver.Resolve(context.Background(), []string{"HNT"}); err == nil {
		t.Error("expected error for non-registry symbol without catalog")
	}
}
