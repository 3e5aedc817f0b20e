package stockdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rsharda/stockpulse/internal/cache"
	"github.com/rsharda/stockpulse/internal/common"
	"github.com/rsharda/stockpulse/internal/interfaces"
	"github.com/rsharda/stockpulse/internal/models"
	"github.com/rsharda/stockpulse/internal/ratelimit"
)

// --- Mocks ---

type mockProvider struct {
	name   string
	record *models.StockRecord
	err    error
	calls  int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) FetchDaily(_ context.Context, symbol, period string) (*models.StockRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.record != nil {
		return m.record, nil
	}
	return testRecord(symbol), nil
}

type mockLiveProvider struct {
	price *models.LivePrice
	err   error
	calls int
}

func (m *mockLiveProvider) FetchLive(_ context.Context, symbol string) (*models.LivePrice, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.price != nil {
		return m.price, nil
	}
	return &models.LivePrice{Symbol: symbol, Price: 100, Timestamp: time.Now()}, nil
}

func testRecord(symbol string) *models.StockRecord {
	return &models.StockRecord{
		Symbol:        symbol,
		Name:          symbol + " Corp",
		CurrentPrice:  102.50,
		PreviousClose: 100.00,
		Change:        2.50,
		ChangePercent: 2.50,
		Currency:      "USD",
		Exchange:      "NASDAQ",
		History: []models.DailyBar{
			{Date: "2026-02-26", Open: 99, High: 101, Low: 98, Close: 100.00, Volume: 1000},
			{Date: "2026-02-27", Open: 100, High: 103, Low: 99, Close: 102.50, Volume: 1200},
		},
	}
}

func newTestService(primary, secondary *mockProvider, live *mockLiveProvider, maxCalls int) *Service {
	var providers []interfaces.StockProvider
	if primary != nil {
		providers = append(providers, primary)
	}
	if secondary != nil {
		providers = append(providers, secondary)
	}
	var lp interfaces.LiveProvider
	if live != nil {
		lp = live
	}
	c := cache.New(300 * time.Second)
	l := ratelimit.New(maxCalls, time.Minute)
	return NewService(providers, lp, c, l, common.NewSilentLogger())
}

// --- Tests ---

func TestGetStockData_FetchesNormalizesAndCaches(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	svc := newTestService(primary, nil, nil, 5)

	rec, err := svc.GetStockData(context.Background(), "AAPL", "1mo")
	if err != nil {
		t.Fatalf("GetStockData failed: %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", primary.calls)
	}
	if len(rec.History) == 0 {
		t.Fatal("valid record must carry non-empty history")
	}
	if rec.ChangePercent != 2.50 {
		t.Errorf("expected changePercent 2.50, got %.2f", rec.ChangePercent)
	}

	// Second call within TTL: served from cache, adapter not re-invoked
	rec2, err := svc.GetStockData(context.Background(), "AAPL", "1mo")
	if err != nil {
		t.Fatalf("second GetStockData failed: %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("cache hit must not re-invoke the adapter, got %d calls", primary.calls)
	}
	if rec2 != rec {
		t.Error("cached call should return the identical record")
	}
}

func TestGetStockData_CacheHitSkipsRateLimiter(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	svc := newTestService(primary, nil, nil, 1)

	if _, err := svc.GetStockData(context.Background(), "AAPL", "1mo"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	// Quota is now exhausted (max 1), but cache hits stay free.
	for i := 0; i < 10; i++ {
		if _, err := svc.GetStockData(context.Background(), "AAPL", "1mo"); err != nil {
			t.Fatalf("cached call %d should not be rate limited: %v", i, err)
		}
	}
}

func TestGetStockData_FallbackToSecondary(t *testing.T) {
	primary := &mockProvider{name: "primary", err: errors.New("primary boom")}
	secondary := &mockProvider{name: "secondary", record: testRecord("AAPL")}
	svc := newTestService(primary, secondary, nil, 5)

	rec, err := svc.GetStockData(context.Background(), "AAPL", "1mo")
	if err != nil {
		t.Fatalf("expected secondary fallback to succeed: %v", err)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected both providers tried once, got %d/%d", primary.calls, secondary.calls)
	}
	if rec.Symbol != "AAPL" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestGetStockData_AllProvidersFailed(t *testing.T) {
	primary := &mockProvider{name: "primary", err: errors.New("primary boom")}
	secondary := &mockProvider{name: "secondary", err: errors.New("secondary boom")}
	svc := newTestService(primary, secondary, nil, 5)

	_, err := svc.GetStockData(context.Background(), "AAPL", "1mo")
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if errors.Is(err, models.ErrRateLimited) {
		t.Error("fetch failure must not be classified as rate limited")
	}
	if !strings.Contains(err.Error(), "primary boom") {
		t.Errorf("error should carry the primary cause, got %v", err)
	}
}

func TestGetStockData_RateLimitGracefulDegradation(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	svc := newTestService(primary, nil, nil, 5)
	ctx := context.Background()

	// Populate the default-period cache, then burn the rest of the quota.
	if _, err := svc.GetStockData(ctx, "AAPL", "1mo"); err != nil {
		t.Fatalf("seed call failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := svc.GetStockData(ctx, "AAPL", fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("quota call %d failed: %v", i, err)
		}
	}

	// Quota exhausted; a fresh period misses the cache but degrades to the
	// default-period record instead of failing.
	rec, err := svc.GetStockData(ctx, "AAPL", "6mo")
	if err != nil {
		t.Fatalf("expected stale-cache fallback, got %v", err)
	}
	if rec.Symbol != "AAPL" {
		t.Errorf("unexpected record %+v", rec)
	}
	if primary.calls != 5 {
		t.Errorf("degraded call must not hit the provider, got %d calls", primary.calls)
	}
}

func TestGetStockData_SixthCallRateLimited(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	svc := newTestService(primary, nil, nil, 5)
	ctx := context.Background()

	// Six rapid calls with distinct non-default periods: 1-5 fetch, 6 is
	// denied with nothing cached under the default period.
	for i := 1; i <= 5; i++ {
		if _, err := svc.GetStockData(ctx, "NEWSYM", fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	_, err := svc.GetStockData(ctx, "NEWSYM", "p6")
	if !errors.Is(err, models.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on 6th call, got %v", err)
	}
	if primary.calls != 5 {
		t.Errorf("expected 5 provider calls, got %d", primary.calls)
	}
}

func TestGetLivePrice_CachedAndSeparatelyKeyed(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	live := &mockLiveProvider{}
	svc := newTestService(primary, nil, live, 5)
	ctx := context.Background()

	lp, err := svc.GetLivePrice(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetLivePrice failed: %v", err)
	}
	if lp.Symbol != "AAPL" {
		t.Errorf("unexpected price %+v", lp)
	}

	if _, err := svc.GetLivePrice(ctx, "AAPL"); err != nil {
		t.Fatalf("cached live call failed: %v", err)
	}
	if live.calls != 1 {
		t.Errorf("cached live call must not re-fetch, got %d calls", live.calls)
	}

	// The live quota key is distinct from the daily one: daily calls still fit.
	for i := 1; i <= 5; i++ {
		if _, err := svc.GetStockData(ctx, "AAPL", fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("daily call %d should be unaffected by live admissions: %v", i, err)
		}
	}
}

func TestGetLivePrice_RateLimited(t *testing.T) {
	live := &mockLiveProvider{}
	svc := newTestService(&mockProvider{name: "primary"}, nil, live, 0)

	_, err := svc.GetLivePrice(context.Background(), "AAPL")
	if !errors.Is(err, models.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if live.calls != 0 {
		t.Error("denied call must not reach the provider")
	}
}

func TestGetLivePrice_FailureIsNoLiveData(t *testing.T) {
	live := &mockLiveProvider{err: errors.New("no intraday")}
	svc := newTestService(&mockProvider{name: "primary"}, nil, live, 5)

	_, err := svc.GetLivePrice(context.Background(), "AAPL")
	if !errors.Is(err, models.ErrNoLiveData) {
		t.Fatalf("expected ErrNoLiveData, got %v", err)
	}
	if errors.Is(err, models.ErrRateLimited) {
		t.Error("live failure must not be classified as rate limited")
	}
}

func TestSearchStocks_LocalMatch(t *testing.T) {
	primary := &mockProvider{name: "primary", err: errors.New("unknown symbol")}
	svc := newTestService(primary, nil, nil, 5)

	results := svc.SearchStocks(context.Background(), "tata")
	if len(results) != 1 || results[0].Symbol != "TCS.NS" {
		t.Fatalf("expected TCS.NS for query 'tata', got %+v", results)
	}
}

func TestSearchStocks_AugmentsSparseResults(t *testing.T) {
	primary := &mockProvider{name: "primary", record: &models.StockRecord{
		Symbol:   "ZOMATO.NS",
		Name:     "Zomato Ltd",
		Exchange: "NSE",
		History:  []models.DailyBar{{Date: "2026-02-27", Close: 1}},
	}}
	svc := newTestService(primary, nil, nil, 5)

	results := svc.SearchStocks(context.Background(), "ZOMATO.NS")
	if primary.calls != 1 {
		t.Fatalf("expected one augmentation lookup, got %d", primary.calls)
	}
	if len(results) != 1 || results[0].Symbol != "ZOMATO.NS" {
		t.Fatalf("expected augmented result, got %+v", results)
	}
}

func TestSearchStocks_RateLimitDenialIsNonFatal(t *testing.T) {
	primary := &mockProvider{name: "primary"}
	svc := newTestService(primary, nil, nil, 0)

	results := svc.SearchStocks(context.Background(), "ZOMATO.NS")
	if primary.calls != 0 {
		t.Error("denied augmentation must not reach the provider")
	}
	if results == nil {
		t.Error("denial returns local results, not nil")
	}
}

func TestSearchStocks_CapAtTen(t *testing.T) {
	svc := newTestService(&mockProvider{name: "primary"}, nil, nil, 5)

	many := make([]models.PopularStock, 0, 15)
	for i := 0; i < 15; i++ {
		many = append(many, models.PopularStock{
			Symbol:   fmt.Sprintf("MATCH%d", i),
			Name:     fmt.Sprintf("Match Corp %d", i),
			Exchange: "NASDAQ",
		})
	}
	svc.popular = many

	results := svc.SearchStocks(context.Background(), "MATCH")
	if len(results) != 10 {
		t.Errorf("expected results capped at 10, got %d", len(results))
	}
}

func TestGetNSEStocks(t *testing.T) {
	svc := newTestService(&mockProvider{name: "primary"}, nil, nil, 5)

	results := svc.GetNSEStocks()
	if len(results) != 3 {
		t.Fatalf("expected 3 NSE entries, got %d", len(results))
	}
	for _, r := range results {
		if r.Exchange != "NSE" {
			t.Errorf("non-NSE entry leaked: %+v", r)
		}
	}
}
