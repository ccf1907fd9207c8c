package live

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/market"
	"github.com/marketmock/nsesim/internal/rng"
)

func liveEntries() []catalog.Entry {
	return []catalog.Entry{
		{Symbol: "FOO.NS", Name: "Foo Industries", Sector: catalog.SectorIT, BasePrice: 100},
		{Symbol: "BAR.NS", Name: "Bar Motors", Sector: catalog.SectorAuto, BasePrice: 500},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newUpstream serves a minimal provider response for FOO.NS only, counting
// requests. fail flips it to plain 500s.
func newUpstream(requests *int64, fail *atomic.Bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(requests, 1)
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"quoteResponse":{"result":[
			{"symbol":"FOO.NS","longName":"Foo Industries",
			 "regularMarketPrice":111.5,"regularMarketPreviousClose":110,
			 "regularMarketOpen":110.5,"regularMarketDayHigh":112,
			 "regularMarketDayLow":109.8,"regularMarketVolume":1234567}
		],"error":null}}`)
	}))
}

func newTestSource(baseURL string, ttl time.Duration) *Source {
	store := market.NewStore(liveEntries(), rng.New(42), 30)
	store.Init(time.Now())
	client := NewClient(baseURL, 2*time.Second)
	return NewSource(store, client, liveEntries(), ttl, testLogger())
}

func TestLookupMergesUpstream(t *testing.T) {
	var requests int64
	up := newUpstream(&requests, nil)
	defer up.Close()

	src := newTestSource(up.URL, 5*time.Second)
	q, ok := src.Lookup(context.Background(), "foo")
	if !ok {
		t.Fatal("expected FOO.NS to resolve")
	}
	if q.Price != 111.5 {
		t.Fatalf("price = %f, want upstream 111.5", q.Price)
	}
	if q.PreviousClose != 110 {
		t.Fatalf("previousClose = %f, want upstream 110", q.PreviousClose)
	}
	if q.Change != 1.5 {
		t.Fatalf("change = %f, want 1.5", q.Change)
	}
	// Upstream omitted bid/ask: synthesized around the price.
	if q.Bid >= q.Price || q.Ask <= q.Price {
		t.Fatalf("bid %f / ask %f should straddle price %f", q.Bid, q.Ask, q.Price)
	}
	// Catalog metadata survives the merge.
	if q.Name != "Foo Industries" || q.Sector != "IT" {
		t.Fatalf("metadata lost in merge: %+v", q)
	}
}

func TestLookupUnfetchedSymbolAbsent(t *testing.T) {
	var requests int64
	up := newUpstream(&requests, nil)
	defer up.Close()

	src := newTestSource(up.URL, 5*time.Second)
	if _, ok := src.Lookup(context.Background(), "BAR"); ok {
		t.Fatal("BAR.NS was never seen upstream, should be absent")
	}
}

func TestQuotesFilteredToFetched(t *testing.T) {
	var requests int64
	up := newUpstream(&requests, nil)
	defer up.Close()

	src := newTestSource(up.URL, 5*time.Second)
	quotes := src.Quotes(context.Background())
	if len(quotes) != 1 || quotes[0].Symbol != "FOO.NS" {
		t.Fatalf("expected only FOO.NS, got %v", quotes)
	}
}

func TestRefreshHonorsTTL(t *testing.T) {
	var requests int64
	up := newUpstream(&requests, nil)
	defer up.Close()

	src := newTestSource(up.URL, time.Hour)
	ctx := context.Background()
	src.Lookup(ctx, "FOO")
	src.Lookup(ctx, "FOO")
	src.Quotes(ctx)
	if n := atomic.LoadInt64(&requests); n != 1 {
		t.Fatalf("upstream hit %d times within TTL, want 1", n)
	}
}

func TestRefreshAfterTTL(t *testing.T) {
	var requests int64
	up := newUpstream(&requests, nil)
	defer up.Close()

	src := newTestSource(up.URL, time.Millisecond)
	ctx := context.Background()
	src.Lookup(ctx, "FOO")
	time.Sleep(5 * time.Millisecond)
	src.Lookup(ctx, "FOO")
	if n := atomic.LoadInt64(&requests); n != 2 {
		t.Fatalf("upstream hit %d times across TTL windows, want 2", n)
	}
}

func TestUpstreamFailureServesCache(t *testing.T) {
	var requests int64
	var fail atomic.Bool
	up := newUpstream(&requests, &fail)
	defer up.Close()

	src := newTestSource(up.URL, time.Millisecond)
	ctx := context.Background()
	if _, ok := src.Lookup(ctx, "FOO"); !ok {
		t.Fatal("initial fetch should succeed")
	}

	fail.Store(true)
	time.Sleep(5 * time.Millisecond)
	q, ok := src.Lookup(ctx, "FOO")
	if !ok {
		t.Fatal("cached quote should still be served after upstream failure")
	}
	if q.Price != 111.5 {
		t.Fatalf("cached price = %f, want 111.5", q.Price)
	}
}

func TestHistorySyntheticAnchored(t *testing.T) {
	var requests int64
	up := newUpstream(&requests, nil)
	defer up.Close()

	src := newTestSource(up.URL, 5*time.Second)
	ctx := context.Background()
	src.Lookup(ctx, "FOO")

	candles, ok := src.History(ctx, "FOO", 30)
	if !ok || len(candles) == 0 {
		t.Fatalf("expected synthetic history, got ok=%v len=%d", ok, len(candles))
	}
	if last := candles[len(candles)-1]; last.Close != 111.5 {
		t.Fatalf("trailing candle close = %f, want live price 111.5", last.Close)
	}
}

func TestStatusNoAlwaysOpen(t *testing.T) {
	src := newTestSource("http://invalid", time.Second)
	// Sunday noon IST: the live variant follows the real calendar.
	st := src.Status(time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC))
	if st.Open {
		t.Fatal("live market should be closed on Sunday")
	}
}
