package catalog

import "testing"

func TestResolveBareSymbol(t *testing.T) {
	if got := Resolve("RELIANCE"); got != "RELIANCE.NS" {
		t.Fatalf("Resolve(RELIANCE) = %q, want RELIANCE.NS", got)
	}
}

func TestResolveLowercase(t *testing.T) {
	if got := Resolve("reliance.ns"); got != "RELIANCE.NS" {
		t.Fatalf("Resolve(reliance.ns) = %q, want RELIANCE.NS", got)
	}
}

func TestResolveIndexNoSuffix(t *testing.T) {
	if got := Resolve("^nsei"); got != "^NSEI" {
		t.Fatalf("Resolve(^nsei) = %q, want ^NSEI", got)
	}
}

func TestResolveExistingSuffix(t *testing.T) {
	if got := Resolve("TCS.NS"); got != "TCS.NS" {
		t.Fatalf("Resolve(TCS.NS) = %q, want TCS.NS", got)
	}
}

func TestResolveWhitespace(t *testing.T) {
	if got := Resolve("  infy "); got != "INFY.NS" {
		t.Fatalf("Resolve with whitespace = %q, want INFY.NS", got)
	}
}

func TestResolveEmpty(t *testing.T) {
	if got := Resolve(""); got != "" {
		t.Fatalf("Resolve(empty) = %q, want empty", got)
	}
}

func TestAllEntriesValid(t *testing.T) {
	entries := All()
	if len(entries) == 0 {
		t.Fatal("catalog is empty")
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Symbol == "" || e.Name == "" {
			t.Fatalf("entry missing symbol or name: %+v", e)
		}
		if e.BasePrice <= 0 {
			t.Fatalf("%s has non-positive base price %f", e.Symbol, e.BasePrice)
		}
		if seen[e.Symbol] {
			t.Fatalf("duplicate symbol %s", e.Symbol)
		}
		seen[e.Symbol] = true
	}
}

func TestIndicesMarked(t *testing.T) {
	indices := 0
	for _, e := range All() {
		if e.IsIndex() {
			indices++
			if e.Sector != SectorIndex {
				t.Fatalf("index %s has sector %s, want Index", e.Symbol, e.Sector)
			}
		}
	}
	if indices != 3 {
		t.Fatalf("expected 3 indices, got %d", indices)
	}
}

func TestBySymbolCoversAll(t *testing.T) {
	m := BySymbol()
	for _, e := range All() {
		got, ok := m[e.Symbol]
		if !ok {
			t.Fatalf("BySymbol missing %s", e.Symbol)
		}
		if got.Name != e.Name {
			t.Fatalf("BySymbol[%s].Name = %q, want %q", e.Symbol, got.Name, e.Name)
		}
	}
}

func TestVolatilityKnownSectors(t *testing.T) {
	for _, e := range All() {
		v := Volatility(e.Sector)
		if v <= 0 || v >= 0.1 {
			t.Fatalf("Volatility(%s) = %f, outside sane range", e.Sector, v)
		}
	}
}

func TestVolatilityUnknownSectorFallback(t *testing.T) {
	if got := Volatility(Sector("Shipping")); got != DefaultVolatility {
		t.Fatalf("unknown sector volatility = %f, want default %f", got, DefaultVolatility)
	}
}
