package catalog

import "strings"

// Sector classifies an instrument for volatility purposes.
type Sector string

const (
	SectorIT      Sector = "IT"
	SectorBanking Sector = "Banking"
	SectorEnergy  Sector = "Energy"
	SectorPharma  Sector = "Pharma"
	SectorAuto    Sector = "Auto"
	SectorFMCG    Sector = "FMCG"
	SectorMetals  Sector = "Metals"
	SectorTelecom Sector = "Telecom"
	SectorFinance Sector = "Finance"
	SectorIndex   Sector = "Index"
)

// MarketSuffix is appended to bare symbols during resolution.
const MarketSuffix = ".NS"

// IndexPrefix marks index symbols, which are exempt from suffix resolution.
const IndexPrefix = "^"

// Entry holds static metadata for one listed instrument.
type Entry struct {
	Symbol    string
	Name      string
	Sector    Sector
	BasePrice float64
}

// IsIndex reports whether the entry is a market index rather than a stock.
func (e Entry) IsIndex() bool {
	return strings.HasPrefix(e.Symbol, IndexPrefix)
}

// All returns the full instrument table: NSE large caps plus three indices.
func All() []Entry {
	return []Entry{
		// IT
		{"TCS.NS", "Tata Consultancy Services", SectorIT, 3850.00},
		{"INFY.NS", "Infosys Ltd", SectorIT, 1520.00},
		{"WIPRO.NS", "Wipro Ltd", SectorIT, 445.00},
		{"HCLTECH.NS", "HCL Technologies", SectorIT, 1340.00},
		{"TECHM.NS", "Tech Mahindra", SectorIT, 1265.00},

		// Banking
		{"HDFCBANK.NS", "HDFC Bank Ltd", SectorBanking, 1485.00},
		{"ICICIBANK.NS", "ICICI Bank Ltd", SectorBanking, 1010.00},
		{"SBIN.NS", "State Bank of India", SectorBanking, 625.00},
		{"KOTAKBANK.NS", "Kotak Mahindra Bank", SectorBanking, 1790.00},
		{"AXISBANK.NS", "Axis Bank Ltd", SectorBanking, 1065.00},

		// Energy
		{"RELIANCE.NS", "Reliance Industries", SectorEnergy, 2450.00},
		{"ONGC.NS", "Oil & Natural Gas Corp", SectorEnergy, 198.00},
		{"POWERGRID.NS", "Power Grid Corp", SectorEnergy, 242.00},
		{"NTPC.NS", "NTPC Ltd", SectorEnergy, 312.00},

		// Pharma
		{"SUNPHARMA.NS", "Sun Pharmaceutical", SectorPharma, 1175.00},
		{"DRREDDY.NS", "Dr Reddys Laboratories", SectorPharma, 5680.00},
		{"CIPLA.NS", "Cipla Ltd", SectorPharma, 1230.00},

		// Auto
		{"MARUTI.NS", "Maruti Suzuki India", SectorAuto, 10450.00},
		{"TATAMOTORS.NS", "Tata Motors Ltd", SectorAuto, 745.00},
		{"M&M.NS", "Mahindra & Mahindra", SectorAuto, 1620.00},

		// FMCG
		{"HINDUNILVR.NS", "Hindustan Unilever", SectorFMCG, 2560.00},
		{"ITC.NS", "ITC Ltd", SectorFMCG, 438.00},
		{"NESTLEIND.NS", "Nestle India Ltd", SectorFMCG, 24800.00},

		// Metals
		{"TATASTEEL.NS", "Tata Steel Ltd", SectorMetals, 132.00},
		{"JSWSTEEL.NS", "JSW Steel Ltd", SectorMetals, 815.00},

		// Telecom
		{"BHARTIARTL.NS", "Bharti Airtel Ltd", SectorTelecom, 1095.00},

		// Finance
		{"BAJFINANCE.NS", "Bajaj Finance Ltd", SectorFinance, 7150.00},
		{"HDFCLIFE.NS", "HDFC Life Insurance", SectorFinance, 620.00},

		// Indices
		{"^NSEI", "NIFTY 50", SectorIndex, 22150.00},
		{"^NSEBANK", "NIFTY BANK", SectorIndex, 47200.00},
		{"^BSESN", "S&P BSE SENSEX", SectorIndex, 72900.00},
	}
}

// BySymbol returns a map from symbol to entry for quick lookups.
func BySymbol() map[string]Entry {
	entries := All()
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Symbol] = e
	}
	return m
}

// DefaultVolatility is used for sectors missing from the volatility table.
const DefaultVolatility = 0.02

// sectorVolatility maps each sector to its per-tick volatility coefficient.
var sectorVolatility = map[Sector]float64{
	SectorIT:      0.025,
	SectorBanking: 0.020,
	SectorEnergy:  0.022,
	SectorPharma:  0.018,
	SectorAuto:    0.028,
	SectorFMCG:    0.015,
	SectorMetals:  0.035,
	SectorTelecom: 0.024,
	SectorFinance: 0.026,
	SectorIndex:   0.015,
}

// Volatility returns the volatility coefficient for a sector,
// falling back to DefaultVolatility for unknown sectors.
func Volatility(sector Sector) float64 {
	if v, ok := sectorVolatility[sector]; ok {
		return v
	}
	return DefaultVolatility
}

// Resolve normalizes raw user input to a catalog symbol: uppercases,
// and appends the default market suffix to bare non-index symbols.
// "relIANCE" -> "RELIANCE.NS", "^nsei" -> "^NSEI", "TCS.NS" -> "TCS.NS".
func Resolve(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, IndexPrefix) || strings.Contains(s, ".") {
		return s
	}
	return s + MarketSuffix
}
