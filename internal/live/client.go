package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client fetches quotes from an upstream provider speaking the Yahoo
// Finance v7 quote shape.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an upstream quote client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// upstreamQuote mirrors one result entry of the provider response. Fields
// the provider omits decode to their zero value and are skipped on merge.
type upstreamQuote struct {
	Symbol                     string  `json:"symbol"`
	LongName                   string  `json:"longName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	Bid                        float64 `json:"bid"`
	Ask                        float64 `json:"ask"`
	BidSize                    int     `json:"bidSize"`
	AskSize                    int     `json:"askSize"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []upstreamQuote `json:"result"`
		Error  json.RawMessage `json:"error"`
	} `json:"quoteResponse"`
}

// FetchQuotes requests current quotes for the given symbols in one batch.
// Symbols missing from the response are simply absent from the result map.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) (map[string]upstreamQuote, error) {
	if len(symbols) == 0 {
		return map[string]upstreamQuote{}, nil
	}

	u := c.baseURL + "/v7/finance/quote?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var parsed quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}

	out := make(map[string]upstreamQuote, len(parsed.QuoteResponse.Result))
	for _, q := range parsed.QuoteResponse.Result {
		if q.Symbol == "" || q.RegularMarketPrice <= 0 {
			continue
		}
		out[q.Symbol] = q
	}
	return out, nil
}
