package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/Alias1177/SignalEngine/internal/platform/http"
	"github.com/Alias1177/SignalEngine/models"
)

const defaultBaseURL = "https://api.binance.com"

// Client fetches candles and 24h tickers from the Binance public REST API.
type Client struct {
	httpClient *platformhttp.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a market data client. An empty baseURL selects the
// public Binance endpoint.
func NewClient(httpClient *platformhttp.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     log.With().Str("component", "market_client").Logger(),
	}
}

// Symbol converts a display pair like "BTC/USDT" to the exchange symbol
// "BTCUSDT".
func Symbol(pair string) string {
	pair = strings.ReplaceAll(pair, "/", "")
	pair = strings.ReplaceAll(pair, "-", "")
	return strings.ToUpper(pair)
}

// GetCandles fetches the most recent limit candles for a pair, oldest first.
func (c *Client) GetCandles(ctx context.Context, pair, interval string, limit int) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", Symbol(pair))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v3/klines", q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", pair, err)
	}

	// Each kline is a mixed-type array: open time, then OHLCV as strings.
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse candle response: %w", err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		var candle models.Candle
		if err := json.Unmarshal(k[0], &candle.Timestamp); err != nil {
			continue
		}
		fields := []*float64{&candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume}
		ok := true
		for i, dst := range fields {
			var s string
			if err := json.Unmarshal(k[i+1], &s); err != nil {
				ok = false
				break
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			*dst = v
		}
		if !ok || candle.Timestamp <= 0 {
			continue
		}
		if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
			c.logger.Warn().
				Int64("timestamp", candle.Timestamp).
				Msg("Dropping candle with non-positive price")
			continue
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("no valid candles returned for %s", pair)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})

	// Keep timestamps strictly increasing, first occurrence wins
	deduped := candles[:1]
	for _, candle := range candles[1:] {
		if candle.Timestamp <= deduped[len(deduped)-1].Timestamp {
			continue
		}
		deduped = append(deduped, candle)
	}
	return deduped, nil
}

// tickerResponse mirrors the /api/v3/ticker/24hr payload.
type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	QuoteVolume        string `json:"quoteVolume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// GetSnapshot fetches the 24h ticker for a pair.
func (c *Client) GetSnapshot(ctx context.Context, pair string) (*models.MarketSnapshot, error) {
	q := url.Values{}
	q.Set("symbol", Symbol(pair))

	body, err := c.get(ctx, "/api/v3/ticker/24hr", q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticker for %s: %w", pair, err)
	}

	var ticker tickerResponse
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, fmt.Errorf("failed to parse ticker response: %w", err)
	}

	snapshot := &models.MarketSnapshot{Symbol: ticker.Symbol}
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{ticker.LastPrice, &snapshot.Price},
		{ticker.QuoteVolume, &snapshot.Volume24h},
		{ticker.HighPrice, &snapshot.High24h},
		{ticker.LowPrice, &snapshot.Low24h},
		{ticker.PriceChangePercent, &snapshot.ChangePercent24h},
	} {
		if f.raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ticker field %q: %w", f.raw, err)
		}
		*f.dst = v
	}

	if snapshot.Price <= 0 {
		return nil, fmt.Errorf("ticker for %s has no price", pair)
	}
	return snapshot, nil
}

// get performs one rate-limited, retried GET and returns the body.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
