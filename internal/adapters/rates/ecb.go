package rates

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/sony/gobreaker"
)

// DefaultFeedURL is the ECB daily reference-rate feed (EUR-based).
const DefaultFeedURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"

// RateSource provides a full EUR-based rate table.
type RateSource interface {
	FetchRates(ctx context.Context) (map[string]float64, error)
}

// ECBClient fetches and parses the ECB daily reference-rate XML feed.
// Calls run behind a circuit breaker so a flapping feed degrades to the
// cache fallback quickly instead of stalling every matching pass.
type ECBClient struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewECBClient creates a feed client. An empty url uses DefaultFeedURL.
func NewECBClient(url string, logger *slog.Logger) *ECBClient {
	if url == "" {
		url = DefaultFeedURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &ECBClient{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ecb-rates",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("rate feed circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

// FetchRates returns the current EUR-based rate table. EUR itself is
// included with rate 1 so cross rates can be derived uniformly.
func (c *ECBClient) FetchRates(ctx context.Context) (map[string]float64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("%w: rate feed circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return result.(map[string]float64), nil
}

func (c *ECBClient) fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate feed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate feed response: %w", err)
	}

	return parseFeed(body)
}

// parseFeed extracts currency/rate pairs from the eurofxref XML
// structure (nested Cube elements carrying currency and rate attrs).
func parseFeed(raw []byte) (map[string]float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse rate feed XML: %w", err)
	}

	cubes := doc.FindElements("//Cube/Cube/Cube")
	if len(cubes) == 0 {
		return nil, fmt.Errorf("no rate data found in feed")
	}

	table := map[string]float64{"EUR": 1.0}
	for _, cube := range cubes {
		currency := cube.SelectAttrValue("currency", "")
		rateStr := cube.SelectAttrValue("rate", "")
		if currency == "" || rateStr == "" {
			continue
		}
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil || rate <= 0 {
			continue
		}
		table[currency] = rate
	}

	return table, nil
}
