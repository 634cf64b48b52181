package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"StockLens/internal/model"
)

var (
	// ErrNoData is returned when the quote source has nothing for a ticker.
	ErrNoData = errors.New("no data returned")
	// ErrInvalidRange is returned for a lookback outside AllowedRanges.
	ErrInvalidRange = errors.New("invalid range")
)

// DefaultRange is the lookback used when the caller does not pick one.
const DefaultRange = "3mo"

// AllowedRanges are the daily-interval lookbacks accepted by the collector.
var AllowedRanges = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y"}

// ValidateRange returns the range to use, substituting DefaultRange for "".
func ValidateRange(rng string) (string, error) {
	if rng == "" {
		return DefaultRange, nil
	}
	for _, r := range AllowedRanges {
		if r == rng {
			return rng, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRange, rng)
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchHistory(ctx context.Context, ticker, rng string) ([]model.RawQuote, error)
	FetchLatestPrice(ctx context.Context, ticker string) (*model.Quote, error)
	Name() string
}

// NormalizeTicker upper-cases and trims a user-supplied ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
