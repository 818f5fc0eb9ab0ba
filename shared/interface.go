package shared

import (
	"context"
	"time"
)

// BarFetcher defines the requirements for fetching historical market data.
type BarFetcher interface {
	// FetchBars fetches historical bars for the provided symbol and timeframe,
	// restricted to the provided utc time range. Returned bars are sorted
	// ascending by timestamp and deduplicated.
	FetchBars(ctx context.Context, symbol string, timeframe Timeframe, start time.Time, end time.Time) (*BarSeries, error)
}
