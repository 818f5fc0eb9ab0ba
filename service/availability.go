package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ratiolens/shared"
)

// SymbolGroup represents a named group of symbols to probe for data coverage.
type SymbolGroup struct {
	Name    string
	Symbols []string
}

// DefaultSymbolGroups returns the symbol groups commonly offered by trading
// terminals.
func DefaultSymbolGroups() []SymbolGroup {
	return []SymbolGroup{
		{
			Name:    "metals",
			Symbols: []string{"XAUUSD", "XAGUSD", "XPTUSD", "XPDUSD"},
		},
		{
			Name:    "majors",
			Symbols: []string{"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "AUDUSD", "NZDUSD", "USDCAD"},
		},
		{
			Name:    "crosses",
			Symbols: []string{"EURJPY", "GBPJPY", "EURGBP", "AUDJPY", "EURAUD", "AUDNZD"},
		},
		{
			Name:    "energy",
			Symbols: []string{"XTIUSD", "XBRUSD", "XNGUSD"},
		},
		{
			Name:    "indices",
			Symbols: []string{"US30", "US500", "NAS100", "GER40", "UK100", "JPN225"},
		},
	}
}

// Availability represents the data coverage probe outcome for one symbol.
type Availability struct {
	Group     string
	Symbol    string
	Available bool
	Reason    string
	Bars      int
	Start     time.Time
	End       time.Time
	SpanDays  int
}

// CheckAvailability probes every symbol in the provided groups for bars on
// the given timeframe over the given day window. Unknown symbols and empty
// ranges are per-symbol outcomes, not failures.
func (a *Analyzer) CheckAvailability(ctx context.Context, groups []SymbolGroup, timeframe shared.Timeframe, days int) ([]Availability, error) {
	now := a.cfg.Now().UTC()
	start := now.AddDate(0, 0, -days)

	var results []Availability
	for _, group := range groups {
		for _, symbol := range group.Symbols {
			result := Availability{
				Group:  group.Name,
				Symbol: symbol,
			}

			series, err := a.cfg.Fetcher.FetchBars(ctx, symbol, timeframe, start, now)
			switch {
			case errors.Is(err, shared.ErrSymbolUnavailable):
				result.Reason = "symbol not found"
			case errors.Is(err, shared.ErrNoData):
				result.Reason = "no data"
			case err != nil:
				return nil, fmt.Errorf("probing %s: %w", symbol, err)
			default:
				result.Available = true
				result.Reason = "ok"
				result.Bars = series.Len()
				result.Start = series.Start()
				result.End = series.End()
				result.SpanDays = int(series.End().Sub(series.Start()).Hours() / 24)
			}

			results = append(results, result)
		}
	}

	return results, nil
}

// WriteAvailabilityReport prints the availability probe outcomes grouped the
// way they were probed.
func WriteAvailabilityReport(w io.Writer, results []Availability) {
	var group string
	for idx := range results {
		result := results[idx]
		if result.Group != group {
			group = result.Group
			fmt.Fprintf(w, "%s:\n", group)
		}

		switch {
		case result.Available:
			fmt.Fprintf(w, "  %-8s %6d bars  %s - %s (%d days)\n", result.Symbol,
				result.Bars, result.Start.UTC().Format("2006-01-02"),
				result.End.UTC().Format("2006-01-02"), result.SpanDays)
		default:
			fmt.Fprintf(w, "  %-8s unavailable: %s\n", result.Symbol, result.Reason)
		}
	}
}
