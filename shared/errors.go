package shared

import "errors"

var (
	// ErrUnsupportedTimeframe is returned when a period code cannot be resolved.
	ErrUnsupportedTimeframe = errors.New("unsupported timeframe")
	// ErrSymbolUnavailable is returned when the data source does not recognize a symbol.
	ErrSymbolUnavailable = errors.New("symbol unavailable")
	// ErrNoData is returned when the requested range yields zero bars.
	ErrNoData = errors.New("no data")
	// ErrEmptySeries is returned when summary statistics are requested for a zero-length series.
	ErrEmptySeries = errors.New("empty series")
	// ErrDuplicateTimestamp is returned when a bar series carries repeated timestamps.
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")
)
