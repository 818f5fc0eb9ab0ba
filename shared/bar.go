package shared

import (
	"fmt"
	"time"
)

// Bar represents a unit OHLCV record for a symbol over one timeframe interval.
type Bar struct {
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	TickVolume int64
	Spread     int64
	RealVolume int64
}

// BarSeries represents an ordered sequence of bars for one symbol and timeframe.
type BarSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []Bar
}

// NewBarSeries initializes a bar series for the provided symbol and timeframe.
func NewBarSeries(symbol string, timeframe Timeframe, bars []Bar) *BarSeries {
	return &BarSeries{
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      bars,
	}
}

// Validate asserts bar timestamps are strictly increasing and unique.
func (s *BarSeries) Validate() error {
	for idx := 1; idx < len(s.Bars); idx++ {
		prev := s.Bars[idx-1].Timestamp
		curr := s.Bars[idx].Timestamp
		switch {
		case curr.Equal(prev):
			return fmt.Errorf("%w: %s bar at %s", ErrDuplicateTimestamp,
				s.Symbol, curr.UTC().Format(DateLayout))
		case curr.Before(prev):
			return fmt.Errorf("%s bars out of order at %s", s.Symbol,
				curr.UTC().Format(DateLayout))
		}
	}

	return nil
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int {
	return len(s.Bars)
}

// Start returns the timestamp of the first bar, or the zero time for an empty series.
func (s *BarSeries) Start() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}

	return s.Bars[0].Timestamp
}

// End returns the timestamp of the last bar, or the zero time for an empty series.
func (s *BarSeries) End() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}

	return s.Bars[len(s.Bars)-1].Timestamp
}
