package ratio

import (
	"fmt"
	"time"

	"ratiolens/shared"
)

// Point represents the quotient of two closing prices at one shared timestamp.
type Point struct {
	Timestamp time.Time
	Close1    float64
	Close2    float64
	Ratio     float64
}

// Series represents the ratio of two symbols' closing prices over their
// shared timestamp domain.
type Series struct {
	Symbol1 string
	Symbol2 string
	Points  []Point
	// Excluded counts joined timestamps dropped because the denominator
	// close was zero.
	Excluded int
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	return len(s.Points)
}

// Latest returns the most recent point of the series.
func (s *Series) Latest() (Point, error) {
	if len(s.Points) == 0 {
		return Point{}, fmt.Errorf("%w: %s/%s has no points", shared.ErrEmptySeries,
			s.Symbol1, s.Symbol2)
	}

	return s.Points[len(s.Points)-1], nil
}

// BuildSeries inner-joins the provided bar series by exact timestamp equality
// and computes the elementwise quotient of their closing prices. Timestamps
// present on only one side are dropped. Joined timestamps with a zero
// denominator close are excluded from the result and counted, so the output
// never carries NaN or Inf values. Inputs carrying duplicate timestamps are
// rejected rather than joined many-to-many.
func BuildSeries(series1 *shared.BarSeries, series2 *shared.BarSeries) (*Series, error) {
	err := series1.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating %s series: %w", series1.Symbol, err)
	}

	err = series2.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating %s series: %w", series2.Symbol, err)
	}

	result := &Series{
		Symbol1: series1.Symbol,
		Symbol2: series2.Symbol,
	}

	// Both inputs are sorted ascending, so a two cursor merge performs the
	// inner join in a single pass.
	var idx1, idx2 int
	for idx1 < len(series1.Bars) && idx2 < len(series2.Bars) {
		bar1 := series1.Bars[idx1]
		bar2 := series2.Bars[idx2]

		switch {
		case bar1.Timestamp.Before(bar2.Timestamp):
			idx1++
		case bar2.Timestamp.Before(bar1.Timestamp):
			idx2++
		default:
			if bar2.Close == 0 {
				result.Excluded++
				idx1++
				idx2++
				continue
			}

			result.Points = append(result.Points, Point{
				Timestamp: bar1.Timestamp,
				Close1:    bar1.Close,
				Close2:    bar2.Close,
				Ratio:     bar1.Close / bar2.Close,
			})
			idx1++
			idx2++
		}
	}

	return result, nil
}
