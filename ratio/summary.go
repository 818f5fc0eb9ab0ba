package ratio

import (
	"fmt"
	"math"
	"time"

	"ratiolens/shared"
)

const (
	// classificationThreshold is the deviation from the mean, in units of
	// standard deviation, beyond which the latest value is no longer normal.
	classificationThreshold = 1.0
)

// Classification represents the position of the latest ratio value relative
// to its historical distribution.
type Classification int

const (
	Normal Classification = iota
	High
	Low
)

// String stringifies the provided classification.
func (c Classification) String() string {
	switch c {
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return "normal"
	}
}

// Summary represents descriptive statistics over a ratio series.
//
// Std is the sample standard deviation (denominator N-1), matching the
// convention of common statistics libraries. A single point series has a
// standard deviation of zero.
type Summary struct {
	Mean           float64
	Std            float64
	Min            float64
	Max            float64
	MinTimestamp   time.Time
	MaxTimestamp   time.Time
	Latest         float64
	PercentileRank float64
	Classification Classification
	Points         int
	Excluded       int
	Start          time.Time
	End            time.Time
}

// Summarize computes descriptive statistics over the provided ratio series
// and classifies its latest value relative to the historical distribution.
func Summarize(series *Series) (*Summary, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: cannot summarize %s/%s", shared.ErrEmptySeries,
			series.Symbol1, series.Symbol2)
	}

	summary := &Summary{
		Min:      series.Points[0].Ratio,
		Max:      series.Points[0].Ratio,
		Points:   series.Len(),
		Excluded: series.Excluded,
		Start:    series.Points[0].Timestamp,
		End:      series.Points[len(series.Points)-1].Timestamp,
		Latest:   series.Points[len(series.Points)-1].Ratio,
	}

	var sum float64
	for idx := range series.Points {
		point := series.Points[idx]
		sum += point.Ratio

		if point.Ratio < summary.Min {
			summary.Min = point.Ratio
			summary.MinTimestamp = point.Timestamp
		}
		if point.Ratio > summary.Max {
			summary.Max = point.Ratio
			summary.MaxTimestamp = point.Timestamp
		}
	}
	if summary.MinTimestamp.IsZero() {
		summary.MinTimestamp = series.Points[0].Timestamp
	}
	if summary.MaxTimestamp.IsZero() {
		summary.MaxTimestamp = series.Points[0].Timestamp
	}

	summary.Mean = sum / float64(summary.Points)

	var squaredDiffs float64
	var below int
	for idx := range series.Points {
		diff := series.Points[idx].Ratio - summary.Mean
		squaredDiffs += diff * diff

		if series.Points[idx].Ratio < summary.Latest {
			below++
		}
	}

	if summary.Points > 1 {
		summary.Std = math.Sqrt(squaredDiffs / float64(summary.Points-1))
	}

	summary.PercentileRank = float64(below) / float64(summary.Points) * 100

	switch {
	case summary.Latest > summary.Mean+classificationThreshold*summary.Std:
		summary.Classification = High
	case summary.Latest < summary.Mean-classificationThreshold*summary.Std:
		summary.Classification = Low
	default:
		summary.Classification = Normal
	}

	return summary, nil
}
