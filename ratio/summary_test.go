package ratio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"

	"ratiolens/shared"
)

func TestSummarize(t *testing.T) {
	series1 := shared.NewBarSeries("XAUUSD", shared.FourHour,
		barsAt(map[int64]float64{1: 100, 2: 110, 3: 120}))
	series2 := shared.NewBarSeries("XAGUSD", shared.FourHour,
		barsAt(map[int64]float64{1: 50, 2: 50, 3: 60}))

	result, err := BuildSeries(series1, series2)
	assert.NoError(t, err)

	// Ensure the summary matches the known distribution of [2.0, 2.2, 2.0].
	summary, err := Summarize(result)
	assert.NoError(t, err)
	assert.Equal(t, summary.Points, 3)
	assert.Equal(t, summary.Latest, 2.0)
	assert.Equal(t, summary.Min, 2.0)
	assert.Equal(t, summary.Max, 2.2)
	assert.Equal(t, summary.MaxTimestamp, time.Unix(2, 0).UTC())
	assert.LessThan(t, math.Abs(summary.Mean-2.0667), 0.01)

	// Sample standard deviation of [2.0, 2.2, 2.0] is sqrt(0.04/3) ~ 0.1155.
	assert.LessThan(t, math.Abs(summary.Std-0.11547), 0.0001)

	// The latest value 2.0 sits within one standard deviation of the mean.
	assert.Equal(t, summary.Classification, Normal)

	// No historical point is strictly below 2.0.
	assert.Equal(t, summary.PercentileRank, float64(0))

	assert.Equal(t, summary.Start, time.Unix(1, 0).UTC())
	assert.Equal(t, summary.End, time.Unix(3, 0).UTC())
}

func TestSummarizeClassification(t *testing.T) {
	buildFromRatios := func(ratios []float64) *Series {
		series := &Series{Symbol1: "NAS100", Symbol2: "US500"}
		for idx, ratio := range ratios {
			series.Points = append(series.Points, Point{
				Timestamp: time.Unix(int64(idx+1), 0).UTC(),
				Close1:    ratio,
				Close2:    1,
				Ratio:     ratio,
			})
		}

		return series
	}

	// Ensure a latest value beyond mean + 1 std classifies high.
	summary, err := Summarize(buildFromRatios([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 3}))
	assert.NoError(t, err)
	assert.Equal(t, summary.Classification, High)
	assert.Equal(t, summary.Classification.String(), "high")
	assert.Equal(t, summary.PercentileRank, float64(90))

	// Ensure a latest value beyond mean - 1 std classifies low.
	summary, err = Summarize(buildFromRatios([]float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 1}))
	assert.NoError(t, err)
	assert.Equal(t, summary.Classification, Low)
	assert.Equal(t, summary.Classification.String(), "low")
	assert.Equal(t, summary.PercentileRank, float64(0))

	// Ensure a flat series classifies normal.
	summary, err = Summarize(buildFromRatios([]float64{2, 2, 2}))
	assert.NoError(t, err)
	assert.Equal(t, summary.Classification, Normal)
	assert.Equal(t, summary.Classification.String(), "normal")
	assert.Equal(t, summary.Std, float64(0))
}

func TestSummarizeSinglePoint(t *testing.T) {
	// Ensure a single point series has zero std and a zero percentile rank.
	series := &Series{
		Symbol1: "XAUUSD",
		Symbol2: "XAGUSD",
		Points: []Point{
			{Timestamp: time.Unix(1, 0).UTC(), Close1: 80, Close2: 1, Ratio: 80},
		},
	}

	summary, err := Summarize(series)
	assert.NoError(t, err)
	assert.Equal(t, summary.Points, 1)
	assert.Equal(t, summary.Mean, float64(80))
	assert.Equal(t, summary.Std, float64(0))
	assert.Equal(t, summary.PercentileRank, float64(0))
	assert.Equal(t, summary.Classification, Normal)
	assert.Equal(t, summary.Min, float64(80))
	assert.Equal(t, summary.Max, float64(80))
}

func TestSummarizeEmptySeries(t *testing.T) {
	// Ensure summarizing an empty series fails.
	_, err := Summarize(&Series{Symbol1: "XAUUSD", Symbol2: "XAGUSD"})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrEmptySeries))
}
