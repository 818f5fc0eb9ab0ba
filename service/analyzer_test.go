package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"

	"ratiolens/database"
	"ratiolens/ratio"
	"ratiolens/shared"
)

// fakeFetcher serves canned bar series keyed by symbol.
type fakeFetcher struct {
	series map[string]*shared.BarSeries
	errs   map[string]error
	calls  int
}

func (f *fakeFetcher) FetchBars(_ context.Context, symbol string, _ shared.Timeframe, _ time.Time, _ time.Time) (*shared.BarSeries, error) {
	f.calls++

	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}

	series, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSymbolUnavailable, symbol)
	}

	return series, nil
}

// fakeStorer records persisted analyses.
type fakeStorer struct {
	records []*database.AnalysisRecord
}

func (s *fakeStorer) PersistAnalysis(_ context.Context, record *database.AnalysisRecord) error {
	s.records = append(s.records, record)
	return nil
}

func seriesFor(symbol string, closes []float64) *shared.BarSeries {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]shared.Bar, 0, len(closes))
	for idx, close := range closes {
		bars = append(bars, shared.Bar{
			Timestamp: base.Add(time.Duration(idx) * 4 * time.Hour),
			Open:      close,
			High:      close,
			Low:       close,
			Close:     close,
		})
	}

	return shared.NewBarSeries(symbol, shared.FourHour, bars)
}

func testPresets() []ratio.Preset {
	return []ratio.Preset{
		{Name: "gold_silver", Symbol1: "XAUUSD", Symbol2: "XAGUSD", Label1: "Gold", Label2: "Silver"},
		{Name: "oil_gold", Symbol1: "XTIUSD", Symbol2: "XAUUSD", Label1: "WTI Crude", Label2: "Gold"},
	}
}

func newTestAnalyzer(t *testing.T, fetcher *fakeFetcher, storer database.SummaryStorer, out *bytes.Buffer) *Analyzer {
	t.Helper()

	logger := zerolog.Nop()
	analyzer, err := NewAnalyzer(&AnalyzerConfig{
		Fetcher:   fetcher,
		Storer:    storer,
		Presets:   testPresets(),
		OutputDir: t.TempDir(),
		Output:    out,
		Now: func() time.Time {
			return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	return analyzer
}

func TestAnalyzerConfigValidate(t *testing.T) {
	// Ensure the analyzer rejects incomplete configs.
	_, err := NewAnalyzer(&AnalyzerConfig{})
	assert.Error(t, err)
	for _, want := range []string{"fetcher", "presets", "output writer", "logger"} {
		assert.True(t, strings.Contains(err.Error(), want))
	}
}

func TestAnalyzeRatio(t *testing.T) {
	fetcher := &fakeFetcher{
		series: map[string]*shared.BarSeries{
			"XAUUSD": seriesFor("XAUUSD", []float64{2000, 2050, 2100, 2080, 2120}),
			"XAGUSD": seriesFor("XAGUSD", []float64{25, 25, 24, 26, 25}),
		},
	}
	storer := &fakeStorer{}
	var out bytes.Buffer
	analyzer := newTestAnalyzer(t, fetcher, storer, &out)

	preset := &analyzer.cfg.Presets[0]
	result, err := analyzer.AnalyzeRatio(context.Background(), preset, shared.FourHour, 30, "run-1")
	assert.NoError(t, err)
	assert.Equal(t, result.Series.Len(), 5)
	assert.Equal(t, result.Summary.Points, 5)

	// Ensure the chart and data artifacts were written.
	for _, path := range []string{result.ChartPath, result.DataPath} {
		info, err := os.Stat(path)
		assert.NoError(t, err)
		assert.GreaterThan(t, info.Size(), int64(0))
	}
	assert.True(t, strings.HasSuffix(result.ChartPath, "gold_silver_20260831_120000.png"))
	assert.True(t, strings.HasSuffix(result.DataPath, "gold_silver_data_20260831_120000.csv"))

	// Ensure the analysis was persisted with the run id.
	assert.Equal(t, len(storer.records), 1)
	assert.Equal(t, storer.records[0].RunID, "run-1")
	assert.Equal(t, storer.records[0].Ratio, "gold_silver")
	assert.Equal(t, storer.records[0].Timeframe, "H4")
	assert.NotEqual(t, storer.records[0].ID, "")
}

func TestRunBatchPartialFailure(t *testing.T) {
	// XTIUSD is unknown, so the oil ratio must fail without aborting the batch.
	fetcher := &fakeFetcher{
		series: map[string]*shared.BarSeries{
			"XAUUSD": seriesFor("XAUUSD", []float64{2000, 2050, 2100, 2080, 2120}),
			"XAGUSD": seriesFor("XAGUSD", []float64{25, 25, 24, 26, 25}),
		},
	}
	var out bytes.Buffer
	analyzer := newTestAnalyzer(t, fetcher, nil, &out)

	batch, err := analyzer.RunBatch(context.Background(), shared.FourHour, 30)
	assert.NoError(t, err)
	assert.Equal(t, len(batch.Completed), 1)
	assert.Equal(t, batch.Completed[0].Preset.Name, "gold_silver")
	assert.Equal(t, len(batch.Failed), 1)
	assert.True(t, errors.Is(batch.Failed["oil_gold"], shared.ErrSymbolUnavailable))

	// Ensure the aggregate summary covers completed ratios.
	info, err := os.Stat(batch.SummaryPath)
	assert.NoError(t, err)
	assert.GreaterThan(t, info.Size(), int64(0))

	report := out.String()
	assert.True(t, strings.Contains(report, "gold_silver"))
	assert.True(t, strings.Contains(report, "skipped oil_gold"))
}

func TestRunBatchIsolatesPresentationFailures(t *testing.T) {
	// A single joined point summarizes fine but cannot be charted; the
	// failure must stay per ratio and the remaining presets must still run.
	presets := []ratio.Preset{
		{Name: "gold_silver", Symbol1: "XAUUSD", Symbol2: "XAGUSD", Label1: "Gold", Label2: "Silver"},
		{Name: "dow_gold", Symbol1: "US30", Symbol2: "XPDUSD", Label1: "Dow Jones", Label2: "Palladium"},
		{Name: "nasdaq_sp500", Symbol1: "NAS100", Symbol2: "US500", Label1: "Nasdaq 100", Label2: "S&P 500"},
	}
	fetcher := &fakeFetcher{
		series: map[string]*shared.BarSeries{
			"XAUUSD": seriesFor("XAUUSD", []float64{2000}),
			"XAGUSD": seriesFor("XAGUSD", []float64{25}),
			"NAS100": seriesFor("NAS100", []float64{18000, 18100, 18200, 18150, 18300}),
			"US500":  seriesFor("US500", []float64{5000, 5010, 5020, 5015, 5030}),
		},
	}

	logger := zerolog.Nop()
	var out bytes.Buffer
	analyzer, err := NewAnalyzer(&AnalyzerConfig{
		Fetcher:   fetcher,
		Presets:   presets,
		OutputDir: t.TempDir(),
		Output:    &out,
		Now: func() time.Time {
			return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	batch, err := analyzer.RunBatch(context.Background(), shared.FourHour, 30)
	assert.NoError(t, err)
	assert.Equal(t, len(batch.Completed), 1)
	assert.Equal(t, batch.Completed[0].Preset.Name, "nasdaq_sp500")
	assert.Equal(t, len(batch.Failed), 2)
	assert.Error(t, batch.Failed["gold_silver"])
	assert.True(t, errors.Is(batch.Failed["dow_gold"], shared.ErrSymbolUnavailable))

	// Ensure the aggregate summary still covers the completed ratio.
	info, err := os.Stat(batch.SummaryPath)
	assert.NoError(t, err)
	assert.GreaterThan(t, info.Size(), int64(0))

	// Ensure skipped lines follow preset order.
	report := out.String()
	first := strings.Index(report, "skipped gold_silver")
	second := strings.Index(report, "skipped dow_gold")
	assert.GreaterThan(t, first, -1)
	assert.GreaterThan(t, second, -1)
	assert.LessThan(t, first, second)
}

func TestRunBatchTransportFailure(t *testing.T) {
	// Ensure a transport failure aborts the batch.
	fetcher := &fakeFetcher{
		errs: map[string]error{
			"XAUUSD": fmt.Errorf("gateway returned status 502"),
		},
	}
	var out bytes.Buffer
	analyzer := newTestAnalyzer(t, fetcher, nil, &out)

	_, err := analyzer.RunBatch(context.Background(), shared.FourHour, 30)
	assert.Error(t, err)
	assert.Equal(t, fetcher.calls, 1)
}

func TestRunSingle(t *testing.T) {
	fetcher := &fakeFetcher{
		series: map[string]*shared.BarSeries{
			"XAUUSD": seriesFor("XAUUSD", []float64{2000, 2050, 2100, 2080, 2120}),
			"XAGUSD": seriesFor("XAGUSD", []float64{25, 25, 24, 26, 25}),
		},
	}
	var out bytes.Buffer
	analyzer := newTestAnalyzer(t, fetcher, nil, &out)

	// Ensure a single run prints the console report and artifact paths.
	result, err := analyzer.RunSingle(context.Background(), "gold_silver", shared.FourHour, 30)
	assert.NoError(t, err)
	assert.Equal(t, result.Preset.Name, "gold_silver")

	report := out.String()
	assert.True(t, strings.Contains(report, "gold_silver (XAUUSD/XAGUSD)"))
	assert.True(t, strings.Contains(report, "latest:"))
	assert.True(t, strings.Contains(report, "chart saved:"))
	assert.True(t, strings.Contains(report, "data saved:"))

	// Ensure unknown selectors fail.
	_, err = analyzer.RunSingle(context.Background(), "copper_tin", shared.FourHour, 30)
	assert.Error(t, err)
}

func TestRunInteractiveDefaults(t *testing.T) {
	fetcher := &fakeFetcher{
		series: map[string]*shared.BarSeries{
			"XAUUSD": seriesFor("XAUUSD", []float64{2000, 2050, 2100, 2080, 2120}),
			"XAGUSD": seriesFor("XAGUSD", []float64{25, 25, 24, 26, 25}),
		},
	}
	var out bytes.Buffer
	analyzer := newTestAnalyzer(t, fetcher, nil, &out)

	// Ensure empty prompts fall back to gold/silver over 1825 days of H4 bars.
	input := strings.NewReader("\n\n\n")
	result, err := analyzer.RunInteractive(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, result.Preset.Name, "gold_silver")
	assert.True(t, strings.Contains(out.String(), "chart saved:"))

	// Ensure selection by index works.
	out.Reset()
	input = strings.NewReader("1\n30\nh4\n")
	result, err = analyzer.RunInteractive(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, result.Preset.Name, "gold_silver")

	// Ensure bogus day ranges and timeframes fail.
	_, err = analyzer.RunInteractive(context.Background(), strings.NewReader("1\nmany\n"))
	assert.Error(t, err)

	_, err = analyzer.RunInteractive(context.Background(), strings.NewReader("1\n30\nH5\n"))
	assert.True(t, errors.Is(err, shared.ErrUnsupportedTimeframe))

	// Ensure unknown ratio selections fail.
	_, err = analyzer.RunInteractive(context.Background(), strings.NewReader("copper_tin\n"))
	assert.Error(t, err)
}
