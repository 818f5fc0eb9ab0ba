package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ratiolens/chart"
	"ratiolens/database"
	"ratiolens/export"
	"ratiolens/ratio"
	"ratiolens/shared"
)

const (
	// DefaultRatio is the preset analyzed when no selection is made.
	DefaultRatio = "gold_silver"
	// DefaultDays is the default analysis window, roughly five years.
	DefaultDays = 1825
	// DefaultTimeframeCode is the default period code for analysis runs.
	DefaultTimeframeCode = "H4"
)

// AnalyzerConfig represents the configuration struct for the analyzer service.
type AnalyzerConfig struct {
	// Fetcher is the historical market data source.
	Fetcher shared.BarFetcher
	// Storer persists completed analyses, optional.
	Storer database.SummaryStorer
	// Presets are the ratio configurations available for analysis.
	Presets []ratio.Preset
	// OutputDir is the directory artifacts are written to.
	OutputDir string
	// Output receives console reports.
	Output io.Writer
	// Now supplies the current time, defaults to time.Now.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *AnalyzerConfig) Validate() error {
	var errs error

	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("fetcher cannot be nil"))
	}
	if len(cfg.Presets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no ratio presets provided for analyzer service"))
	}
	if cfg.Output == nil {
		errs = errors.Join(errs, fmt.Errorf("output writer cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Result represents one completed ratio analysis.
type Result struct {
	Preset    ratio.Preset
	Series    *ratio.Series
	Summary   *ratio.Summary
	ChartPath string
	DataPath  string
}

// BatchResult represents the outcome of a batch run over all presets.
type BatchResult struct {
	RunID       string
	Completed   []Result
	Failed      map[string]error
	SummaryPath string
}

// Analyzer represents a market ratio analysis service.
type Analyzer struct {
	cfg    *AnalyzerConfig
	logger *zerolog.Logger
}

// NewAnalyzer initializes a new analyzer service.
func NewAnalyzer(cfg *AnalyzerConfig) (*Analyzer, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Analyzer{
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

// transportError marks a fetch stage failure outside the reportable data
// sentinels. Only transport failures abort a batch run; everything past the
// fetch stage is reportable per ratio.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}

// classifyFetch wraps fetch failures outside the reportable data sentinels
// as transport failures.
func classifyFetch(err error) error {
	switch {
	case errors.Is(err, shared.ErrSymbolUnavailable), errors.Is(err, shared.ErrNoData):
		return err
	default:
		return &transportError{err: err}
	}
}

// fatal reports whether the provided pipeline failure should abort a batch run.
func fatal(err error) bool {
	var transport *transportError
	return errors.As(err, &transport)
}

// AnalyzeRatio runs the full pipeline for one preset: fetch both legs, build
// the ratio series, summarize it and produce the chart and data artifacts.
func (a *Analyzer) AnalyzeRatio(ctx context.Context, preset *ratio.Preset, timeframe shared.Timeframe, days int, runID string) (*Result, error) {
	now := a.cfg.Now().UTC()
	start := now.AddDate(0, 0, -days)

	series1, err := a.cfg.Fetcher.FetchBars(ctx, preset.Symbol1, timeframe, start, now)
	if err != nil {
		return nil, fmt.Errorf("fetching %s leg of %s: %w", preset.Symbol1, preset.Name, classifyFetch(err))
	}

	a.logger.Info().Str("ratio", preset.Name).Str("symbol", preset.Symbol1).
		Int("bars", series1.Len()).Msg("fetched numerator bars")

	series2, err := a.cfg.Fetcher.FetchBars(ctx, preset.Symbol2, timeframe, start, now)
	if err != nil {
		return nil, fmt.Errorf("fetching %s leg of %s: %w", preset.Symbol2, preset.Name, classifyFetch(err))
	}

	a.logger.Info().Str("ratio", preset.Name).Str("symbol", preset.Symbol2).
		Int("bars", series2.Len()).Msg("fetched denominator bars")

	series, err := ratio.BuildSeries(series1, series2)
	if err != nil {
		return nil, fmt.Errorf("building %s series: %w", preset.Name, err)
	}

	if series.Excluded > 0 {
		a.logger.Warn().Str("ratio", preset.Name).Int("excluded", series.Excluded).
			Msg("excluded zero-denominator points")
	}

	summary, err := ratio.Summarize(series)
	if err != nil {
		return nil, fmt.Errorf("summarizing %s series: %w", preset.Name, err)
	}

	result := &Result{
		Preset:    *preset,
		Series:    series,
		Summary:   summary,
		ChartPath: filepath.Join(a.cfg.OutputDir, export.ChartFileName(preset.Name, now)),
		DataPath:  filepath.Join(a.cfg.OutputDir, export.DataFileName(preset.Name, now)),
	}

	err = chart.RenderFile(series, summary, preset, result.ChartPath)
	if err != nil {
		return nil, err
	}

	err = export.WriteSeriesCSVFile(series, result.DataPath)
	if err != nil {
		return nil, err
	}

	if a.cfg.Storer != nil {
		record := &database.AnalysisRecord{
			ID:        uuid.NewString(),
			RunID:     runID,
			Ratio:     preset.Name,
			Symbol1:   preset.Symbol1,
			Symbol2:   preset.Symbol2,
			Timeframe: timeframe.String(),
			Days:      days,
			Summary:   summary,
			CreatedOn: now,
		}
		err = a.cfg.Storer.PersistAnalysis(ctx, record)
		if err != nil {
			// Persistence is best effort, the artifacts already exist.
			a.logger.Error().Err(err).Str("ratio", preset.Name).Msg("persisting analysis failed")
		}
	}

	return result, nil
}

// RunBatch analyzes every configured preset sequentially. Per-ratio failures
// are reported and the remaining ratios still run; transport failures abort
// the batch. The aggregate summary covers completed ratios only.
func (a *Analyzer) RunBatch(ctx context.Context, timeframe shared.Timeframe, days int) (*BatchResult, error) {
	batch := &BatchResult{
		RunID:  uuid.NewString(),
		Failed: make(map[string]error),
	}

	for idx := range a.cfg.Presets {
		preset := &a.cfg.Presets[idx]

		result, err := a.AnalyzeRatio(ctx, preset, timeframe, days, batch.RunID)
		if err != nil {
			if fatal(err) {
				return batch, fmt.Errorf("analyzing %s: %w", preset.Name, err)
			}

			a.logger.Error().Err(err).Str("ratio", preset.Name).Msg("ratio analysis failed")
			batch.Failed[preset.Name] = err
			continue
		}

		export.WriteReport(a.cfg.Output, &result.Preset, result.Summary)
		batch.Completed = append(batch.Completed, *result)
	}

	if len(batch.Completed) > 0 {
		rows := make([]export.SummaryRow, 0, len(batch.Completed))
		for idx := range batch.Completed {
			rows = append(rows, export.SummaryRow{
				Preset:  batch.Completed[idx].Preset,
				Summary: *batch.Completed[idx].Summary,
			})
		}

		export.WriteSummaryReport(a.cfg.Output, rows)

		batch.SummaryPath = filepath.Join(a.cfg.OutputDir, export.SummaryFileName(a.cfg.Now().UTC()))
		err := export.WriteSummaryCSVFile(rows, batch.SummaryPath)
		if err != nil {
			return batch, err
		}
	}

	// Report skipped ratios in preset order.
	for idx := range a.cfg.Presets {
		name := a.cfg.Presets[idx].Name
		if err, ok := batch.Failed[name]; ok {
			fmt.Fprintf(a.cfg.Output, "skipped %s: %v\n", name, err)
		}
	}

	a.logger.Info().Str("run", batch.RunID).Int("completed", len(batch.Completed)).
		Int("failed", len(batch.Failed)).Msg("batch run finished")

	return batch, nil
}

// prompt reads one trimmed line from the reader, returning the fallback when
// the input is empty.
func prompt(r *bufio.Reader, w io.Writer, question string, fallback string) string {
	fmt.Fprint(w, question)

	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return fallback
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}

	return line
}

// RunInteractive prompts for a ratio selection, day range and timeframe and
// analyzes the chosen ratio.
func (a *Analyzer) RunInteractive(ctx context.Context, input io.Reader) (*Result, error) {
	w := a.cfg.Output
	reader := bufio.NewReader(input)

	fmt.Fprintln(w, "available ratios:")
	for idx := range a.cfg.Presets {
		preset := a.cfg.Presets[idx]
		fmt.Fprintf(w, "%d. %s: %s/%s - %s\n", idx+1, preset.Name,
			preset.Symbol1, preset.Symbol2, preset.Description)
	}

	selector := prompt(reader, w, fmt.Sprintf("select a ratio by index or name [%s]: ", DefaultRatio), DefaultRatio)
	preset, err := ratio.FindPreset(a.cfg.Presets, selector)
	if err != nil {
		return nil, err
	}

	daysInput := prompt(reader, w, fmt.Sprintf("day range [%d]: ", DefaultDays), strconv.Itoa(DefaultDays))
	days, err := strconv.Atoi(daysInput)
	if err != nil || days <= 0 {
		return nil, fmt.Errorf("invalid day range %q", daysInput)
	}

	code := prompt(reader, w, fmt.Sprintf("timeframe [%s]: ", DefaultTimeframeCode), DefaultTimeframeCode)
	timeframe, err := shared.ParseTimeframe(code)
	if err != nil {
		return nil, err
	}

	result, err := a.AnalyzeRatio(ctx, preset, timeframe, days, uuid.NewString())
	if err != nil {
		return nil, err
	}

	export.WriteReport(w, &result.Preset, result.Summary)
	fmt.Fprintf(w, "chart saved: %s\n", result.ChartPath)
	fmt.Fprintf(w, "data saved: %s\n", result.DataPath)

	return result, nil
}

// RunSingle analyzes the preset matching the provided selector, printing its
// console report and artifact paths.
func (a *Analyzer) RunSingle(ctx context.Context, selector string, timeframe shared.Timeframe, days int) (*Result, error) {
	preset, err := ratio.FindPreset(a.cfg.Presets, selector)
	if err != nil {
		return nil, err
	}

	result, err := a.AnalyzeRatio(ctx, preset, timeframe, days, uuid.NewString())
	if err != nil {
		return nil, err
	}

	export.WriteReport(a.cfg.Output, &result.Preset, result.Summary)
	fmt.Fprintf(a.cfg.Output, "chart saved: %s\n", result.ChartPath)
	fmt.Fprintf(a.cfg.Output, "data saved: %s\n", result.DataPath)

	return result, nil
}

// RunScheduled runs a batch analysis daily at the provided utc time
// ("15:04" layout) until the context is cancelled.
func (a *Analyzer) RunScheduled(ctx context.Context, at string, timeframe shared.Timeframe, days int) error {
	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Every(1).Day().At(at).Do(func() {
		_, err := a.RunBatch(ctx, timeframe, days)
		if err != nil {
			a.logger.Error().Err(err).Msg("scheduled batch run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling daily batch run at %s: %w", at, err)
	}

	scheduler.StartAsync()
	a.logger.Info().Str("at", at).Msg("scheduled daily batch analysis")

	<-ctx.Done()
	scheduler.Stop()

	return nil
}
