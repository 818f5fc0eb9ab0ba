// Package export produces the human-facing artifacts of an analysis run:
// delimited data files and console reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"ratiolens/ratio"
	"ratiolens/shared"
)

// ChartFileName returns the artifact name for a ratio chart.
func ChartFileName(name string, now time.Time) string {
	return fmt.Sprintf("%s_%s.png", name, now.Format(shared.FileTimestampLayout))
}

// DataFileName returns the artifact name for a ratio data file.
func DataFileName(name string, now time.Time) string {
	return fmt.Sprintf("%s_data_%s.csv", name, now.Format(shared.FileTimestampLayout))
}

// SummaryFileName returns the artifact name for the aggregate summary file.
func SummaryFileName(now time.Time) string {
	return fmt.Sprintf("market_ratio_summary_%s.csv", now.Format(shared.FileTimestampLayout))
}

// WriteSeriesCSV writes the provided ratio series as delimited text with one
// row per point.
func WriteSeriesCSV(series *ratio.Series, w io.Writer) error {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{"time", "close_1", "close_2", "ratio"})
	if err != nil {
		return fmt.Errorf("writing series header: %w", err)
	}

	for idx := range series.Points {
		point := series.Points[idx]
		row := []string{
			point.Timestamp.UTC().Format(shared.DateLayout),
			strconv.FormatFloat(point.Close1, 'f', -1, 64),
			strconv.FormatFloat(point.Close2, 'f', -1, 64),
			strconv.FormatFloat(point.Ratio, 'f', -1, 64),
		}
		err = cw.Write(row)
		if err != nil {
			return fmt.Errorf("writing series row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSVFile writes the provided ratio series to a csv file at path.
func WriteSeriesCSVFile(series *ratio.Series, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating data file with path '%s': %w", path, err)
	}

	err = WriteSeriesCSV(series, f)
	if err != nil {
		f.Close()
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("closing data file with path '%s': %w", path, err)
	}

	return nil
}

// SummaryRow pairs a preset with its computed summary for aggregate reporting.
type SummaryRow struct {
	Preset  ratio.Preset
	Summary ratio.Summary
}

// Interpretation names the relatively strong leg implied by the summary
// classification.
func Interpretation(preset *ratio.Preset, summary *ratio.Summary) string {
	switch summary.Classification {
	case ratio.High:
		return fmt.Sprintf("%s relatively strong", preset.Label1)
	case ratio.Low:
		return fmt.Sprintf("%s relatively strong", preset.Label2)
	default:
		return "balanced"
	}
}

// WriteSummaryCSV writes the aggregate summary table for the provided rows
// as delimited text.
func WriteSummaryCSV(rows []SummaryRow, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"ratio", "latest", "mean", "std", "min", "max",
		"percentile", "classification", "interpretation", "points", "excluded"}
	err := cw.Write(header)
	if err != nil {
		return fmt.Errorf("writing summary header: %w", err)
	}

	for idx := range rows {
		preset := rows[idx].Preset
		summary := rows[idx].Summary
		row := []string{
			preset.Name,
			fmt.Sprintf("%.2f", summary.Latest),
			fmt.Sprintf("%.2f", summary.Mean),
			fmt.Sprintf("%.2f", summary.Std),
			fmt.Sprintf("%.2f", summary.Min),
			fmt.Sprintf("%.2f", summary.Max),
			fmt.Sprintf("%.0f%%", summary.PercentileRank),
			summary.Classification.String(),
			Interpretation(&preset, &summary),
			strconv.Itoa(summary.Points),
			strconv.Itoa(summary.Excluded),
		}
		err = cw.Write(row)
		if err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSVFile writes the aggregate summary table to a csv file at path.
func WriteSummaryCSVFile(rows []SummaryRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary file with path '%s': %w", path, err)
	}

	err = WriteSummaryCSV(rows, f)
	if err != nil {
		f.Close()
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("closing summary file with path '%s': %w", path, err)
	}

	return nil
}
