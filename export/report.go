package export

import (
	"fmt"
	"io"

	"ratiolens/ratio"
	"ratiolens/shared"
)

// WriteReport prints a per-ratio console report for the provided summary.
func WriteReport(w io.Writer, preset *ratio.Preset, summary *ratio.Summary) {
	fmt.Fprintf(w, "%s (%s/%s)\n", preset.Name, preset.Symbol1, preset.Symbol2)
	if preset.Description != "" {
		fmt.Fprintf(w, "  %s\n", preset.Description)
	}
	fmt.Fprintf(w, "  latest:     %.2f (%s)\n", summary.Latest, summary.Classification)
	fmt.Fprintf(w, "  mean:       %.2f\n", summary.Mean)
	fmt.Fprintf(w, "  std:        %.2f\n", summary.Std)
	fmt.Fprintf(w, "  min:        %.2f (%s)\n", summary.Min,
		summary.MinTimestamp.UTC().Format("2006-01-02"))
	fmt.Fprintf(w, "  max:        %.2f (%s)\n", summary.Max,
		summary.MaxTimestamp.UTC().Format("2006-01-02"))
	fmt.Fprintf(w, "  percentile: %.1f%%\n", summary.PercentileRank)
	fmt.Fprintf(w, "  points:     %d (%s - %s)\n", summary.Points,
		summary.Start.UTC().Format(shared.DateLayout), summary.End.UTC().Format(shared.DateLayout))
	if summary.Excluded > 0 {
		fmt.Fprintf(w, "  excluded:   %d zero-denominator points\n", summary.Excluded)
	}
	fmt.Fprintf(w, "  status:     %s\n", Interpretation(preset, summary))
}

// WriteSummaryReport prints the aggregate summary table for a batch run.
func WriteSummaryReport(w io.Writer, rows []SummaryRow) {
	fmt.Fprintf(w, "%-16s %10s %10s %10s %12s %-8s %s\n",
		"ratio", "latest", "mean", "std", "percentile", "status", "interpretation")

	for idx := range rows {
		preset := rows[idx].Preset
		summary := rows[idx].Summary
		fmt.Fprintf(w, "%-16s %10.2f %10.2f %10.2f %11.0f%% %-8s %s\n",
			preset.Name, summary.Latest, summary.Mean, summary.Std,
			summary.PercentileRank, summary.Classification, Interpretation(&preset, &summary))
	}
}
