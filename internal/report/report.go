package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

const rule = "=================================================="

// Header identifies the pass a report section belongs to.
type Header struct {
	RunID       string
	GeneratedAt time.Time
}

// Write renders one report section: collection results, overall and per-city
// averages, then the safety ranking.
func Write(w io.Writer, h Header, runs []weather.RunSummary, sum weather.Summary) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\nREPORT %s  %s\n%s\n", rule, h.RunID, h.GeneratedAt.UTC().Format(time.RFC3339), rule)

	if len(runs) > 0 {
		b.WriteString("\nCOLLECTION\n")
		for _, r := range runs {
			fmt.Fprintf(&b, "  %-12s stored %d of %d attempted (failed %d, skipped %d, deferred %d)\n",
				r.Metric, r.Stored, r.Attempted, r.Failed, r.Skipped, r.Deferred)
		}
	}

	b.WriteString("\nOVERALL AVERAGES\n")
	fmt.Fprintf(&b, "  Temperature: %s\n", formatValue(sum.OverallTemperatureF, "°F"))
	fmt.Fprintf(&b, "  UV index:    %s\n", formatValue(sum.OverallUVIndex, ""))
	fmt.Fprintf(&b, "  AQI:         %s\n", formatValue(sum.OverallAQI, ""))

	b.WriteString("\nAVERAGES BY CITY\n")
	if len(sum.Cities) == 0 {
		b.WriteString("  no cities recorded\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  City\tTemp (°F)\tUV\tAQI")
		for _, c := range sum.Cities {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.City.Name,
				formatValue(c.TemperatureF, ""), formatValue(c.UVIndex, ""), formatValue(c.AQI, ""))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	b.WriteString("\nSAFETY RANKING (lower is safer)\n")
	if len(sum.Rankings) == 0 {
		b.WriteString("  no city has readings for all three metrics\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for i, s := range sum.Rankings {
			fmt.Fprintf(tw, "  %2d.\t%s\t%.4f\n", i+1, s.City.Name, s.Score)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// AppendFile appends one report section to the file at path.
func AppendFile(path string, h Header, runs []weather.RunSummary, sum weather.Summary) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	if err := Write(f, h, runs, sum); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// WriteChartData replaces the chart-data document at path.
func WriteChartData(path string, cd weather.ChartData) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cd, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chart data: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".chart-*.json")
	if err != nil {
		return fmt.Errorf("create chart data: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write chart data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write chart data: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func formatValue(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%s", *v, unit)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
