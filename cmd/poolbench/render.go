package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	Bold   = color.New(color.Bold)
	Green  = color.New(color.FgGreen)
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
)

// renderResults prints the results table followed by one pass/fail line per
// scenario. It returns the number of failed scenarios.
func renderResults(w io.Writer, results []RunResult) int {
	printSectionHeader(w, "POOL SCENARIO RESULTS",
		"  • Counter: increments made by tasks that succeeded",
		"  • Submitted/Completed/Failed: Prometheus counters for the run",
		"  • Latency: time from submission until the task returned")

	table := tablewriter.NewWriter(w)
	table.Header("Scenario", "Workers", "Tasks", "Counter", "Submitted", "Completed", "Failed", "Panics", "Time", "P50", "P95", "P99")

	for _, r := range results {
		_ = table.Append(
			r.Scenario.Name,
			fmt.Sprintf("%d", r.Size),
			FormatNumber(r.Scenario.total()),
			FormatNumber(int(r.Counter)),
			FormatNumber(int(r.Submitted)),
			FormatNumber(int(r.Completed)),
			FormatNumber(int(r.Errored)),
			FormatNumber(int(r.Panics)),
			r.TotalTime.Round(time.Millisecond).String(),
			FormatLatency(r.P50),
			FormatLatency(r.P95),
			FormatLatency(r.P99),
		)
	}

	if err := table.Render(); err != nil {
		colorFprintln(w, Red, "Error in rendering results table")
	}

	fmt.Fprintln(w)
	failed := 0
	for _, r := range results {
		if r.Passed() {
			colorFprintf(w, Green, "✅ PASS %s\n", r.Scenario.Name)
			continue
		}
		failed++
		if r.Err != nil {
			colorFprintf(w, Red, "❌ FAIL %s: %v\n", r.Scenario.Name, r.Err)
			continue
		}
		succeeded, _, _ := r.Scenario.expected()
		colorFprintf(w, Red, "❌ FAIL %s: counter %d, expected %d (size %d, expected %d)\n",
			r.Scenario.Name, r.Counter, succeeded, r.Size, r.Scenario.Workers)
	}

	fmt.Fprintln(w)
	if failed == 0 {
		colorFprintf(w, Green, "All %d scenarios passed\n", len(results))
	} else {
		colorFprintf(w, Yellow, "%d/%d scenarios failed\n", failed, len(results))
	}
	return failed
}

func printSectionHeader(w io.Writer, title string, descriptions ...string) {
	fmt.Fprintln(w)
	colorFprintln(w, Bold, "═══════════════════════════════════════════════════════════")
	colorFprintln(w, Bold, title)
	colorFprintln(w, Bold, "═══════════════════════════════════════════════════════════")
	for _, desc := range descriptions {
		fmt.Fprintln(w, desc)
	}
	fmt.Fprintln(w)
}

// FormatNumber formats an integer with comma separators
func FormatNumber(n int) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)

	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// FormatLatency formats a duration in the most appropriate unit
func FormatLatency(d time.Duration) string {
	ns := d.Nanoseconds()

	switch {
	case ns == 0:
		return "0"
	case ns < 1000:
		return fmt.Sprintf("%dns", ns)
	case ns < 1_000_000:
		return fmt.Sprintf("%.1fµs", float64(ns)/1e3)
	case ns < 1_000_000_000:
		return fmt.Sprintf("%.2fms", float64(ns)/1e6)
	default:
		return fmt.Sprintf("%.2fs", float64(ns)/1e9)
	}
}

func colorFprintln(w io.Writer, c *color.Color, a ...any) {
	_, _ = c.Fprintln(w, a...)
}

func colorFprintf(w io.Writer, c *color.Color, format string, a ...any) {
	_, _ = c.Fprintf(w, format, a...)
}
