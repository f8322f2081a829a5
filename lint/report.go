package lint

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

// Render formats a report for terminal output.
func Render(report *Report) string {
	var b strings.Builder

	divider := strings.Repeat("=", 62)
	b.WriteString("\n")
	b.WriteString(pterm.LightCyan(divider) + "\n")
	b.WriteString(pterm.LightCyan("  MDL Lint Report: "+report.ModelName) + "\n")
	b.WriteString(pterm.LightCyan(divider) + "\n\n")
	b.WriteString("  " + pterm.Gray("Model Type:") + " " + report.ModelType + "\n\n")

	for _, result := range report.Results {
		if result.Passed {
			b.WriteString("  " + pterm.Green("PASS") + " ")
		} else {
			b.WriteString("  " + pterm.Red("FAIL") + " ")
		}
		b.WriteString(pterm.Gray("["+result.Rule+"]") + " ")
		b.WriteString(result.Message)
		if result.Context != "" {
			b.WriteString(" " + pterm.Gray("("+result.Context+")"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pterm.Gray(strings.Repeat("-", 62)) + "\n")

	if report.AllPassed() {
		b.WriteString("  " + pterm.Green("All "+strconv.Itoa(report.Passed)+" checks passed") + "\n")
	} else {
		b.WriteString("  " + pterm.Gray("Passed:") + " " + pterm.Green(strconv.Itoa(report.Passed)) +
			"  " + pterm.Gray("Failed:") + " " + pterm.Red(strconv.Itoa(report.Failed)) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// RenderSummary formats the combined totals across several reports.
func RenderSummary(reports []*Report) string {
	passed, failed := 0, 0
	for _, r := range reports {
		passed += r.Passed
		failed += r.Failed
	}

	divider := strings.Repeat("=", 62)
	var b strings.Builder
	b.WriteString(pterm.LightBlue(divider) + "\n")
	b.WriteString(pterm.LightBlue("  Summary: "+strconv.Itoa(passed)+" passed, "+strconv.Itoa(failed)+" failed") + "\n")
	b.WriteString(pterm.LightBlue(divider) + "\n")
	return b.String()
}
