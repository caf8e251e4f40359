// report.go renders self test results.
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kolkov/ksynch/internal/synchtest"
)

var (
	passColor  = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#A6E3A1"}
	failColor  = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F38BA8"}
	mutedColor = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#6C7086"}
	titleColor = lipgloss.AdaptiveColor{Light: "#0550AE", Dark: "#89B4FA"}

	titleStyle = lipgloss.NewStyle().
			Foreground(titleColor).
			Bold(true).
			MarginBottom(1)

	nameStyle = lipgloss.NewStyle().
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(passColor).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(failColor).
			Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(failColor).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(failColor).
			Padding(0, 1).
			MarginLeft(6)
)

func printResult(r synchtest.Result) {
	badge := passStyle.Render("PASS")
	if !r.Passed() {
		badge = failStyle.Render("FAIL")
	}

	detail := detailStyle.Render(fmt.Sprintf("%d threads, %d ops, %s",
		r.Threads, r.Ops, r.Elapsed.Round(time.Microsecond)))
	fmt.Printf("%s  %s %-20s %s\n", badge, nameStyle.Render(r.Name), r.Title, detail)

	if r.Err != nil {
		fmt.Println(errorStyle.Render(r.Err.Error()))
	}
}

func printSummary(total, failed int, elapsed time.Duration) {
	line := fmt.Sprintf("%d/%d passed in %s", total-failed, total, elapsed.Round(time.Millisecond))
	if failed > 0 {
		fmt.Println("\n" + failStyle.Render(line))
		return
	}
	fmt.Println("\n" + passStyle.Render(line))
}
