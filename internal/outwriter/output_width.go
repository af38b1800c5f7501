package outwriter

import (
	"os"

	"golang.org/x/term"
)

// Bounds for the bar column of the text chart.
const (
	fallbackTermWidth = 80 // Conservative default for narrow terminals and CI
	minBarWidth       = 10
	maxBarWidth       = 60
)

// getTermWidth returns the width override if set, else the detected terminal width.
func getTermWidth(override int) int {
	if override > 0 {
		return override
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return fallbackTermWidth
	}
	return detectedWidth
}

// getMaxBarWidth calculates the longest bar the chart can draw next to
// a label column of labelWidth characters.
func getMaxBarWidth(override, labelWidth int) int {
	// Label + requests column with borders and padding
	reserved := labelWidth + 12 + 10

	available := getTermWidth(override) - reserved
	if available < minBarWidth {
		return minBarWidth
	}
	if available > maxBarWidth {
		return maxBarWidth
	}
	return available
}
