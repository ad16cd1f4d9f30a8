package output

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value int
}

// Bars draws a horizontal bar chart scaled so the largest value spans width
// cells. Order is preserved.
func (p *Printer) Bars(bars []Bar, width int) {
	if width <= 0 {
		width = 40
	}
	peak := 0
	for _, b := range bars {
		peak = max(peak, b.Value)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 1, ' ', 0)
	for _, b := range bars {
		fmt.Fprintf(tw, "%s\t%s %d\n", b.Label, strings.Repeat("█", scale(b.Value, peak, width)), b.Value)
	}
	_ = tw.Flush()
}

func scale(v, peak, width int) int {
	if peak <= 0 || v <= 0 {
		return 0
	}
	n := v * width / peak
	if n == 0 {
		return 1
	}
	return n
}
