package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// chartBlocks run from empty (index 0) to a full cell (index 8).
var chartBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const chartLabelWidth = 8

// ChartAxis labels the first and last point under the plot. Either may be
// empty.
type ChartAxis struct {
	From string
	To   string
}

// RenderChart draws data (oldest first) as a column chart. height includes
// the title row and, when axis has labels, the axis row.
func RenderChart(data []float64, width, height int, title string, axis ChartAxis) string {
	if width < 10 {
		width = 10
	}
	if height < 4 {
		height = 4
	}

	chartWidth := width - chartLabelWidth
	if chartWidth < 2 {
		chartWidth = 2
	}
	hasAxis := axis.From != "" || axis.To != ""
	chartHeight := height - 1
	if hasAxis {
		chartHeight--
	}
	if chartHeight < 2 {
		chartHeight = 2
	}

	lines := []string{centerText(title, width)}

	if len(data) == 0 {
		blank := strings.Repeat(" ", chartLabelWidth+chartWidth)
		for i := 0; i < chartHeight; i++ {
			lines = append(lines, blank)
		}
		if hasAxis {
			lines = append(lines, strings.Repeat(" ", width))
		}
		return strings.Join(lines, "\n")
	}

	// Longer series are averaged down to the plot width.
	data = resample(data, chartWidth)

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}
	if minVal > 0 {
		minVal = 0
	}
	spread := maxVal - minVal

	padding := strings.Repeat(" ", chartWidth-len(data))
	for row := chartHeight - 1; row >= 0; row-- {
		cellBottom := minVal + spread*float64(row)/float64(chartHeight)
		cellTop := minVal + spread*float64(row+1)/float64(chartHeight)

		label := fmt.Sprintf("%7s ", FormatValue(cellTop))
		if len(label) > chartLabelWidth {
			label = label[len(label)-chartLabelWidth:]
		}

		var sb strings.Builder
		sb.WriteString(label)
		sb.WriteString(padding)
		for _, v := range data {
			switch {
			case v <= cellBottom:
				sb.WriteRune(' ')
			case v >= cellTop:
				sb.WriteRune(chartBlocks[8])
			default:
				idx := int(math.Round((v - cellBottom) / (cellTop - cellBottom) * 8))
				if idx < 0 {
					idx = 0
				}
				if idx > 8 {
					idx = 8
				}
				sb.WriteRune(chartBlocks[idx])
			}
		}
		lines = append(lines, sb.String())
	}

	if hasAxis {
		gap := width - chartLabelWidth - len(axis.From) - len(axis.To)
		if gap < 1 {
			gap = 1
		}
		lines = append(lines, strings.Repeat(" ", chartLabelWidth)+axis.From+strings.Repeat(" ", gap)+axis.To)
	}

	return strings.Join(lines, "\n")
}

// resample reduces data to at most n points by averaging equal buckets.
func resample(data []float64, n int) []float64 {
	if len(data) <= n || n < 1 {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		lo := i * len(data) / n
		hi := (i + 1) * len(data) / n
		sum := 0.0
		for _, v := range data[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// centerText centers s within the given width, padding with spaces.
func centerText(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return ansi.Truncate(s, width, "")
	}
	pad := (width - w) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-w-pad)
}
