package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/ghosttype/internal/model"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultChartHeight  = 8
	minChartWidth       = 10
	axisLabelWidth      = 7
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// dashing per series: plot a dot when x%period < on.
var dashes = []struct {
	name       string
	period, on int
}{
	{"solid", 1, 1},
	{"dashed", 6, 3},
	{"dotted", 4, 1},
}

var palette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// braille dot bits indexed by [y][x] inside a 2x4 cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// RenderDelayChart plots per-event delays with a moving average. A width
// of zero sizes the chart to the terminal.
func RenderDelayChart(w io.Writer, plan model.Plan, width, height int, color bool) error {
	delays := DelaySeries(plan)
	if len(delays) == 0 {
		return nil
	}
	window := max(1, len(delays)/20)
	return PlotSeries(w, "Delay per event (ms)", []Series{
		{Name: "delay", Values: delays},
		{Name: fmt.Sprintf("avg/%d", window), Values: MovingAverage(delays, window)},
	}, width, height, color)
}

// PlotSeries renders series on one shared scale as a braille chart.
func PlotSeries(w io.Writer, title string, series []Series, width, height int, color bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minChartWidth)

	var all []float64
	resampled := make([][]float64, len(series))
	for i, s := range series {
		resampled[i] = resample(s.Values, width)
		all = append(all, resampled[i]...)
	}
	lo, hi := minMax(all)
	if math.Abs(hi-lo) < 1e-9 {
		lo--
		hi++
	}

	layers := make([][][]uint8, len(series))
	dotRows := height * 4
	for si, values := range resampled {
		layers[si] = newGrid(height, width)
		dash := dashes[si%len(dashes)]
		prevX, prevY := -1, -1
		for x, v := range values {
			px, py := x*2, scaleRow(v, lo, hi, dotRows)
			plot := func(dx, dy int) {
				if dash.period <= 1 || dx%dash.period < dash.on {
					setDot(layers[si], dx, dy)
				}
			}
			if prevX < 0 {
				plot(px, py)
			} else {
				bresenham(prevX, prevY, px, py, plot)
			}
			prevX, prevY = px, py
		}
	}

	useColor := color && os.Getenv("NO_COLOR") == ""
	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = FormatMs(hi)
		case height - 1:
			label = FormatMs(lo)
		}
		b.WriteString(runewidth.FillLeft(label, axisLabelWidth))
		b.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := uint8(0), -1
			for si := range layers {
				if m := layers[si][y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = si
					}
				}
			}
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				b.WriteString(palette[owner%len(palette)] + string(ch) + colorReset)
			} else {
				b.WriteRune(ch)
			}
		}
		b.WriteByte('\n')
	}
	legend := make([]string, len(series))
	for i, s := range series {
		legend[i] = fmt.Sprintf("%s (%s)", s.Name, dashes[i%len(dashes)].name)
	}
	b.WriteString("Legend: " + strings.Join(legend, "  ") + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minChartWidth
	}
	return max(minChartWidth, totalWidth-axisLabelWidth-runewidth.StringWidth(axisSeparator))
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func newGrid(height, width int) [][]uint8 {
	grid := make([][]uint8, height)
	for y := range grid {
		grid[y] = make([]uint8, width)
	}
	return grid
}

// resample averages buckets when shrinking and interpolates when stretching.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max(start+1, (i+1)*n/width)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func scaleRow(v, lo, hi float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	row := int(math.Round((1 - (v-lo)/(hi-lo)) * float64(rows-1)))
	return max(0, min(rows-1, row))
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setDot(grid [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(grid) || cx >= len(grid[cy]) {
		return
	}
	grid[cy][cx] |= brailleBits[y%4][x%2]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
