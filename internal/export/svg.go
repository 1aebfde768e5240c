// Package export renders finished runs into shareable artifacts.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/mdsim/internal/sim"
)

const (
	svgWidth   = 900
	svgHeight  = 500
	svgMargin  = 60
	plotWidth  = svgWidth - 2*svgMargin
	plotHeight = svgHeight - 2*svgMargin
)

type series struct {
	label  string
	color  string
	values func(sim.Sample) float64
}

var energySeries = []series{
	{"total", "#00cc88", func(s sim.Sample) float64 { return s.EnTot }},
	{"potential", "#3388ff", func(s sim.Sample) float64 { return s.EnPot }},
	{"kinetic", "#ff5544", func(s sim.Sample) float64 { return s.EnKin }},
}

// EnergySVG renders the energy traces of a run as an SVG line chart.
func EnergySVG(samples []sim.Sample) string {
	if len(samples) < 2 {
		return ""
	}

	lo, hi := samples[0].EnTot, samples[0].EnTot
	for _, s := range samples {
		for _, ser := range energySeries {
			v := ser.values(s)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	t0 := samples[0].Time
	t1 := samples[len(samples)-1].Time
	if t1 == t0 {
		t1 = t0 + 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#111111"/>
`, svgWidth, svgHeight, svgWidth, svgHeight))

	// frame and axis labels
	sb.WriteString(fmt.Sprintf(
		`<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#555555"/>`+"\n",
		svgMargin, svgMargin, plotWidth, plotHeight))
	sb.WriteString(fmt.Sprintf(
		`<text x="%d" y="%d" fill="#aaaaaa" font-family="monospace" font-size="13">t = %.4g .. %.4g</text>`+"\n",
		svgMargin, svgHeight-svgMargin/2, t0, t1))
	sb.WriteString(fmt.Sprintf(
		`<text x="%d" y="%d" fill="#aaaaaa" font-family="monospace" font-size="13">E = %.6g .. %.6g</text>`+"\n",
		svgMargin, svgMargin/2, lo, hi))

	for i, ser := range energySeries {
		var pts strings.Builder
		for _, s := range samples {
			x := float64(svgMargin) + (s.Time-t0)/(t1-t0)*float64(plotWidth)
			y := float64(svgMargin) + (hi-ser.values(s))/(hi-lo)*float64(plotHeight)
			fmt.Fprintf(&pts, "%.1f,%.1f ", x, y)
		}
		sb.WriteString(fmt.Sprintf(
			`<polyline points="%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
			strings.TrimSpace(pts.String()), ser.color))
		sb.WriteString(fmt.Sprintf(
			`<text x="%d" y="%d" fill="%s" font-family="monospace" font-size="13">%s</text>`+"\n",
			svgWidth-svgMargin-90, svgMargin+20*(i+1), ser.color, ser.label))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteEnergySVG writes the chart to path.
func WriteEnergySVG(path string, samples []sim.Sample) error {
	svg := EnergySVG(samples)
	if svg == "" {
		return fmt.Errorf("not enough samples to plot")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
