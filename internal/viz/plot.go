package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mdsim/internal/sim"
)

// EnergyPlot renders the total, potential, and kinetic energy series of
// a finished run as one asciigraph chart.
func EnergyPlot(samples []sim.Sample, width, height int) string {
	if len(samples) == 0 {
		return ""
	}
	enTot := make([]float64, len(samples))
	enPot := make([]float64, len(samples))
	enKin := make([]float64, len(samples))
	for i, s := range samples {
		enTot[i] = s.EnTot
		enPot[i] = s.EnPot
		enKin[i] = s.EnKin
	}
	return asciigraph.PlotMany(
		[][]float64{enTot, enPot, enKin},
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("total", "potential", "kinetic"),
		asciigraph.Caption("energy per particle sample"),
	)
}

// SeriesPlot renders a single observable series.
func SeriesPlot(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}
