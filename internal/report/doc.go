// Package report renders a finished run for people and monitoring systems.
//
// WriteMetrics writes a Prometheus text exposition file suitable for the
// node_exporter textfile collector. PlotTracks draws one trajectory chart per
// well with gonum/plot.
package report
