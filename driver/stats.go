package driver

import (
	"fmt"
	"io"

	"github.com/markkurossi/tabulate"
)

// LastStats returns the gate-count counters from the most recently completed
// BuildLinkageCircuit/BuildCountCircuit call.
func (d *Driver[ShareT]) LastStats() Stats {
	return d.stats
}

// PrintStats renders the last run's gate counters as a table, the way
// original_source/include/aby/statsprinter.cpp's StatsPrinter dumps a
// circuit's gate/round/byte counts at the end of a run.
func (d *Driver[ShareT]) PrintStats(w io.Writer) error {
	tab := tabulate.New(tabulate.Unicode)
	tab.Header("Counter")
	tab.Header("Value")

	rows := []struct {
		name  string
		value int
	}{
		{"AND gates", d.stats.AndGates},
		{"MUL gates", d.stats.MulGates},
		{"Conversions", d.stats.ConvGates},
		{"Divisions", d.stats.DivGates},
	}
	for _, r := range rows {
		row := tab.Row()
		row.Column(r.name)
		row.Column(fmt.Sprintf("%d", r.value))
	}
	return tab.Print(w)
}
