package genome

import (
	"fmt"
	"io"
	"strings"
)

var inputNames = [InputCount]string{
	"food_intensity",
	"food_angle",
	"danger_intensity",
	"danger_angle",
	"wall_intensity",
	"wall_angle",
	"food_odour",
	"danger_odour",
}

const dumpRule = "--------------------------------------------------------------------------"

func hiddenName(idx int) string {
	if geneActivations[idx/lanes] == "gaussian" {
		return fmt.Sprintf("[G%d]", idx)
	}
	return fmt.Sprintf("[H%d]", idx)
}

// Dump writes the weight table of g in a human readable layout.
func (g *Genome) Dump(w io.Writer) error {
	var b strings.Builder

	b.WriteString("\nHidden layer:\n" + dumpRule + "\n")
	for gene := range g.hidden {
		for lane := range lanes {
			fmt.Fprintf(&b, "    %-16s --> %10.5f --> neuron %s\n", "[1]", g.hidden[gene][0][lane], hiddenName(gene*lanes+lane))
			for i, name := range inputNames {
				fmt.Fprintf(&b, "    %-16s --> %10.5f\n", name, g.hidden[gene][1+i][lane])
			}
			b.WriteString(dumpRule + "\n")
		}
	}

	b.WriteString("\nOutput layer:\n" + dumpRule + "\n")
	for out := range OutputCount {
		fmt.Fprintf(&b, "    %-16s --> %10.5f --> neuron [Y%d]\n", "[1]", g.output[0][out], out)
		for idx := range HiddenCount {
			fmt.Fprintf(&b, "    %-16s --> %10.5f\n", hiddenName(idx), g.output[1+idx][out])
		}
		b.WriteString(dumpRule + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
