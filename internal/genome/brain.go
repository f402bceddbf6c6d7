package genome

import "critters/internal/nn"

// Stimuli is what a critter senses during one step. Intensities are in
// [0, 1]; angles are relative to the heading and scaled to [-1, 1] by the
// field of view.
type Stimuli struct {
	FoodIntensity   float64
	FoodAngle       float64
	DangerIntensity float64
	DangerAngle     float64
	WallIntensity   float64
	WallAngle       float64
	FoodOdour       float64
	DangerOdour     float64
}

func (s Stimuli) inputs() [InputCount]float64 {
	return [InputCount]float64{
		s.FoodIntensity,
		s.FoodAngle,
		s.DangerIntensity,
		s.DangerAngle,
		s.WallIntensity,
		s.WallAngle,
		s.FoodOdour,
		s.DangerOdour,
	}
}

var (
	geneFuncs = func() (out [HiddenGenes]nn.ActivationFunc) {
		for gene, name := range geneActivations {
			out[gene] = nn.MustActivation(name)
		}
		return out
	}()
	outputFunc = nn.MustActivation("sigmoid")
)

// Think runs the network once and returns the left and right wheel speeds,
// each in [0, 1].
func (g *Genome) Think(s Stimuli) (left, right float64) {
	in := s.inputs()

	var hidden [HiddenCount]float64
	for gene := range g.hidden {
		for lane := range lanes {
			acc := g.hidden[gene][0][lane]
			for i, x := range in {
				acc += g.hidden[gene][1+i][lane] * x
			}
			hidden[gene*lanes+lane] = geneFuncs[gene](acc)
		}
	}

	var out [OutputCount]float64
	for lane := range out {
		acc := g.output[0][lane]
		for i, h := range hidden {
			acc += g.output[1+i][lane] * h
		}
		out[lane] = outputFunc(acc)
	}
	return out[0], out[1]
}
