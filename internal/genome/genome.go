// Package genome holds the fixed-size weight sets that drive critters.
//
// A Genome is a reference counted handle. Holders take a reference with Clone
// and drop it with Release; contents are never modified once a genome has
// been shared.
package genome

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

const (
	InputCount  = 8
	OutputCount = 2

	// Hidden neurons are grouped four to a gene.
	lanes         = 4
	HiddenGenes   = 3
	HiddenCount   = HiddenGenes * lanes
	HiddenWeights = InputCount + 1
	OutputWeights = HiddenCount + 1

	// WeightAmplitude bounds every weight to ±WeightAmplitude.
	WeightAmplitude = 20.0

	maxMutations = 10
)

// geneActivations names the activation of each hidden gene.
var geneActivations = [HiddenGenes]string{"gaussian", "sigmoid", "relu"}

// chunk holds one weight for each of the four neurons of a gene.
type chunk [lanes]float64

// hiddenGene is a bias chunk followed by one chunk per input.
type hiddenGene [HiddenWeights]chunk

type Colour struct {
	R, G, B uint8
}

// String formats the colour as #rrggbb.
func (c Colour) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type Genome struct {
	hidden [HiddenGenes]hiddenGene
	// Only the first OutputCount lanes of the output block are wired.
	output [OutputWeights]chunk
	colour Colour
	refs   atomic.Int32
}

var live atomic.Int64

// Live returns the number of genomes whose reference count has not yet
// dropped to zero.
func Live() int64 {
	return live.Load()
}

// New returns a zeroed genome holding one reference.
func New() *Genome {
	g := &Genome{}
	g.refs.Store(1)
	live.Add(1)
	return g
}

// Clone takes another reference to g and returns the same handle.
func (g *Genome) Clone() *Genome {
	g.refs.Add(1)
	return g
}

// Release drops one reference. Releasing a nil genome is a no-op.
func (g *Genome) Release() {
	if g == nil {
		return
	}
	switch n := g.refs.Add(-1); {
	case n == 0:
		live.Add(-1)
	case n < 0:
		panic("genome: release of a dead genome")
	}
}

func (g *Genome) Refs() int {
	return int(g.refs.Load())
}

func (g *Genome) Colour() Colour {
	return g.colour
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func randomWeight(rng *rand.Rand) float64 {
	return 2.0 * WeightAmplitude * (rng.Float64() - 0.5)
}

func randomColour(rng *rand.Rand) Colour {
	return Colour{
		R: uint8(50 + rng.Intn(200)),
		G: uint8(50 + rng.Intn(200)),
		B: uint8(50 + rng.Intn(200)),
	}
}

// Randomize fills g with uniform weights and a random colour. The unused
// output lanes are zeroed.
func (g *Genome) Randomize(rng *rand.Rand) {
	rng = ensureRNG(rng)
	g.colour = randomColour(rng)

	for gene := range g.hidden {
		for w := range g.hidden[gene] {
			for lane := range lanes {
				g.hidden[gene][w][lane] = randomWeight(rng)
			}
		}
	}

	for w := range g.output {
		g.output[w] = chunk{randomWeight(rng), randomWeight(rng), 0, 0}
	}
}

// Breed makes g a child of mom and dad. Each hidden gene and the output block
// come whole from one parent picked by a coin flip. Up to ten point mutations
// follow, each applied while a fresh draw comes up even; one in 32 hits the
// output block. The colour is inherited from a random parent.
func (g *Genome) Breed(rng *rand.Rand, mom, dad *Genome) {
	rng = ensureRNG(rng)

	for gene := range g.hidden {
		if rng.Intn(2) == 0 {
			g.hidden[gene] = mom.hidden[gene]
		} else {
			g.hidden[gene] = dad.hidden[gene]
		}
	}

	if rng.Intn(2) == 0 {
		g.output = mom.output
	} else {
		g.output = dad.output
	}

	for range maxMutations {
		who := rng.Int31()
		if who%2 != 0 {
			break
		}

		who >>= 2
		if who%32 == 0 {
			idx := rng.Intn(lanes * OutputWeights)
			g.output[idx/lanes][idx%lanes] = randomWeight(rng)
		} else {
			gene := rng.Intn(HiddenGenes)
			idx := rng.Intn(lanes * HiddenWeights)
			g.hidden[gene][idx/lanes][idx%lanes] = randomWeight(rng)
		}
	}

	if rng.Intn(2) == 0 {
		g.colour = mom.colour
	} else {
		g.colour = dad.colour
	}
}

// Factory creates genomes for the breeder.
type Factory struct{}

func (Factory) NewRandom(rng *rand.Rand) (*Genome, error) {
	g := New()
	g.Randomize(rng)
	return g, nil
}

func (Factory) Breed(rng *rand.Rand, mom, dad *Genome) (*Genome, error) {
	g := New()
	g.Breed(rng, mom, dad)
	return g, nil
}
