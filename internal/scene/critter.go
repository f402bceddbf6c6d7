package scene

import (
	"math"

	"critters/internal/genome"
)

const (
	critterBound = 10.0
	// pixels per second at full speed on both wheels
	forwardSpeed = 100.0
	// radians per second at full wheel speed difference
	angularSpeed = 0.2 * math.Pi
)

// Critter is one genome under trial. Heading is in (-π, π], zero pointing
// east and positive angles turning toward the top of the arena.
type Critter struct {
	genome *genome.Genome

	x, y  float64
	angle float64
	left  float64
	right float64

	food   int
	danger int
}

// NewCritter takes a reference to g for the lifetime of the critter.
func NewCritter(g *genome.Genome) *Critter {
	return &Critter{genome: g.Clone()}
}

// Release drops the critter's genome reference.
func (c *Critter) Release() {
	c.genome.Release()
	c.genome = nil
}

// Transplant swaps the critter's genome for g.
func (c *Critter) Transplant(g *genome.Genome) {
	next := g.Clone()
	c.genome.Release()
	c.genome = next
}

func (c *Critter) Genome() *genome.Genome { return c.genome }

func (c *Critter) Position() (x, y float64) { return c.x, c.y }

func (c *Critter) Angle() float64 { return c.angle }

// FoodCount is the number of food items eaten so far.
func (c *Critter) FoodCount() int { return c.food }

// DangerCount is the number of dangers touched so far.
func (c *Critter) DangerCount() int { return c.danger }

// ResetCounters zeroes the event counters.
func (c *Critter) ResetCounters() {
	c.food = 0
	c.danger = 0
}

func (c *Critter) place(x, y float64) {
	c.x = x
	c.y = y
}

func (c *Critter) move(delta, w, h float64) {
	speed := forwardSpeed * (c.right + c.left) * 0.5
	ds := delta * speed

	uy, ux := math.Sincos(c.angle)
	x := c.x + ux*ds
	y := c.y - uy*ds

	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	c.place(x, y)

	c.angle += delta * angularSpeed * (c.right - c.left)
	for c.angle < -math.Pi {
		c.angle += 2 * math.Pi
	}
	for c.angle > math.Pi {
		c.angle -= 2 * math.Pi
	}
}

func (c *Critter) think(s genome.Stimuli) {
	c.left, c.right = c.genome.Think(s)
}
