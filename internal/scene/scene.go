// Package scene is the arena critters are tried in: a rectangle with drifting
// food and dangers.
package scene

import (
	"math/rand"
	"time"
)

const (
	Width   = 800
	Height  = 500
	Foods   = 4
	Dangers = 2

	foodSpeed   = 10.0
	foodBound   = 6.0
	dangerSpeed = 40.0
	dangerBound = 8.0

	things = Foods + Dangers
)

type Kind int

const (
	KindFood Kind = iota + 1
	KindDanger
)

func (k Kind) String() string {
	switch k {
	case KindFood:
		return "food"
	case KindDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// Thing is a food item or a danger.
type Thing struct {
	Kind  Kind
	X, Y  float64
	Bound float64

	motion bouncer
}

// Scene is not safe for concurrent use.
type Scene struct {
	width    float64
	height   float64
	rng      *rand.Rand
	things   [things]Thing
	critters []*Critter
}

// New returns an 800x500 scene with its food and dangers at random places.
// A nil rng gets a time seeded source.
func New(rng *rand.Rand) *Scene {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Scene{
		width:  Width,
		height: Height,
		rng:    rng,
	}

	for i := range s.things {
		kind, bound, speed := KindFood, foodBound, foodSpeed
		if i >= Foods {
			kind, bound, speed = KindDanger, dangerBound, dangerSpeed
		}
		x, y := s.randomPosition()
		s.things[i] = Thing{Kind: kind, X: x, Y: y, Bound: bound, motion: newBouncer(speed, rng.Int())}
	}
	return s
}

func (s *Scene) randomPosition() (float64, float64) {
	return float64(s.rng.Intn(int(s.width))), float64(s.rng.Intn(int(s.height)))
}

func (s *Scene) Size() (width, height int) {
	return int(s.width), int(s.height)
}

// Add drops c at a random position. The scene does not take a genome
// reference of its own.
func (s *Scene) Add(c *Critter) {
	c.place(s.randomPosition())
	s.critters = append(s.critters, c)
}

// Harvest removes every critter from the scene and hands them back.
func (s *Scene) Harvest() []*Critter {
	out := s.critters
	s.critters = nil
	return out
}

// Critters returns the critters currently in the scene.
func (s *Scene) Critters() []*Critter {
	return append([]*Critter(nil), s.critters...)
}

// Things returns a snapshot of the food and dangers.
func (s *Scene) Things() []Thing {
	return append([]Thing(nil), s.things[:]...)
}

// Step advances the scene by delta: things drift, critters move, then every
// critter senses its surroundings and updates its wheel speeds.
func (s *Scene) Step(delta time.Duration) {
	dt := delta.Seconds()

	for i := range s.things {
		t := &s.things[i]
		t.X, t.Y = t.motion.move(t.X, t.Y, dt, s.width, s.height)
	}
	for _, c := range s.critters {
		c.move(dt, s.width, s.height)
	}
	for _, c := range s.critters {
		if stimuli, alive := s.sense(c); alive {
			c.think(stimuli)
		}
	}
}

// Shake scatters critters and things to random positions.
func (s *Scene) Shake() {
	for _, c := range s.critters {
		c.place(s.randomPosition())
	}
	for i := range s.things {
		s.things[i].X, s.things[i].Y = s.randomPosition()
	}
}

// Resize changes the arena size and shakes everything back into bounds.
// Sizes below one pixel are raised to one.
func (s *Scene) Resize(width, height int) {
	s.width = float64(max(width, 1))
	s.height = float64(max(height, 1))
	s.Shake()
}
