package breeder

import "critters/internal/scene"

// share is the slice of a generation simulated by one goroutine.
type share struct {
	index int
	arena Arena
	in    []*scene.Critter
	out   []*scene.Critter
}

// simulate feeds the queued critters to the arena in batches of at most
// CrittersPerScene and collects them once each batch has run its course.
func (s *share) simulate(p Policy) {
	for len(s.in) > 0 {
		n := min(p.CrittersPerScene, len(s.in))
		for _, c := range s.in[:n] {
			s.arena.Add(c)
		}
		clear(s.in[:n])
		s.in = s.in[n:]

		for range p.SimSteps {
			s.arena.Step(p.TimeStep)
		}
		s.out = append(s.out, s.arena.Harvest()...)
	}
	s.in = nil
}

// release drops the critters left over from the last generation.
func (s *share) release() {
	for _, c := range s.in {
		c.Release()
	}
	for _, c := range s.out {
		c.Release()
	}
	s.in = nil
	s.out = nil
}
