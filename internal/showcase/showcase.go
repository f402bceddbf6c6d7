// Package showcase runs a small real-time scene populated with the current
// champions of a running breeder.
package showcase

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"

	"critters/internal/breeder"
	"critters/internal/genome"
	"critters/internal/scene"
)

const (
	DefaultCritters = 5
	DefaultInterval = 20 * time.Second
	DefaultTick     = time.Second / 60
)

// Population is the part of the breeder the showcase reads from.
type Population interface {
	Lock()
	Unlock()
	RankingLocked() *breeder.RankingIterator
	FitnessNLocked(n int) float64
}

type Config struct {
	Critters int
	// Interval between two champion refreshes.
	Interval time.Duration
	// Tick is the simulation step; the scene advances in real time.
	Tick time.Duration
	// Width and Height resize the scene when both are positive.
	Width, Height int
	Rand          *rand.Rand
}

func (c Config) normalize() Config {
	if c.Critters < 1 {
		c.Critters = DefaultCritters
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Showcase owns its scene. It is not safe for concurrent use; Run drives it
// from a single goroutine.
type Showcase struct {
	pop   Population
	cfg   Config
	scene *scene.Scene
	shake chan struct{}
}

// New fills a scene with random critters. They are replaced by the breeder's
// best on the first refresh.
func New(pop Population, cfg Config) (*Showcase, error) {
	cfg = cfg.normalize()
	s := &Showcase{
		pop:   pop,
		cfg:   cfg,
		scene: scene.New(cfg.Rand),
		shake: make(chan struct{}, 1),
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		s.scene.Resize(cfg.Width, cfg.Height)
	}

	var factory genome.Factory
	for i := range cfg.Critters {
		g, err := factory.NewRandom(cfg.Rand)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("showcase critter %d: %w", i, err)
		}
		s.scene.Add(scene.NewCritter(g))
		g.Release()
	}
	return s, nil
}

// Run steps the scene every tick and refreshes the champions every interval
// until ctx is done.
func (s *Showcase) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	refresh := time.NewTicker(s.cfg.Interval)
	defer refresh.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			s.scene.Step(now.Sub(last))
			last = now

		case <-refresh.C:
			s.Refresh()

		case <-s.shake:
			log.Debugf("Shaking the showcase scene")
			s.scene.Shake()
		}
	}
}

// Refresh transplants the fittest genomes into the scene's critters, fittest
// first, and returns their mean fitness along with how many were placed.
func (s *Showcase) Refresh() (fitness float64, count int) {
	critters := s.scene.Critters()

	s.pop.Lock()
	it := s.pop.RankingLocked()
	for g, ok := it.Current(); ok && count < len(critters); g, ok = it.Next() {
		critters[count].Transplant(g)
		critters[count].ResetCounters()
		count++
	}
	fitness = s.pop.FitnessNLocked(count)
	s.pop.Unlock()

	log.Infof("update fitness: %10.3f", fitness)
	if count > 0 {
		best := critters[0].Genome()
		log.Tracef("Best genome: %v", newLogClosure(func() string {
			var sb strings.Builder
			if err := best.Dump(&sb); err != nil {
				return err.Error()
			}
			sb.WriteString(spew.Sdump(best.Colour()))
			return sb.String()
		}))
	}
	return fitness, count
}

// RequestShake asks Run to scatter the scene's things and critters on its
// next pass. It never blocks; requests made while one is pending collapse
// into it. Safe to call from any goroutine.
func (s *Showcase) RequestShake() {
	select {
	case s.shake <- struct{}{}:
	default:
	}
}

// Close releases the critters' genomes.
func (s *Showcase) Close() {
	for _, c := range s.scene.Harvest() {
		c.Release()
	}
}
