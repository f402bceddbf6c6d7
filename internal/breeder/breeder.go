// Package breeder runs the generational loop: it keeps the population ranked
// by fitness, breeds a new cohort from the best and some random survivors,
// tries the cohort in parallel arenas and swaps it in as the new population.
package breeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"critters/internal/genome"
	"critters/internal/scene"
	"critters/internal/tree"
)

var (
	// ErrConstruction wraps every failure of New.
	ErrConstruction = errors.New("breeder construction failed")
	// ErrEmptyPool aborts a generation that found nothing to breed from.
	ErrEmptyPool = errors.New("empty gene pool")
)

// GenomeSource creates genomes. Errors are treated as a lost slot.
type GenomeSource interface {
	NewRandom(rng *rand.Rand) (*genome.Genome, error)
	Breed(rng *rand.Rand, mom, dad *genome.Genome) (*genome.Genome, error)
}

// Arena tries a batch of critters. Each share owns one arena and uses it from
// a single goroutine at a time.
type Arena interface {
	Add(c *scene.Critter)
	Step(delta time.Duration)
	Harvest() []*scene.Critter
}

type ArenaFactory func(rng *rand.Rand) (Arena, error)

// SceneArena is the default ArenaFactory.
func SceneArena(rng *rand.Rand) (Arena, error) {
	return scene.New(rng), nil
}

type Option func(*Breeder)

func WithGenomeSource(src GenomeSource) Option {
	return func(b *Breeder) { b.genomes = src }
}

func WithArenaFactory(factory ArenaFactory) Option {
	return func(b *Breeder) { b.newArena = factory }
}

// WithRandSource replaces the generator seeded from Policy.Seed. The breeder
// owns it from then on.
func WithRandSource(rng *rand.Rand) Option {
	return func(b *Breeder) { b.rng = rng }
}

// WithRunID labels the generation records handed to reporters. A random
// UUID is used otherwise.
func WithRunID(id string) Option {
	return func(b *Breeder) { b.runID = id }
}

// GenerationStats describes one completed generation.
type GenerationStats struct {
	Generation int
	Duration   time.Duration
	// Requested is the number of offspring the policy asked for, Harvested
	// the number that made it into the population.
	Requested int
	Harvested int
	Pool      int
	// Skipped counts pool and offspring slots lost to empty extractions or
	// failed genome creation.
	Skipped int
	// Inline counts shares the worker group refused and the caller ran.
	Inline int
}

// Breeder is the population store and the generation scheduler. Lock guards
// the population; NextGeneration and Run must be driven by a single
// goroutine.
type Breeder struct {
	policy   Policy
	genomes  GenomeSource
	newArena ArenaFactory
	rng      *rand.Rand
	runID    string

	shares     []*share
	generation atomic.Int64
	// workerLimit caps the worker goroutines; zero means one per share
	// besides the caller's.
	workerLimit int

	mu         sync.Mutex
	population *tree.Tree[float64, *genome.Genome]
	closed     bool
}

func releaseGenome(g *genome.Genome) {
	g.Release()
}

// New builds the shares and an initial population of random genomes at
// fitness zero. On failure everything built so far is released.
func New(policy Policy, opts ...Option) (*Breeder, error) {
	policy, err := policy.normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}

	b := &Breeder{
		policy:     policy,
		genomes:    genome.Factory{},
		newArena:   SceneArena,
		population: tree.New[float64, *genome.Genome](),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(policy.Seed))
	}
	if b.runID == "" {
		b.runID = uuid.NewString()
	}
	if b.genomes == nil || b.newArena == nil {
		return nil, fmt.Errorf("%w: genome source and arena factory are required", ErrConstruction)
	}

	b.shares = make([]*share, 0, policy.Threads)
	for i := 0; i < policy.Threads; i++ {
		rng := rand.New(rand.NewSource(b.rng.Int63()))
		arena, err := b.newArena(rng)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: arena %d: %w", ErrConstruction, i, err)
		}
		b.shares = append(b.shares, &share{index: i, arena: arena})
	}

	for i := 0; i < policy.PopulationSize; i++ {
		g, err := b.genomes.NewRandom(b.rng)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: genome %d: %w", ErrConstruction, i, err)
		}
		b.population.InsertDuplicate(0, g)
	}

	log.Debugf("Breeder %s ready: population %d, %d shares, pool %d",
		b.runID, policy.PopulationSize, policy.Threads, policy.PoolSize())
	return b, nil
}

func (b *Breeder) Policy() Policy { return b.policy }

func (b *Breeder) RunID() string { return b.runID }

// Generation returns the index of the next generation to run.
func (b *Breeder) Generation() int { return int(b.generation.Load()) }

// Lock takes the population lock. Hold it while using RankingLocked or
// FitnessNLocked.
func (b *Breeder) Lock() { b.mu.Lock() }

func (b *Breeder) Unlock() { b.mu.Unlock() }

// Count returns the population size.
func (b *Breeder) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.population.Count()
}

// Validate checks the population tree.
func (b *Breeder) Validate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.population.Validate()
}

// NextGeneration runs one discard, select, breed, simulate and harvest cycle.
// The lock is held while the old population is culled and while the new one
// is stored, never during the simulation.
func (b *Breeder) NextGeneration(ctx context.Context) (GenerationStats, error) {
	if err := ctx.Err(); err != nil {
		return GenerationStats{}, err
	}

	start := time.Now()
	stats := GenerationStats{
		Generation: b.Generation(),
		Requested:  b.policy.PopulationSize,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return stats, errors.New("breeder is closed")
	}
	b.discardWorst()
	pool, skipped := b.selectSurvivors()
	b.mu.Unlock()

	pool, lost := b.addNewcomers(pool)
	stats.Skipped = skipped + lost
	stats.Pool = len(pool)
	defer releaseAll(pool)

	if len(pool) == 0 {
		return stats, ErrEmptyPool
	}

	skipped, stats.Inline = b.simulate(pool)
	stats.Skipped += skipped

	b.mu.Lock()
	b.population.Clear(releaseGenome)
	for _, sh := range b.shares {
		for _, c := range sh.out {
			fitness := b.policy.fitness(c.FoodCount(), c.DangerCount())
			b.population.InsertDuplicate(fitness, c.Genome().Clone())
			stats.Harvested++
		}
	}
	b.mu.Unlock()

	for _, sh := range b.shares {
		sh.release()
	}

	stats.Duration = time.Since(start)
	b.generation.Add(1)

	log.Tracef("Generation %d: pool %d, harvested %d/%d, skipped %d, inline %d in %v",
		stats.Generation, stats.Pool, stats.Harvested, stats.Requested, stats.Skipped,
		stats.Inline, stats.Duration)
	return stats, nil
}

func (b *Breeder) discardWorst() {
	for range b.policy.WorstDiscard {
		g, ok := b.population.PopMin()
		if !ok {
			return
		}
		g.Release()
	}
}

// selectSurvivors fills the pool from the population: the best individuals
// each take BestPriority slots, then RandKeep random ones take a slot each.
func (b *Breeder) selectSurvivors() (pool []*genome.Genome, skipped int) {
	pool = make([]*genome.Genome, 0, b.policy.PoolSize())

	for range b.policy.BestKeep {
		g, ok := b.population.PopMax()
		if !ok {
			skipped += b.policy.BestPriority
			continue
		}
		for range b.policy.BestPriority {
			pool = append(pool, g.Clone())
		}
		g.Release()
	}

	for range b.policy.RandKeep {
		g, ok := b.population.PopRandom(b.rng)
		if !ok {
			skipped++
			continue
		}
		pool = append(pool, g)
	}
	return pool, skipped
}

func (b *Breeder) addNewcomers(pool []*genome.Genome) ([]*genome.Genome, int) {
	lost := 0
	for range b.policy.RandNew {
		g, err := b.genomes.NewRandom(b.rng)
		if err != nil {
			log.Debugf("Dropping pool slot: %v", err)
			lost++
			continue
		}
		pool = append(pool, g)
	}
	return pool, lost
}

// simulate breeds every share's cohort and runs the shares. Shares other than
// the first go to their own goroutine as soon as their cohort is ready; the
// first share runs here, last. A share the group refuses runs inline. With
// the default limit of one goroutine per share the group never refuses.
func (b *Breeder) simulate(pool []*genome.Genome) (skipped, inline int) {
	var g errgroup.Group
	limit := len(b.shares) - 1
	if b.workerLimit > 0 {
		limit = min(limit, b.workerLimit)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	sizes := shareSizes(b.policy.PopulationSize, len(b.shares))
	for i, sh := range b.shares {
		skipped += b.breed(sh, sizes[i], pool)
		if i == 0 {
			continue
		}
		if !g.TryGo(func() error {
			sh.simulate(b.policy)
			return nil
		}) {
			log.Debugf("Share %d running inline", sh.index)
			sh.simulate(b.policy)
			inline++
		}
	}

	b.shares[0].simulate(b.policy)
	_ = g.Wait()
	return skipped, inline
}

// breed fills sh with n offspring of parents drawn from pool with
// replacement.
func (b *Breeder) breed(sh *share, n int, pool []*genome.Genome) (skipped int) {
	for range n {
		mom := pool[b.rng.Intn(len(pool))]
		dad := pool[b.rng.Intn(len(pool))]

		child, err := b.genomes.Breed(b.rng, mom, dad)
		if err != nil {
			log.Debugf("Dropping offspring slot: %v", err)
			skipped++
			continue
		}
		sh.in = append(sh.in, scene.NewCritter(child))
		child.Release()
	}
	return skipped
}

func releaseAll(genomes []*genome.Genome) {
	for _, g := range genomes {
		g.Release()
	}
}

// Close releases the population. The breeder must not be used afterwards.
func (b *Breeder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.population.Clear(releaseGenome)
	for _, sh := range b.shares {
		sh.release()
	}
}
