package breeder

import (
	"critters/internal/genome"
	"critters/internal/tree"
)

// RankingIterator walks the population from the highest fitness down. It is
// only valid while the caller holds the breeder lock.
type RankingIterator struct {
	it *tree.Iterator[float64, *genome.Genome]
}

// RankingLocked returns an iterator positioned on the fittest individual. The
// caller must hold the lock for as long as it uses the iterator.
func (b *Breeder) RankingLocked() *RankingIterator {
	return &RankingIterator{it: b.population.NewIteratorFromEnd()}
}

// Current returns the genome under the iterator. The genome stays owned by
// the population; Clone it to keep it past Unlock.
func (r *RankingIterator) Current() (*genome.Genome, bool) {
	if !r.it.Valid() {
		return nil, false
	}
	return r.it.Value(), true
}

func (r *RankingIterator) Fitness() float64 {
	return r.it.Key()
}

// Next steps to the next lower fitness.
func (r *RankingIterator) Next() (*genome.Genome, bool) {
	r.it.Prev()
	return r.Current()
}

// FitnessNLocked returns the mean fitness of the n fittest individuals, or
// of the whole population if it is smaller. An empty population scores 0.
func (b *Breeder) FitnessNLocked(n int) float64 {
	sum := 0.0
	count := 0

	it := b.RankingLocked()
	for _, ok := it.Current(); ok && count < n; _, ok = it.Next() {
		sum += it.Fitness()
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func (b *Breeder) FitnessN(n int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.FitnessNLocked(n)
}

// Fitness is the mean of the policy's top-N fitness values.
func (b *Breeder) Fitness() float64 {
	return b.FitnessN(b.policy.ReportTopN)
}
