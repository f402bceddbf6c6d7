package breeder

import (
	"fmt"
	"time"
)

// Policy holds the selection and simulation parameters of a run.
type Policy struct {
	// PopulationSize is the number of offspring bred every generation.
	PopulationSize int
	// WorstDiscard individuals with the lowest fitness are dropped first.
	WorstDiscard int
	// BestKeep individuals with the highest fitness enter the pool,
	// BestPriority times each.
	BestKeep     int
	BestPriority int
	// RandKeep individuals are drawn at random from what is left.
	RandKeep int
	// RandNew fresh random genomes join the pool.
	RandNew int

	// Threads is the number of shares simulated in parallel, the calling
	// goroutine included.
	Threads          int
	CrittersPerScene int
	SimSteps         int
	TimeStep         time.Duration

	FoodCost float64
	// DangerCost is subtracted from the fitness for each danger event.
	DangerCost float64

	ReportEvery int
	ReportTopN  int
	// Generations stops Run after that many generations. Zero runs until
	// the context is cancelled.
	Generations int

	Seed int64
}

// DefaultPolicy returns the stock parameters.
func DefaultPolicy() Policy {
	return Policy{
		PopulationSize:   200,
		WorstDiscard:     50,
		BestKeep:         9,
		BestPriority:     4,
		RandKeep:         48,
		RandNew:          6,
		Threads:          1,
		CrittersPerScene: 5,
		SimSteps:         200,
		TimeStep:         200 * time.Millisecond,
		FoodCost:         1.0,
		DangerCost:       50.0,
		ReportEvery:      50,
		ReportTopN:       9,
	}
}

// PoolSize is the number of slots in the breeding pool.
func (p Policy) PoolSize() int {
	return p.BestKeep*p.BestPriority + p.RandKeep + p.RandNew
}

// Validate reports the first unusable parameter.
func (p Policy) Validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("population size must be > 0")
	}
	if p.WorstDiscard < 0 || p.BestKeep < 0 || p.BestPriority < 0 || p.RandKeep < 0 || p.RandNew < 0 {
		return fmt.Errorf("selection counts must be >= 0")
	}
	if p.PoolSize() <= 0 {
		return fmt.Errorf("pool size must be > 0")
	}
	if p.CrittersPerScene <= 0 {
		return fmt.Errorf("critters per scene must be > 0")
	}
	if p.SimSteps <= 0 {
		return fmt.Errorf("simulation steps must be > 0")
	}
	if p.TimeStep <= 0 {
		return fmt.Errorf("time step must be > 0")
	}
	if p.ReportEvery <= 0 {
		return fmt.Errorf("report interval must be > 0")
	}
	if p.ReportTopN < 0 {
		return fmt.Errorf("report top n must be >= 0")
	}
	if p.Generations < 0 {
		return fmt.Errorf("generations must be >= 0")
	}
	return nil
}

func (p Policy) normalize() (Policy, error) {
	if p.Threads < 1 {
		p.Threads = 1
	}
	if p.ReportTopN == 0 {
		p.ReportTopN = p.BestKeep
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) fitness(food, danger int) float64 {
	return p.FoodCost*float64(food) - p.DangerCost*float64(danger)
}

// shareSizes spreads total over n shares, the first total%n shares taking
// one extra.
func shareSizes(total, n int) []int {
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = total / n
		if i < total%n {
			sizes[i]++
		}
	}
	return sizes
}
