package bhvtree

import (
	"fmt"
	"math/rand"
	"time"
)

// WeightedDraw picks a weighted-random index, the way WeightSelect
// draws its child on the start of each run. It is an interface so
// tests can substitute a seeded or scripted source.
type WeightedDraw interface {
	Index(weights []float64) int
}

// defaultWeightedDraw implements WeightedDraw with a cumulative-weight
// scan over an injected *rand.Rand.
type defaultWeightedDraw struct {
	rng *rand.Rand
}

// NewDefaultWeightedDraw builds a WeightedDraw seeded from the current
// time.
func NewDefaultWeightedDraw() WeightedDraw {
	return &defaultWeightedDraw{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededWeightedDraw builds a WeightedDraw from an explicit seed,
// for reproducible tests.
func NewSeededWeightedDraw(seed int64) WeightedDraw {
	return &defaultWeightedDraw{rng: rand.New(rand.NewSource(seed))}
}

func (d *defaultWeightedDraw) Index(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := d.rng.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// validateWeights enforces the construction-time contract WeightSelect
// requires: every weight non-negative, and a positive sum.
func validateWeights(weights []float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("no weights given")
	}
	var total float64
	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("weight[%d]=%g is negative", i, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("weights sum to %g, must be positive", total)
	}
	return nil
}
