package recall

import "sync/atomic"

// DefaultWeights is the initial strategy weight distribution. Sums to 1.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		StrategyPopularity:        0.25,
		StrategyCollaborative:     0.20,
		StrategyCategoryPref:      0.20,
		StrategyRecencyDecay:      0.15,
		StrategyNewArrival:        0.10,
		StrategyHighRatedMerchant: 0.10,
	}
}

// WeightTable holds the strategy weight map as an immutable snapshot behind
// an atomically swapped pointer. Readers always see a fully formed map;
// Update publishes a fresh normalized copy and never mutates in place.
type WeightTable struct {
	snapshot atomic.Pointer[map[string]float64]
}

func NewWeightTable(initial map[string]float64) *WeightTable {
	t := &WeightTable{}
	t.Update(initial)
	return t
}

func (t *WeightTable) Snapshot() map[string]float64 {
	return *t.snapshot.Load()
}

func (t *WeightTable) Update(weights map[string]float64) {
	normalized := Normalize(weights)
	t.snapshot.Store(&normalized)
}

// Normalize rescales weights to sum to 1. Non-positive entries are dropped;
// a map with no positive weight falls back to the defaults rather than being
// rejected.
func Normalize(weights map[string]float64) map[string]float64 {
	sum := 0.0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 {
		return DefaultWeights()
	}

	out := make(map[string]float64, len(weights))
	for name, w := range weights {
		if w > 0 {
			out[name] = w / sum
		}
	}

	return out
}
