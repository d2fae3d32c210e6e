package game

import (
	"math"
	"math/rand"
)

// basePoolSize is the number of catalog symbols in play at level 1.
// One more joins every two levels.
const basePoolSize = 4

// Generate returns length symbols sampled uniformly, with replacement, from pool.
func Generate(rng *rand.Rand, length int, pool []Symbol) []Symbol {
	if length <= 0 || len(pool) == 0 {
		return nil
	}
	seq := make([]Symbol, length)
	for i := range seq {
		seq[i] = pool[rng.Intn(len(pool))]
	}
	return seq
}

// Available returns the catalog prefix the player picks from at level.
// The result aliases Catalog and must not be modified.
func Available(level int) []Symbol {
	if level < 1 {
		level = 1
	}
	n := min(basePoolSize+(level-1)/2, len(Catalog))
	return Catalog[:n]
}

// SymbolCount returns the sequence length for level under d.
func SymbolCount(level int, d Difficulty) int {
	if level < 1 {
		level = 1
	}
	count := d.StartingSymbols + int(math.Floor(float64(level-1)*d.SymbolsPerLevel))
	return min(count, d.MaxSymbols)
}

// PointsFor returns the score for a correct pick that brings the combo to combo.
func PointsFor(combo int, d Difficulty) int {
	base := int(math.Floor(100 * d.ScoreMultiplier))
	bonus := int(math.Floor(float64(combo) * 10 * d.ScoreMultiplier))
	return base + bonus
}
