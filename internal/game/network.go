package game

import (
	"slices"

	"github.com/aaronzipp/echo-chamber/internal/models"
)

// Rand is the randomness the game needs. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// GenerateNetwork returns the neighbor list of every id for the given topology.
// Order of ids matters for circle, line and the sparse repair pass.
func GenerateNetwork(ids []string, network models.NetworkType, rng Rand) map[string][]string {
	n := len(ids)
	neighbors := make(map[string][]string, n)
	for _, id := range ids {
		neighbors[id] = []string{}
	}
	if n <= 1 {
		return neighbors
	}

	switch network {
	case models.NetworkFullyConnected:
		for i := range n {
			for j := range n {
				if i != j {
					neighbors[ids[i]] = append(neighbors[ids[i]], ids[j])
				}
			}
		}
	case models.NetworkCircle:
		// with n == 2 successor and predecessor coincide and both entries are kept
		for i := range n {
			neighbors[ids[i]] = append(neighbors[ids[i]], ids[(i+1)%n], ids[(i-1+n)%n])
		}
	case models.NetworkLine:
		for i := range n {
			if i > 0 {
				neighbors[ids[i]] = append(neighbors[ids[i]], ids[i-1])
			}
			if i < n-1 {
				neighbors[ids[i]] = append(neighbors[ids[i]], ids[i+1])
			}
		}
	default:
		for i := range n {
			for j := i + 1; j < n; j++ {
				if rng.Float64() > SparseEdgeCutoff {
					connect(neighbors, ids[i], ids[j])
				}
			}
		}
		// repair: a path through ids in order keeps the graph connected
		for i := range n - 1 {
			if !slices.Contains(neighbors[ids[i]], ids[i+1]) {
				connect(neighbors, ids[i], ids[i+1])
			}
		}
	}
	return neighbors
}

func connect(neighbors map[string][]string, a, b string) {
	neighbors[a] = append(neighbors[a], b)
	neighbors[b] = append(neighbors[b], a)
}
