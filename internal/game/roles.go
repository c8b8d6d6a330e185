package game

import (
	"math"
	"slices"

	"github.com/aaronzipp/echo-chamber/internal/models"
)

// AdvocateCount is round(n × ratio), halves rounding up
func AdvocateCount(n int, ratio float64) int {
	count := int(math.Floor(float64(n)*ratio + 0.5))
	return min(max(count, 0), n)
}

// AssignRoles shuffles ids and labels the first AdvocateCount of them Advocate.
// It returns the shuffled order alongside the role of each id; ids is not modified.
func AssignRoles(ids []string, ratio float64, rng Rand) ([]string, map[string]models.Role) {
	order := slices.Clone(ids)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	numAdvocates := AdvocateCount(len(order), ratio)
	roles := make(map[string]models.Role, len(order))
	for i, id := range order {
		if i < numAdvocates {
			roles[id] = models.RoleAdvocate
		} else {
			roles[id] = models.RoleTruthSeeker
		}
	}
	return order, roles
}

// SeedOpinion is the opinion a role starts the game with
func SeedOpinion(role models.Role, theta float64) float64 {
	if role == models.RoleAdvocate {
		return theta
	}
	return TruthSeekerSeedOpinion
}
