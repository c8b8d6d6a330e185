package game

import "math"

// Mean returns the arithmetic mean of values and false when there are none
func Mean(values []int) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values)), true
}

// UpdateOpinion applies one round of the learning rule.
// With no neighbor messages the opinion is unchanged.
func UpdateOpinion(opinion, alpha float64, neighborMessages []int) float64 {
	m, ok := Mean(neighborMessages)
	if !ok {
		return opinion
	}
	return (1-alpha)*opinion + alpha*m
}

// Score rewards closeness to target: 100 at zero deviation, clamped at 0
// once the deviation reaches 10.
func Score(value, target float64) float64 {
	d := value - target
	return math.Max(0, MaxScore-d*d)
}

// TruthSeekerScore scores a Truth-Seeker's final opinion against theta
func TruthSeekerScore(opinion, theta float64) float64 {
	return Score(opinion, theta)
}

// AdvocateScore scores the final Truth-Seeker average against theta+bias
func AdvocateScore(avgTruthSeekerOpinion, theta, bias float64) float64 {
	return Score(avgTruthSeekerOpinion, theta+bias)
}
