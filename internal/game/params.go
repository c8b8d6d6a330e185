package game

import (
	"math"

	"github.com/aaronzipp/echo-chamber/internal/models"
)

// DefaultNetworkType is used when the facilitator does not pick a topology
const DefaultNetworkType = models.NetworkCircle

// NormalizeParams fills missing or invalid fields with defaults. It never fails.
func NormalizeParams(in models.ParamsInput) models.Params {
	return models.Params{
		Theta:         finiteOr(in.Theta, DefaultTheta),
		Bias:          finiteOr(in.Bias, DefaultBias),
		Alpha:         unitOr(in.Alpha, DefaultAlpha),
		TotalRounds:   positiveOr(in.TotalRounds, DefaultTotalRounds),
		TimerDuration: positiveOr(in.TimerDuration, DefaultTimerDuration),
		NetworkType:   ParseNetworkType(in.NetworkType),
		AdvocateRatio: unitOr(in.AdvocateRatio, DefaultAdvocateRatio),
	}
}

// ParseNetworkType maps a requested topology name onto a known one.
// Unknown names fall through to sparse, which is what the graph generator does with them anyway.
func ParseNetworkType(s string) models.NetworkType {
	switch nt := models.NetworkType(s); nt {
	case "":
		return DefaultNetworkType
	case models.NetworkFullyConnected, models.NetworkCircle, models.NetworkLine, models.NetworkSparse:
		return nt
	default:
		return models.NetworkSparse
	}
}

func finiteOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}

func unitOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 || *v > 1 {
		return def
	}
	return *v
}

func positiveOr(v *int, def int) int {
	if v == nil || *v < 1 {
		return def
	}
	return *v
}
