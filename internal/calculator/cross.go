package calculator

import (
	"fmt"
	"strings"
)

// Direction selects which crossovers are detected.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Both    Direction = "both"
)

// ParseDirection accepts bullish, bearish or both in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Bullish, Bearish, Both:
		return d, nil
	case "":
		return Bullish, nil
	default:
		return "", fmt.Errorf("unknown crossover direction %q", s)
	}
}

// Crossovers flags periods where a crosses baseline in the given direction.
// Bullish at i means a[i] > b[i] and a[i-1] <= b[i-1]. Comparisons against
// undefined values are false, so period 0 is never flagged.
func Crossovers(a, baseline []float64, dir Direction) []bool {
	out := make([]bool, len(a))
	for i := 1; i < len(a) && i < len(baseline); i++ {
		up := a[i] > baseline[i] && a[i-1] <= baseline[i-1]
		down := a[i] < baseline[i] && a[i-1] >= baseline[i-1]
		switch dir {
		case Bearish:
			out[i] = down
		case Both:
			out[i] = up || down
		default:
			out[i] = up
		}
	}
	return out
}

// LastCross returns how many periods ago the most recent flag fired,
// counted from the last period. ok is false when nothing fired.
func LastCross(flags []bool) (periodsSince int, ok bool) {
	for i := len(flags) - 1; i >= 0; i-- {
		if flags[i] {
			return len(flags) - 1 - i, true
		}
	}
	return 0, false
}
