package relevance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/resumatch/internal/domain/types"
)

// Default weights and verdict bands.
const (
	DefaultHardWeight      = 0.6
	DefaultSemanticWeight  = 0.4
	DefaultHighThreshold   = 0.7
	DefaultMediumThreshold = 0.4
)

// Bands holds the inclusive lower bounds of the High and Medium verdicts.
type Bands struct {
	High   float64
	Medium float64
}

// DefaultBands are the standard verdict bands.
var DefaultBands = Bands{High: DefaultHighThreshold, Medium: DefaultMediumThreshold}

// Classify maps a final score in [0, 1] to a verdict.
func (b Bands) Classify(final float64) types.Verdict {
	switch {
	case final >= b.High:
		return types.VerdictHigh
	case final >= b.Medium:
		return types.VerdictMedium
	default:
		return types.VerdictLow
	}
}

// ClassifyVerdict maps a final score to a verdict using DefaultBands.
func ClassifyVerdict(final float64) types.Verdict {
	return DefaultBands.Classify(final)
}

// Percentage converts a final score to a percentage rounded to two decimals.
// Rounding is decimal-correct on the binary value, with ties to even.
func Percentage(final float64) float64 {
	p, err := strconv.ParseFloat(strconv.FormatFloat(final*100, 'f', 2, 64), 64)
	if err != nil {
		return 0
	}
	return p
}

// Feedback renders the human-readable explanation of a result.
func Feedback(missing []string, hard, semantic float64) string {
	list := "None"
	if len(missing) > 0 {
		list = strings.Join(missing, ", ")
	}
	return fmt.Sprintf("Missing keywords: %s. Hard match: %.2f, Semantic match: %.2f.", list, hard, semantic)
}
