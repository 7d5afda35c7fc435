// Package types contains common types used across the application
package types

// Verdict is the categorical relevance bucket derived from a final score.
type Verdict string

// Verdict values, serialized verbatim.
const (
	VerdictHigh   Verdict = "High"
	VerdictMedium Verdict = "Medium"
	VerdictLow    Verdict = "Low"
)

// String returns the verdict literal.
func (v Verdict) String() string { return string(v) }

// Valid reports whether v is one of the three known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictHigh, VerdictMedium, VerdictLow:
		return true
	}
	return false
}
