// Package lexical scores keyword presence in resume text with fuzzy,
// substring-tolerant matching.
//
// Every line of the resume is an independent match candidate. A keyword hits
// when its best partial ratio against any lowercased line reaches the
// threshold.
package lexical

import (
	"math"
	"strings"
)

// DefaultThreshold is the partial-ratio confidence (0-100) a keyword needs to hit.
const DefaultThreshold = 70

const maxRatio = 100

// PartialRatio returns a 0-100 similarity between a and b that tolerates one
// being a substring of the other. The shorter string is compared against every
// window of equal rune length in the longer one and the best window wins. A
// window scores its indel similarity, 2*LCS/(len(a)+len(b)), so a single
// transposition in a six letter word still scores 83.
// Comparison is case-sensitive; callers fold case first. An empty side scores 0.
func PartialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if strings.Contains(string(longer), string(shorter)) {
		return maxRatio
	}

	n := len(shorter)
	best := 0
	row := make([]int, n+1)
	for i := 0; i+n <= len(longer); i++ {
		if l := lcsLen(shorter, longer[i:i+n], row); l > best {
			best = l
		}
	}
	// Both sides have n runes, so 2*LCS/(n+n) reduces to LCS/n.
	return int(math.RoundToEven(float64(best) / float64(n) * maxRatio))
}

// lcsLen returns the length of the longest common subsequence of a and b.
// row must hold len(b)+1 ints and is overwritten.
func lcsLen(a, b []rune, row []int) int {
	clear(row)
	for _, ra := range a {
		diag := 0
		for j, rb := range b {
			up := row[j+1]
			switch {
			case ra == rb:
				row[j+1] = diag + 1
			case row[j] > up:
				row[j+1] = row[j]
			}
			diag = up
		}
	}
	return row[len(b)]
}

// HardMatchScore returns the fraction of keywords found in resumeText.
// An empty keyword list scores 0.
func HardMatchScore(resumeText string, keywords []string, threshold int) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, ok := range matchAll(resumeText, keywords, threshold) {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// MissingKeywords returns the keywords that do not hit, in input order.
// The result is never nil.
func MissingKeywords(resumeText string, keywords []string, threshold int) []string {
	missing := make([]string, 0, len(keywords))
	for i, ok := range matchAll(resumeText, keywords, threshold) {
		if !ok {
			missing = append(missing, keywords[i])
		}
	}
	return missing
}

// BestRatio returns the highest partial ratio of keyword against any line of text.
func BestRatio(text, keyword string) int {
	return bestRatio(splitLines(text), strings.ToLower(keyword))
}

func matchAll(resumeText string, keywords []string, threshold int) []bool {
	lines := splitLines(resumeText)
	hits := make([]bool, len(keywords))
	for i, kw := range keywords {
		hits[i] = bestRatio(lines, strings.ToLower(kw)) >= threshold
	}
	return hits
}

func bestRatio(lines []string, keyword string) int {
	best := 0
	for _, line := range lines {
		if r := PartialRatio(keyword, line); r > best {
			best = r
			if best == maxRatio {
				break
			}
		}
	}
	return best
}

// splitLines lowercases text and splits it on any newline convention.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.ToLower(text), "\n")
}
