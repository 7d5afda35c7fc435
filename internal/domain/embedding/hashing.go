package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/resumatch/internal/domain/types"
)

// HashingModelVersion identifies the feature set below. Bump it whenever
// tokenization or weighting changes, since cached vectors become incomparable.
const HashingModelVersion = "hashing-v1"

// emptyFeature stands in for text with no tokens so empty input still maps
// to a fixed unit vector.
const emptyFeature = "\x00empty"

const (
	unigramWeight = 1.0
	bigramWeight  = 0.5
	trigramWeight = 0.25
)

// HashingEmbedder is a deterministic, local embedding model based on signed
// feature hashing of word unigrams, word bigrams and character trigrams.
// It needs no model files and is safe for concurrent use.
type HashingEmbedder struct {
	dim int
}

// HashingOption configures a HashingEmbedder.
type HashingOption func(*HashingEmbedder)

// WithDimension sets the output dimension.
func WithDimension(dim int) HashingOption {
	return func(h *HashingEmbedder) {
		if dim > 0 {
			h.dim = dim
		}
	}
}

// NewHashingEmbedder creates a hashing embedder, DefaultDimension wide unless overridden.
func NewHashingEmbedder(opts ...HashingOption) *HashingEmbedder {
	h := &HashingEmbedder{dim: DefaultDimension}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dimension returns the vector length.
func (h *HashingEmbedder) Dimension() int { return h.dim }

// Embed hashes text into a unit vector.
func (h *HashingEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrEmbedding, err)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", types.ErrEmbedding)
	}

	counts := make(map[string]float64)
	words := tokenize(text)
	for i, w := range words {
		counts[w] += unigramWeight
		if i > 0 {
			counts[words[i-1]+" "+w] += bigramWeight
		}
		padded := []rune("#" + w + "#")
		for j := 0; j+3 <= len(padded); j++ {
			counts["c:"+string(padded[j:j+3])] += trigramWeight
		}
	}
	if len(counts) == 0 {
		counts[emptyFeature] = 1
	}

	raw := make(Vector, h.dim)
	for feature, tf := range counts {
		sum := xxhash.Sum64String(feature)
		bucket := sum % uint64(h.dim)
		weight := 1 + math.Log(tf)
		if tf < 1 {
			weight = tf
		}
		if sum>>63 == 1 {
			weight = -weight
		}
		raw[bucket] += float32(weight)
	}

	v, err := Normalize(raw)
	if err != nil {
		// All features cancelled out; fall back to the empty embedding.
		raw = make(Vector, h.dim)
		raw[xxhash.Sum64String(emptyFeature)%uint64(h.dim)] = 1
		return raw, nil
	}
	return v, nil
}

// tokenize lowercases text and splits it into letter/digit runs, keeping
// '+' and '#' so terms like c++ and c# survive.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
