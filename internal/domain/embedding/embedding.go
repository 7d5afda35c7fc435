// Package embedding defines the embedding provider contract and vector helpers.
//
// Providers are pure and may be expensive; they never cache. Vectors are
// L2-normalized so cosine similarity reduces to a dot product.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/resumatch/internal/domain/types"
)

// DefaultDimension matches the sentence-embedding models the service was sized for.
const DefaultDimension = 384

// Metric names a similarity function understood by vector stores.
type Metric string

// Supported metrics.
const (
	MetricCosine Metric = "cosine"
)

// Vector is a fixed-length embedding.
type Vector []float32

// Embedder turns text into a normalized vector of Dimension() elements.
// Implementations must be deterministic for a fixed model version and must
// wrap failures with types.ErrEmbedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dimension() int
}

// Norm returns the Euclidean length of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. A zero vector cannot be normalized.
func Normalize(v Vector) (Vector, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("%w: cannot normalize vector with norm %v", types.ErrEmbedding, n)
	}
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out, nil
}

// Dot returns the dot product of a and b, which is their cosine similarity
// when both are unit vectors.
func Dot(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimension mismatch %d != %d", types.ErrEmbedding, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}
