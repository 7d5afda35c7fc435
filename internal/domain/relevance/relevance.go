// Package relevance combines keyword matching and semantic similarity into a
// weighted relevance score, a verdict and feedback.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/resumatch/internal/domain/lexical"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Input is a single resume to job description comparison.
type Input struct {
	ResumeText string
	JDText     string
	Keywords   []string
	JobID      string
}

// Result is the outcome of a relevance computation.
type Result struct {
	HardScore       float64
	SemanticScore   float64
	Final           float64
	ScorePercentage float64
	Verdict         types.Verdict
	MissingKeywords []string
	Feedback        string
}

// SemanticScorer returns the semantic similarity of a resume to a job description.
type SemanticScorer interface {
	Score(ctx context.Context, resumeText, jdText, jobID string) (float64, error)
}

// Engine computes relevance results. It is safe for concurrent use.
type Engine struct {
	semantic       SemanticScorer
	threshold      int
	hardWeight     float64
	semanticWeight float64
	bands          Bands
	timeout        time.Duration
	log            logger.Logger
}

// New creates an engine around a semantic scorer.
func New(semantic SemanticScorer, opts ...Option) (*Engine, error) {
	if semantic == nil {
		return nil, errors.New("relevance: semantic scorer is required")
	}
	e := &Engine{
		semantic:       semantic,
		threshold:      lexical.DefaultThreshold,
		hardWeight:     DefaultHardWeight,
		semanticWeight: DefaultSemanticWeight,
		bands:          DefaultBands,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Bands returns the verdict bands in use.
func (e *Engine) Bands() Bands { return e.bands }

// Compute scores in. The lexical and semantic branches run concurrently; a
// failure in either fails the whole computation.
func (e *Engine) Compute(ctx context.Context, in Input) (Result, error) {
	start := time.Now()

	res, err := e.compute(ctx, in)
	if err != nil {
		kind := types.KindOf(err)
		metrics.RecordAnalysisError(kind)
		e.log.Warn(ctx, "relevance computation failed",
			logger.String("job_id", in.JobID),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return Result{}, err
	}

	took := time.Since(start)
	metrics.RecordAnalysis(res.Verdict.String())
	metrics.RecordAnalysisLatency(float64(took.Microseconds()) / 1000.0)
	metrics.RecordMissingKeywords(len(res.MissingKeywords))
	metrics.RecordFinalScore(res.Final)
	e.log.Debug(ctx, "relevance computed",
		logger.String("job_id", in.JobID),
		logger.Float64("score", res.ScorePercentage),
		logger.String("verdict", res.Verdict.String()),
		logger.Duration("took", took),
	)
	return res, nil
}

func (e *Engine) compute(ctx context.Context, in Input) (Result, error) {
	if strings.TrimSpace(in.JobID) == "" {
		return Result{}, fmt.Errorf("%w: job id must not be empty", types.ErrInvalidInput)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var (
		hard, soft float64
		missing    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexStart := time.Now()
		hard = lexical.HardMatchScore(in.ResumeText, in.Keywords, e.threshold)
		missing = lexical.MissingKeywords(in.ResumeText, in.Keywords, e.threshold)
		metrics.RecordLexicalLatency(float64(time.Since(lexStart).Microseconds()) / 1000.0)
		return gctx.Err()
	})
	g.Go(func() error {
		s, err := e.semantic.Score(gctx, in.ResumeText, in.JDText, in.JobID)
		if err != nil {
			return fmt.Errorf("semantic match: %w", err)
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: semantic score is not finite", types.ErrEmbedding)
		}
		soft = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	// A deadline hit after both branches finished still fails the request.
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	final := e.hardWeight*hard + e.semanticWeight*soft
	return Result{
		HardScore:       hard,
		SemanticScore:   soft,
		Final:           final,
		ScorePercentage: Percentage(final),
		Verdict:         e.bands.Classify(final),
		MissingKeywords: missing,
		Feedback:        Feedback(missing, hard, soft),
	}, nil
}
