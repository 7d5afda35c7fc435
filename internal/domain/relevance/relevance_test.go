package relevance_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/resumatch/internal/adapters/vectorstore"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/relevance"
	"github.com/okian/resumatch/internal/domain/semantic"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/internal/domain/vectorcache"
	. "github.com/smartystreets/goconvey/convey"
)

// stubSemantic returns a fixed similarity.
type stubSemantic struct {
	score float64
	err   error
	block bool
	calls atomic.Int32
}

func (s *stubSemantic) Score(ctx context.Context, _, _, _ string) (float64, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return s.score, s.err
}

func newRealEngine(ctx context.Context, opts ...relevance.Option) *relevance.Engine {
	emb := embedding.NewHashingEmbedder()
	cache, err := vectorcache.New(vectorstore.NewMemoryStore(), emb)
	So(err, ShouldBeNil)
	So(cache.EnsureIndex(ctx), ShouldBeNil)
	matcher, err := semantic.New(emb, cache)
	So(err, ShouldBeNil)
	engine, err := relevance.New(matcher, opts...)
	So(err, ShouldBeNil)
	return engine
}

func TestClassifyVerdict(t *testing.T) {
	Convey("Given final scores on the band boundaries", t, func() {
		Convey("Then lower bounds should be inclusive", func() {
			So(relevance.ClassifyVerdict(0.70), ShouldEqual, types.VerdictHigh)
			So(relevance.ClassifyVerdict(0.6999), ShouldEqual, types.VerdictMedium)
			So(relevance.ClassifyVerdict(0.40), ShouldEqual, types.VerdictMedium)
			So(relevance.ClassifyVerdict(0.3999), ShouldEqual, types.VerdictLow)
			So(relevance.ClassifyVerdict(1.0), ShouldEqual, types.VerdictHigh)
			So(relevance.ClassifyVerdict(0), ShouldEqual, types.VerdictLow)
			So(relevance.ClassifyVerdict(-0.2), ShouldEqual, types.VerdictLow)
		})
	})

	Convey("Given custom bands", t, func() {
		b := relevance.Bands{High: 0.8, Medium: 0.5}

		Convey("Then classification should follow them", func() {
			So(b.Classify(0.75), ShouldEqual, types.VerdictMedium)
			So(b.Classify(0.8), ShouldEqual, types.VerdictHigh)
			So(b.Classify(0.45), ShouldEqual, types.VerdictLow)
		})
	})
}

func TestPercentage(t *testing.T) {
	Convey("Given final scores", t, func() {
		Convey("Then the percentage should be rounded to two decimals", func() {
			So(relevance.Percentage(0.5), ShouldEqual, 50.0)
			So(relevance.Percentage(1.0), ShouldEqual, 100.0)
			So(relevance.Percentage(0.123456), ShouldEqual, 12.35)
			So(relevance.Percentage(0.6*1+0.4*0.3), ShouldEqual, 72.0)
			So(relevance.Percentage(0), ShouldEqual, 0.0)
		})
	})
}

func TestFeedback(t *testing.T) {
	Convey("Given missing keywords and scores", t, func() {
		Convey("Then feedback should list them in order", func() {
			So(relevance.Feedback([]string{"AWS", "Java"}, 0.6, 0.12345),
				ShouldEqual, "Missing keywords: AWS, Java. Hard match: 0.60, Semantic match: 0.12.")
		})

		Convey("Then nothing missing should read None", func() {
			So(relevance.Feedback([]string{}, 1, 0.876),
				ShouldEqual, "Missing keywords: None. Hard match: 1.00, Semantic match: 0.88.")
			So(relevance.Feedback(nil, 0, 0),
				ShouldEqual, "Missing keywords: None. Hard match: 0.00, Semantic match: 0.00.")
		})
	})
}

func TestEngine_Compute(t *testing.T) {
	Convey("Given an engine with a fixed semantic score", t, func() {
		ctx := context.Background()
		sem := &stubSemantic{score: 0.5}
		engine, err := relevance.New(sem)
		So(err, ShouldBeNil)

		Convey("When every keyword appears in the resume", func() {
			res, err := engine.Compute(ctx, relevance.Input{
				ResumeText: "Summary\nExpert in python and docker\nLondon",
				JDText:     "Backend role",
				Keywords:   []string{"Python", "Docker"},
				JobID:      "job-1",
			})

			Convey("Then hard should be one and nothing missing", func() {
				So(err, ShouldBeNil)
				So(res.HardScore, ShouldEqual, 1.0)
				So(res.MissingKeywords, ShouldNotBeNil)
				So(res.MissingKeywords, ShouldBeEmpty)
				So(res.SemanticScore, ShouldEqual, 0.5)
				So(res.Final, ShouldAlmostEqual, 0.8, 1e-12)
				So(res.ScorePercentage, ShouldEqual, 80.0)
				So(res.Verdict, ShouldEqual, types.VerdictHigh)
				So(res.Feedback, ShouldEqual, "Missing keywords: None. Hard match: 1.00, Semantic match: 0.50.")
			})
		})

		Convey("When some keywords are missing", func() {
			res, err := engine.Compute(ctx, relevance.Input{
				ResumeText: "Python developer\nDocker and CI",
				Keywords:   []string{"AWS", "Python", "Docker"},
				JobID:      "job-1",
			})

			Convey("Then missing keywords should keep input order", func() {
				So(err, ShouldBeNil)
				So(res.MissingKeywords, ShouldResemble, []string{"AWS"})
				So(res.HardScore, ShouldAlmostEqual, 2.0/3.0, 1e-12)
				So(res.Feedback, ShouldEqual, "Missing keywords: AWS. Hard match: 0.67, Semantic match: 0.50.")
				So(res.Verdict, ShouldEqual, types.VerdictMedium)
			})
		})

		Convey("When the keyword list is empty", func() {
			res, err := engine.Compute(ctx, relevance.Input{
				ResumeText: "anything",
				JDText:     "anything",
				JobID:      "job-1",
			})

			Convey("Then the final score should come from the semantic term only", func() {
				So(err, ShouldBeNil)
				So(res.HardScore, ShouldEqual, 0.0)
				So(res.MissingKeywords, ShouldBeEmpty)
				So(res.Final, ShouldAlmostEqual, 0.4*0.5, 1e-12)
				So(res.ScorePercentage, ShouldEqual, 20.0)
				So(res.Verdict, ShouldEqual, types.VerdictLow)
			})
		})

		Convey("When the job id is empty", func() {
			_, err := engine.Compute(ctx, relevance.Input{ResumeText: "r", JDText: "j"})

			Convey("Then it should fail before scoring", func() {
				So(errors.Is(err, types.ErrInvalidInput), ShouldBeTrue)
				So(sem.calls.Load(), ShouldEqual, int32(0))
			})
		})

		Convey("When the semantic branch fails", func() {
			sem.err = types.ErrStorageUnavailable
			res, err := engine.Compute(ctx, relevance.Input{ResumeText: "r", Keywords: []string{"Go"}, JobID: "job-1"})

			Convey("Then the error should propagate with no partial result", func() {
				So(errors.Is(err, types.ErrStorageUnavailable), ShouldBeTrue)
				So(res, ShouldResemble, relevance.Result{})
			})
		})

		Convey("When the semantic score is not finite", func() {
			sem.score = math.NaN()
			_, err := engine.Compute(ctx, relevance.Input{ResumeText: "r", JobID: "job-1"})

			Convey("Then it should be an embedding error", func() {
				So(errors.Is(err, types.ErrEmbedding), ShouldBeTrue)
			})
		})
	})

	Convey("Given an engine with a timeout and a stalled semantic branch", t, func() {
		sem := &stubSemantic{block: true}
		engine, _ := relevance.New(sem, relevance.WithTimeout(20*time.Millisecond))

		Convey("When computing", func() {
			start := time.Now()
			_, err := engine.Compute(context.Background(), relevance.Input{ResumeText: "r", JobID: "job-1"})

			Convey("Then the deadline should abort the computation", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			})
		})
	})

	Convey("Given custom weights and thresholds", t, func() {
		sem := &stubSemantic{score: 0.9}
		engine, _ := relevance.New(sem,
			relevance.WithWeights(1, 0),
			relevance.WithKeywordThreshold(100),
			relevance.WithVerdictThresholds(0.9, 0.5),
		)

		Convey("When only an exact substring counts", func() {
			res, err := engine.Compute(context.Background(), relevance.Input{
				ResumeText: "kubernets administrator\npython",
				Keywords:   []string{"Kubernetes", "Python"},
				JobID:      "job-1",
			})

			Convey("Then the final score should equal the hard score", func() {
				So(err, ShouldBeNil)
				So(res.HardScore, ShouldEqual, 0.5)
				So(res.Final, ShouldEqual, 0.5)
				So(res.Verdict, ShouldEqual, types.VerdictMedium)
				So(res.MissingKeywords, ShouldResemble, []string{"Kubernetes"})
				So(engine.Bands(), ShouldResemble, relevance.Bands{High: 0.9, Medium: 0.5})
			})
		})
	})

	Convey("Given invalid options", t, func() {
		engine, _ := relevance.New(&stubSemantic{score: 1},
			relevance.WithWeights(0, 0),
			relevance.WithKeywordThreshold(150),
			relevance.WithVerdictThresholds(0.3, 0.6),
		)

		Convey("Then the defaults should be kept", func() {
			So(engine.Bands(), ShouldResemble, relevance.DefaultBands)
			res, err := engine.Compute(context.Background(), relevance.Input{ResumeText: "go", Keywords: []string{"Go"}, JobID: "j"})
			So(err, ShouldBeNil)
			So(res.Final, ShouldAlmostEqual, 1.0, 1e-12)
		})
	})

	Convey("Given a missing semantic scorer", t, func() {
		_, err := relevance.New(nil)
		So(err, ShouldNotBeNil)
	})
}

func TestEngine_EndToEnd(t *testing.T) {
	Convey("Given an engine over the hashing embedder and a memory vector cache", t, func() {
		ctx := context.Background()
		engine := newRealEngine(ctx)
		in := relevance.Input{
			ResumeText: "Jane Doe\nExpert in python and docker\nBuilt ML pipelines on AWS",
			JDText:     "We need a Python engineer with Docker, AWS and Kubernetes experience.",
			Keywords:   []string{"AWS", "FastAPI", "Python", "Docker", "Machine Learning", "Kubernetes", "PostgreSQL"},
			JobID:      "job-e2e",
		}

		Convey("When computing twice with identical inputs", func() {
			first, err1 := engine.Compute(ctx, in)
			second, err2 := engine.Compute(ctx, in)

			Convey("Then the results should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second.ScorePercentage, ShouldEqual, first.ScorePercentage)
				So(second.Verdict, ShouldEqual, first.Verdict)
				So(second, ShouldResemble, first)
			})

			Convey("And the result should be internally consistent", func() {
				So(first.HardScore, ShouldBeBetweenOrEqual, 0.0, 1.0)
				So(first.SemanticScore, ShouldBeBetweenOrEqual, -1.0, 1.0)
				So(first.ScorePercentage, ShouldEqual, relevance.Percentage(0.6*first.HardScore+0.4*first.SemanticScore))
				So(first.Verdict, ShouldEqual, relevance.ClassifyVerdict(first.Final))
				So(first.MissingKeywords, ShouldContain, "FastAPI")
				So(first.MissingKeywords, ShouldContain, "PostgreSQL")
				So(first.MissingKeywords, ShouldNotContain, "Python")
			})
		})

		Convey("When the resume equals the job description and no keywords are given", func() {
			res, err := engine.Compute(ctx, relevance.Input{ResumeText: in.JDText, JDText: in.JDText, JobID: "job-self"})

			Convey("Then the semantic score should be one", func() {
				So(err, ShouldBeNil)
				So(res.SemanticScore, ShouldAlmostEqual, 1.0, 1e-4)
				So(res.ScorePercentage, ShouldEqual, 40.0)
			})
		})

		Convey("When many requests run concurrently", func() {
			var wg sync.WaitGroup
			scores := make([]float64, 16)
			for i := range scores {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					res, err := engine.Compute(ctx, in)
					if err == nil {
						scores[i] = res.ScorePercentage
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every result should agree", func() {
				for _, s := range scores {
					So(s, ShouldEqual, scores[0])
				}
			})
		})
	})
}
