package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/resumatch/internal/adapters/repository"
	"github.com/okian/resumatch/internal/adapters/vectorstore"
	service "github.com/okian/resumatch/internal/app"
	"github.com/okian/resumatch/internal/config"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type failingEmbedder struct{}

func (failingEmbedder) Dimension() int { return 8 }

func (failingEmbedder) Embed(context.Context, string) (embedding.Vector, error) {
	return nil, fmt.Errorf("%w: provider offline", types.ErrEmbedding)
}

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

const jd = "We need a Python engineer with Docker, AWS and Kubernetes experience."

func newStarted(opts ...service.Option) *service.Service {
	clock := &stepClock{cur: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	base := []service.Option{service.WithLogger(logger.Nop()), service.WithClock(clock.Now)}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		ctx := context.Background()

		Convey("When it is not started", func() {
			_, err := svc.Analyze(ctx, model.Submission{JobID: "job-1"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.Results(ctx, "job-1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			stats, err := svc.Stats(ctx)
			So(err, ShouldBeNil)
			So(stats["started"], ShouldEqual, false)
		})

		Convey("When it is started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			stats, err := svc.Stats(ctx)
			So(err, ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
			So(stats["embedding_dimension"], ShouldEqual, embedding.DefaultDimension)
			So(stats["store_backend"], ShouldEqual, config.BackendMemory)

			svc.Stop()
			svc.Stop()
			stats, _ = svc.Stats(ctx)
			So(stats["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service with an injected result store", t, func() {
		results := repository.NewMemoryStore()
		svc := newStarted(service.WithResultStore(results))
		ctx := context.Background()
		sub := model.Submission{Candidate: "x", JobID: "job-1", ResumeText: "Python", JDText: jd}

		_, err := svc.Analyze(ctx, sub)
		So(err, ShouldBeNil)

		Convey("When it is stopped and started again", func() {
			svc.Stop()
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then it serves requests from the same store", func() {
				_, err := svc.Analyze(ctx, sub)
				So(err, ShouldBeNil)

				list, err := svc.Results(ctx, "job-1")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 2)
				n, _ := results.Count(ctx)
				So(n, ShouldEqual, 2)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a started service with in-memory stores", t, func() {
		svc := newStarted()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a resume is analyzed with the default keywords", func() {
			a, err := svc.Analyze(ctx, model.Submission{
				Candidate:  " Jane ",
				JobID:      "job-1",
				ResumeText: "Jane Doe\nExpert in python and docker\nBuilt ML pipelines on AWS",
				JDText:     jd,
			})
			So(err, ShouldBeNil)

			Convey("Then the analysis is complete", func() {
				So(a.ID.String(), ShouldNotBeEmpty)
				So(a.Candidate, ShouldEqual, "Jane")
				So(a.Score, ShouldBeBetweenOrEqual, 0.0, 100.0)
				So(a.Verdict.Valid(), ShouldBeTrue)
				So(a.Missing, ShouldContain, "Kubernetes")
				So(a.Missing, ShouldNotContain, "Python")
				So(a.Feedback, ShouldStartWith, "Missing keywords: ")
				So(a.CreatedAt.Location(), ShouldEqual, time.UTC)
			})

			Convey("And it is stored for the job", func() {
				list, err := svc.Results(ctx, "job-1")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].ID, ShouldEqual, a.ID)

				stats, err := svc.Stats(ctx)
				So(err, ShouldBeNil)
				So(stats["total_analyses"], ShouldEqual, 1)
			})
		})

		Convey("When keywords are explicitly empty", func() {
			a, err := svc.Analyze(ctx, model.Submission{
				Candidate: "x", JobID: "job-2", ResumeText: "anything", JDText: jd, Keywords: []string{},
			})
			So(err, ShouldBeNil)
			So(a.Missing, ShouldBeEmpty)
			So(a.Missing, ShouldNotBeNil)
			So(a.HardScore, ShouldEqual, 0.0)
		})

		Convey("When the job id is blank", func() {
			_, err := svc.Analyze(ctx, model.Submission{Candidate: "x", JobID: "  ", ResumeText: "r", JDText: jd})
			So(errors.Is(err, types.ErrInvalidInput), ShouldBeTrue)

			list, _ := svc.Results(ctx, "job-1")
			So(list, ShouldBeEmpty)
		})
	})
}

func TestService_Shortlist(t *testing.T) {
	Convey("Given several analyses for one job", t, func() {
		svc := newStarted()
		defer svc.Stop()
		ctx := context.Background()

		resumes := []string{
			"Cook and gardener",
			"Python, Docker, AWS, Kubernetes, FastAPI, PostgreSQL and Machine Learning engineer",
			"Python developer",
		}
		for i, r := range resumes {
			_, err := svc.Analyze(ctx, model.Submission{
				Candidate: fmt.Sprintf("c%d", i), JobID: "job-9", ResumeText: r, JDText: jd,
			})
			So(err, ShouldBeNil)
		}

		Convey("Then the shortlist is ordered by score", func() {
			top, err := svc.Shortlist(ctx, "job-9", 3)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 3)
			So(top[0].Candidate, ShouldEqual, "c1")
			for i := 1; i < len(top); i++ {
				So(top[i-1].Score, ShouldBeGreaterThanOrEqualTo, top[i].Score)
			}
		})

		Convey("Then results keep submission order", func() {
			list, err := svc.Results(ctx, "job-9")
			So(err, ShouldBeNil)
			So(list[0].Candidate, ShouldEqual, "c0")
			So(list[2].Candidate, ShouldEqual, "c2")
		})

		Convey("Then padded job ids resolve to the stored job", func() {
			list, err := svc.Results(ctx, "  job-9 ")
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 3)

			top, err := svc.Shortlist(ctx, "\tjob-9\n", 1)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 1)
			So(top[0].Candidate, ShouldEqual, "c1")
		})

		Convey("Then an invalid limit is invalid input", func() {
			_, err := svc.Shortlist(ctx, "job-9", 0)
			So(errors.Is(err, types.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func TestService_Failures(t *testing.T) {
	Convey("Given a service whose embedder fails", t, func() {
		results := repository.NewMemoryStore()
		svc := newStarted(service.WithEmbedder(failingEmbedder{}), service.WithResultStore(results))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When analyzing", func() {
			_, err := svc.Analyze(ctx, model.Submission{Candidate: "x", JobID: "job-1", ResumeText: "r", JDText: jd})

			Convey("Then the embedding error propagates and nothing is stored", func() {
				So(errors.Is(err, types.ErrEmbedding), ShouldBeTrue)
				n, _ := results.Count(ctx)
				So(n, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an injected vector store", t, func() {
		vectors := vectorstore.NewMemoryStore()
		svc := newStarted(service.WithVectorStore(vectors))
		defer svc.Stop()

		Convey("Then Start created the index and analyses populate it once per job", func() {
			exists, err := vectors.IndexExists(context.Background())
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)

			for i := 0; i < 3; i++ {
				_, err := svc.Analyze(context.Background(), model.Submission{
					Candidate: "x", JobID: "job-1", ResumeText: "Python", JDText: jd,
				})
				So(err, ShouldBeNil)
			}
			So(vectors.Len(), ShouldEqual, 1)
		})
	})

	Convey("Given an unreachable postgres backend", t, func() {
		cfg := config.New(context.Background())
		cfg.StoreBackend = config.BackendPostgres
		cfg.DatabaseURL = "postgres://resumatch@127.0.0.1:1/resumatch?connect_timeout=1"
		svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Nop()))

		Convey("Then Start reports storage unavailable", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := svc.Start(ctx)
			So(errors.Is(err, types.ErrStorageUnavailable), ShouldBeTrue)
		})
	})
}
