package vectorcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/resumatch/internal/adapters/vectorstore"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/internal/domain/vectorcache"
	. "github.com/smartystreets/goconvey/convey"
)

// countingEmbedder wraps the hashing embedder and counts Embed calls.
type countingEmbedder struct {
	inner *embedding.HashingEmbedder
	calls atomic.Int32
	delay time.Duration
	err   error
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{inner: embedding.NewHashingEmbedder()}
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.inner.Embed(ctx, text)
}

func (e *countingEmbedder) Dimension() int { return e.inner.Dimension() }

// failingStore fails the configured operations.
type failingStore struct {
	vectorstore.Store
	failExists bool
	failFetch  bool
	failPut    bool
}

var errBackend = errors.New("backend down")

func (s *failingStore) IndexExists(ctx context.Context) (bool, error) {
	if s.failExists {
		return false, errBackend
	}
	return s.Store.IndexExists(ctx)
}

func (s *failingStore) Fetch(ctx context.Context, id string) (vectorstore.Record, bool, error) {
	if s.failFetch {
		return vectorstore.Record{}, false, errBackend
	}
	return s.Store.Fetch(ctx, id)
}

func (s *failingStore) PutIfAbsent(ctx context.Context, rec vectorstore.Record) (vectorstore.Record, bool, error) {
	if s.failPut {
		return vectorstore.Record{}, false, errBackend
	}
	return s.Store.PutIfAbsent(ctx, rec)
}

func TestNew(t *testing.T) {
	Convey("Given missing dependencies", t, func() {
		_, errStore := vectorcache.New(nil, newCountingEmbedder())
		_, errEmbedder := vectorcache.New(vectorstore.NewMemoryStore(), nil)

		Convey("Then construction should fail", func() {
			So(errors.Is(errStore, vectorcache.ErrNilStore), ShouldBeTrue)
			So(errors.Is(errEmbedder, vectorcache.ErrNilEmbedder), ShouldBeTrue)
		})
	})
}

func TestEnsureIndex(t *testing.T) {
	Convey("Given a cache over an empty store", t, func() {
		ctx := context.Background()
		store := vectorstore.NewMemoryStore()
		cache, err := vectorcache.New(store, newCountingEmbedder())
		So(err, ShouldBeNil)

		Convey("When ensuring the index twice", func() {
			So(cache.EnsureIndex(ctx), ShouldBeNil)
			So(cache.EnsureIndex(ctx), ShouldBeNil)

			Convey("Then the index should exist with the embedder dimension", func() {
				exists, err := store.IndexExists(ctx)
				So(err, ShouldBeNil)
				So(exists, ShouldBeTrue)
				So(cache.Dimension(), ShouldEqual, embedding.DefaultDimension)
			})
		})

		Convey("When the store is unreachable", func() {
			broken, _ := vectorcache.New(&failingStore{Store: store, failExists: true}, newCountingEmbedder())
			err := broken.EnsureIndex(ctx)

			Convey("Then the error should be a storage error", func() {
				So(errors.Is(err, types.ErrStorageUnavailable), ShouldBeTrue)
				So(errors.Is(err, errBackend), ShouldBeTrue)
			})
		})
	})
}

func TestGetOrCreate(t *testing.T) {
	Convey("Given a cache with an index", t, func() {
		ctx := context.Background()
		store := vectorstore.NewMemoryStore()
		emb := newCountingEmbedder()
		cache, err := vectorcache.New(store, emb)
		So(err, ShouldBeNil)
		So(cache.EnsureIndex(ctx), ShouldBeNil)

		Convey("When a job id is requested twice", func() {
			first, err1 := cache.GetOrCreate(ctx, "job-1", "Senior Go engineer with Postgres")
			second, err2 := cache.GetOrCreate(ctx, "job-1", "Senior Go engineer with Postgres")

			Convey("Then the text should be embedded once and the vectors should match", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(emb.calls.Load(), ShouldEqual, int32(1))
				So(second, ShouldResemble, first)
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the job description changes under the same job id", func() {
			original, err := cache.GetOrCreate(ctx, "job-1", "Python data engineer")
			So(err, ShouldBeNil)
			changed, err := cache.GetOrCreate(ctx, "job-1", "Frontend React developer")
			So(err, ShouldBeNil)

			Convey("Then the first stored vector should still be returned", func() {
				want, _ := embedding.NewHashingEmbedder().Embed(ctx, "Python data engineer")
				So(changed, ShouldResemble, original)
				So(changed, ShouldResemble, want)
				So(emb.calls.Load(), ShouldEqual, int32(1))
			})
		})

		Convey("When many callers race on an unseen job id", func() {
			emb.delay = 20 * time.Millisecond

			const callers = 50
			var wg sync.WaitGroup
			results := make([]embedding.Vector, callers)
			errs := make([]error, callers)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = cache.GetOrCreate(ctx, "job-race", "Kubernetes platform engineer")
				}(i)
			}
			wg.Wait()

			Convey("Then the job description should be embedded once", func() {
				So(emb.calls.Load(), ShouldEqual, int32(1))
				for i := 0; i < callers; i++ {
					So(errs[i], ShouldBeNil)
					So(results[i], ShouldResemble, results[0])
				}
			})
		})

		Convey("When the caller that started a slow embedding times out", func() {
			emb.delay = 50 * time.Millisecond

			shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()

			var wg sync.WaitGroup
			var shortErr error
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, shortErr = cache.GetOrCreate(shortCtx, "job-slow", "Terraform and AWS")
			}()
			time.Sleep(2 * time.Millisecond)
			vec, err := cache.GetOrCreate(ctx, "job-slow", "Terraform and AWS")
			wg.Wait()

			Convey("Then only that caller should fail and the waiting caller should get the vector", func() {
				So(errors.Is(shortErr, context.DeadlineExceeded), ShouldBeTrue)
				So(types.KindOf(shortErr), ShouldEqual, types.KindTimeout)
				So(err, ShouldBeNil)
				So(vec, ShouldHaveLength, emb.Dimension())
				So(emb.calls.Load(), ShouldEqual, int32(1))
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a caller mutates the returned vector", func() {
			v, _ := cache.GetOrCreate(ctx, "job-1", "Go")
			v[0] += 1
			again, _ := cache.GetOrCreate(ctx, "job-1", "Go")

			Convey("Then the stored vector should be unaffected", func() {
				So(again[0], ShouldNotEqual, v[0])
			})
		})

		Convey("When the job id is empty", func() {
			_, err := cache.GetOrCreate(ctx, "  ", "text")

			Convey("Then it should be rejected as invalid input", func() {
				So(errors.Is(err, types.ErrInvalidInput), ShouldBeTrue)
				So(emb.calls.Load(), ShouldEqual, int32(0))
			})
		})

		Convey("When the embedder fails", func() {
			emb.err = errors.New("model unavailable")
			_, err := cache.GetOrCreate(ctx, "job-2", "text")

			Convey("Then an embedding error should propagate and nothing should be stored", func() {
				So(errors.Is(err, types.ErrEmbedding), ShouldBeTrue)
				So(store.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the store cannot be read", func() {
			broken, _ := vectorcache.New(&failingStore{Store: store, failFetch: true}, emb)
			_, err := broken.GetOrCreate(ctx, "job-3", "text")

			Convey("Then a storage error should propagate without embedding", func() {
				So(errors.Is(err, types.ErrStorageUnavailable), ShouldBeTrue)
				So(emb.calls.Load(), ShouldEqual, int32(0))
			})
		})

		Convey("When the store cannot be written", func() {
			broken, _ := vectorcache.New(&failingStore{Store: store, failPut: true}, emb)
			_, err := broken.GetOrCreate(ctx, "job-4", "text")

			Convey("Then a storage error should propagate", func() {
				So(errors.Is(err, types.ErrStorageUnavailable), ShouldBeTrue)
				So(errors.Is(err, errBackend), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := cache.GetOrCreate(cctx, "job-5", "text")

			Convey("Then the call should fail with the context error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given an index whose dimension differs from the embedder", t, func() {
		ctx := context.Background()
		store := vectorstore.NewMemoryStore()
		So(store.CreateIndex(ctx, 8, embedding.MetricCosine), ShouldBeNil)
		cache, _ := vectorcache.New(store, newCountingEmbedder())

		Convey("When a vector is stored", func() {
			_, err := cache.GetOrCreate(ctx, "job-1", "text")

			Convey("Then the mismatch should be an embedding error", func() {
				So(errors.Is(err, types.ErrEmbedding), ShouldBeTrue)
			})
		})
	})
}
