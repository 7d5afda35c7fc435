//go:build integration

package vectorstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/okian/resumatch/internal/adapters/postgres"
	"github.com/okian/resumatch/internal/adapters/vectorstore"
	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGStoreIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	table := fmt.Sprintf("jd_embeddings_it_%d", time.Now().UnixNano())
	defer func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+postgres.Identifier(table))
	}()

	s := vectorstore.NewPGStore(pool, table)

	exists, err := s.IndexExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateIndex(ctx, 3, embedding.MetricCosine))
	exists, err = s.IndexExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	first, inserted, err := s.PutIfAbsent(ctx, vectorstore.Record{ID: "job-1", Vector: embedding.Vector{1, 0, 0}, Text: "first"})
	require.NoError(t, err)
	assert.True(t, inserted)

	second, inserted, err := s.PutIfAbsent(ctx, vectorstore.Record{ID: "job-1", Vector: embedding.Vector{0, 1, 0}, Text: "second"})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, "first", second.Text)

	rec, ok, err := s.Fetch(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, embedding.Vector{1, 0, 0}, rec.Vector)

	_, _, err = s.PutIfAbsent(ctx, vectorstore.Record{ID: "job-2", Vector: embedding.Vector{1, 0}})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}
