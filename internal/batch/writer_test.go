package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder 记录每次提交的内容，多个写入器共享同一个 log 以检查提交顺序
type recorder struct {
	log  *[]string
	name string
	fail error
}

func flushInto[T any](r recorder) FlushFunc[T] {
	return func(ctx context.Context, rows []T) error {
		if r.fail != nil {
			return r.fail
		}
		*r.log = append(*r.log, fmt.Sprintf("%s:%d", r.name, len(rows)))
		return nil
	}
}

func TestWriterBatchBoundary(t *testing.T) {
	var log []string
	w := NewWriter(1000, flushInto[int](recorder{log: &log, name: "movies"}))
	ctx := context.Background()

	for i := 0; i < 2500; i++ {
		require.NoError(t, w.Add(ctx, i))
	}
	assert.Equal(t, 2, w.Commits())
	assert.Equal(t, 500, w.Pending())

	require.NoError(t, w.Close(ctx))
	assert.Equal(t, 3, w.Commits())
	assert.EqualValues(t, 2500, w.Written())
	assert.Equal(t, []string{"movies:1000", "movies:1000", "movies:500"}, log)
}

func TestWriterCloseEmpty(t *testing.T) {
	var log []string
	w := NewWriter(10, flushInto[int](recorder{log: &log, name: "x"}))

	require.NoError(t, w.Close(context.Background()))
	assert.Zero(t, w.Commits())
	assert.Empty(t, log)
}

func TestDependentChildFullFlushesParentFirst(t *testing.T) {
	var log []string
	ctx := context.Background()
	movies := NewWriter(10, flushInto[string](recorder{log: &log, name: "movies"}))
	links := NewWriter(3, flushInto[string](recorder{log: &log, name: "links"}))
	movies.Dependent(links)

	require.NoError(t, movies.Add(ctx, "tt1"))
	require.NoError(t, links.Add(ctx, "tt1/Drama"))
	require.NoError(t, links.Add(ctx, "tt1/Action"))
	require.NoError(t, links.Add(ctx, "tt1/Comedy"))

	assert.Equal(t, []string{"movies:1", "links:3"}, log)
	assert.Zero(t, movies.Pending())
	assert.Zero(t, links.Pending())
}

func TestDependentParentFlushCascades(t *testing.T) {
	var log []string
	ctx := context.Background()
	movies := NewWriter(2, flushInto[string](recorder{log: &log, name: "movies"}))
	links := NewWriter(100, flushInto[string](recorder{log: &log, name: "links"}))
	movies.Dependent(links)

	require.NoError(t, movies.Add(ctx, "tt1"))
	require.NoError(t, links.Add(ctx, "tt1/Drama"))
	require.NoError(t, movies.Add(ctx, "tt2"))

	assert.Equal(t, []string{"movies:2", "links:1"}, log)

	require.NoError(t, movies.Add(ctx, "tt3"))
	require.NoError(t, movies.Close(ctx))
	assert.Equal(t, []string{"movies:2", "links:1", "movies:1"}, log)
}

func TestWriterFlushError(t *testing.T) {
	boom := errors.New("unique violation")
	var log []string
	var commits int
	w := NewWriter(2, flushInto[int](recorder{log: &log, fail: boom}))
	w.OnCommit(func(int) { commits++ })
	ctx := context.Background()

	require.NoError(t, w.Add(ctx, 1))
	err := w.Add(ctx, 2)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, w.Commits())
	assert.Zero(t, commits)
	assert.Equal(t, 2, w.Pending())
}

func TestWriterCanceledContext(t *testing.T) {
	var log []string
	w := NewWriter(1, flushInto[int](recorder{log: &log, name: "x"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, w.Add(ctx, 1), context.Canceled)
	assert.Empty(t, log)
}

func TestOnCommit(t *testing.T) {
	var log, sizes []string
	w := NewWriter(2, flushInto[int](recorder{log: &log, name: "x"}))
	w.OnCommit(func(n int) { sizes = append(sizes, fmt.Sprint(n)) })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Add(ctx, i))
	}
	require.NoError(t, w.Close(ctx))
	assert.Equal(t, []string{"2", "2", "1"}, sizes)
}

func TestNewWriterDefaultSize(t *testing.T) {
	w := NewWriter[int](0, func(context.Context, []int) error { return nil })
	assert.Equal(t, DefaultSize, w.size)
}
