package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	movies []string
	people []string
	err    error
}

func (f fakeSource) EachMovieID(ctx context.Context, fn func(string) error) error {
	for _, id := range f.movies {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func (f fakeSource) EachPersonID(ctx context.Context, fn func(string) error) error {
	if f.err != nil {
		return f.err
	}
	for _, id := range f.people {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func TestBuild(t *testing.T) {
	src := fakeSource{
		movies: []string{"tt0000001", "tt12345678", "tt1"},
		people: []string{"nm0000002", "nm9"},
	}

	snap, err := Build(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Movies())
	assert.Equal(t, 2, snap.People())
	assert.False(t, snap.BuiltAt().IsZero())

	assert.True(t, snap.HasMovie("tt0000001"))
	assert.True(t, snap.HasMovie("tt12345678"))
	assert.True(t, snap.HasMovie("tt1"))
	assert.False(t, snap.HasMovie("tt0000002"))
	assert.True(t, snap.HasPerson("nm0000002"))
	assert.True(t, snap.HasPerson("nm9"))
}

func TestPrefixesAreKeptApart(t *testing.T) {
	snap := New([]string{"tt0000001"}, []string{"nm0000001"})

	assert.False(t, snap.HasMovie("nm0000001"))
	assert.False(t, snap.HasPerson("tt0000001"))
	// 不同写法的同一数字不能互相命中
	assert.False(t, snap.HasMovie("tt00000001"))
	assert.False(t, snap.HasMovie("tt1"))
}

func TestBuildError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := Build(context.Background(), fakeSource{err: boom})
	assert.ErrorIs(t, err, boom)
}
