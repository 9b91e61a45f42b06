package service

import (
	"context"

	"github.com/user/imdbloader/internal/index"
	"github.com/user/imdbloader/internal/model"
)

// PeopleStore LOAD_PEOPLE 阶段需要的存储能力
type PeopleStore interface {
	UpsertPeople(ctx context.Context, people []model.Person) error
}

// MovieStore LOAD_MOVIES 阶段需要的存储能力
type MovieStore interface {
	UpsertMovies(ctx context.Context, movies []model.Movie) error
	EnsureGenres(ctx context.Context, names []string) (map[string]int, error)
	InsertGenreLinks(ctx context.Context, links []model.GenreLink) error
}

// CastStore LOAD_CAST_LINKS 阶段需要的存储能力
type CastStore interface {
	InsertCastLinks(ctx context.Context, links []model.CastLink) error
}

// Maintainer 索引维护
type Maintainer interface {
	DropSecondaryIndexes(ctx context.Context) error
	RestoreSecondaryIndexes(ctx context.Context) error
	Analyze(ctx context.Context) error
}

// Auditor 只读统计
type Auditor interface {
	Summary(ctx context.Context) (model.Summary, error)
}

// Store 完整运行需要的全部能力，由 repository.Repositories 实现
type Store interface {
	PeopleStore
	MovieStore
	CastStore
	index.IDSource
	Maintainer
	Auditor
}
