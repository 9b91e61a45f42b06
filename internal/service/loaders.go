package service

import (
	"context"
	"fmt"

	"github.com/user/imdbloader/internal/batch"
	"github.com/user/imdbloader/internal/index"
	"github.com/user/imdbloader/internal/logger"
	"github.com/user/imdbloader/internal/model"
	"github.com/user/imdbloader/internal/parser"
)

// 数据集名，用作指标标签
const (
	datasetPeople = "name.basics"
	datasetMovies = "title.basics"
	datasetCast   = "title.principals"
)

// loadPeople 加载演员。文件缺失时跳过该阶段
func loadPeople(ctx context.Context, env runEnv, st PeopleStore, res *StageResult) error {
	log := logger.Component(env.log, "people")
	res.File = env.opts.PeoplePath
	if fileMissing(res.File) {
		res.Omitted = true
		res.Note = "文件不存在，已跳过"
		log.Warn().Str("file", res.File).Msg("人物文件不存在，跳过演员加载")
		return nil
	}

	w := batch.NewWriter[model.Person](env.opts.BatchSize, st.UpsertPeople)
	w.OnCommit(env.progress(log, "stars"))

	log.Info().Str("file", res.File).Msg("开始加载演员")
	err := streamFile(ctx, env, res, datasetPeople,
		func(line string) parser.Result[model.Person] {
			return parser.ParsePerson(line, parser.Delimiter, parser.ProfessionSubstring)
		},
		w.Add,
	)
	if err == nil {
		err = w.Close(ctx)
	}
	res.Written, res.Batches = w.Written(), w.Commits()
	return err
}

// loadMovies 加载电影及其类型关联。类型关联写入器依赖电影写入器，
// 保证关联提交时对应的电影已经提交
func loadMovies(ctx context.Context, env runEnv, st MovieStore, res *StageResult) error {
	log := logger.Component(env.log, "movies")
	res.File = env.opts.MoviesPath

	genres := newGenreResolver(st, env.opts.GenreCacheSize)
	movies := batch.NewWriter[model.Movie](env.opts.BatchSize, st.UpsertMovies)
	links := batch.NewWriter[model.GenreRequest](env.opts.BatchSize, genres.insertLinks)
	movies.Dependent(links)
	movies.OnCommit(env.progress(log, "movies"))
	links.OnCommit(env.progress(log, "genres_in_movies"))

	log.Info().Str("file", res.File).Msg("开始加载电影")
	err := streamFile(ctx, env, res, datasetMovies,
		func(line string) parser.Result[parser.MovieRow] {
			return parser.ParseMovie(line, parser.Delimiter)
		},
		func(ctx context.Context, row parser.MovieRow) error {
			if err := movies.Add(ctx, row.Movie); err != nil {
				return err
			}
			for _, g := range row.Genres {
				if err := links.Add(ctx, g); err != nil {
					return err
				}
			}
			return nil
		},
	)
	if err == nil {
		err = movies.Close(ctx)
	}
	res.Written, res.Batches = movies.Written(), movies.Commits()
	res.Linked = links.Written()
	res.Note = fmt.Sprintf("类型 %d 个", genres.known())
	return err
}

// buildIndex 从存储中读取全部电影和人物 id
func buildIndex(ctx context.Context, env runEnv, src index.IDSource, res *StageResult) (*index.Snapshot, error) {
	log := logger.Component(env.log, "index")
	snap, err := index.Build(ctx, src)
	if err != nil {
		return nil, err
	}
	res.Processed = int64(snap.Movies() + snap.People())
	res.Note = fmt.Sprintf("电影 %d / 人物 %d", snap.Movies(), snap.People())
	log.Info().Int("movies", snap.Movies()).Int("people", snap.People()).Msg("存在性索引已构建")
	return snap, nil
}

// loadCast 加载出演关系，两端 id 都必须在快照中。
// required 为 false 时文件缺失只跳过该阶段
func loadCast(ctx context.Context, env runEnv, st CastStore, snap *index.Snapshot, required bool, res *StageResult) error {
	log := logger.Component(env.log, "cast")
	res.File = env.opts.CastPath
	if !required && fileMissing(res.File) {
		res.Omitted = true
		res.Note = "文件不存在，已跳过"
		log.Warn().Str("file", res.File).Msg("演职员文件不存在，跳过出演关系加载")
		return nil
	}

	w := batch.NewWriter[model.CastLink](env.opts.BatchSize, st.InsertCastLinks)
	w.OnCommit(env.progress(log, "stars_in_movies"))

	log.Info().Str("file", res.File).Time("index_built_at", snap.BuiltAt()).Msg("开始加载出演关系")
	err := streamFile(ctx, env, res, datasetCast,
		func(line string) parser.Result[model.CastLink] {
			return parser.ParseCast(line, parser.Delimiter, parser.CategoryExact, snap)
		},
		w.Add,
	)
	if err == nil {
		err = w.Close(ctx)
	}
	res.Written, res.Batches = w.Written(), w.Commits()
	return err
}
