package service

import (
	"context"
	"fmt"

	"github.com/user/imdbloader/internal/model"
	"github.com/user/imdbloader/internal/utils"
)

const defaultGenreCacheSize = 1024

// genreResolver 把类型名解析为 id，缺失的类型先在独立事务中创建
type genreResolver struct {
	store MovieStore
	cache *utils.LRUCache[string, int]
}

func newGenreResolver(store MovieStore, size int) *genreResolver {
	if size <= 0 {
		size = defaultGenreCacheSize
	}
	return &genreResolver{store: store, cache: utils.NewLRUCache[string, int](size, 0)}
}

// insertLinks 作为类型关联写入器的 FlushFunc
func (g *genreResolver) insertLinks(ctx context.Context, reqs []model.GenreRequest) error {
	resolved := make(map[string]int)
	var missing []string
	for _, r := range reqs {
		if _, ok := resolved[r.Genre]; ok {
			continue
		}
		if id, ok := g.cache.Get(r.Genre); ok {
			resolved[r.Genre] = id
			continue
		}
		resolved[r.Genre] = 0
		missing = append(missing, r.Genre)
	}

	if len(missing) > 0 {
		ids, err := g.store.EnsureGenres(ctx, missing)
		if err != nil {
			return err
		}
		for _, name := range missing {
			id, ok := ids[name]
			if !ok {
				return fmt.Errorf("类型 %q 创建后仍未找到", name)
			}
			resolved[name] = id
			g.cache.Set(name, id)
		}
	}

	links := make([]model.GenreLink, 0, len(reqs))
	for _, r := range reqs {
		links = append(links, model.GenreLink{GenreID: resolved[r.Genre], MovieID: r.MovieID})
	}
	return g.store.InsertGenreLinks(ctx, links)
}

func (g *genreResolver) known() int { return g.cache.Len() }
