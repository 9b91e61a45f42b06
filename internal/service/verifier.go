package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/user/imdbloader/internal/model"
)

// Verification 加载后的统计与告警，告警不会让运行失败
type Verification struct {
	Summary   model.Summary
	MinMovies int
	Warnings  []string
}

// Verify 读取统计并检查数量是否合理
func Verify(ctx context.Context, a Auditor, minMovies int, log zerolog.Logger) (*Verification, error) {
	s, err := a.Summary(ctx)
	if err != nil {
		return nil, err
	}

	v := &Verification{Summary: s, MinMovies: minMovies}
	if s.Movies < int64(minMovies) {
		v.Warnings = append(v.Warnings, fmt.Sprintf("电影数量 %d 低于预期下限 %d，数据可能不完整", s.Movies, minMovies))
	}
	if s.Movies > 0 && s.MoviesWithGenres == 0 {
		v.Warnings = append(v.Warnings, "没有任何电影关联到类型")
	}
	if s.Movies > 0 && s.People > 0 && s.MoviesWithCast == 0 {
		v.Warnings = append(v.Warnings, "没有任何电影关联到演员")
	}

	log.Info().
		Int64("movies", s.Movies).
		Int64("people", s.People).
		Int64("genres", s.Genres).
		Int64("movies_with_genres", s.MoviesWithGenres).
		Int64("movies_with_cast", s.MoviesWithCast).
		Msg("数据校验完成")
	for _, w := range v.Warnings {
		log.Warn().Msg(w)
	}
	return v, nil
}
