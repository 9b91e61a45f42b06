package repository

import (
	"context"

	"github.com/user/imdbloader/internal/apperr"
	"github.com/user/imdbloader/internal/model"
	"gorm.io/gorm"
)

const summarySQL = `
SELECT
	(SELECT COUNT(*) FROM movies)                           AS movies,
	(SELECT COUNT(*) FROM stars)                            AS people,
	(SELECT COUNT(DISTINCT genre_id) FROM genres_in_movies) AS genres,
	(SELECT COUNT(DISTINCT movie_id) FROM genres_in_movies) AS movies_with_genres,
	(SELECT COUNT(DISTINCT movie_id) FROM stars_in_movies)  AS movies_with_cast,
	(SELECT COUNT(*) FROM genres_in_movies)                 AS genre_links,
	(SELECT COUNT(*) FROM stars_in_movies)                  AS cast_links`

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Summary 只读统计
func (r *StatsRepository) Summary(ctx context.Context) (model.Summary, error) {
	var s model.Summary
	if err := r.db.WithContext(ctx).Raw(summarySQL).Scan(&s).Error; err != nil {
		return model.Summary{}, apperr.NewStoreError("summary", err)
	}
	return s, nil
}
