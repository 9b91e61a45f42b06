package repository

import (
	"context"

	"github.com/user/imdbloader/internal/apperr"
	"github.com/user/imdbloader/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// UpsertMovies 一个事务内批量写入电影，id 冲突时只更新 title 和 year，director 保持不变
func (r *MovieRepository) UpsertMovies(ctx context.Context, movies []model.Movie) error {
	rows := dedupe(movies, func(m model.Movie) string { return m.ID })
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("director").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "year"}),
		}).Create(&rows).Error
	})
	return apperr.NewStoreError("upsert movies", err)
}

// EachMovieID 流式读取所有电影 id
func (r *MovieRepository) EachMovieID(ctx context.Context, fn func(id string) error) error {
	return apperr.NewStoreError("scan movie ids", eachID(ctx, r.db, "movies", fn))
}
