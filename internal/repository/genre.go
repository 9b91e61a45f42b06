package repository

import (
	"context"

	"github.com/lib/pq"
	"github.com/user/imdbloader/internal/apperr"
	"github.com/user/imdbloader/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

// EnsureGenres 在独立事务中创建缺失的类型，返回 name -> id
func (r *GenreRepository) EnsureGenres(ctx context.Context, names []string) (map[string]int, error) {
	ids := make(map[string]int, len(names))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO genres (name) SELECT unnest(?::text[]) ON CONFLICT (name) DO NOTHING`,
			pq.Array(names)).Error; err != nil {
			return err
		}

		var genres []model.Genre
		if err := tx.Where("name IN ?", names).Find(&genres).Error; err != nil {
			return err
		}
		for _, g := range genres {
			ids[g.Name] = g.ID
		}
		return nil
	})
	if err != nil {
		return nil, apperr.NewStoreError("ensure genres", err)
	}
	return ids, nil
}

// InsertGenreLinks 一个事务内批量写入电影类型关联，已存在的忽略
func (r *GenreRepository) InsertGenreLinks(ctx context.Context, links []model.GenreLink) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
	return apperr.NewStoreError("insert genre links", err)
}
