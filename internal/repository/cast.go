package repository

import (
	"context"

	"github.com/user/imdbloader/internal/apperr"
	"github.com/user/imdbloader/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CastRepository struct {
	db *gorm.DB
}

func NewCastRepository(db *gorm.DB) *CastRepository {
	return &CastRepository{db: db}
}

// InsertCastLinks 一个事务内批量写入出演关系，已存在的忽略
func (r *CastRepository) InsertCastLinks(ctx context.Context, links []model.CastLink) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
	return apperr.NewStoreError("insert cast links", err)
}
