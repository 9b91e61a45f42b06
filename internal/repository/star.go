package repository

import (
	"context"

	"github.com/user/imdbloader/internal/apperr"
	"github.com/user/imdbloader/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StarRepository struct {
	db *gorm.DB
}

func NewStarRepository(db *gorm.DB) *StarRepository {
	return &StarRepository{db: db}
}

// UpsertPeople 一个事务内批量写入演员，id 冲突时更新 name 和 birth_year
func (r *StarRepository) UpsertPeople(ctx context.Context, people []model.Person) error {
	rows := dedupe(people, func(p model.Person) string { return p.ID })
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "birth_year"}),
		}).Create(&rows).Error
	})
	return apperr.NewStoreError("upsert stars", err)
}

// EachPersonID 流式读取所有演员 id
func (r *StarRepository) EachPersonID(ctx context.Context, fn func(id string) error) error {
	return apperr.NewStoreError("scan star ids", eachID(ctx, r.db, "stars", fn))
}
