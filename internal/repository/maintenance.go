package repository

import (
	"context"
	"fmt"

	"github.com/user/imdbloader/internal/apperr"
	"gorm.io/gorm"
)

// IndexDef 二级索引定义
type IndexDef struct {
	Name   string
	Table  string
	Column string
}

func (d IndexDef) createSQL() string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", d.Name, d.Table, d.Column)
}

func (d IndexDef) dropSQL() string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s", d.Name)
}

// SecondaryIndexes 批量加载期间删除、结束后重建的索引
var SecondaryIndexes = []IndexDef{
	{Name: "idx_movies_title", Table: "movies", Column: "title"},
	{Name: "idx_movies_year", Table: "movies", Column: "year"},
	{Name: "idx_stars_name", Table: "stars", Column: "name"},
}

// AnalyzedTables 重建索引后刷新统计信息的表
var AnalyzedTables = []string{"movies", "stars", "genres", "genres_in_movies", "stars_in_movies"}

// MaintenanceRepository 索引与统计信息维护
type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// DropSecondaryIndexes 删除二级索引，索引不存在时跳过
func (r *MaintenanceRepository) DropSecondaryIndexes(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, idx := range SecondaryIndexes {
			if err := tx.Exec(idx.dropSQL()).Error; err != nil {
				return fmt.Errorf("%s: %w", idx.Name, err)
			}
		}
		return nil
	})
	return apperr.NewStoreError("drop secondary indexes", err)
}

// RestoreSecondaryIndexes 重建二级索引，可重复执行
func (r *MaintenanceRepository) RestoreSecondaryIndexes(ctx context.Context) error {
	for _, idx := range SecondaryIndexes {
		if err := r.db.WithContext(ctx).Exec(idx.createSQL()).Error; err != nil {
			return apperr.NewStoreError("create index "+idx.Name, err)
		}
	}
	return nil
}

// Analyze 刷新查询规划器的统计信息
func (r *MaintenanceRepository) Analyze(ctx context.Context) error {
	for _, table := range AnalyzedTables {
		if err := r.db.WithContext(ctx).Exec("ANALYZE " + table).Error; err != nil {
			return apperr.NewStoreError("analyze "+table, err)
		}
	}
	return nil
}
