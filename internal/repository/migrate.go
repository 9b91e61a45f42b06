package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"github.com/user/imdbloader/internal/apperr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsTable 迁移版本表，避免与库里其他应用的 schema_migrations 冲突
const MigrationsTable = "imdbloader_schema_migrations"

// Migrate 执行内嵌的 schema 迁移。
// migrate 关闭时会一并关闭数据库连接，所以这里单独打开一个连接
func Migrate(dsn string, log zerolog.Logger) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return apperr.NewStoreError("migrate open", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("读取内嵌迁移文件: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		sqlDB.Close()
		return apperr.NewStoreError("migrate driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return apperr.NewStoreError("migrate init", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperr.NewStoreError("migrate up", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return apperr.NewStoreError("migrate version", err)
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("数据库迁移完成")
	return nil
}
