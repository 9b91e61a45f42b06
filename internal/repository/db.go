package repository

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/user/imdbloader/internal/apperr"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接。整个运行只使用这一个连接池
func InitDB(ctx context.Context, dsn string, maxOpenConns int, log zerolog.Logger) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperr.NewStoreError("open database", err)
	}

	// 测试连接
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, apperr.NewStoreError("ping database", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(gormWriter{log: log}, gormlogger.Config{
			SlowThreshold:             5 * time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		sqlDB.Close()
		return nil, apperr.NewStoreError("open gorm", err)
	}
	return db, nil
}

// gormWriter 把 gorm 的慢查询与错误日志转到 zerolog
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Warn().Msgf(format, args...)
}

// Repositories 仓库集合。各仓库以嵌入方式组合，方法提升后即满足 service.Store
type Repositories struct {
	DB *gorm.DB
	*MovieRepository
	*StarRepository
	*GenreRepository
	*CastRepository
	*MaintenanceRepository
	*StatsRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:                    db,
		MovieRepository:       NewMovieRepository(db),
		StarRepository:        NewStarRepository(db),
		GenreRepository:       NewGenreRepository(db),
		CastRepository:        NewCastRepository(db),
		MaintenanceRepository: NewMaintenanceRepository(db),
		StatsRepository:       NewStatsRepository(db),
	}
}

// Close 关闭底层连接池
func (r *Repositories) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// eachID 逐行读取某张表的 id，不把整张表读进内存
func eachID(ctx context.Context, db *gorm.DB, table string, fn func(id string) error) error {
	rows, err := db.WithContext(ctx).Table(table).Select("id").Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// dedupe 同一批次内按键去重，保留最后出现的记录。
// 一条 INSERT ... ON CONFLICT DO UPDATE 不能两次更新同一行
func dedupe[T any, K comparable](rows []T, key func(T) K) []T {
	pos := make(map[K]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if i, ok := pos[k]; ok {
			out[i] = row
			continue
		}
		pos[k] = len(out)
		out = append(out, row)
	}
	return out
}
