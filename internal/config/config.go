package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/user/imdbloader/internal/apperr"
)

// 默认值
const (
	DefaultBatchSize    = 1000
	DefaultQueueSize    = 4096
	DefaultMinMovies    = 10000
	DefaultMaxLineBytes = 1 << 20
	DefaultMaxOpenConns = 4

	DefaultDatasetBaseURL  = "https://datasets.imdbws.com"
	DefaultDownloadTimeout = time.Minute
)

// Config 加载器配置，全部来自环境变量
type Config struct {
	Env              string `env:"APP_ENV"`
	DatabaseURL      string `env:"DB_URL" validate:"required"`
	DatabaseUser     string `env:"DB_USER" validate:"required"`
	DatabasePassword string `env:"DB_PASSWORD" validate:"required"`
	DBMaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS" validate:"min=1"`
	AutoMigrate      bool   `env:"AUTO_MIGRATE"`

	DataDir    string `env:"DATA_DIR"`
	MoviesFile string `env:"MOVIES_FILE" validate:"required"`
	PeopleFile string `env:"PEOPLE_FILE" validate:"required"`
	CastFile   string `env:"CAST_FILE" validate:"required"`

	BatchSize    int `env:"BATCH_SIZE" validate:"min=1,max=20000"`
	QueueSize    int `env:"QUEUE_SIZE" validate:"min=1"`
	MinMovies    int `env:"MIN_MOVIES" validate:"min=0"`
	MaxLineBytes int `env:"MAX_LINE_BYTES" validate:"min=4096"`

	DatasetBaseURL  string        `env:"DATASET_BASE_URL" validate:"url"`
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" validate:"min=0"`

	LogLevel    string `env:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat   string `env:"LOG_FORMAT" validate:"oneof=console json"`
	MetricsFile string `env:"METRICS_FILE"`
}

// 只有访问数据库的命令才需要的字段
var databaseFields = []string{"DatabaseURL", "DatabaseUser", "DatabasePassword"}

// Load 加载并校验配置。缺失或非法的变量汇总成一个 *apperr.ConfigurationError
func Load() (*Config, error) {
	return load(true)
}

// LoadWithoutDatabase 供不连接数据库的命令使用（例如下载数据集）
func LoadWithoutDatabase() (*Config, error) {
	return load(false)
}

func load(requireDatabase bool) (*Config, error) {
	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		DatabaseURL:      os.Getenv("DB_URL"),
		DatabaseUser:     os.Getenv("DB_USER"),
		DatabasePassword: os.Getenv("DB_PASSWORD"),
		DBMaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", DefaultMaxOpenConns),
		AutoMigrate:      getEnvBool("AUTO_MIGRATE", false),

		DataDir:    getEnv("DATA_DIR", "data"),
		MoviesFile: getEnv("MOVIES_FILE", "title.basics.tsv.gz"),
		PeopleFile: getEnv("PEOPLE_FILE", "name.basics.tsv.gz"),
		CastFile:   getEnv("CAST_FILE", "title.principals.tsv.gz"),

		BatchSize:    getEnvInt("BATCH_SIZE", DefaultBatchSize),
		QueueSize:    getEnvInt("QUEUE_SIZE", DefaultQueueSize),
		MinMovies:    getEnvInt("MIN_MOVIES", DefaultMinMovies),
		MaxLineBytes: getEnvInt("MAX_LINE_BYTES", DefaultMaxLineBytes),

		DatasetBaseURL:  getEnv("DATASET_BASE_URL", DefaultDatasetBaseURL),
		DownloadTimeout: getEnvDuration("DOWNLOAD_TIMEOUT", DefaultDownloadTimeout),

		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "console")),
		MetricsFile: os.Getenv("METRICS_FILE"),
	}

	if err := validate(cfg, requireDatabase); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config, requireDatabase bool) error {
	v := validator.New()
	// 错误信息里直接使用环境变量名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("env")
	})

	var err error
	if requireDatabase {
		err = v.Struct(cfg)
	} else {
		err = v.StructExcept(cfg, databaseFields...)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	cfgErr := &apperr.ConfigurationError{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			cfgErr.Missing = append(cfgErr.Missing, fe.Field())
			continue
		}
		cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("%s=%v", fe.Field(), fe.Value()))
	}
	return cfgErr
}

// MoviesPath 电影文件完整路径
func (c *Config) MoviesPath() string { return c.resolve(c.MoviesFile) }

// PeoplePath 人物文件完整路径
func (c *Config) PeoplePath() string { return c.resolve(c.PeopleFile) }

// CastPath 演职员文件完整路径
func (c *Config) CastPath() string { return c.resolve(c.CastFile) }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// DSN 返回 lib/pq 可用的连接串。DB_URL 支持 postgres://、postgresql:// 以及 JDBC 形式
// jdbc:postgresql://host:port/db，用户名密码总是取自 DB_USER / DB_PASSWORD。
func (c *Config) DSN() (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(c.DatabaseURL), "jdbc:")

	if !strings.Contains(raw, "://") {
		// key=value 形式
		return fmt.Sprintf("%s user=%s password=%s", raw, quoteValue(c.DatabaseUser), quoteValue(c.DatabasePassword)), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &apperr.ConfigurationError{Invalid: []string{"DB_URL"}}
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", &apperr.ConfigurationError{Invalid: []string{"DB_URL=" + u.Scheme + "://…"}}
	}
	u.User = url.UserPassword(c.DatabaseUser, c.DatabasePassword)

	// JDBC 的 user/password 查询参数与注入的凭据冲突
	q := u.Query()
	q.Del("user")
	q.Del("password")
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func quoteValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}
