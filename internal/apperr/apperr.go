// Package apperr 定义加载器的错误分类以及到进程退出码的映射。
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// 退出码
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitIO      = 3
	ExitStore   = 4
)

// IOError 源文件缺失、不可读或压缩流损坏
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// StoreError 批量提交或维护语句失败，Code 为 Postgres SQLSTATE（未知时为空）
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: [%s] %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError 包装数据库错误，err 为 nil 时返回 nil
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Code: SQLState(err), Err: err}
}

// SQLState 提取驱动错误里的 SQLSTATE
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// ConfigurationError 启动时配置缺失或非法
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "缺少环境变量: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "非法配置: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// StageError 标记失败发生在哪个阶段
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("阶段 %s 失败: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ExitCode 根据错误类别返回进程退出码
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		cfgErr   *ConfigurationError
		ioErr    *IOError
		storeErr *StoreError
	)
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &ioErr):
		return ExitIO
	case errors.As(err, &storeErr):
		return ExitStore
	default:
		return ExitFailure
	}
}
