// Package batch 把记录攒成固定大小的批次，每批在一个事务里提交。
package batch

import (
	"context"
)

// DefaultSize 默认批大小
const DefaultSize = 1000

// FlushFunc 在一个存储事务中写入一批记录。调用返回后 rows 会被复用，实现不能持有它
type FlushFunc[T any] func(ctx context.Context, rows []T) error

// Flusher 可以被强制提交的写入器
type Flusher interface {
	Flush(ctx context.Context) error
}

type dependent interface {
	Flusher
	attach(parent Flusher)
}

// Writer 单 goroutine 使用，不做并发保护
type Writer[T any] struct {
	size     int
	flush    FlushFunc[T]
	buf      []T
	parent   Flusher
	children []Flusher
	onCommit func(rows int)

	commits int
	written int64
}

// NewWriter 创建写入器，size <= 0 时使用 DefaultSize
func NewWriter[T any](size int, flush FlushFunc[T]) *Writer[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &Writer[T]{
		size:  size,
		flush: flush,
		buf:   make([]T, 0, size),
	}
}

// Dependent 注册依赖写入器（例如类型关联依赖电影）。
// 子写入器攒满时先提交父写入器；父写入器每次提交后都会接着提交子写入器。
func (w *Writer[T]) Dependent(child dependent) {
	child.attach(w)
	w.children = append(w.children, child)
}

func (w *Writer[T]) attach(parent Flusher) { w.parent = parent }

// OnCommit 注册每批提交成功后的回调
func (w *Writer[T]) OnCommit(fn func(rows int)) { w.onCommit = fn }

// Add 追加一条记录，缓冲区满时触发提交
func (w *Writer[T]) Add(ctx context.Context, rec T) error {
	w.buf = append(w.buf, rec)
	if len(w.buf) < w.size {
		return nil
	}
	if w.parent != nil {
		return w.parent.Flush(ctx)
	}
	return w.Flush(ctx)
}

// Flush 提交缓冲区中的记录，再依次提交子写入器。失败时缓冲区保持原样
func (w *Writer[T]) Flush(ctx context.Context) error {
	if n := len(w.buf); n > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.flush(ctx, w.buf); err != nil {
			return err
		}
		w.commits++
		w.written += int64(n)
		w.buf = w.buf[:0]
		if w.onCommit != nil {
			w.onCommit(n)
		}
	}
	for _, c := range w.children {
		if err := c.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close 输入结束时提交最后一个不满的批次
func (w *Writer[T]) Close(ctx context.Context) error {
	return w.Flush(ctx)
}

// Commits 已提交的批次数
func (w *Writer[T]) Commits() int { return w.commits }

// Written 已提交的记录数
func (w *Writer[T]) Written() int64 { return w.written }

// Pending 尚未提交的记录数
func (w *Writer[T]) Pending() int { return len(w.buf) }
