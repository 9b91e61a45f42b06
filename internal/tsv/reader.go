// Package tsv 逐行解码压缩的 TSV 数据集文件（.gz / .zst / 未压缩）。
//
// Reader 是惰性的、只能向前的行迭代器：表头行在 Open 时丢弃，之后每次 Next
// 产出一行去掉行尾换行符的 UTF-8 文本。读取或解压失败时 Next 返回 false，
// Err 返回 *apperr.IOError。Reader 不可重置，重新读取需要再次 Open。
package tsv

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/user/imdbloader/internal/apperr"
)

// DefaultMaxLineBytes 单行最大长度
const DefaultMaxLineBytes = 1 << 20

const readBufferSize = 256 << 10

// Option 配置 Reader
type Option func(*Reader)

// WithMaxLineBytes 调整单行上限，超长行视为流错误
func WithMaxLineBytes(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// Reader 数据集行读取器
type Reader struct {
	path    string
	file    *os.File
	closeFn func() error
	scanner *bufio.Scanner
	maxLine int

	line   string
	lineNo int
	err    error
}

// Open 打开文件并跳过表头。压缩格式由扩展名决定
func Open(path string, opts ...Option) (*Reader, error) {
	r := &Reader{path: path, maxLine: DefaultMaxLineBytes}
	for _, opt := range opts {
		opt(r)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &apperr.IOError{Op: "open", Path: path, Err: err}
	}
	r.file = f

	src, closeFn, err := decompressor(path, bufio.NewReaderSize(f, readBufferSize))
	if err != nil {
		f.Close()
		return nil, &apperr.IOError{Op: "decompress", Path: path, Err: err}
	}
	r.closeFn = closeFn

	r.scanner = bufio.NewScanner(src)
	initial := 64 << 10
	if initial > r.maxLine {
		initial = r.maxLine
	}
	r.scanner.Buffer(make([]byte, initial), r.maxLine)

	// 表头
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.Close()
			return nil, r.wrap(err)
		}
	}
	r.lineNo = 1
	return r, nil
}

func decompressor(path string, src io.Reader) (io.Reader, func() error, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	default:
		return src, func() error { return nil }, nil
	}
}

// Next 前进到下一行数据
func (r *Reader) Next() bool {
	if r.err != nil || r.scanner == nil {
		return false
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = r.wrap(err)
		}
		return false
	}
	line := r.scanner.Text()
	line = strings.TrimSuffix(line, "\r")
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "\uFFFD")
	}
	r.line = line
	r.lineNo++
	return true
}

// Line 当前行（不含换行符）
func (r *Reader) Line() string { return r.line }

// LineNo 当前行号，表头为第 1 行
func (r *Reader) LineNo() int { return r.lineNo }

// Path 源文件路径
func (r *Reader) Path() string { return r.path }

// Err 返回导致迭代结束的错误，正常读到末尾时为 nil
func (r *Reader) Err() error { return r.err }

// Close 释放解压器与文件句柄，可重复调用
func (r *Reader) Close() error {
	var errs []error
	if r.closeFn != nil {
		errs = append(errs, r.closeFn())
		r.closeFn = nil
	}
	if r.file != nil {
		errs = append(errs, r.file.Close())
		r.file = nil
	}
	r.scanner = nil
	if err := errors.Join(errs...); err != nil {
		return &apperr.IOError{Op: "close", Path: r.path, Err: err}
	}
	return nil
}

func (r *Reader) wrap(err error) error {
	return &apperr.IOError{Op: "read", Path: r.path, Err: err}
}
