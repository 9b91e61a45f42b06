package tsv

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/imdbloader/internal/apperr"
)

const sample = "tconst\ttitleType\tprimaryTitle\n" +
	"tt1\tmovie\tFoo\n" +
	"tt2\tshort\tBar\r\n" +
	"tt3\tmovie\tBaz\n"

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var lines []string
	for r.Next() {
		lines = append(lines, r.Line())
	}
	return lines
}

func TestReaderGzip(t *testing.T) {
	path := writeFile(t, "title.basics.tsv.gz", gzipBytes(t, sample))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	lines := readAll(t, r)
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"tt1\tmovie\tFoo", "tt2\tshort\tBar", "tt3\tmovie\tBaz"}, lines)
	assert.Equal(t, 4, r.LineNo())
}

func TestReaderZstd(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := Open(writeFile(t, "title.basics.tsv.zst", buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	assert.Len(t, readAll(t, r), 3)
	assert.NoError(t, r.Err())
}

func TestReaderPlain(t *testing.T) {
	r, err := Open(writeFile(t, "title.basics.tsv", []byte(sample)))
	require.NoError(t, err)
	defer r.Close()

	lines := readAll(t, r)
	assert.Equal(t, "tt1\tmovie\tFoo", lines[0])
}

func TestReaderHeaderOnly(t *testing.T) {
	r, err := Open(writeFile(t, "empty.tsv.gz", gzipBytes(t, "tconst\ttitleType\n")))
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestReaderMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.tsv.gz"))

	var ioErr *apperr.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReaderNotGzip(t *testing.T) {
	_, err := Open(writeFile(t, "bad.tsv.gz", []byte("plain text, not gzip")))

	var ioErr *apperr.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "decompress", ioErr.Op)
}

func TestReaderTruncatedGzip(t *testing.T) {
	body := sample + strings.Repeat("tt9\tmovie\tFiller\n", 5000)
	data := gzipBytes(t, body)

	r, err := Open(writeFile(t, "cut.tsv.gz", data[:len(data)/2]))
	require.NoError(t, err)
	defer r.Close()

	n := len(readAll(t, r))
	assert.Less(t, n, 5003)

	var ioErr *apperr.IOError
	require.ErrorAs(t, r.Err(), &ioErr)
	assert.Equal(t, "read", ioErr.Op)
	assert.False(t, r.Next(), "reader stays finished after an error")
}

func TestReaderLineTooLong(t *testing.T) {
	long := "tt1\t" + strings.Repeat("x", 10000) + "\n"
	r, err := Open(writeFile(t, "long.tsv", []byte("h\n"+long)), WithMaxLineBytes(4096))
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Next())
	assert.Error(t, r.Err())
}

func TestReaderInvalidUTF8(t *testing.T) {
	r, err := Open(writeFile(t, "latin1.tsv", []byte("h\nnm1\tJos\xe9\n")))
	require.NoError(t, err)
	defer r.Close()

	require.True(t, r.Next())
	assert.Equal(t, "nm1\tJos\uFFFD", r.Line())
}

func TestReaderCloseTwice(t *testing.T) {
	r, err := Open(writeFile(t, "x.tsv.gz", gzipBytes(t, sample)))
	require.NoError(t, err)

	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
	assert.False(t, r.Next())
}
