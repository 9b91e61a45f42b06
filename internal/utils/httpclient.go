package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/user/imdbloader/internal/apperr"
)

const defaultUserAgent = "imdbloader/1.0 (+https://developer.imdb.com/non-commercial-datasets/)"

// HTTPClient 数据集下载客户端
type HTTPClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient 创建下载客户端。数据集文件很大，timeout 只限制建立连接与响应头
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &HTTPClient{
		httpClient: &http.Client{Transport: transport},
		userAgent:  defaultUserAgent,
	}
}

// Download 把 url 下载到 dest。先写同目录下的临时文件，完成后再重命名，
// 失败或取消时不会留下不完整的文件。返回写入的字节数
func (c *HTTPClient) Download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	// 文件本身已压缩，不要传输层再解压一次
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &apperr.IOError{Op: "download", Path: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, &apperr.IOError{Op: "download", Path: url, Err: fmt.Errorf("请求失败，状态码: %d", resp.StatusCode)}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, &apperr.IOError{Op: "mkdir", Path: filepath.Dir(dest), Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return 0, &apperr.IOError{Op: "create", Path: dest, Err: err}
	}
	defer os.Remove(tmp.Name()) // 重命名成功后这里什么都不做

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, &apperr.IOError{Op: "download", Path: url, Err: err}
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, &apperr.IOError{Op: "download", Path: url, Err: fmt.Errorf("长度不符: 期望 %d，实际 %d", resp.ContentLength, n)}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return n, &apperr.IOError{Op: "rename", Path: dest, Err: err}
	}
	return n, nil
}
