package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/user/imdbloader/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Downloader 下载单个文件
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// FetchTarget 一个待下载的数据集
type FetchTarget struct {
	Dataset string
	Dest    string
}

// FetchResult 单个数据集的下载结果
type FetchResult struct {
	Dataset  string
	URL      string
	Dest     string
	Bytes    int64
	Duration time.Duration
}

// FetchTargets 加载所需的三个数据集，落到配置的文件路径
func FetchTargets(opts Options) []FetchTarget {
	return []FetchTarget{
		{Dataset: datasetPeople, Dest: opts.PeoplePath},
		{Dataset: datasetMovies, Dest: opts.MoviesPath},
		{Dataset: datasetCast, Dest: opts.CastPath},
	}
}

// DatasetURL 数据集在下载站点上的地址
func DatasetURL(baseURL, dataset string) string {
	return strings.TrimRight(baseURL, "/") + "/" + dataset + ".tsv.gz"
}

// FetchDatasets 并行下载数据集。任意一个失败会取消其余下载，
// 已经完成的文件保留
func FetchDatasets(ctx context.Context, d Downloader, baseURL string, targets []FetchTarget, log zerolog.Logger) ([]FetchResult, error) {
	log = logger.Component(log, "fetch")
	results := make([]FetchResult, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			url := DatasetURL(baseURL, t.Dataset)
			log.Info().Str("dataset", t.Dataset).Str("url", url).Msg("开始下载")
			started := time.Now()
			n, err := d.Download(ctx, url, t.Dest)
			if err != nil {
				log.Error().Err(err).Str("dataset", t.Dataset).Msg("下载失败")
				return err
			}
			results[i] = FetchResult{Dataset: t.Dataset, URL: url, Dest: t.Dest, Bytes: n, Duration: time.Since(started)}
			log.Info().
				Str("dataset", t.Dataset).
				Str("file", t.Dest).
				Int64("bytes", n).
				Dur("elapsed", results[i].Duration).
				Msg("下载完成")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
