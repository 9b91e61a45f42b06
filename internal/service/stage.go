package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/user/imdbloader/internal/metrics"
	"github.com/user/imdbloader/internal/parser"
	"github.com/user/imdbloader/internal/tsv"
	"golang.org/x/sync/errgroup"
)

// Stage 流水线阶段
type Stage string

const (
	StageInit       Stage = "INIT"
	StageOptimize   Stage = "OPTIMIZE"
	StageLoadPeople Stage = "LOAD_PEOPLE"
	StageLoadMovies Stage = "LOAD_MOVIES"
	StageBuildIndex Stage = "BUILD_INDEX"
	StageLoadCast   Stage = "LOAD_CAST_LINKS"
	StageRestore    Stage = "RESTORE_INDEXES"
	StageVerify     Stage = "VERIFY"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// StageResult 单个阶段的结果
type StageResult struct {
	Stage     Stage
	File      string
	Omitted   bool // 可选文件不存在，阶段被跳过
	Processed int64
	Written   int64
	Linked    int64 // 依赖行，目前只有电影类型关联
	Batches   int
	Skipped   map[parser.SkipReason]int64
	Note      string
	Duration  time.Duration
	Err       error
}

// SkippedTotal 跳过的总行数
func (r *StageResult) SkippedTotal() int64 {
	var n int64
	for _, v := range r.Skipped {
		n += v
	}
	return n
}

// runEnv 单次运行的上下文
type runEnv struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
	opts    Options
}

const (
	// 每提交多少批打一条 info 级别的进度日志
	progressEveryBatches = 100
	// 连续跳过的行不会经过通道，按行数检查取消
	cancelCheckLines = 4096
)

// progress 返回批次提交回调：记录指标并定期输出进度
func (e runEnv) progress(log zerolog.Logger, entity string) func(int) {
	var batches int
	var rows int64
	return func(n int) {
		batches++
		rows += int64(n)
		e.metrics.Commit(entity, n)
		ev := log.Debug()
		if batches%progressEveryBatches == 0 {
			ev = log.Info()
		}
		ev.Str("entity", entity).Int("batches", batches).Int64("rows", rows).Msg("批次已提交")
	}
}

// fileMissing 判断可选输入文件是否不存在
func fileMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

// streamFile 一个 goroutine 负责解码与解析，另一个 goroutine 独占写入器，
// 中间是有界通道。任一方出错都会取消另一方；写入顺序与文件顺序一致。
func streamFile[T any](
	ctx context.Context,
	env runEnv,
	res *StageResult,
	dataset string,
	parse func(line string) parser.Result[T],
	consume func(ctx context.Context, rec T) error,
) error {
	r, err := tsv.Open(res.File, tsv.WithMaxLineBytes(env.opts.MaxLineBytes))
	if err != nil {
		return err
	}
	defer r.Close()

	var processed int64
	skipped := make(map[parser.SkipReason]int64)
	queue := make(chan T, env.opts.QueueSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(queue)
		for r.Next() {
			processed++
			if processed%cancelCheckLines == 0 && gctx.Err() != nil {
				return gctx.Err()
			}
			out := parse(r.Line())
			if !out.Ok() {
				skipped[out.Skip]++
				continue
			}
			select {
			case queue <- out.Record:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return r.Err()
	})
	g.Go(func() error {
		for rec := range queue {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := consume(gctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	err = g.Wait()

	res.Processed = processed
	res.Skipped = skipped
	env.metrics.Read(dataset, processed, skipCounts(skipped))
	if err != nil {
		return err
	}
	// 文件读完且写入全部成功，ctx 若在此期间被取消也视为失败
	return ctx.Err()
}

func skipCounts(m map[parser.SkipReason]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
