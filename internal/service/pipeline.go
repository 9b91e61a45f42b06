package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/user/imdbloader/internal/apperr"
	"github.com/user/imdbloader/internal/batch"
	"github.com/user/imdbloader/internal/config"
	"github.com/user/imdbloader/internal/index"
	"github.com/user/imdbloader/internal/logger"
	"github.com/user/imdbloader/internal/metrics"
	"github.com/user/imdbloader/internal/tsv"
)

// Options 流水线参数
type Options struct {
	MoviesPath     string
	PeoplePath     string
	CastPath       string
	BatchSize      int
	QueueSize      int
	MinMovies      int
	MaxLineBytes   int
	GenreCacheSize int
}

// OptionsFromConfig 从配置构造流水线参数
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MoviesPath:   cfg.MoviesPath(),
		PeoplePath:   cfg.PeoplePath(),
		CastPath:     cfg.CastPath(),
		BatchSize:    cfg.BatchSize,
		QueueSize:    cfg.QueueSize,
		MinMovies:    cfg.MinMovies,
		MaxLineBytes: cfg.MaxLineBytes,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = batch.DefaultSize
	}
	if o.QueueSize <= 0 {
		o.QueueSize = config.DefaultQueueSize
	}
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = tsv.DefaultMaxLineBytes
	}
	if o.GenreCacheSize <= 0 {
		o.GenreCacheSize = defaultGenreCacheSize
	}
	return o
}

// Pipeline 批量加载流水线。阶段严格按顺序执行，不重试；
// 任一阶段失败即进入 FAILED，已提交的批次保留
type Pipeline struct {
	store   Store
	opts    Options
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewPipeline 创建流水线，metrics 可以为 nil
func NewPipeline(store Store, opts Options, log zerolog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{store: store, opts: opts.withDefaults(), log: log, metrics: m}
}

// step 一个阶段的执行函数
type step struct {
	stage Stage
	run   func(ctx context.Context, res *StageResult) error
}

// run 单次运行的状态
type run struct {
	*Pipeline
	env       runEnv
	log       zerolog.Logger
	report    *Report
	snapshot  *index.Snapshot
	optimized bool // 索引已删除且尚未恢复
}

func (p *Pipeline) newRun(mode string) *run {
	id := uuid.NewString()
	log := p.log.With().Str("run_id", id).Logger()
	return &run{
		Pipeline: p,
		env:      runEnv{log: log, metrics: p.metrics, opts: p.opts},
		log:      logger.Component(log, "pipeline"),
		report:   &Report{RunID: id, Mode: mode, State: StageInit},
	}
}

// Run 完整加载：
// INIT → OPTIMIZE → LOAD_PEOPLE → LOAD_MOVIES → BUILD_INDEX → LOAD_CAST_LINKS → RESTORE_INDEXES → VERIFY → DONE
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	r := p.newRun("full")
	return r.execute(ctx, []step{
		{StageOptimize, r.optimize},
		{StageLoadPeople, func(ctx context.Context, res *StageResult) error {
			return loadPeople(ctx, r.env, r.store, res)
		}},
		{StageLoadMovies, func(ctx context.Context, res *StageResult) error {
			return loadMovies(ctx, r.env, r.store, res)
		}},
		{StageBuildIndex, r.buildIndex},
		{StageLoadCast, func(ctx context.Context, res *StageResult) error {
			return loadCast(ctx, r.env, r.store, r.snapshot, false, res)
		}},
		{StageRestore, r.restore},
		{StageVerify, r.verify},
	})
}

// RunCastOnly 只重建出演关系：按当前存储内容构建存在性索引后加载 title.principals
func (p *Pipeline) RunCastOnly(ctx context.Context) (*Report, error) {
	r := p.newRun("cast")
	return r.execute(ctx, []step{
		{StageBuildIndex, r.buildIndex},
		{StageLoadCast, func(ctx context.Context, res *StageResult) error {
			return loadCast(ctx, r.env, r.store, r.snapshot, true, res)
		}},
	})
}

// RestoreIndexes 单独执行索引恢复，可重复执行
func (p *Pipeline) RestoreIndexes(ctx context.Context) (*Report, error) {
	r := p.newRun("restore-indexes")
	return r.execute(ctx, []step{{StageRestore, r.restore}})
}

func (r *run) execute(ctx context.Context, steps []step) (*Report, error) {
	r.report.Started = time.Now()
	r.log.Info().Str("mode", r.report.Mode).Msg("开始运行")

	for _, s := range steps {
		r.transition(s.stage)
		res := &StageResult{Stage: s.stage}
		r.report.Stages = append(r.report.Stages, res)

		start := time.Now()
		err := ctx.Err()
		if err == nil {
			err = s.run(ctx, res)
		}
		res.Duration = time.Since(start)
		r.metrics.Stage(string(s.stage), res.Duration)

		if err != nil {
			res.Err = err
			return r.fail(ctx, s.stage, err)
		}
		r.log.Info().
			Str("stage", string(s.stage)).
			Int64("processed", res.Processed).
			Int64("written", res.Written).
			Int64("skipped", res.SkippedTotal()).
			Dur("elapsed", res.Duration).
			Msg("阶段完成")
	}

	r.transition(StageDone)
	r.report.Finished = time.Now()
	r.metrics.Succeeded(r.report.Finished)
	r.log.Info().Dur("total", r.report.Duration()).Msg("运行完成")
	return r.report, nil
}

func (r *run) fail(ctx context.Context, stage Stage, err error) (*Report, error) {
	r.report.Err = &apperr.StageError{Stage: string(stage), Err: err}
	r.log.Error().Err(err).Str("stage", string(stage)).Msg("阶段失败")

	// 索引已被删除时尽量恢复；运行被取消时不再做耗时操作
	if r.optimized {
		if ctx.Err() != nil {
			r.log.Warn().Msg("运行已取消，二级索引未恢复，请执行 restore-indexes")
		} else if rerr := r.store.RestoreSecondaryIndexes(ctx); rerr != nil {
			r.log.Error().Err(rerr).Msg("失败后恢复二级索引也失败，请执行 restore-indexes")
		} else {
			r.optimized = false
			r.report.IndexesRestoredAfterFailure = true
			r.log.Info().Msg("失败后已恢复二级索引")
		}
	}

	r.transition(StageFailed)
	r.report.Finished = time.Now()
	return r.report, r.report.Err
}

func (r *run) transition(next Stage) {
	r.log.Debug().Str("from", string(r.report.State)).Str("to", string(next)).Msg("阶段切换")
	r.report.State = next
}

func (r *run) optimize(ctx context.Context, res *StageResult) error {
	if err := r.store.DropSecondaryIndexes(ctx); err != nil {
		return err
	}
	r.optimized = true
	res.Note = "已删除二级索引"
	return nil
}

func (r *run) buildIndex(ctx context.Context, res *StageResult) error {
	snap, err := buildIndex(ctx, r.env, r.store, res)
	if err != nil {
		return err
	}
	r.snapshot = snap
	return nil
}

func (r *run) restore(ctx context.Context, res *StageResult) error {
	if err := r.store.RestoreSecondaryIndexes(ctx); err != nil {
		return err
	}
	r.optimized = false
	if err := r.store.Analyze(ctx); err != nil {
		return err
	}
	res.Note = "已重建二级索引并更新统计信息"
	return nil
}

func (r *run) verify(ctx context.Context, res *StageResult) error {
	v, err := Verify(ctx, r.store, r.opts.MinMovies, logger.Component(r.env.log, "verify"))
	if err != nil {
		return err
	}
	r.report.Verification = v
	if len(v.Warnings) > 0 {
		res.Note = v.Warnings[0]
	}
	return nil
}
