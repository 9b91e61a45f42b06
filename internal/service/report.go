package service

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/user/imdbloader/internal/parser"
)

// Report 一次运行的结果，失败时同样完整
type Report struct {
	RunID        string
	Mode         string
	State        Stage
	Started      time.Time
	Finished     time.Time
	Stages       []*StageResult
	Verification *Verification
	Err          error

	IndexesRestoredAfterFailure bool
}

// Duration 总耗时
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}

// Stage 查找某个阶段的结果
func (r *Report) Stage(s Stage) *StageResult {
	for _, res := range r.Stages {
		if res.Stage == s {
			return res
		}
	}
	return nil
}

// Print 输出人类可读的汇总
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "运行 %s (%s) 状态: %s  总耗时: %s\n", r.RunID, r.Mode, r.State, r.Duration().Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "阶段\t读取\t写入\t关联\t批次\t格式错误\t已过滤\t悬空引用\t耗时\t备注")
	for _, res := range r.Stages {
		note := res.Note
		if res.Err != nil {
			note = "失败: " + res.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			res.Stage, res.Processed, res.Written, res.Linked, res.Batches,
			res.Skipped[parser.MalformedLine], res.Skipped[parser.FilteredOut], res.Skipped[parser.DanglingReference],
			res.Duration.Round(time.Millisecond), note)
	}
	tw.Flush()

	if v := r.Verification; v != nil {
		s := v.Summary
		fmt.Fprintf(w, "电影: %d  演员: %d  类型: %d  有类型的电影: %d  有演员的电影: %d\n",
			s.Movies, s.People, s.Genres, s.MoviesWithGenres, s.MoviesWithCast)
		for _, warn := range v.Warnings {
			fmt.Fprintf(w, "警告: %s\n", warn)
		}
	}
	if r.IndexesRestoredAfterFailure {
		fmt.Fprintln(w, "失败后已恢复二级索引")
	}
	if r.Err != nil {
		fmt.Fprintf(w, "错误: %v\n", r.Err)
	}
}
