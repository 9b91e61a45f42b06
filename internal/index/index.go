// Package index 提供加载演职员关系前的只读存在性快照。
//
// 快照在 BUILD_INDEX 阶段从存储中流式读取全部电影 id 与人物 id 构建，
// 只在 LOAD_CAST_LINKS 阶段内使用。构建之后存储的变化不会反映到快照中，
// 运行期间假定只有本加载器在写入。
package index

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// IDSource 按 id 流式遍历存储中的电影与人物
type IDSource interface {
	EachMovieID(ctx context.Context, fn func(id string) error) error
	EachPersonID(ctx context.Context, fn func(id string) error) error
}

// Snapshot 电影与人物 id 的集合
type Snapshot struct {
	movies  *idSet
	people  *idSet
	builtAt time.Time
}

// Build 从存储构建快照
func Build(ctx context.Context, src IDSource) (*Snapshot, error) {
	s := &Snapshot{movies: newIDSet("tt"), people: newIDSet("nm")}

	if err := src.EachMovieID(ctx, s.movies.add); err != nil {
		return nil, fmt.Errorf("读取电影 id: %w", err)
	}
	if err := src.EachPersonID(ctx, s.people.add); err != nil {
		return nil, fmt.Errorf("读取人物 id: %w", err)
	}
	s.builtAt = time.Now()
	return s, nil
}

// New 用给定的 id 构建快照
func New(movies, people []string) *Snapshot {
	s := &Snapshot{movies: newIDSet("tt"), people: newIDSet("nm"), builtAt: time.Now()}
	for _, id := range movies {
		_ = s.movies.add(id)
	}
	for _, id := range people {
		_ = s.people.add(id)
	}
	return s
}

func (s *Snapshot) HasMovie(id string) bool  { return s.movies.has(id) }
func (s *Snapshot) HasPerson(id string) bool { return s.people.has(id) }
func (s *Snapshot) Movies() int              { return s.movies.len() }
func (s *Snapshot) People() int              { return s.people.len() }
func (s *Snapshot) BuiltAt() time.Time       { return s.builtAt }

// idSet 前缀 + 数字的 id 以 uint32 存储，其余 id 原样存字符串
type idSet struct {
	prefix string
	nums   map[uint32]struct{}
	strs   map[string]struct{}
}

func newIDSet(prefix string) *idSet {
	return &idSet{
		prefix: prefix,
		nums:   make(map[uint32]struct{}),
		strs:   make(map[string]struct{}),
	}
}

func (s *idSet) key(id string) (uint32, bool) {
	if len(id) <= len(s.prefix) || id[:len(s.prefix)] != s.prefix {
		return 0, false
	}
	digits := id[len(s.prefix):]
	// 规范形式：7 位补零，或 8 位及以上且无前导零，保证字符串与数字一一对应
	if len(digits) < 7 || (len(digits) > 7 && digits[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func (s *idSet) add(id string) error {
	if n, ok := s.key(id); ok {
		s.nums[n] = struct{}{}
		return nil
	}
	s.strs[id] = struct{}{}
	return nil
}

func (s *idSet) has(id string) bool {
	if n, ok := s.key(id); ok {
		_, found := s.nums[n]
		return found
	}
	_, found := s.strs[id]
	return found
}

func (s *idSet) len() int { return len(s.nums) + len(s.strs) }
