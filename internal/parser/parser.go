// Package parser 把数据集中的一行转换成待写入的记录，或给出跳过原因。
//
// 每个解析函数依次执行：列数检查（MalformedLine）、数据集过滤（FilteredOut）、
// \N 占位符转为空值、整数解析失败转为空值。单行问题只会产生跳过，不会返回错误。
package parser

import (
	"strconv"
	"strings"

	"github.com/user/imdbloader/internal/model"
)

// Delimiter 数据集的列分隔符
const Delimiter = "\t"

// NullToken 数据集中表示“无值”的占位符
const NullToken = `\N`

// SkipReason 跳过原因
type SkipReason string

const (
	MalformedLine     SkipReason = "MALFORMED_LINE"
	FilteredOut       SkipReason = "FILTERED_OUT"
	DanglingReference SkipReason = "DANGLING_REFERENCE"
)

// SkipReasons 所有跳过原因，按固定顺序
var SkipReasons = []SkipReason{MalformedLine, FilteredOut, DanglingReference}

// Result 要么携带 Record，要么携带 Skip
type Result[T any] struct {
	Record T
	Skip   SkipReason
}

// Ok 是否产出了记录
func (r Result[T]) Ok() bool { return r.Skip == "" }

func keep[T any](rec T) Result[T] { return Result[T]{Record: rec} }

func skip[T any](reason SkipReason) Result[T] { return Result[T]{Skip: reason} }

// 各文件的最少列数
const (
	movieColumns  = 9
	personColumns = 6
	castColumns   = 4
)

// RoleFilter 判断职业/类别字段是否属于演员
type RoleFilter func(field string) bool

// ProfessionSubstring 用于 name.basics 的 primaryProfession：
// 原样（区分大小写）包含子串 actor 或 actress 即命中，像 "factory_actor" 这样的值也会命中。
func ProfessionSubstring(field string) bool {
	return strings.Contains(field, "actor") || strings.Contains(field, "actress")
}

// CategoryExact 用于 title.principals 的 category：必须恰好是 actor 或 actress
func CategoryExact(field string) bool {
	return field == "actor" || field == "actress"
}

// Lookup 存在性查询，由 index.Snapshot 实现
type Lookup interface {
	HasMovie(id string) bool
	HasPerson(id string) bool
}

// MovieRow 一部电影及其类型请求
type MovieRow struct {
	Movie  model.Movie
	Genres []model.GenreRequest
}

// ParseMovie 解析 title.basics：
// tconst, titleType, primaryTitle, originalTitle, isAdult, startYear, endYear, runtimeMinutes, genres
func ParseMovie(line, delim string) Result[MovieRow] {
	f := strings.Split(line, delim)
	if len(f) < movieColumns {
		return skip[MovieRow](MalformedLine)
	}
	if f[1] != "movie" || f[4] == "1" {
		return skip[MovieRow](FilteredOut)
	}

	row := MovieRow{Movie: model.Movie{
		ID:    f[0],
		Title: f[2],
		Year:  optionalInt16(f[5]),
	}}
	if f[8] != NullToken {
		for _, g := range strings.Split(f[8], ",") {
			g = strings.TrimSpace(g)
			if g == "" || g == NullToken {
				continue
			}
			row.Genres = append(row.Genres, model.GenreRequest{MovieID: row.Movie.ID, Genre: g})
		}
	}
	return keep(row)
}

// ParsePerson 解析 name.basics：
// nconst, primaryName, birthYear, deathYear, primaryProfession, knownForTitles
func ParsePerson(line, delim string, isActor RoleFilter) Result[model.Person] {
	f := strings.Split(line, delim)
	if len(f) < personColumns {
		return skip[model.Person](MalformedLine)
	}
	if !isActor(f[4]) {
		return skip[model.Person](FilteredOut)
	}
	return keep(model.Person{
		ID:        f[0],
		Name:      f[1],
		BirthYear: optionalInt16(f[2]),
	})
}

// ParseCast 解析 title.principals：tconst, ordering, nconst, category, ...
// 两端 id 必须都已存在，否则跳过为 DanglingReference
func ParseCast(line, delim string, isActor RoleFilter, idx Lookup) Result[model.CastLink] {
	f := strings.Split(line, delim)
	if len(f) < castColumns {
		return skip[model.CastLink](MalformedLine)
	}
	if !isActor(f[3]) {
		return skip[model.CastLink](FilteredOut)
	}
	movieID, starID := f[0], f[2]
	if !idx.HasMovie(movieID) || !idx.HasPerson(starID) {
		return skip[model.CastLink](DanglingReference)
	}
	return keep(model.CastLink{StarID: starID, MovieID: movieID})
}

// optionalInt16 \N、空串或无法解析（含越界）都视为无值
func optionalInt16(s string) *int16 {
	if s == "" || s == NullToken {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return nil
	}
	v := int16(n)
	return &v
}
