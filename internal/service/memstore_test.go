package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/user/imdbloader/internal/apperr"
	"github.com/user/imdbloader/internal/model"
)

// memStore 内存实现的 Store。关联表会检查外键，批次失败时不做任何修改
type memStore struct {
	mu sync.Mutex

	movies     map[string]model.Movie
	people     map[string]model.Person
	genres     map[string]int
	genreLinks map[model.GenreLink]struct{}
	castLinks  map[model.CastLink]struct{}

	commits map[string][]int // entity -> 每次提交的行数
	order   []string         // 提交顺序

	indexesPresent bool
	drops          int
	restores       int
	analyzes       int

	failEntity string // 该 entity 第 failAfter+1 次提交时失败
	failAfter  int
}

func newMemStore() *memStore {
	return &memStore{
		movies:         make(map[string]model.Movie),
		people:         make(map[string]model.Person),
		genres:         make(map[string]int),
		genreLinks:     make(map[model.GenreLink]struct{}),
		castLinks:      make(map[model.CastLink]struct{}),
		commits:        make(map[string][]int),
		indexesPresent: true,
	}
}

var errInjected = errors.New("injected failure")

func (s *memStore) begin(entity string) error {
	if s.failEntity == entity && len(s.commits[entity]) >= s.failAfter {
		return &apperr.StoreError{Op: "insert " + entity, Code: "57014", Err: errInjected}
	}
	return nil
}

func (s *memStore) commit(entity string, n int) {
	s.commits[entity] = append(s.commits[entity], n)
	s.order = append(s.order, entity)
}

func (s *memStore) UpsertPeople(ctx context.Context, people []model.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("stars"); err != nil {
		return err
	}
	for _, p := range people {
		s.people[p.ID] = p
	}
	s.commit("stars", len(people))
	return nil
}

func (s *memStore) UpsertMovies(ctx context.Context, movies []model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("movies"); err != nil {
		return err
	}
	for _, m := range movies {
		if old, ok := s.movies[m.ID]; ok {
			m.Director = old.Director
		} else {
			m.Director = nil
		}
		s.movies[m.ID] = m
	}
	s.commit("movies", len(movies))
	return nil
}

func (s *memStore) EnsureGenres(ctx context.Context, names []string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("genres"); err != nil {
		return nil, err
	}
	ids := make(map[string]int, len(names))
	for _, n := range names {
		id, ok := s.genres[n]
		if !ok {
			id = len(s.genres) + 1
			s.genres[n] = id
		}
		ids[n] = id
	}
	s.commit("genres", len(names))
	return ids, nil
}

func (s *memStore) InsertGenreLinks(ctx context.Context, links []model.GenreLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("genres_in_movies"); err != nil {
		return err
	}
	for _, l := range links {
		if _, ok := s.movies[l.MovieID]; !ok {
			return &apperr.StoreError{Op: "insert genre links", Code: "23503", Err: fmt.Errorf("movie %s missing", l.MovieID)}
		}
		if !s.hasGenreID(l.GenreID) {
			return &apperr.StoreError{Op: "insert genre links", Code: "23503", Err: fmt.Errorf("genre %d missing", l.GenreID)}
		}
	}
	for _, l := range links {
		s.genreLinks[l] = struct{}{}
	}
	s.commit("genres_in_movies", len(links))
	return nil
}

func (s *memStore) hasGenreID(id int) bool {
	for _, v := range s.genres {
		if v == id {
			return true
		}
	}
	return false
}

func (s *memStore) InsertCastLinks(ctx context.Context, links []model.CastLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("stars_in_movies"); err != nil {
		return err
	}
	for _, l := range links {
		_, movieOK := s.movies[l.MovieID]
		_, starOK := s.people[l.StarID]
		if !movieOK || !starOK {
			return &apperr.StoreError{Op: "insert cast links", Code: "23503", Err: fmt.Errorf("%s/%s dangling", l.StarID, l.MovieID)}
		}
	}
	for _, l := range links {
		s.castLinks[l] = struct{}{}
	}
	s.commit("stars_in_movies", len(links))
	return nil
}

func (s *memStore) EachMovieID(ctx context.Context, fn func(string) error) error {
	s.mu.Lock()
	ids := sortedIDs(s.movies)
	s.mu.Unlock()
	return each(ids, fn)
}

func (s *memStore) EachPersonID(ctx context.Context, fn func(string) error) error {
	s.mu.Lock()
	ids := sortedIDs(s.people)
	s.mu.Unlock()
	return each(ids, fn)
}

func each(ids []string, fn func(string) error) error {
	for _, id := range ids {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) DropSecondaryIndexes(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("drop"); err != nil {
		return err
	}
	s.drops++
	s.indexesPresent = false
	return nil
}

func (s *memStore) RestoreSecondaryIndexes(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("restore"); err != nil {
		return err
	}
	s.restores++
	s.indexesPresent = true
	return nil
}

func (s *memStore) Analyze(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzes++
	return nil
}

func (s *memStore) Summary(ctx context.Context) (model.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	genreIDs := make(map[int]struct{})
	withGenres := make(map[string]struct{})
	for l := range s.genreLinks {
		genreIDs[l.GenreID] = struct{}{}
		withGenres[l.MovieID] = struct{}{}
	}
	withCast := make(map[string]struct{})
	for l := range s.castLinks {
		withCast[l.MovieID] = struct{}{}
	}
	return model.Summary{
		Movies:           int64(len(s.movies)),
		People:           int64(len(s.people)),
		Genres:           int64(len(genreIDs)),
		MoviesWithGenres: int64(len(withGenres)),
		MoviesWithCast:   int64(len(withCast)),
		GenreLinks:       int64(len(s.genreLinks)),
		CastLinks:        int64(len(s.castLinks)),
	}, nil
}

// contents 持久化内容的快照，用于比较两次运行
func (s *memStore) contents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, id := range sortedIDs(s.movies) {
		m := s.movies[id]
		fmt.Fprintf(&b, "m %s|%s|%s\n", m.ID, m.Title, yearString(m.Year))
	}
	for _, id := range sortedIDs(s.people) {
		p := s.people[id]
		fmt.Fprintf(&b, "p %s|%s|%s\n", p.ID, p.Name, yearString(p.BirthYear))
	}
	fmt.Fprintln(&b, s.genres, s.genreLinks, s.castLinks)
	return b.String()
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func yearString(y *int16) string {
	if y == nil {
		return "NULL"
	}
	return fmt.Sprint(*y)
}
