package model

// Summary 加载完成后的只读统计
type Summary struct {
	Movies           int64 `json:"movies"`
	People           int64 `json:"people"`
	Genres           int64 `json:"genres"`             // genres_in_movies 中出现过的不同类型数
	MoviesWithGenres int64 `json:"movies_with_genres"` // 至少有一个类型的电影
	MoviesWithCast   int64 `json:"movies_with_cast"`   // 至少有一个演员的电影
	GenreLinks       int64 `json:"genre_links"`
	CastLinks        int64 `json:"cast_links"`
}
