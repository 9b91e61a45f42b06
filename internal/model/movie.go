package model

// Movie 电影（title.basics 中 titleType=movie 且非成人内容的条目）
type Movie struct {
	ID       string  `json:"id" db:"id" gorm:"primaryKey;type:varchar(10)"`
	Title    string  `json:"title" db:"title" gorm:"not null"`
	Year     *int16  `json:"year" db:"year" gorm:"type:smallint"`
	Director *string `json:"director" db:"director"` // 加载器从不写入，冲突更新时保留原值
}

func (Movie) TableName() string { return "movies" }

// Genre 类型，首次出现时创建
type Genre struct {
	ID   int    `json:"id" db:"id" gorm:"primaryKey"`
	Name string `json:"name" db:"name" gorm:"uniqueIndex"`
}

func (Genre) TableName() string { return "genres" }

// GenreLink 电影与类型的关联
type GenreLink struct {
	GenreID int    `json:"genre_id" db:"genre_id" gorm:"primaryKey;autoIncrement:false"`
	MovieID string `json:"movie_id" db:"movie_id" gorm:"primaryKey;type:varchar(10)"`
}

func (GenreLink) TableName() string { return "genres_in_movies" }

// GenreRequest 解析阶段产生的“电影 -> 类型名”请求，写入前再解析成 GenreLink
type GenreRequest struct {
	MovieID string
	Genre   string
}
