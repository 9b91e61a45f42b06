package model

// Person 演员（name.basics 中职业包含 actor/actress 的人物）
type Person struct {
	ID        string `json:"id" db:"id" gorm:"primaryKey;type:varchar(10)"`
	Name      string `json:"name" db:"name" gorm:"not null"`
	BirthYear *int16 `json:"birth_year" db:"birth_year" gorm:"type:smallint"`
}

func (Person) TableName() string { return "stars" }

// CastLink 演员出演关系（title.principals）
type CastLink struct {
	StarID  string `json:"star_id" db:"star_id" gorm:"primaryKey;type:varchar(10)"`
	MovieID string `json:"movie_id" db:"movie_id" gorm:"primaryKey;type:varchar(10)"`
}

func (CastLink) TableName() string { return "stars_in_movies" }
