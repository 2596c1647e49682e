package models

// Genre is a shelf label; books join genres through book_genres.
type Genre struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:191;uniqueIndex;not null"`
}

func (Genre) TableName() string {
	return "genres"
}

// GenreShelf is a genre with the number of titles filed under it.
type GenreShelf struct {
	ID        int64  `gorm:"column:id"`
	Name      string `gorm:"column:name"`
	BookCount int64  `gorm:"column:book_count"`
}
