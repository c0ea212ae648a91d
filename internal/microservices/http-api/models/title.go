package models

type Title struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"size:50;not null"`
	Year        *int   `json:"year,omitempty" gorm:"index"`
	Description string `json:"description" gorm:"type:text;not null;default:''"`
	CategoryID  *int64 `json:"category_id,omitempty" gorm:"index"`

	// Rating is the mean review score, filled by read queries only.
	Rating *float64 `json:"rating" gorm:"->;-:migration"`

	// Associations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Genres   []Genre   `json:"genre,omitempty" gorm:"many2many:title_genres;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}
