package models

import "time"

type Comment struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID string    `json:"author_id" gorm:"type:uuid;not null;index"`
	ReviewID int64     `json:"review_id" gorm:"not null;index"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`

	// Associations
	Author User   `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Review Review `json:"-" gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE;"`
}

func (Comment) TableName() string {
	return "comments"
}
