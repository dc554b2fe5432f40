package models

import (
	"time"
)

// Comment is a reply left under a post
type Comment struct {
	ID       int64     `gorm:"primaryKey;autoIncrement;column:id"`
	PostID   int64     `gorm:"not null;index;column:post_id"`
	AuthorID int64     `gorm:"not null;index;column:author_id"`
	Text     string    `gorm:"type:text;not null;column:text"`
	Created  time.Time `gorm:"not null;autoCreateTime;column:created"`

	// Relationships
	Post   *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
	Author *User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// CommentOrder is the default listing order: newest first
const CommentOrder = "comments.created DESC, comments.id DESC"

func (c Comment) String() string {
	return c.Text
}
