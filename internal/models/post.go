package models

import (
	"time"
)

// Post represents an authored text entry
type Post struct {
	ID       int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Text     string    `gorm:"type:text;not null;column:text"`
	PubDate  time.Time `gorm:"not null;autoCreateTime;index:posts_pub_date_idx;column:pub_date"`
	Image    string    `gorm:"type:varchar(100);not null;default:'';column:image"`
	GroupID  *int64    `gorm:"index;column:group_id"`
	AuthorID int64     `gorm:"not null;index;column:author_id"`

	// Relationships
	Group  *Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE"`
	Author *User  `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// PostOrder is the default listing order: newest first
const PostOrder = "posts.pub_date DESC, posts.id DESC"

// HasImage reports whether an image was uploaded for the post
func (p Post) HasImage() bool {
	return p.Image != ""
}

func (p Post) String() string {
	return p.Text
}
