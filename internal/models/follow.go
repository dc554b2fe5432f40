package models

// Follow represents a subscription of User to Author.
// The (user, author) pair is unique.
type Follow struct {
	ID       int64 `gorm:"primaryKey;autoIncrement;column:id"`
	UserID   int64 `gorm:"not null;uniqueIndex:follows_user_author_ux,priority:1;column:user_id"`
	AuthorID int64 `gorm:"not null;uniqueIndex:follows_user_author_ux,priority:2;index;column:author_id"`

	// Relationships
	User   *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Author *User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
