package models

// FlatPage is a static page managed from the admin
type FlatPage struct {
	ID      int64  `gorm:"primaryKey;autoIncrement;column:id"`
	URL     string `gorm:"type:varchar(100);not null;uniqueIndex:flatpages_url_ux;column:url"`
	Title   string `gorm:"type:varchar(200);not null;column:title"`
	Content string `gorm:"type:text;not null;default:'';column:content"`
}

// TableName specifies the table name for FlatPage
func (FlatPage) TableName() string {
	return "flatpages"
}

// All lists every model owned by the schema, in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&Post{},
		&Comment{},
		&Follow{},
		&FlatPage{},
	}
}
