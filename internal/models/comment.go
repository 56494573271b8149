package models

type Comment struct {
	BaseModel

	IssueID string `gorm:"type:varchar(36);not null;index"`
	UserID  string `gorm:"type:varchar(36);not null;index"`
	Content string `gorm:"type:text;not null"`

	// Relationships
	User *User `gorm:"foreignKey:UserID"`
}
