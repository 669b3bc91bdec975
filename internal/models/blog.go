package models

import (
	"time"

	"gorm.io/gorm"
)

// BlogCategory groups blog posts.
type BlogCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"unique;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []BlogPost `gorm:"foreignKey:CategoryID" json:"posts,omitempty"`
}

// BlogPost is an admin-authored article.
type BlogPost struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Title      string        `gorm:"not null" json:"title"`
	Slug       string        `gorm:"unique;not null" json:"slug"`
	Content    string        `gorm:"type:text;not null" json:"content"`
	CategoryID *uint         `gorm:"index" json:"category_id,omitempty"`
	Category   *BlogCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AuthorID   uint          `gorm:"not null;index" json:"author_id"`
	Author     *User         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Published  bool          `gorm:"not null;default:true" json:"published"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
