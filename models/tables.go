package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type User struct {
	ID           int    `gorm:"primary_key;autoIncrement" json:"id"`
	PasswordHash string `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	Email        string `gorm:"unique;not null" json:"email"`
}

type Post struct {
	ID       uint   `gorm:"primary_key" json:"id"`
	Title    string `gorm:"size:250" json:"title"` // may be empty
	Slug     string `gorm:"size:250;not null;uniqueIndex:idx_posts_publish_day_slug" json:"slug"`
	AuthorID int    `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	Body     string `gorm:"type:text" json:"body"`
	// Publish is the logical publication moment and may be future-dated.
	// PublishDay is derived from it so the (day, slug) pair can carry a
	// unique index; it is maintained by the BeforeSave hook.
	Publish    time.Time `json:"publish"`
	PublishDay string    `gorm:"size:10;uniqueIndex:idx_posts_publish_day_slug" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Status     string    `gorm:"size:10;not null;default:draft;index" json:"status"`
}

// BeforeCreate defaults Publish to the creation moment and Status to draft.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.Publish.IsZero() {
		p.Publish = time.Now()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return nil
}

// BeforeSave keeps the derived publish-day column in sync with Publish.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Publish.IsZero() {
		p.Publish = time.Now()
	}
	p.PublishDay = p.Publish.Format("2006-01-02")
	return nil
}

// URL returns the canonical path of a post, derived from its publish date
// and slug.
func (p *Post) URL() string {
	return "/blog/" + p.Publish.Format("2006/01/02") + "/" + p.Slug
}

type Comment struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"post"`
	Name      string    `gorm:"size:80;not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `gorm:"default:true" json:"active"` // false hides a moderated comment without deleting it
}
