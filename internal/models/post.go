package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a shared piece of content: a doubt, note, link, or update
// tagged with an exam type and free-form tags. Engagement counters are
// maintained by the like/comment flows; the feed pipeline only reads them.
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Title   string `gorm:"type:text" json:"title"`
	Content string `gorm:"type:text" json:"content"`
	LinkURL string `gorm:"type:text" json:"link_url"`

	// Opaque storage key for attached media; resolved to a CDN URL at the edge
	MediaKey string `json:"media_key"`

	Category string `gorm:"index" json:"category"`
	ExamType string `gorm:"index" json:"exam_type"`

	// Cached engagement counters. View counts live in the post_views event
	// log and are aggregated at enrichment time, not cached here.
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	// Precomputed trending score, persisted by the rescore job. When set and
	// valid it is trusted as-is by the scorer.
	TrendScore *float64 `json:"trend_score,omitempty"`

	Slug *string `gorm:"uniqueIndex" json:"slug,omitempty"`

	Tags []Tag `gorm:"many2many:post_tags;" json:"tags,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Tag is a free-form label attached to posts. Names are stored lowercased;
// matching is case-insensitive everywhere.
type Tag struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name       string    `gorm:"uniqueIndex;not null" json:"name"`
	PostCount  int       `gorm:"default:0" json:"post_count"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PostView is an append-only view event. A post's view count is derived by
// counting rows here, never cached on the post row.
type PostView struct {
	ID     string  `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string  `gorm:"not null;index" json:"post_id"`
	Post   Post    `gorm:"foreignKey:PostID" json:"-"`
	UserID *string `gorm:"index" json:"user_id,omitempty"` // nil for anonymous views

	CreatedAt time.Time `json:"created_at"`
}

// Like represents a user liking a post; one row per (user, post) pair
type Like struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a Post, optionally threaded under a parent
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// parent_id is null for top-level comments
	ParentID *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment   `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []*Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	LikeCount int `gorm:"default:0" json:"like_count"`

	// Soft delete for "comment removed" display
	IsDeleted bool `gorm:"default:false" json:"is_deleted"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}

func (v *PostView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
