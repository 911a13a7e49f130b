package model

import (
	"time"

	"gorm.io/datatypes"
)

var Categories = []string{
	"Technology",
	"Health",
	"Education",
	"Lifestyle",
	"Finance",
	"Food",
	"Sports",
	"Travel",
}

// Article content is an opaque rich text document. It's either a JSON
// string of HTML or a structured editor document.
type Article struct {
	ID              string         `gorm:"primaryKey;size:16" bson:"_id" json:"id"`
	Title           string         `gorm:"not null" bson:"title" json:"title"`
	Content         datatypes.JSON `gorm:"not null" bson:"content" json:"content"`
	Category        string         `gorm:"index;not null" bson:"category" json:"category"`
	FeaturedImage   *string        `bson:"featured_image,omitempty" json:"featuredImage"`
	FeaturedImageID *string        `bson:"featured_image_id,omitempty" json:"featuredImageId"`
	AuthorID        string         `gorm:"index;not null;size:16" bson:"author_id" json:"authorId"`
	Author          *Author        `gorm:"-" bson:"-" json:"author,omitempty"`
	Likes           []string       `gorm:"-" bson:"likes" json:"likes"`
	Dislikes        []string       `gorm:"-" bson:"dislikes" json:"dislikes"`
	BlockedBy       []string       `gorm:"-" bson:"blocked_by" json:"-"`
	CreatedAt       time.Time      `gorm:"index" bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updated_at" json:"updatedAt"`
}

// ArticlePatch is a partial article update. Nil fields are left alone. An
// empty FeaturedImageID removes the featured image.
type ArticlePatch struct {
	Title           *string
	Content         datatypes.JSON
	Category        *string
	FeaturedImage   *string
	FeaturedImageID *string
}

func (p ArticlePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Category == nil &&
		p.FeaturedImage == nil && p.FeaturedImageID == nil
}

// FeedQuery selects a page of articles visible to a viewer
type FeedQuery struct {
	ViewerID string
	Category string
	Offset   int
	Limit    int
}

// Normalize makes sure the reaction sets are never nil so they encode as
// empty lists.
func (a *Article) Normalize() {
	if a.Likes == nil {
		a.Likes = []string{}
	}

	if a.Dislikes == nil {
		a.Dislikes = []string{}
	}

	if a.BlockedBy == nil {
		a.BlockedBy = []string{}
	}
}

func IsCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}

	return false
}
