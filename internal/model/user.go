// Package model defines the records shared by every storage backend
package model

import "time"

type User struct {
	ID           string      `gorm:"primaryKey;size:16" bson:"_id" json:"id"`
	FirstName    string      `gorm:"not null" bson:"first_name" json:"firstName"`
	LastName     string      `gorm:"not null" bson:"last_name" json:"lastName"`
	Email        string      `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Phone        string      `bson:"phone" json:"phone"`
	DOB          time.Time   `bson:"dob" json:"dob"`
	PasswordHash string      `gorm:"not null" bson:"password_hash" json:"-"`
	Preferences  StringSlice `bson:"preferences" json:"preferences"`
	Verified     bool        `gorm:"default:false" bson:"verified" json:"verified"`
	CreatedAt    time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `bson:"updated_at" json:"updatedAt"`
}

// Author is the public part of a user attached to articles
type Author struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u *User) Author() *Author {
	return &Author{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// ProfileUpdate holds the user editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	DOB       *time.Time
}

func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.DOB == nil
}
