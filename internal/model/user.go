package model

import "time"

// User is an account that can be assigned machines, tickets and checklists.
type User struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:128;uniqueIndex;not null" json:"username" validate:"required"`
	Password          string    `gorm:"not null" json:"-"`
	FirstName         string    `gorm:"size:128" json:"firstName"`
	LastName          string    `gorm:"size:128" json:"lastName"`
	EmailAddress      string    `gorm:"size:256;uniqueIndex;not null" json:"emailAddress" validate:"required,email"`
	Admin             bool      `gorm:"not null;default:false" json:"admin"`
	TicketPermissions bool      `gorm:"not null;default:false" json:"ticketPermissions"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
