package model

import "time"

// Supplier is a vendor of machines and spare parts.
type Supplier struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name" validate:"required"`
	Website     string    `gorm:"size:256" json:"website"`
	Email       string    `gorm:"size:256" json:"email" validate:"omitempty,email"`
	PhoneNumber string    `gorm:"size:64" json:"phoneNumber"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
