package model

import "time"

// SpecialAccessory is a qualified tool (with dimensions) attached to a machine or a group.
type SpecialAccessory struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	MachineID         *int64     `gorm:"index" json:"machineId"`
	MachineGroupID    *int64     `gorm:"index" json:"machineGroupId"`
	QualificationDate *time.Time `json:"qualificationDate"`
	Name              string     `gorm:"size:256;not null" json:"name" validate:"required"`
	Length            *float64   `json:"length"`
	Diameter          *float64   `json:"diameter"`
	Angle             *float64   `json:"angle"`
	Quantity          int        `gorm:"not null" json:"quantity" validate:"gte=0"`
	Notes             string     `json:"notes"`

	Machine      *Machine      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MachineGroup *MachineGroup `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// GenericAccessory is a plain consumable or add-on attached to a machine or a group.
type GenericAccessory struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	MachineID      *int64 `gorm:"index" json:"machineId"`
	MachineGroupID *int64 `gorm:"index" json:"machineGroupId"`
	Name           string `gorm:"size:256;not null" json:"name" validate:"required"`
	Quantity       int    `gorm:"not null" json:"quantity" validate:"gte=0"`
	Notes          string `json:"notes"`

	Machine      *Machine      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MachineGroup *MachineGroup `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
