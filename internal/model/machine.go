package model

import "time"

// MachineStatus is the operational state shown for a machine.
type MachineStatus string

const (
	MachineActive           MachineStatus = "active"
	MachineHasProblems      MachineStatus = "has problems"
	MachineUnderMaintenance MachineStatus = "under maintenance"
	MachineInactive         MachineStatus = "inactive"
)

// Machine represents a piece of production equipment.
type Machine struct {
	ID                    int64         `gorm:"primaryKey" json:"id"`
	Name                  string        `gorm:"size:256;not null" json:"name" validate:"required"`
	Description           string        `json:"description"`
	Location              string        `gorm:"size:256" json:"location"`
	SAPNumber             *string       `gorm:"column:sap_number;size:64;uniqueIndex" json:"sapNumber"`
	SerialNumber          *string       `gorm:"size:64;uniqueIndex" json:"serialNumber"`
	UserID                *int64        `gorm:"index" json:"userId"`
	Status                MachineStatus `gorm:"size:32;not null;default:active" json:"status"`
	SupplierID            *int64        `gorm:"index" json:"supplierId"`
	HasGenericAccessories bool          `json:"hasGenericAccessories"`
	HasSpecialAccessories bool          `json:"hasSpecialAccessories"`
	MachineGroupID        *int64        `gorm:"index" json:"machineGroupId"`
	MachineClass          string        `gorm:"size:64" json:"machineClass"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`

	// Associations
	User         *User         `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Supplier     *Supplier     `gorm:"constraint:OnDelete:SET NULL" json:"supplier,omitempty"`
	MachineGroup *MachineGroup `gorm:"constraint:OnDelete:SET NULL" json:"machineGroup,omitempty"`
}

// MachineGroup is a set of machines sharing a supplier and common
// accessories, documents and checklists.
type MachineGroup struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:256;not null" json:"name" validate:"required"`
	Description    string    `json:"description"`
	SupplierID     *int64    `gorm:"index" json:"supplierId"`
	HasAccessories bool      `json:"hasAccessories"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Supplier *Supplier `gorm:"constraint:OnDelete:SET NULL" json:"supplier,omitempty"`
}

// MachineCategory is a root-cause category tickets on a machine can be filed under.
type MachineCategory struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	MachineID int64  `gorm:"index;not null" json:"machineId" validate:"required"`
	Name      string `gorm:"size:128;not null" json:"name" validate:"required"`

	Machine *Machine `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
