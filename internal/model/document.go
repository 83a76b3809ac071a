package model

// Document is a file in the document folder linked to a machine or a group.
type Document struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	MachineID      *int64 `gorm:"index" json:"machineId"`
	MachineGroupID *int64 `gorm:"index" json:"machineGroupId"`
	DocumentName   string `gorm:"size:512;not null" json:"documentName" validate:"required"`
	DocumentType   string `gorm:"size:32" json:"documentType"`
	DocumentPath   string `gorm:"size:1024;not null" json:"documentPath"`

	Machine      *Machine      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MachineGroup *MachineGroup `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
