package model

// SparePart is a stocked replacement part for a machine.
type SparePart struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	MachineID    int64  `gorm:"index;not null" json:"machineId" validate:"required"`
	Name         string `gorm:"size:256;not null" json:"name" validate:"required"`
	PartNumber   string `gorm:"size:128;uniqueIndex;not null" json:"partNumber" validate:"required"`
	Quantity     int    `gorm:"not null" json:"quantity" validate:"gte=0"`
	ReorderLevel int    `gorm:"not null;default:1" json:"reorderLevel" validate:"gte=1"`
	Location     string `gorm:"size:256" json:"location"`
	Supplier     string `gorm:"size:256" json:"supplier"`

	Machine *Machine `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// NeedsReorder reports whether stock has dropped to the reorder level.
func (p SparePart) NeedsReorder() bool {
	return p.Quantity <= p.ReorderLevel
}
