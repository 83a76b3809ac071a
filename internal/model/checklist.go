package model

import "time"

// Checklist is a recurring inspection attached to a machine or a group.
type Checklist struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	MachineID          *int64     `gorm:"index" json:"machineId"`
	MachineGroupID     *int64     `gorm:"index" json:"machineGroupId"`
	Title              string     `gorm:"size:256;not null" json:"title" validate:"required"`
	IntervalType       string     `gorm:"size:32;not null" json:"intervalType" validate:"required"`
	CustomIntervalDays *int       `json:"customIntervalDays"`
	LastPerformedDate  *time.Time `json:"lastPerformedDate"`
	NextPlannedDate    *time.Time `gorm:"index" json:"nextPlannedDate"`
	Status             string     `gorm:"size:32;not null;default:planned" json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	Items        []ChecklistItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Machine      *Machine        `gorm:"constraint:OnDelete:CASCADE" json:"machine,omitempty"`
	MachineGroup *MachineGroup   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// ChecklistItem is a single step of a checklist.
type ChecklistItem struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	ChecklistID int64  `gorm:"index;not null" json:"checklistId"`
	Description string `gorm:"not null" json:"description" validate:"required"`
	Completed   bool   `gorm:"not null;default:false" json:"completed"`
}

// ChecklistCompletion records one run of a checklist.
type ChecklistCompletion struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	ChecklistID    *int64    `gorm:"index" json:"checklistId"`
	MachineID      *int64    `gorm:"index" json:"machineId"`
	UserID         *int64    `gorm:"index" json:"userId"`
	CompletionDate time.Time `gorm:"not null" json:"completionDate"`
	Notes          string    `json:"notes"`
	Status         string    `gorm:"size:32" json:"status"`

	Items     []ChecklistItemCompletion `gorm:"foreignKey:CompletionID;constraint:OnDelete:CASCADE" json:"items"`
	Checklist *Checklist                `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Machine   *Machine                  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	User      *User                     `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
}

// ChecklistItemCompletion is the per-item outcome of a completion.
type ChecklistItemCompletion struct {
	ID           int64 `gorm:"primaryKey" json:"id"`
	CompletionID int64 `gorm:"index;not null" json:"completionId"`
	ItemID       int64 `gorm:"index;not null" json:"itemId"`
	Completed    bool  `gorm:"not null" json:"completed"`

	Item *ChecklistItem `gorm:"constraint:OnDelete:CASCADE" json:"item,omitempty"`
}
