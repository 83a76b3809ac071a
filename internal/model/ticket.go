package model

import "time"

// TicketStatus is the lifecycle state of a maintenance ticket.
type TicketStatus string

const (
	TicketPending       TicketStatus = "pending"
	TicketInProgress    TicketStatus = "in progress"
	TicketCompleted     TicketStatus = "completed"
	TicketCompletedLate TicketStatus = "completed late"
	TicketLate          TicketStatus = "late"
)

// Done reports whether the ticket has been closed.
func (s TicketStatus) Done() bool {
	return s == TicketCompleted || s == TicketCompletedLate
}

// Ticket is a preventive-maintenance work item.
type Ticket struct {
	ID               int64        `gorm:"primaryKey" json:"id"`
	MachineID        *int64       `gorm:"index" json:"machineId"`
	UserID           *int64       `gorm:"index" json:"userId"`
	Title            string       `gorm:"size:256;not null" json:"title" validate:"required"`
	Description      string       `json:"description"`
	Status           TicketStatus `gorm:"size:32;not null;default:pending" json:"status"`
	CompletionNotes  string       `json:"completionNotes"`
	ScheduledDate    time.Time    `gorm:"not null;index" json:"scheduledDate"`
	CompletedDate    *time.Time   `json:"completedDate"`
	Critical         bool         `gorm:"not null;default:false" json:"critical"`
	CategoryID       *int64       `gorm:"index" json:"categoryId"`
	InterventionType bool         `gorm:"not null;default:false" json:"interventionType"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`

	Machine  *Machine         `gorm:"constraint:OnDelete:SET NULL" json:"machine,omitempty"`
	User     *User            `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Category *MachineCategory `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Actions  []Action         `gorm:"many2many:maintenance_ticket_actions;constraint:OnDelete:CASCADE" json:"actions,omitempty"`
}

// Action is a recurring maintenance operation on a machine that tickets can reference.
type Action struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	MachineID         int64      `gorm:"index;not null" json:"machineId" validate:"required"`
	Name              string     `gorm:"size:256;not null" json:"name" validate:"required"`
	Description       string     `json:"description"`
	Frequency         string     `gorm:"size:32" json:"frequency"`
	LastPerformedDate *time.Time `json:"lastPerformedDate"`
	NextPlannedDate   *time.Time `json:"nextPlannedDate"`

	Machine *Machine `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
