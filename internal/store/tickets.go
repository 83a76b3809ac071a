package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"maintenance-backend/internal/model"
)

var doneStatuses = []model.TicketStatus{model.TicketCompleted, model.TicketCompletedLate}

// TicketFilter narrows ListTickets. Zero values match everything.
type TicketFilter struct {
	MachineID *int64
	UserID    *int64
	Status    model.TicketStatus
	// Open excludes completed tickets.
	Open bool
}

// TicketCompletion carries the outcome recorded when closing a ticket.
type TicketCompletion struct {
	Notes    string
	External bool
	At       time.Time
}

func ticketPreloads(db *gorm.DB) *gorm.DB {
	return db.Preload("Machine").Preload("User").Preload("Category").Preload("Actions")
}

func (s *gormStore) ListTickets(ctx context.Context, f TicketFilter) ([]model.Ticket, error) {
	q := s.db.WithContext(ctx).Scopes(ticketPreloads)
	if f.MachineID != nil {
		q = q.Where("machine_id = ?", *f.MachineID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Open {
		q = q.Where("status NOT IN ?", doneStatuses)
	}
	var tickets []model.Ticket
	err := q.Order("scheduled_date").Find(&tickets).Error
	return tickets, translate(err)
}

func (s *gormStore) GetTicket(ctx context.Context, id int64) (model.Ticket, error) {
	var t model.Ticket
	err := s.db.WithContext(ctx).Scopes(ticketPreloads).First(&t, id).Error
	return t, translate(err)
}

// CreateTicket inserts t, links its actions and refreshes the machine status.
func (s *gormStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	if err := s.check(t); err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = model.TicketPending
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actions := t.Actions
		if err := tx.Omit("Machine", "User", "Category", "Actions").Create(t).Error; err != nil {
			return err
		}
		if len(actions) > 0 {
			if err := replaceActions(tx, t, actions); err != nil {
				return err
			}
		}
		return refreshMachineStatus(tx, t.MachineID)
	})
	return translate(err)
}

// UpdateTicket saves t. Actions are replaced when t.Actions is non-nil.
// Both the previous and the new machine have their status refreshed.
func (s *gormStore) UpdateTicket(ctx context.Context, t *model.Ticket) error {
	if err := s.check(t); err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = model.TicketPending
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old model.Ticket
		if err := tx.Select("id", "machine_id").First(&old, t.ID).Error; err != nil {
			return err
		}
		if err := updateByID(ctx, tx, t.ID, t); err != nil {
			return err
		}
		if t.Actions != nil {
			if err := replaceActions(tx, t, t.Actions); err != nil {
				return err
			}
		}
		if err := refreshMachineStatus(tx, t.MachineID); err != nil {
			return err
		}
		if old.MachineID != nil && (t.MachineID == nil || *old.MachineID != *t.MachineID) {
			return refreshMachineStatus(tx, old.MachineID)
		}
		return nil
	})
	return translate(err)
}

func (s *gormStore) DeleteTicket(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Ticket
		if err := tx.Select("id", "machine_id").First(&t, id).Error; err != nil {
			return err
		}
		if err := tx.Select("Actions").Delete(&t).Error; err != nil {
			return err
		}
		return refreshMachineStatus(tx, t.MachineID)
	})
	return translate(err)
}

// CompleteTicket closes the ticket. A ticket finished after its scheduled
// date is marked completed late.
func (s *gormStore) CompleteTicket(ctx context.Context, id int64, in TicketCompletion) (model.Ticket, error) {
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Ticket
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}
		if t.Status.Done() {
			return errorf(ErrInvalid, "ticket %d is already %s", id, t.Status)
		}
		status := model.TicketCompleted
		if t.ScheduledDate.Before(at) {
			status = model.TicketCompletedLate
		}
		if err := tx.Model(&model.Ticket{}).Where("id = ?", id).Updates(map[string]any{
			"status":            status,
			"completion_notes":  in.Notes,
			"intervention_type": in.External,
			"completed_date":    at,
		}).Error; err != nil {
			return err
		}
		return refreshMachineStatus(tx, t.MachineID)
	})
	if err != nil {
		return model.Ticket{}, translate(err)
	}
	return s.GetTicket(ctx, id)
}

// MarkOverdueTickets moves open tickets whose scheduled date has passed to late.
func (s *gormStore) MarkOverdueTickets(ctx context.Context, now time.Time) (int64, error) {
	skip := append([]model.TicketStatus{model.TicketLate}, doneStatuses...)
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("status NOT IN ? AND scheduled_date < ?", skip, now).
		Update("status", model.TicketLate)
	return res.RowsAffected, translate(res.Error)
}

// RefreshMachineStatuses recomputes every machine's status from its open
// tickets and returns how many changed. Inactive machines are left alone.
func (s *gormStore) RefreshMachineStatuses(ctx context.Context) (int, error) {
	var open []model.Ticket
	if err := s.db.WithContext(ctx).
		Select("machine_id", "critical").
		Where("machine_id IS NOT NULL AND status NOT IN ?", doneStatuses).
		Find(&open).Error; err != nil {
		return 0, translate(err)
	}
	byMachine := make(map[int64][]model.Ticket)
	for _, t := range open {
		byMachine[*t.MachineID] = append(byMachine[*t.MachineID], t)
	}

	var machines []model.Machine
	if err := s.db.WithContext(ctx).
		Select("id", "status").
		Where("status <> ?", model.MachineInactive).
		Find(&machines).Error; err != nil {
		return 0, translate(err)
	}

	changed := 0
	for _, m := range machines {
		status := MachineStatusFor(byMachine[m.ID])
		if status == m.Status {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&model.Machine{}).Where("id = ?", m.ID).Update("status", status).Error; err != nil {
			return changed, fmt.Errorf("failed to update machine %d: %w", m.ID, err)
		}
		changed++
	}
	return changed, nil
}

// MachineStatusFor derives a machine's status from its open tickets.
func MachineStatusFor(open []model.Ticket) model.MachineStatus {
	status := model.MachineActive
	for _, t := range open {
		if t.Critical {
			return model.MachineUnderMaintenance
		}
		status = model.MachineHasProblems
	}
	return status
}

func refreshMachineStatus(tx *gorm.DB, machineID *int64) error {
	if machineID == nil {
		return nil
	}
	var open []model.Ticket
	if err := tx.Select("critical").
		Where("machine_id = ? AND status NOT IN ?", *machineID, doneStatuses).
		Find(&open).Error; err != nil {
		return fmt.Errorf("failed to load open tickets for machine %d: %w", *machineID, err)
	}
	return tx.Model(&model.Machine{}).
		Where("id = ? AND status <> ?", *machineID, model.MachineInactive).
		Update("status", MachineStatusFor(open)).Error
}

// replaceActions links the ticket to the referenced actions, loaded by ID.
func replaceActions(tx *gorm.DB, t *model.Ticket, refs []model.Action) error {
	ids := make([]int64, 0, len(refs))
	for _, a := range refs {
		ids = append(ids, a.ID)
	}
	var actions []model.Action
	if len(ids) > 0 {
		if err := tx.Find(&actions, ids).Error; err != nil {
			return fmt.Errorf("failed to load actions: %w", err)
		}
		if len(actions) != len(ids) {
			return errorf(ErrInvalid, "unknown action in %v", ids)
		}
	}
	assoc := tx.Model(t).Association("Actions")
	var err error
	if len(actions) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(actions)
	}
	if err != nil {
		return fmt.Errorf("failed to link actions: %w", err)
	}
	t.Actions = actions
	return nil
}
