package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"maintenance-backend/internal/model"
	"maintenance-backend/internal/schedule"
)

// ChecklistCompletionInput describes one run of a checklist.
type ChecklistCompletionInput struct {
	ChecklistID int64
	// MachineID overrides the checklist's machine, for group checklists.
	MachineID *int64
	UserID    *int64
	Date      time.Time
	Notes     string
	// Items maps item IDs to their outcome. Items not listed keep their stored flag.
	Items map[int64]bool
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (s *gormStore) ListChecklists(ctx context.Context) ([]model.Checklist, error) {
	var lists []model.Checklist
	err := s.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Machine").
		Order("next_planned_date").
		Find(&lists).Error
	return lists, translate(err)
}

// MachineChecklists returns the machine's checklists merged with its group's.
func (s *gormStore) MachineChecklists(ctx context.Context, machineID int64) ([]model.Checklist, error) {
	scope, err := s.machineScope(ctx, machineID)
	if err != nil {
		return nil, err
	}
	var lists []model.Checklist
	err = s.db.WithContext(ctx).Scopes(scope).
		Preload("Items", orderedItems).
		Order("next_planned_date").
		Find(&lists).Error
	return lists, translate(err)
}

func (s *gormStore) GetChecklist(ctx context.Context, id int64) (model.Checklist, error) {
	var c model.Checklist
	err := s.db.WithContext(ctx).Preload("Items", orderedItems).Preload("Machine").First(&c, id).Error
	return c, translate(err)
}

// prepareChecklist validates c and fills its next planned date and status.
// A non-nil anchor always recomputes the next date from it; otherwise a
// supplied next date is kept.
func (s *gormStore) prepareChecklist(c *model.Checklist, now time.Time, anchor *time.Time) error {
	if err := s.checkOwner(c, c.MachineID, c.MachineGroupID); err != nil {
		return err
	}
	interval := schedule.IntervalType(c.IntervalType)
	if !interval.Valid() {
		return errorf(ErrInvalid, "unknown interval type %q", c.IntervalType)
	}
	c.CustomIntervalDays = schedule.NormalizeCustomDays(interval, c.CustomIntervalDays)

	base := now
	switch {
	case anchor != nil:
		base = *anchor
	case c.LastPerformedDate != nil:
		base = *c.LastPerformedDate
	}
	next, err := schedule.NextPlannedDate(interval, c.CustomIntervalDays, base)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if anchor != nil || c.NextPlannedDate == nil {
		c.NextPlannedDate = &next
	}
	c.Status = schedule.ChecklistStatus(c.NextPlannedDate, now)
	return nil
}

// lastPerformed returns the most recent completion date of a checklist, or nil.
func (s *gormStore) lastPerformed(ctx context.Context, checklistID int64) (*time.Time, error) {
	var latest []model.ChecklistCompletion
	if err := s.db.WithContext(ctx).
		Select("completion_date").
		Where("checklist_id = ?", checklistID).
		Order("completion_date DESC").
		Limit(1).
		Find(&latest).Error; err != nil {
		return nil, translate(err)
	}
	if len(latest) == 0 {
		return nil, nil
	}
	return &latest[0].CompletionDate, nil
}

// CreateChecklist inserts c together with its items.
func (s *gormStore) CreateChecklist(ctx context.Context, c *model.Checklist, now time.Time) error {
	if err := s.prepareChecklist(c, now, nil); err != nil {
		return err
	}
	for i := range c.Items {
		c.Items[i].ID = 0
	}
	return translate(s.db.WithContext(ctx).Omit("Machine", "MachineGroup").Create(c).Error)
}

// UpdateChecklist saves c. When c.Items is non-nil the stored items are
// replaced: listed items are kept or added, the rest are deleted.
func (s *gormStore) UpdateChecklist(ctx context.Context, c *model.Checklist, now time.Time) error {
	anchor := c.LastPerformedDate
	if anchor == nil {
		last, err := s.lastPerformed(ctx, c.ID)
		if err != nil {
			return err
		}
		anchor = last
	}
	if err := s.prepareChecklist(c, now, anchor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateByID(ctx, tx, c.ID, c); err != nil {
			return err
		}
		if c.Items == nil {
			return nil
		}

		keep := make([]int64, 0, len(c.Items))
		for _, it := range c.Items {
			if it.ID != 0 {
				keep = append(keep, it.ID)
			}
		}
		q := tx.Where("checklist_id = ?", c.ID)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Delete(&model.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove checklist items: %w", err)
		}

		for i := range c.Items {
			it := &c.Items[i]
			it.ChecklistID = c.ID
			if it.ID == 0 {
				if err := tx.Create(it).Error; err != nil {
					return fmt.Errorf("failed to add checklist item: %w", err)
				}
				continue
			}
			res := tx.Model(&model.ChecklistItem{}).
				Where("id = ? AND checklist_id = ?", it.ID, c.ID).
				Updates(map[string]any{"description": it.Description, "completed": it.Completed})
			if res.Error != nil {
				return fmt.Errorf("failed to update checklist item %d: %w", it.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return errorf(ErrInvalid, "item %d does not belong to checklist %d", it.ID, c.ID)
			}
		}
		return nil
	})
	return translate(err)
}

func (s *gormStore) DeleteChecklist(ctx context.Context, id int64) error {
	return deleteByID[model.Checklist](ctx, s.db, id)
}

// CompleteChecklist records a run of the checklist, snapshots each item's
// outcome, clears the item flags and moves the checklist to its next date.
func (s *gormStore) CompleteChecklist(ctx context.Context, in ChecklistCompletionInput, now time.Time) (model.ChecklistCompletion, error) {
	var completion model.ChecklistCompletion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cl model.Checklist
		if err := tx.Preload("Items", orderedItems).First(&cl, in.ChecklistID).Error; err != nil {
			return err
		}

		date := in.Date
		if date.IsZero() {
			date = now
		}
		next, err := schedule.NextPlannedDate(schedule.IntervalType(cl.IntervalType), cl.CustomIntervalDays, date)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}

		machineID := in.MachineID
		if machineID == nil {
			machineID = cl.MachineID
		}
		completion = model.ChecklistCompletion{
			ChecklistID:    &cl.ID,
			MachineID:      machineID,
			UserID:         in.UserID,
			CompletionDate: date,
			Notes:          in.Notes,
			Status:         "completed",
		}
		if err := tx.Omit("Items", "Checklist", "Machine", "User").Create(&completion).Error; err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}

		if len(cl.Items) > 0 {
			items := make([]model.ChecklistItemCompletion, 0, len(cl.Items))
			for _, it := range cl.Items {
				done := it.Completed
				if v, ok := in.Items[it.ID]; ok {
					done = v
				}
				items = append(items, model.ChecklistItemCompletion{
					CompletionID: completion.ID,
					ItemID:       it.ID,
					Completed:    done,
				})
			}
			if err := tx.Omit("Item").Create(&items).Error; err != nil {
				return fmt.Errorf("failed to record item outcomes: %w", err)
			}
			completion.Items = items

			if err := tx.Model(&model.ChecklistItem{}).
				Where("checklist_id = ?", cl.ID).
				Update("completed", false).Error; err != nil {
				return fmt.Errorf("failed to reset checklist items: %w", err)
			}
		}

		return tx.Model(&model.Checklist{}).Where("id = ?", cl.ID).Updates(map[string]any{
			"last_performed_date": date,
			"next_planned_date":   next,
			"status":              schedule.ChecklistStatus(&next, now),
		}).Error
	})
	return completion, translate(err)
}

func (s *gormStore) ChecklistCompletions(ctx context.Context, checklistID int64) ([]model.ChecklistCompletion, error) {
	var out []model.ChecklistCompletion
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Item").
		Preload("User").
		Where("checklist_id = ?", checklistID).
		Order("completion_date DESC").
		Find(&out).Error
	return out, translate(err)
}

// RefreshChecklistStatuses flips checklists between planned and late and
// returns how many changed.
func (s *gormStore) RefreshChecklistStatuses(ctx context.Context, now time.Time) (int, error) {
	var lists []model.Checklist
	if err := s.db.WithContext(ctx).Select("id", "next_planned_date", "status").Find(&lists).Error; err != nil {
		return 0, translate(err)
	}
	changed := 0
	for _, c := range lists {
		status := schedule.ChecklistStatus(c.NextPlannedDate, now)
		if status == c.Status {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&model.Checklist{}).Where("id = ?", c.ID).Update("status", status).Error; err != nil {
			return changed, fmt.Errorf("failed to update checklist %d: %w", c.ID, err)
		}
		changed++
	}
	return changed, nil
}

// UpcomingChecklists returns checklists due on or before until, including
// late ones, with their items and machine owner loaded.
func (s *gormStore) UpcomingChecklists(ctx context.Context, until time.Time) ([]model.Checklist, error) {
	var lists []model.Checklist
	err := s.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Machine").
		Preload("Machine.User").
		Where("next_planned_date IS NOT NULL AND next_planned_date <= ?", until).
		Order("next_planned_date").
		Find(&lists).Error
	return lists, translate(err)
}
