package store

import (
	"context"

	"gorm.io/gorm"

	"maintenance-backend/internal/model"
)

// MachineFilter narrows ListMachines. Zero values match everything.
type MachineFilter struct {
	GroupID *int64
	UserID  *int64
	Status  model.MachineStatus
}

func (s *gormStore) ListGroups(ctx context.Context) ([]model.MachineGroup, error) {
	var groups []model.MachineGroup
	err := s.db.WithContext(ctx).Preload("Supplier").Order("name").Find(&groups).Error
	return groups, translate(err)
}

func (s *gormStore) GetGroup(ctx context.Context, id int64) (model.MachineGroup, error) {
	return getByID[model.MachineGroup](ctx, s.db, id, "Supplier")
}

func (s *gormStore) CreateGroup(ctx context.Context, g *model.MachineGroup) error {
	if err := s.check(g); err != nil {
		return err
	}
	return create(ctx, s.db, g)
}

func (s *gormStore) UpdateGroup(ctx context.Context, g *model.MachineGroup) error {
	if err := s.check(g); err != nil {
		return err
	}
	return updateByID(ctx, s.db, g.ID, g)
}

func (s *gormStore) DeleteGroup(ctx context.Context, id int64) error {
	return deleteByID[model.MachineGroup](ctx, s.db, id)
}

func (s *gormStore) ListMachines(ctx context.Context, f MachineFilter) ([]model.Machine, error) {
	q := s.db.WithContext(ctx).Preload("User").Preload("Supplier").Preload("MachineGroup")
	if f.GroupID != nil {
		q = q.Where("machine_group_id = ?", *f.GroupID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var machines []model.Machine
	err := q.Order("name").Find(&machines).Error
	return machines, translate(err)
}

func (s *gormStore) GetMachine(ctx context.Context, id int64) (model.Machine, error) {
	return getByID[model.Machine](ctx, s.db, id, "User", "Supplier", "MachineGroup")
}

// CreateMachine inserts m. Empty SAP and serial numbers are stored as NULL so
// the unique indexes only apply to real values.
func (s *gormStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	if err := s.check(m); err != nil {
		return err
	}
	normalizeMachine(m)
	return create(ctx, s.db, m)
}

// UpdateMachine writes m. An empty status keeps the stored one, and unless the
// machine is switched to inactive its status is recomputed from open tickets.
func (s *gormStore) UpdateMachine(ctx context.Context, m *model.Machine) error {
	if err := s.check(m); err != nil {
		return err
	}
	var omit []string
	if m.Status == "" {
		omit = append(omit, "status")
	}
	normalizeMachine(m)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateByID(ctx, tx, m.ID, m, omit...); err != nil {
			return err
		}
		if m.Status == model.MachineInactive {
			return nil
		}
		if err := refreshMachineStatus(tx, &m.ID); err != nil {
			return err
		}
		var stored model.Machine
		if err := tx.Select("status").First(&stored, m.ID).Error; err != nil {
			return translate(err)
		}
		m.Status = stored.Status
		return nil
	})
}

// DeleteMachine removes the machine; the database cascades to its documents,
// accessories, spare parts, categories, actions and checklists.
func (s *gormStore) DeleteMachine(ctx context.Context, id int64) error {
	return deleteByID[model.Machine](ctx, s.db, id)
}

func (s *gormStore) MachineCategories(ctx context.Context, machineID int64) ([]model.MachineCategory, error) {
	var cats []model.MachineCategory
	err := s.db.WithContext(ctx).Where("machine_id = ?", machineID).Order("name").Find(&cats).Error
	return cats, translate(err)
}

func (s *gormStore) CreateCategory(ctx context.Context, c *model.MachineCategory) error {
	if err := s.check(c); err != nil {
		return err
	}
	return create(ctx, s.db, c)
}

func (s *gormStore) DeleteCategory(ctx context.Context, id int64) error {
	return deleteByID[model.MachineCategory](ctx, s.db, id)
}

func normalizeMachine(m *model.Machine) {
	if m.SAPNumber != nil && *m.SAPNumber == "" {
		m.SAPNumber = nil
	}
	if m.SerialNumber != nil && *m.SerialNumber == "" {
		m.SerialNumber = nil
	}
	if m.Status == "" {
		m.Status = model.MachineActive
	}
}

// machineScope returns a query condition matching rows owned by the machine
// or by the group it belongs to. A single OR query yields each row once.
func (s *gormStore) machineScope(ctx context.Context, machineID int64) (func(*gorm.DB) *gorm.DB, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).Select("id", "machine_group_id").First(&m, machineID).Error; err != nil {
		return nil, translate(err)
	}
	return func(q *gorm.DB) *gorm.DB {
		if m.MachineGroupID != nil {
			return q.Where("machine_id = ? OR machine_group_id = ?", m.ID, *m.MachineGroupID)
		}
		return q.Where("machine_id = ?", m.ID)
	}, nil
}
