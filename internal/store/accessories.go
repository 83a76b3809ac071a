package store

import (
	"context"

	"maintenance-backend/internal/model"
)

// MachineGenericAccessories returns the machine's own accessories merged with its group's.
func (s *gormStore) MachineGenericAccessories(ctx context.Context, machineID int64) ([]model.GenericAccessory, error) {
	scope, err := s.machineScope(ctx, machineID)
	if err != nil {
		return nil, err
	}
	var out []model.GenericAccessory
	err = s.db.WithContext(ctx).Scopes(scope).Order("name").Find(&out).Error
	return out, translate(err)
}

func (s *gormStore) GroupGenericAccessories(ctx context.Context, groupID int64) ([]model.GenericAccessory, error) {
	var out []model.GenericAccessory
	err := s.db.WithContext(ctx).Where("machine_group_id = ?", groupID).Order("name").Find(&out).Error
	return out, translate(err)
}

func (s *gormStore) GetGenericAccessory(ctx context.Context, id int64) (model.GenericAccessory, error) {
	return getByID[model.GenericAccessory](ctx, s.db, id)
}

func (s *gormStore) CreateGenericAccessory(ctx context.Context, a *model.GenericAccessory) error {
	if err := s.checkOwner(a, a.MachineID, a.MachineGroupID); err != nil {
		return err
	}
	return create(ctx, s.db, a)
}

func (s *gormStore) UpdateGenericAccessory(ctx context.Context, a *model.GenericAccessory) error {
	if err := s.checkOwner(a, a.MachineID, a.MachineGroupID); err != nil {
		return err
	}
	return updateByID(ctx, s.db, a.ID, a)
}

func (s *gormStore) DeleteGenericAccessory(ctx context.Context, id int64) error {
	return deleteByID[model.GenericAccessory](ctx, s.db, id)
}

// MachineSpecialAccessories returns the machine's own special accessories merged with its group's.
func (s *gormStore) MachineSpecialAccessories(ctx context.Context, machineID int64) ([]model.SpecialAccessory, error) {
	scope, err := s.machineScope(ctx, machineID)
	if err != nil {
		return nil, err
	}
	var out []model.SpecialAccessory
	err = s.db.WithContext(ctx).Scopes(scope).Order("name").Find(&out).Error
	return out, translate(err)
}

func (s *gormStore) GroupSpecialAccessories(ctx context.Context, groupID int64) ([]model.SpecialAccessory, error) {
	var out []model.SpecialAccessory
	err := s.db.WithContext(ctx).Where("machine_group_id = ?", groupID).Order("name").Find(&out).Error
	return out, translate(err)
}

func (s *gormStore) GetSpecialAccessory(ctx context.Context, id int64) (model.SpecialAccessory, error) {
	return getByID[model.SpecialAccessory](ctx, s.db, id)
}

func (s *gormStore) CreateSpecialAccessory(ctx context.Context, a *model.SpecialAccessory) error {
	if err := s.checkOwner(a, a.MachineID, a.MachineGroupID); err != nil {
		return err
	}
	return create(ctx, s.db, a)
}

func (s *gormStore) UpdateSpecialAccessory(ctx context.Context, a *model.SpecialAccessory) error {
	if err := s.checkOwner(a, a.MachineID, a.MachineGroupID); err != nil {
		return err
	}
	return updateByID(ctx, s.db, a.ID, a)
}

func (s *gormStore) DeleteSpecialAccessory(ctx context.Context, id int64) error {
	return deleteByID[model.SpecialAccessory](ctx, s.db, id)
}

// checkOwner validates v and requires it to belong to a machine or a group.
func (s *gormStore) checkOwner(v any, machineID, groupID *int64) error {
	if err := s.check(v); err != nil {
		return err
	}
	if machineID == nil && groupID == nil {
		return errorf(ErrInvalid, "a machine or a machine group is required")
	}
	return nil
}
