package store

import (
	"context"

	"maintenance-backend/internal/model"
)

func (s *gormStore) ListActions(ctx context.Context, machineID *int64) ([]model.Action, error) {
	q := s.db.WithContext(ctx)
	if machineID != nil {
		q = q.Where("machine_id = ?", *machineID)
	}
	var actions []model.Action
	err := q.Order("name").Find(&actions).Error
	return actions, translate(err)
}

func (s *gormStore) GetAction(ctx context.Context, id int64) (model.Action, error) {
	return getByID[model.Action](ctx, s.db, id)
}

func (s *gormStore) CreateAction(ctx context.Context, a *model.Action) error {
	if err := s.check(a); err != nil {
		return err
	}
	return create(ctx, s.db, a)
}

func (s *gormStore) UpdateAction(ctx context.Context, a *model.Action) error {
	if err := s.check(a); err != nil {
		return err
	}
	return updateByID(ctx, s.db, a.ID, a)
}

func (s *gormStore) DeleteAction(ctx context.Context, id int64) error {
	return deleteByID[model.Action](ctx, s.db, id)
}
