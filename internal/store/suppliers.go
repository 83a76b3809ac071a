package store

import (
	"context"

	"maintenance-backend/internal/model"
)

func (s *gormStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := s.db.WithContext(ctx).Order("name").Find(&suppliers).Error
	return suppliers, translate(err)
}

func (s *gormStore) GetSupplier(ctx context.Context, id int64) (model.Supplier, error) {
	return getByID[model.Supplier](ctx, s.db, id)
}

func (s *gormStore) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	if err := s.check(sup); err != nil {
		return err
	}
	return create(ctx, s.db, sup)
}

func (s *gormStore) UpdateSupplier(ctx context.Context, sup *model.Supplier) error {
	if err := s.check(sup); err != nil {
		return err
	}
	return updateByID(ctx, s.db, sup.ID, sup)
}

func (s *gormStore) DeleteSupplier(ctx context.Context, id int64) error {
	return deleteByID[model.Supplier](ctx, s.db, id)
}
