package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-backend/internal/model"
)

func (s *gormStore) ListSpareParts(ctx context.Context, machineID *int64) ([]model.SparePart, error) {
	q := s.db.WithContext(ctx)
	if machineID != nil {
		q = q.Where("machine_id = ?", *machineID)
	}
	var parts []model.SparePart
	err := q.Order("name").Find(&parts).Error
	return parts, translate(err)
}

func (s *gormStore) GetSparePart(ctx context.Context, id int64) (model.SparePart, error) {
	return getByID[model.SparePart](ctx, s.db, id)
}

func (s *gormStore) CreateSparePart(ctx context.Context, p *model.SparePart) error {
	if err := s.check(p); err != nil {
		return err
	}
	return create(ctx, s.db, p)
}

func (s *gormStore) UpdateSparePart(ctx context.Context, p *model.SparePart) error {
	if err := s.check(p); err != nil {
		return err
	}
	return updateByID(ctx, s.db, p.ID, p)
}

func (s *gormStore) DeleteSparePart(ctx context.Context, id int64) error {
	return deleteByID[model.SparePart](ctx, s.db, id)
}

// AdjustSparePartQuantity adds delta to the stock, refusing to go below zero.
func (s *gormStore) AdjustSparePartQuantity(ctx context.Context, id int64, delta int) (model.SparePart, error) {
	var part model.SparePart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&part, id).Error; err != nil {
			return err
		}
		qty := part.Quantity + delta
		if qty < 0 {
			return errorf(ErrInvalid, "only %d of %s in stock", part.Quantity, part.PartNumber)
		}
		if err := tx.Model(&part).Update("quantity", qty).Error; err != nil {
			return err
		}
		part.Quantity = qty
		return nil
	})
	return part, translate(err)
}

// UpsertSpareParts inserts the parts, updating existing rows matched by part number.
func (s *gormStore) UpsertSpareParts(ctx context.Context, parts []model.SparePart) error {
	if len(parts) == 0 {
		return nil
	}
	for i := range parts {
		if err := s.check(&parts[i]); err != nil {
			return fmt.Errorf("part %q: %w", parts[i].PartNumber, err)
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "part_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"machine_id", "name", "quantity", "reorder_level", "location", "supplier"}),
		}).Create(&parts).Error
	})
	return translate(err)
}
