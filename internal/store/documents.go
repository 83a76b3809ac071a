package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"maintenance-backend/internal/model"
)

// MachineDocuments returns the machine's documents merged with its group's.
func (s *gormStore) MachineDocuments(ctx context.Context, machineID int64) ([]model.Document, error) {
	scope, err := s.machineScope(ctx, machineID)
	if err != nil {
		return nil, err
	}
	var docs []model.Document
	err = s.db.WithContext(ctx).Scopes(scope).Order("document_name").Find(&docs).Error
	return docs, translate(err)
}

// OwnDocuments returns only the rows linked directly to the machine.
func (s *gormStore) OwnDocuments(ctx context.Context, machineID int64) ([]model.Document, error) {
	var docs []model.Document
	err := s.db.WithContext(ctx).Where("machine_id = ?", machineID).Find(&docs).Error
	return docs, translate(err)
}

func (s *gormStore) GetDocument(ctx context.Context, id int64) (model.Document, error) {
	return getByID[model.Document](ctx, s.db, id)
}

func (s *gormStore) CreateDocument(ctx context.Context, d *model.Document) error {
	if err := s.checkOwner(d, d.MachineID, d.MachineGroupID); err != nil {
		return err
	}
	return create(ctx, s.db, d)
}

// DeleteDocument removes the row and returns it so the caller can remove the file.
func (s *gormStore) DeleteDocument(ctx context.Context, id int64) (model.Document, error) {
	var doc model.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&doc, id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Document{}, id).Error
	})
	return doc, translate(err)
}

// ApplyDocumentPlan inserts and deletes document rows in one transaction.
func (s *gormStore) ApplyDocumentPlan(ctx context.Context, add []model.Document, removeIDs []int64) error {
	if len(add) == 0 && len(removeIDs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(removeIDs) > 0 {
			if err := tx.Where("id IN ?", removeIDs).Delete(&model.Document{}).Error; err != nil {
				return fmt.Errorf("failed to remove %d documents: %w", len(removeIDs), err)
			}
		}
		if len(add) > 0 {
			if err := tx.Omit("Machine", "MachineGroup").Create(&add).Error; err != nil {
				return fmt.Errorf("failed to add %d documents: %w", len(add), err)
			}
		}
		return nil
	})
	return translate(err)
}
