package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-backend/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	ErrInvalid  = errors.New("invalid record")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Users
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	UserByUsername(ctx context.Context, username string) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	UpdateUser(ctx context.Context, u *model.User) error
	SetPassword(ctx context.Context, id int64, hash string) error
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)

	// Suppliers
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (model.Supplier, error)
	CreateSupplier(ctx context.Context, s *model.Supplier) error
	UpdateSupplier(ctx context.Context, s *model.Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error

	// Machine groups
	ListGroups(ctx context.Context) ([]model.MachineGroup, error)
	GetGroup(ctx context.Context, id int64) (model.MachineGroup, error)
	CreateGroup(ctx context.Context, g *model.MachineGroup) error
	UpdateGroup(ctx context.Context, g *model.MachineGroup) error
	DeleteGroup(ctx context.Context, id int64) error

	// Machines and categories
	ListMachines(ctx context.Context, f MachineFilter) ([]model.Machine, error)
	GetMachine(ctx context.Context, id int64) (model.Machine, error)
	CreateMachine(ctx context.Context, m *model.Machine) error
	UpdateMachine(ctx context.Context, m *model.Machine) error
	DeleteMachine(ctx context.Context, id int64) error
	MachineCategories(ctx context.Context, machineID int64) ([]model.MachineCategory, error)
	CreateCategory(ctx context.Context, c *model.MachineCategory) error
	DeleteCategory(ctx context.Context, id int64) error

	// Accessories
	MachineGenericAccessories(ctx context.Context, machineID int64) ([]model.GenericAccessory, error)
	GroupGenericAccessories(ctx context.Context, groupID int64) ([]model.GenericAccessory, error)
	GetGenericAccessory(ctx context.Context, id int64) (model.GenericAccessory, error)
	CreateGenericAccessory(ctx context.Context, a *model.GenericAccessory) error
	UpdateGenericAccessory(ctx context.Context, a *model.GenericAccessory) error
	DeleteGenericAccessory(ctx context.Context, id int64) error
	MachineSpecialAccessories(ctx context.Context, machineID int64) ([]model.SpecialAccessory, error)
	GroupSpecialAccessories(ctx context.Context, groupID int64) ([]model.SpecialAccessory, error)
	GetSpecialAccessory(ctx context.Context, id int64) (model.SpecialAccessory, error)
	CreateSpecialAccessory(ctx context.Context, a *model.SpecialAccessory) error
	UpdateSpecialAccessory(ctx context.Context, a *model.SpecialAccessory) error
	DeleteSpecialAccessory(ctx context.Context, id int64) error

	// Documents
	MachineDocuments(ctx context.Context, machineID int64) ([]model.Document, error)
	OwnDocuments(ctx context.Context, machineID int64) ([]model.Document, error)
	GetDocument(ctx context.Context, id int64) (model.Document, error)
	CreateDocument(ctx context.Context, d *model.Document) error
	DeleteDocument(ctx context.Context, id int64) (model.Document, error)
	ApplyDocumentPlan(ctx context.Context, add []model.Document, removeIDs []int64) error

	// Spare parts
	ListSpareParts(ctx context.Context, machineID *int64) ([]model.SparePart, error)
	GetSparePart(ctx context.Context, id int64) (model.SparePart, error)
	CreateSparePart(ctx context.Context, p *model.SparePart) error
	UpdateSparePart(ctx context.Context, p *model.SparePart) error
	DeleteSparePart(ctx context.Context, id int64) error
	AdjustSparePartQuantity(ctx context.Context, id int64, delta int) (model.SparePart, error)
	UpsertSpareParts(ctx context.Context, parts []model.SparePart) error

	// Checklists
	ListChecklists(ctx context.Context) ([]model.Checklist, error)
	MachineChecklists(ctx context.Context, machineID int64) ([]model.Checklist, error)
	GetChecklist(ctx context.Context, id int64) (model.Checklist, error)
	CreateChecklist(ctx context.Context, c *model.Checklist, now time.Time) error
	UpdateChecklist(ctx context.Context, c *model.Checklist, now time.Time) error
	DeleteChecklist(ctx context.Context, id int64) error
	CompleteChecklist(ctx context.Context, in ChecklistCompletionInput, now time.Time) (model.ChecklistCompletion, error)
	ChecklistCompletions(ctx context.Context, checklistID int64) ([]model.ChecklistCompletion, error)
	RefreshChecklistStatuses(ctx context.Context, now time.Time) (int, error)
	UpcomingChecklists(ctx context.Context, until time.Time) ([]model.Checklist, error)

	// Tickets and actions
	ListTickets(ctx context.Context, f TicketFilter) ([]model.Ticket, error)
	GetTicket(ctx context.Context, id int64) (model.Ticket, error)
	CreateTicket(ctx context.Context, t *model.Ticket) error
	UpdateTicket(ctx context.Context, t *model.Ticket) error
	DeleteTicket(ctx context.Context, id int64) error
	CompleteTicket(ctx context.Context, id int64, in TicketCompletion) (model.Ticket, error)
	MarkOverdueTickets(ctx context.Context, now time.Time) (int64, error)
	RefreshMachineStatuses(ctx context.Context) (int, error)
	ListActions(ctx context.Context, machineID *int64) ([]model.Action, error)
	GetAction(ctx context.Context, id int64) (model.Action, error)
	CreateAction(ctx context.Context, a *model.Action) error
	UpdateAction(ctx context.Context, a *model.Action) error
	DeleteAction(ctx context.Context, id int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, validate: validator.New()}
}

// DB exposes the underlying connection for health checks and tests.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "duplicate key value"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "violates foreign key constraint"),
		strings.Contains(msg, "NOT NULL constraint failed"),
		strings.Contains(msg, "violates not-null constraint"):
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return err
}

func getByID[T any](ctx context.Context, db *gorm.DB, id int64, preloads ...string) (T, error) {
	var v T
	q := db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&v, id).Error; err != nil {
		return v, translate(err)
	}
	return v, nil
}

// updateByID overwrites every column of the row except the key and creation time.
func updateByID[T any](ctx context.Context, db *gorm.DB, id int64, v *T, omit ...string) error {
	omit = append(omit, "id", "created_at", clause.Associations)
	res := db.WithContext(ctx).Model(v).Where("id = ?", id).Select("*").Omit(omit...).Updates(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id int64) error {
	var v T
	res := db.WithContext(ctx).Delete(&v, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func create(ctx context.Context, db *gorm.DB, v any) error {
	return translate(db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
