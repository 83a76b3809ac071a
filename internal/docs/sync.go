package docs

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"maintenance-backend/internal/model"
	"maintenance-backend/internal/parse"
)

// Plan lists the changes that bring the document rows in line with the folder.
type Plan struct {
	Add    []File
	Remove []model.Document
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

// Diff compares files on disk with document rows by path. Files without a
// row are added; rows whose file is gone are removed.
func Diff(files []File, rows []model.Document) Plan {
	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[filepath.Clean(f.Path)] = struct{}{}
	}
	inDB := make(map[string]struct{}, len(rows))
	var plan Plan
	for _, d := range rows {
		p := filepath.Clean(d.DocumentPath)
		inDB[p] = struct{}{}
		if _, ok := onDisk[p]; !ok {
			plan.Remove = append(plan.Remove, d)
		}
	}
	for _, f := range files {
		if _, ok := inDB[filepath.Clean(f.Path)]; !ok {
			plan.Add = append(plan.Add, f)
		}
	}
	return plan
}

// NewDocument builds the row for a file stored for machineID.
func NewDocument(machineID int64, f File) model.Document {
	name := parse.RemoveMachinePrefix(f.Name)
	return model.Document{
		MachineID:    &machineID,
		DocumentName: name,
		DocumentType: parse.FileExtension(name),
		DocumentPath: f.Path,
	}
}

// Repository is the persistence the syncer needs.
type Repository interface {
	OwnDocuments(ctx context.Context, machineID int64) ([]model.Document, error)
	ApplyDocumentPlan(ctx context.Context, add []model.Document, removeIDs []int64) error
}

// Result summarises one machine's sync.
type Result struct {
	MachineID int64 `json:"machineId"`
	Added     int   `json:"added"`
	Removed   int   `json:"removed"`
}

// Syncer reconciles the folder with the database, one machine at a time.
type Syncer struct {
	folder *FolderStore
	repo   Repository
	mu     sync.Mutex
}

func NewSyncer(folder *FolderStore, repo Repository) *Syncer {
	return &Syncer{folder: folder, repo: repo}
}

// Sync applies the folder's state for machineID to the database.
func (s *Syncer) Sync(ctx context.Context, machineID int64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{MachineID: machineID}
	files, err := s.folder.List(machineID)
	if err != nil {
		return res, fmt.Errorf("failed to list documents for machine %d: %w", machineID, err)
	}
	rows, err := s.repo.OwnDocuments(ctx, machineID)
	if err != nil {
		return res, fmt.Errorf("failed to load documents for machine %d: %w", machineID, err)
	}

	plan := Diff(files, rows)
	if plan.Empty() {
		return res, nil
	}
	add := make([]model.Document, 0, len(plan.Add))
	for _, f := range plan.Add {
		add = append(add, NewDocument(machineID, f))
	}
	removeIDs := make([]int64, 0, len(plan.Remove))
	for _, d := range plan.Remove {
		removeIDs = append(removeIDs, d.ID)
	}
	if err := s.repo.ApplyDocumentPlan(ctx, add, removeIDs); err != nil {
		return res, fmt.Errorf("failed to sync documents for machine %d: %w", machineID, err)
	}
	res.Added, res.Removed = len(add), len(removeIDs)
	log.Printf("Synced documents for machine %d: %d added, %d removed", machineID, res.Added, res.Removed)
	return res, nil
}

// SyncAll syncs every machine, stopping at the first error.
func (s *Syncer) SyncAll(ctx context.Context, machineIDs []int64) ([]Result, error) {
	results := make([]Result, 0, len(machineIDs))
	for _, id := range machineIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.Sync(ctx, id)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
