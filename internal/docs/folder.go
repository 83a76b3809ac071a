// Package docs keeps machine documents in a flat folder and reconciles
// that folder with the document rows in the database.
package docs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"maintenance-backend/internal/parse"
)

var ErrOutsideRoot = errors.New("path is outside the document folder")

// File is a document found on disk.
type File struct {
	Name string
	Path string
}

// FolderStore stores every document directly under Root, named
// "<machineID>_<original name>".
type FolderStore struct {
	Root string
}

func NewFolderStore(root string) *FolderStore {
	return &FolderStore{Root: root}
}

func (s *FolderStore) ensureDir() error {
	return os.MkdirAll(s.Root, 0o755)
}

// Save copies r into the folder for machineID and returns the stored path and size.
// An existing file with the same name is replaced.
func (s *FolderStore) Save(machineID int64, name string, r io.Reader) (string, int64, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", 0, fmt.Errorf("invalid file name %q", name)
	}
	if err := s.ensureDir(); err != nil {
		return "", 0, err
	}
	full := filepath.Join(s.Root, parse.AddMachinePrefix(machineID, base))

	tmp, err := os.CreateTemp(s.Root, ".upload-*")
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	return full, n, nil
}

// Remove deletes the file at path. A file that is already gone is not an error.
func (s *FolderStore) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open opens a stored document for reading.
func (s *FolderStore) Open(path string) (*os.File, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// List returns the files in the folder that belong to machineID, sorted by name.
// A missing folder yields no files.
func (s *FolderStore) List(machineID int64) ([]File, error) {
	entries, err := os.ReadDir(s.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []File
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		parsed, err := parse.ParseDocumentName(e.Name())
		if err != nil || parsed.MachineID != machineID {
			continue
		}
		files = append(files, File{Name: e.Name(), Path: filepath.Join(s.Root, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *FolderStore) resolve(path string) (string, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	full, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return full, nil
}
