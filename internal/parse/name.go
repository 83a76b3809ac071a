package parse

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// prefixSep separates the owning machine ID from the original file name.
const prefixSep = "_"

// ParsedName holds the structured data parsed from a stored document file name.
type ParsedName struct {
	MachineID int64
	Name      string
	Ext       string
}

// AddMachinePrefix builds the stored file name for a machine's document.
func AddMachinePrefix(machineID int64, name string) string {
	return strconv.FormatInt(machineID, 10) + prefixSep + filepath.Base(name)
}

// RemoveMachinePrefix drops everything up to the first separator.
// Names without a separator are returned unchanged.
func RemoveMachinePrefix(filename string) string {
	parts := strings.Split(filename, prefixSep)
	if len(parts) < 2 {
		return filename
	}
	return strings.Join(parts[1:], prefixSep)
}

// HasMachinePrefix reports whether filename belongs to machineID.
func HasMachinePrefix(filename string, machineID int64) bool {
	parsed, err := ParseDocumentName(filename)
	return err == nil && parsed.MachineID == machineID
}

// FileExtension returns the text after the last dot, or "" when there is none.
func FileExtension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return filename[i+1:]
}

// ParseDocumentName extracts the machine ID, display name and extension from a stored file name.
func ParseDocumentName(filename string) (ParsedName, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	head, rest, ok := strings.Cut(base, prefixSep)
	if !ok || rest == "" {
		return ParsedName{}, fmt.Errorf("missing machine prefix in %q", filename)
	}
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil || id <= 0 {
		return ParsedName{}, fmt.Errorf("invalid machine prefix in %q", filename)
	}
	return ParsedName{MachineID: id, Name: rest, Ext: FileExtension(rest)}, nil
}
