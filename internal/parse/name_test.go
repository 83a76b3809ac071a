package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentName(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedName
		expectErr bool
	}{
		{
			name:     "Standard Case",
			raw:      "12_manual.pdf",
			expected: ParsedName{MachineID: 12, Name: "manual.pdf", Ext: "pdf"},
		},
		{
			name:     "Underscore in name",
			raw:      "7_wiring_diagram_v2.dwg",
			expected: ParsedName{MachineID: 7, Name: "wiring_diagram_v2.dwg", Ext: "dwg"},
		},
		{
			name:     "Full path",
			raw:      "/srv/docs/3_notes.txt",
			expected: ParsedName{MachineID: 3, Name: "notes.txt", Ext: "txt"},
		},
		{
			name:     "No extension",
			raw:      "5_README",
			expected: ParsedName{MachineID: 5, Name: "README", Ext: ""},
		},
		{
			name:      "No prefix",
			raw:       "manual.pdf",
			expectErr: true,
		},
		{
			name:      "Non numeric prefix",
			raw:       "abc_manual.pdf",
			expectErr: true,
		},
		{
			name:      "Prefix only",
			raw:       "9_",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseDocumentName(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestPrefixHelpers(t *testing.T) {
	assert.Equal(t, "4_manual.pdf", AddMachinePrefix(4, "manual.pdf"))
	assert.Equal(t, "4_manual.pdf", AddMachinePrefix(4, "/tmp/upload/manual.pdf"))

	assert.Equal(t, "manual.pdf", RemoveMachinePrefix("4_manual.pdf"))
	assert.Equal(t, "a_b.pdf", RemoveMachinePrefix("4_a_b.pdf"))
	assert.Equal(t, "manual.pdf", RemoveMachinePrefix("manual.pdf"))

	assert.True(t, HasMachinePrefix("4_manual.pdf", 4))
	assert.False(t, HasMachinePrefix("44_manual.pdf", 4))
	assert.False(t, HasMachinePrefix("manual.pdf", 4))

	assert.Equal(t, "gz", FileExtension("archive.tar.gz"))
	assert.Equal(t, "", FileExtension("Makefile"))
	assert.Equal(t, "", FileExtension("trailing."))
}
