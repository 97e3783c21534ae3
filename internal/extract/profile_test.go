package extract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal"
	"supplydesk/internal/extract"
)

func TestValidateMappings(t *testing.T) {
	code := internal.ColumnMapping{Column: 1, Field: internal.FieldCode}
	desc := internal.ColumnMapping{Column: 2, Field: internal.FieldDescription}
	cases := []struct {
		name     string
		mappings []internal.ColumnMapping
		ok       bool
	}{
		{"minimal", []internal.ColumnMapping{code, desc}, true},
		{"skip repeats", []internal.ColumnMapping{code, desc, {Column: 3, Field: internal.FieldSkip}, {Column: 4, Field: internal.FieldSkip}}, true},
		{"missing description", []internal.ColumnMapping{code}, false},
		{"code twice", []internal.ColumnMapping{code, desc, {Column: 3, Field: internal.FieldCode}}, false},
		{"price twice", []internal.ColumnMapping{code, desc, {Column: 3, Field: internal.FieldPrice}, {Column: 4, Field: internal.FieldPrice}}, false},
		{"duplicate column", []internal.ColumnMapping{code, {Column: 1, Field: internal.FieldDescription}}, false},
		{"zero column", []internal.ColumnMapping{{Column: 0, Field: internal.FieldCode}, desc}, false},
		{"unknown field", []internal.ColumnMapping{code, desc, {Column: 3, Field: "colour"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := extract.ValidateMappings(tc.mappings)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNormalizedDefaults(t *testing.T) {
	p, err := extract.SupplierProfile{Name: "bwa", Kind: extract.KindHeuristicBWA}.Normalized()
	require.NoError(t, err)
	assert.Equal(t, 1, p.StartRow)
	assert.Equal(t, []string{"BWA"}, p.Rules.Prefixes)
	assert.NotEmpty(t, p.Rules.StopWords)

	_, err = extract.SupplierProfile{Name: "x", StartRow: -1}.Normalized()
	assert.ErrorIs(t, err, extract.ErrInvalidProfile)
	_, err = extract.SupplierProfile{Name: "x", Kind: "ocr"}.Normalized()
	assert.ErrorIs(t, err, extract.ErrInvalidProfile)
}

const profilesYAML = `
profiles:
  - name: Acme Tiles
    kind: columnMapped
    senders: [acmetiles.com.au]
    hasHeaderRow: true
    mappings:
      - {column: 1, field: code}
      - {column: 2, field: description}
      - {column: 4, field: price}
    rules:
      prefixes: [ACM]
  - name: bwa
    kind: heuristicBWA
    senders: [bwa.com.au]
`

func TestRegistryFromYAML(t *testing.T) {
	reg, err := extract.ParseRegistry([]byte(profilesYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"generic", "bwa", "Acme Tiles"}, reg.Names())

	acme, ok := reg.Get("acme tiles")
	require.True(t, ok)
	assert.Equal(t, extract.KindColumnMapped, acme.Kind)
	assert.Equal(t, 2, acme.StartRow)
	assert.Equal(t, []string{"ACM"}, acme.Rules.Prefixes)

	assert.Equal(t, "Acme Tiles", reg.ForSender("Sales <sales@acmetiles.com.au>").Name)
	assert.Equal(t, "bwa", reg.ForSender("orders@mail.bwa.com.au").Name)
	assert.Equal(t, "generic", reg.ForSender("someone@example.org").Name)
}

func TestRegistryRejectsInvalidProfiles(t *testing.T) {
	_, err := extract.ParseRegistry([]byte("profiles:\n  - name: broken\n    kind: columnMapped\n    mappings:\n      - {column: 1, field: code}\n"))
	assert.ErrorIs(t, err, extract.ErrInvalidProfile)
}

func TestLoadRegistryMissingFileUsesBuiltins(t *testing.T) {
	reg, err := extract.LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"generic", "bwa"}, reg.Names())

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profilesYAML), 0o644))
	reg, err = extract.LoadRegistry(path)
	require.NoError(t, err)
	_, ok := reg.Get("Acme Tiles")
	assert.True(t, ok)
}
