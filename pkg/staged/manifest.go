package staged

import (
	"fmt"
	"slices"

	"github.com/gnames/hktransit/pkg/schema"
)

// Reader provides staged records of a run.
type Reader interface {
	// Manifest returns the list of batches.
	Manifest() (*Manifest, error)
	// Read decodes all batches of the manifest.
	Read(m *Manifest) (*Dataset, error)
}

// Manifest is the content of manifest.yaml of a staged directory.
type Manifest struct {
	Batches []Batch `yaml:"batches"`
}

// Batch is one staged file of one source and table.
type Batch struct {
	// Source is the id used by the precedence table.
	Source string `yaml:"source" validate:"required"`
	Table  Table  `yaml:"table" validate:"required"`
	Mode   string `yaml:"mode"`
	// Path is relative to the staged directory.
	Path string `yaml:"path" validate:"required"`
}

// Check verifies table and mode of a batch.
func (b Batch) Check() error {
	if !slices.Contains(Tables(), b.Table) {
		return fmt.Errorf("batch '%s': unknown table '%s'", b.Path, b.Table)
	}
	if b.Mode != "" && !schema.Modes.Valid(b.Mode) {
		return fmt.Errorf("batch '%s': unknown mode '%s'", b.Path, b.Mode)
	}
	if b.Table.NeedsMode() && b.Mode == "" {
		return fmt.Errorf("batch '%s': table '%s' needs a mode", b.Path, b.Table)
	}
	return nil
}
