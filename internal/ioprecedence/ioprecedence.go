// Package ioprecedence loads the source precedence table from
// precedence.yaml.
package ioprecedence

import (
	"os"

	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/precedence"
	"gopkg.in/yaml.v3"
)

type ioprecedence struct {
	path string
}

// New creates a loader of ~/.config/hktransit/precedence.yaml.
func New(cfg *config.Config) precedence.Loader {
	return &ioprecedence{path: config.PrecedenceFilePath(cfg.HomeDir)}
}

// NewFromFile creates a loader of a given file.
func NewFromFile(path string) precedence.Loader {
	return &ioprecedence{path: path}
}

// Load reads and validates the precedence table. A missing file gives
// the embedded default table.
func (p *ioprecedence) Load() (*precedence.Table, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		data = []byte(iofs.PrecedenceYAML)
	} else if err != nil {
		return nil, PrecedenceConfigError(p.path, err)
	}

	res, err := parse(data)
	if err != nil {
		return nil, PrecedenceConfigError(p.path, err)
	}
	return res, nil
}

func parse(data []byte) (*precedence.Table, error) {
	var res precedence.Table
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}
