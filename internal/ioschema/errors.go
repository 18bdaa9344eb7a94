package ioschema

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
)

// OpenError is returned when a SQLite artifact cannot be opened.
func OpenError(path string, err error) error {
	msg := `Cannot open SQLite database <em>%s</em>

<em>Possible causes:</em>
  - Output directory does not exist or is read-only
  - Disk is full`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.SQLiteOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open %s: %w", fn, path, err),
	}
}

// CreateTableError is returned when a table cannot be created.
func CreateTableError(table string, err error) error {
	msg := "Cannot create table <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot create table %s: %w", fn, table, err),
	}
}

// CreateIndexError is returned when an index cannot be built. Unique
// partial indexes fail here if the data violate them.
func CreateIndexError(table string, err error) error {
	msg := `Cannot create indexes of <em>%s</em>

<em>Possible causes:</em>
  - Duplicate rows violate a unique index`
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IndexCreateError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot create index on %s: %w", fn, table, err),
	}
}

// InsertError is returned when rows cannot be inserted.
func InsertError(table string, err error) error {
	msg := "Cannot insert rows into <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.TableInsertError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: insert into %s: %w", fn, table, err),
	}
}

// ReadError is returned when rows cannot be read.
func ReadError(table string, err error) error {
	msg := "Cannot read rows of <em>%s</em>"
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.TableReadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: read %s: %w", fn, table, err),
	}
}
