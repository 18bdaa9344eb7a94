package iostaged

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gnames/hktransit/pkg/staged"
)

const bom = "\ufeff"

// column binds a CSV column to a struct field.
type column struct {
	field    int
	name     string
	required bool
}

// columns returns csv-tagged fields of a record type.
func columns(t reflect.Type) []column {
	var res []column
	for i := range t.NumField() {
		f := t.Field(i)
		name := f.Tag.Get("csv")
		if name == "" || name == "-" {
			continue
		}
		req := strings.Contains(f.Tag.Get("validate"), "required")
		res = append(res, column{field: i, name: name, required: req})
	}
	return res
}

func decodeFile[T any](
	v *validator.Validate,
	b staged.Batch,
	path string,
) ([]T, []staged.Invalid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, BatchError(path, err)
	}
	defer f.Close()
	return decode[T](v, b, path, f)
}

// decode reads CSV with a header row into records of type T. Values are
// trimmed, rows failing validation are returned as invalid.
func decode[T any](
	v *validator.Validate,
	b staged.Batch,
	path string,
	r io.Reader,
) ([]T, []staged.Invalid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, BatchError(path, err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		pos[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	var t T
	typ := reflect.TypeOf(t)
	cols := columns(typ)
	idx := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		p, ok := pos[strings.ToUpper(c.name)]
		if !ok {
			p = -1
			if c.required {
				missing = append(missing, c.name)
			}
		}
		idx[i] = p
	}
	if len(missing) > 0 {
		return nil, nil, TableError(path, string(b.Table), missing)
	}

	var res []T
	var invalid []staged.Invalid
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, BatchError(path, fmt.Errorf("line %d: %w", line, err))
		}

		origin := staged.Origin{
			Source: b.Source, Mode: b.Mode, Path: b.Path, Line: line,
		}
		var rec T
		rv := reflect.ValueOf(&rec).Elem()
		rv.FieldByName("Origin").Set(reflect.ValueOf(origin))
		for i, c := range cols {
			if idx[i] < 0 || idx[i] >= len(row) {
				continue
			}
			rv.Field(c.field).SetString(strings.TrimSpace(row[idx[i]]))
		}

		if err = v.Struct(rec); err != nil {
			invalid = append(invalid, toInvalid(origin, b.Table, err))
			continue
		}
		res = append(res, rec)
	}
	return res, invalid, nil
}

func toInvalid(o staged.Origin, table staged.Table, err error) staged.Invalid {
	res := staged.Invalid{Origin: o, Table: table}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		res.Field = fe.Field()
		res.Value = fmt.Sprint(fe.Value())
		res.Tag = fe.Tag()
		return res
	}
	res.Tag = err.Error()
	return res
}
