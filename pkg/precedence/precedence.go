// Package precedence decides which source wins when several sources
// describe the same canonical entity.
//
// The precedence table comes from precedence.yaml. Sources are ranked
// per entity field, then per entity kind, then by the default list.
// Sources that are not listed rank after listed ones in lexical order.
package precedence

import (
	"cmp"
	"fmt"
	"slices"
)

// Loader provides the precedence table.
type Loader interface {
	Load() (*Table, error)
}

// Table is the content of precedence.yaml.
type Table struct {
	// Default ranks sources for all entities and fields, most
	// authoritative first.
	Default []string `yaml:"default"`

	// Entities ranks sources per entity kind, e.g. 'places'.
	Entities map[string][]string `yaml:"entities,omitempty"`

	// Fields ranks sources per 'entity.field', e.g. 'places.name_tc'.
	Fields map[string][]string `yaml:"fields,omitempty"`
}

// Validate checks that no ranking lists a source twice.
func (t *Table) Validate() error {
	if err := checkList("default", t.Default); err != nil {
		return err
	}
	for _, k := range sortedKeys(t.Entities) {
		if err := checkList("entities."+k, t.Entities[k]); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(t.Fields) {
		if err := checkList("fields."+k, t.Fields[k]); err != nil {
			return err
		}
	}
	return nil
}

func checkList(name string, list []string) error {
	seen := make(map[string]struct{})
	for _, v := range list {
		if v == "" {
			return fmt.Errorf("%s: empty source name", name)
		}
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s: source '%s' is listed twice", name, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func sortedKeys(m map[string][]string) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

// Ranking returns the ranked list of sources for a field of an entity.
func (t *Table) Ranking(entity, field string) []string {
	if t == nil {
		return nil
	}
	if res, ok := t.Fields[entity+"."+field]; ok {
		return res
	}
	if res, ok := t.Entities[entity]; ok {
		return res
	}
	return t.Default
}

// Compare orders two sources for a field, the more authoritative first.
func (t *Table) Compare(entity, field, a, b string) int {
	rank := t.Ranking(entity, field)
	ra, rb := rankOf(rank, a), rankOf(rank, b)
	return cmp.Or(cmp.Compare(ra, rb), cmp.Compare(a, b))
}

func rankOf(rank []string, source string) int {
	if i := slices.Index(rank, source); i >= 0 {
		return i
	}
	return len(rank)
}

// Value is a value of a field given by one source. Values that are not
// Valid do not take part in a reduction.
type Value[T comparable] struct {
	Source string
	Val    T
	Valid  bool
}

// Result of reducing values of one field.
type Result[T comparable] struct {
	// Val is the value of the most authoritative source.
	Val T
	// Valid is false when no source gave a value.
	Valid bool
	// Source gave the winning value.
	Source string
	// Disagree is true when a less authoritative source gave a
	// different value.
	Disagree bool
	// Other is the first disagreeing value.
	Other T
	// OtherSource gave the Other value.
	OtherSource string
}

// Reduce picks the value of the most authoritative source that has a
// value. The result does not depend on the order of vals.
func Reduce[T comparable](
	t *Table,
	entity, field string,
	vals []Value[T],
) Result[T] {
	var res Result[T]
	valid := make([]Value[T], 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return res
	}
	slices.SortStableFunc(valid, func(a, b Value[T]) int {
		return t.Compare(entity, field, a.Source, b.Source)
	})

	res.Val = valid[0].Val
	res.Valid = true
	res.Source = valid[0].Source
	for _, v := range valid[1:] {
		if v.Val != res.Val {
			res.Disagree = true
			res.Other = v.Val
			res.OtherSource = v.Source
			break
		}
	}
	return res
}
