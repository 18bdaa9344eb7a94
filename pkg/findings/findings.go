// Package findings describes results of integrity checks and keeps them
// in a reproducible order.
package findings

import (
	"cmp"
	"fmt"
	"slices"
)

// Class is a family of checks.
type Class string

const (
	Schema           Class = "schema"
	Uniqueness       Class = "uniqueness"
	Referential      Class = "referential"
	CrossConsistency Class = "cross_consistency"
	// Merge findings come from Normalize when sources disagree.
	Merge Class = "merge"
)

var classRank = map[Class]int{
	Schema:           1,
	Uniqueness:       2,
	Referential:      3,
	CrossConsistency: 4,
	Merge:            5,
}

// Classes returns check classes in report order.
func Classes() []Class {
	return []Class{Schema, Uniqueness, Referential, CrossConsistency, Merge}
}

// Severity tells if a finding blocks Commit.
type Severity string

const (
	Fatal   Severity = "fatal"
	Warning Severity = "warning"
)

// Finding is one machine-actionable result of a check.
type Finding struct {
	Class    Class    `json:"class"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`

	// Entity is the kind of entity, usually a table name.
	Entity string `json:"entity"`

	// Key is the stable key (or composite key) of the entity.
	Key string `json:"key"`

	Field    string `json:"field,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

func (f Finding) String() string {
	res := fmt.Sprintf("[%s] %s %s %s", f.Severity, f.Code, f.Entity, f.Key)
	if f.Field != "" {
		res += fmt.Sprintf(" %s: expected %s, got %s", f.Field, f.Expected, f.Actual)
	}
	return res
}

// Compare orders findings by class, key, code, field, expected and actual.
func Compare(a, b Finding) int {
	return cmp.Or(
		cmp.Compare(classRank[a.Class], classRank[b.Class]),
		cmp.Compare(a.Key, b.Key),
		cmp.Compare(a.Code, b.Code),
		cmp.Compare(a.Entity, b.Entity),
		cmp.Compare(a.Field, b.Field),
		cmp.Compare(a.Expected, b.Expected),
		cmp.Compare(a.Actual, b.Actual),
	)
}

// Sort orders findings in place.
func Sort(ff []Finding) {
	slices.SortStableFunc(ff, Compare)
}
