package findings

import (
	"maps"
	"slices"
)

// Report is an ordered aggregate of findings.
type Report struct {
	Findings []Finding     `json:"findings"`
	Fatal    int           `json:"fatal"`
	Warnings int           `json:"warnings"`
	ByCode   map[string]int `json:"by_code"`
}

// NewReport sorts findings and counts them.
func NewReport(ff []Finding) *Report {
	res := &Report{
		Findings: slices.Clone(ff),
		ByCode:   make(map[string]int),
	}
	Sort(res.Findings)
	for _, f := range res.Findings {
		if f.Severity == Fatal {
			res.Fatal++
		} else {
			res.Warnings++
		}
		res.ByCode[f.Code]++
	}
	return res
}

// HasFatal is true when Commit has to be blocked.
func (r *Report) HasFatal() bool {
	return r.Fatal > 0
}

// Filter returns findings of a given severity in report order.
func (r *Report) Filter(sev Severity) []Finding {
	var res []Finding
	for _, f := range r.Findings {
		if f.Severity == sev {
			res = append(res, f)
		}
	}
	return res
}

// Notes returns warnings with at most limit findings per code.
// Non-positive limit keeps everything.
func (r *Report) Notes(limit int) []Finding {
	seen := make(map[string]int)
	var res []Finding
	for _, f := range r.Findings {
		if f.Severity != Warning {
			continue
		}
		seen[f.Code]++
		if limit > 0 && seen[f.Code] > limit {
			continue
		}
		res = append(res, f)
	}
	return res
}

// Group is findings of one class and entity kind.
type Group struct {
	Class    Class
	Entity   string
	Findings []Finding
}

// Grouped splits findings of the given severity by class and entity,
// keeping report order.
func (r *Report) Grouped(sev Severity) []Group {
	idx := make(map[Class]map[string][]Finding)
	for _, f := range r.Filter(sev) {
		if idx[f.Class] == nil {
			idx[f.Class] = make(map[string][]Finding)
		}
		idx[f.Class][f.Entity] = append(idx[f.Class][f.Entity], f)
	}

	var res []Group
	for _, c := range Classes() {
		ents := idx[c]
		for _, e := range slices.Sorted(maps.Keys(ents)) {
			res = append(res, Group{Class: c, Entity: e, Findings: ents[e]})
		}
	}
	return res
}
