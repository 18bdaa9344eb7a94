package iovalidate

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/schema"
)

// Finding codes.
const (
	CodeEnum            = "ENUM_OUT_OF_DOMAIN"
	CodeRange           = "RANGE_VIOLATION"
	CodeKeyNull         = "KEY_COLUMN_NULL"
	CodeUnique          = "UNIQUENESS_VIOLATION"
	CodeMultipleDefault = "MULTIPLE_DEFAULTS"
	CodeFKMissing       = "FK_MISSING"
	CodeParentCycle     = "PARENT_CYCLE"
	CodeSeqBase         = "PATTERN_SEQ_BASE_MISMATCH"
	CodeSeqGaps         = "PATTERN_SEQ_GAPS_OR_DUPES"
	CodeFareWindow      = "FARE_WINDOW_OUT_OF_RANGE"
	CodeCircularEnds    = "CIRCULAR_ENDPOINTS_DIFFER"
	CodeTooShort        = "PATTERN_TOO_SHORT"
	CodeTooLong         = "PATTERN_TOO_LONG"
	CodeMissingFares    = "ROUTE_MISSING_FARES"
	CodeHeadwayOverlap  = "HEADWAY_OVERLAP"
	CodeHeadwayWindow   = "HEADWAY_WINDOW_INVALID"
	CodeUnresolved      = "UNRESOLVED_NONEMPTY"
)

// checker collects findings of one class.
type checker struct {
	class findings.Class
	ff    []findings.Finding
}

func (c *checker) add(sev findings.Severity, code, entity, key, field, exp, act string) {
	c.ff = append(c.ff, findings.Finding{
		Class:    c.class,
		Severity: sev,
		Code:     code,
		Entity:   entity,
		Key:      key,
		Field:    field,
		Expected: exp,
		Actual:   act,
	})
}

func (c *checker) fatal(code, entity, key, field, exp, act string) {
	c.add(findings.Fatal, code, entity, key, field, exp, act)
}

func (c *checker) warn(code, entity, key, field, exp, act string) {
	c.add(findings.Warning, code, entity, key, field, exp, act)
}

func (c *checker) hasFatal() bool {
	return slices.ContainsFunc(c.ff, func(f findings.Finding) bool {
		return f.Severity == findings.Fatal
	})
}

// data is a read-only view of the graph shared by all checks.
type data struct {
	g    *graph.Graph
	idx  *graph.Index
	opts config.ValidateConfig

	// stops are pattern stops per pattern id ordered by seq.
	stops map[int64][]schema.PatternStop
}

func newData(g *graph.Graph, opts config.ValidateConfig) *data {
	idx := graph.NewIndex(g)
	stops := make(map[int64][]schema.PatternStop, len(idx.PatternStops))
	for id, ss := range idx.PatternStops {
		ss = slices.Clone(ss)
		slices.SortStableFunc(ss, func(a, b schema.PatternStop) int {
			return cmp.Compare(a.Seq, b.Seq)
		})
		stops[id] = ss
	}
	return &data{g: g, idx: idx, opts: opts, stops: stops}
}

// patternKey returns the stable key of a pattern, or its id when the
// pattern is missing.
func (d *data) patternKey(id int64) string {
	if p, ok := d.idx.Patterns[id]; ok {
		return p.PatternKey
	}
	return "pattern_id=" + itoa(id)
}

func (d *data) ruleKey(id int64) string {
	if r, ok := d.idx.Rules[id]; ok {
		return r.RuleKey
	}
	return "fare_rule_id=" + itoa(id)
}

func itoa[T ~int | ~int64](i T) string {
	return strconv.FormatInt(int64(i), 10)
}
