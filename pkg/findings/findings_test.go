package findings_test

import (
	"testing"

	"github.com/gnames/hktransit/pkg/findings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []findings.Finding {
	return []findings.Finding{
		{Class: findings.CrossConsistency, Severity: findings.Warning,
			Code: "PATTERN_TOO_SHORT", Entity: "route_patterns", Key: "b"},
		{Class: findings.Referential, Severity: findings.Fatal,
			Code: "FK_MISSING", Entity: "routes", Key: "z", Field: "operator_id"},
		{Class: findings.Schema, Severity: findings.Fatal,
			Code: "ENUM_OUT_OF_DOMAIN", Entity: "routes", Key: "y", Field: "mode"},
		{Class: findings.CrossConsistency, Severity: findings.Warning,
			Code: "PATTERN_TOO_SHORT", Entity: "route_patterns", Key: "a"},
		{Class: findings.Merge, Severity: findings.Warning,
			Code: "ATTRIBUTE_DISAGREEMENT", Entity: "places", Key: "a"},
	}
}

func TestSortOrder(t *testing.T) {
	ff := sample()
	findings.Sort(ff)

	var got []string
	for _, f := range ff {
		got = append(got, string(f.Class)+"/"+f.Key)
	}
	assert.Equal(t, []string{
		"schema/y",
		"referential/z",
		"cross_consistency/a",
		"cross_consistency/b",
		"merge/a",
	}, got)
}

func TestReport(t *testing.T) {
	r := findings.NewReport(sample())

	assert.True(t, r.HasFatal())
	assert.Equal(t, 2, r.Fatal)
	assert.Equal(t, 3, r.Warnings)
	assert.Equal(t, 2, r.ByCode["PATTERN_TOO_SHORT"])

	t.Run("notes are capped per code", func(t *testing.T) {
		notes := r.Notes(1)
		require.Len(t, notes, 2)
		assert.Equal(t, "a", notes[0].Key)
		assert.Equal(t, "ATTRIBUTE_DISAGREEMENT", notes[1].Code)
	})

	t.Run("fatal findings are grouped by class and entity", func(t *testing.T) {
		groups := r.Grouped(findings.Fatal)
		require.Len(t, groups, 2)
		assert.Equal(t, findings.Schema, groups[0].Class)
		assert.Equal(t, "routes", groups[0].Entity)
		assert.Equal(t, findings.Referential, groups[1].Class)
	})
}

func TestReportIsReproducible(t *testing.T) {
	ff := sample()
	rev := make([]findings.Finding, len(ff))
	for i := range ff {
		rev[len(ff)-1-i] = ff[i]
	}
	assert.Equal(t, findings.NewReport(ff), findings.NewReport(rev))
}
