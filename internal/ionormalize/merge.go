package ionormalize

import (
	"cmp"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/precedence"
	"github.com/gnames/hktransit/pkg/textnorm"
)

// CodeDisagreement marks an attribute where sources gave different
// values and precedence picked one of them.
const CodeDisagreement = "ATTRIBUTE_DISAGREEMENT"

// values collects a field of many records as precedence values.
func values[R any, T comparable](
	rr []R,
	get func(R) (string, T, bool),
) []precedence.Value[T] {
	res := make([]precedence.Value[T], 0, len(rr))
	for _, r := range rr {
		src, v, ok := get(r)
		res = append(res, precedence.Value[T]{Source: src, Val: v, Valid: ok})
	}
	return res
}

// text is a getter result for a cleaned name.
func text(source, s string) (string, string, bool) {
	s = textnorm.CleanName(s)
	return source, s, s != ""
}

// integer is a getter result for an optional integer.
func integer(source, s string) (string, int64, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return source, i, err == nil
}

// smallest keeps one value per source: the smallest of its valid ones.
// Records of one source can repeat with different spelling, the choice
// must not depend on record order.
func smallest[T cmp.Ordered](vals []precedence.Value[T]) []precedence.Value[T] {
	idx := make(map[string]int)
	var res []precedence.Value[T]
	for _, v := range vals {
		if !v.Valid {
			continue
		}
		i, ok := idx[v.Source]
		if !ok {
			idx[v.Source] = len(res)
			res = append(res, v)
			continue
		}
		if v.Val < res[i].Val {
			res[i] = v
		}
	}
	slices.SortFunc(res, func(a, b precedence.Value[T]) int {
		return cmp.Compare(a.Source, b.Source)
	})
	return res
}

// pick reduces values of one attribute and records an advisory when
// sources disagree.
func pick[T cmp.Ordered](
	r *run,
	entity, key, field string,
	vals []precedence.Value[T],
) precedence.Result[T] {
	res := precedence.Reduce(r.prec, entity, field, smallest(vals))
	if res.Disagree {
		r.advise(findings.Finding{
			Class:    findings.Merge,
			Severity: findings.Warning,
			Code:     CodeDisagreement,
			Entity:   entity,
			Key:      key,
			Field:    field,
			Expected: fmt.Sprintf("%v (%s)", res.Val, res.Source),
			Actual:   fmt.Sprintf("%v (%s)", res.Other, res.OtherSource),
		})
	}
	return res
}

func pickText(
	r *run,
	entity, key, field string,
	vals []precedence.Value[string],
) sql.NullString {
	res := pick(r, entity, key, field, vals)
	return sql.NullString{String: res.Val, Valid: res.Valid}
}

func pickInt(
	r *run,
	entity, key, field string,
	vals []precedence.Value[int64],
) sql.NullInt64 {
	res := pick(r, entity, key, field, vals)
	return sql.NullInt64{Int64: res.Val, Valid: res.Valid}
}

// group splits records by key. Keys are returned sorted, records keep
// their input order. Records with an empty key are skipped.
func group[R any](rr []R, key func(R) string) ([]string, map[string][]R) {
	res := make(map[string][]R)
	for _, r := range rr {
		k := key(r)
		if k == "" {
			continue
		}
		res[k] = append(res[k], r)
	}
	kk := make([]string, 0, len(res))
	for k := range res {
		kk = append(kk, k)
	}
	slices.Sort(kk)
	return kk, res
}
