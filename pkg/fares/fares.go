// Package fares compresses sectional fares into destination ranges.
//
// Sectional fares price every (origin, destination) pair of a pattern.
// Most neighbouring destinations share a price, so a run-length pass over
// destinations keeps only ranges with an identical amount and default
// flag.
package fares

import (
	"cmp"
	"slices"
)

// Entry is a price for one origin and destination stop sequence.
type Entry struct {
	OriginSeq   int
	DestSeq     int
	AmountCents int64
	IsDefault   bool
}

// Segment is a price for one origin and a contiguous range of
// destination stop sequences.
type Segment struct {
	OriginSeq   int
	DestFromSeq int
	DestToSeq   int
	AmountCents int64
	IsDefault   bool
}

func compareEntries(a, b Entry) int {
	return cmp.Or(
		cmp.Compare(a.OriginSeq, b.OriginSeq),
		cmp.Compare(a.DestSeq, b.DestSeq),
	)
}

// better reports if e should replace a duplicate entry cur. Defaults win,
// then lower amounts.
func better(e, cur Entry) bool {
	if e.IsDefault != cur.IsDefault {
		return e.IsDefault
	}
	return e.AmountCents < cur.AmountCents
}

// Dedupe keeps one entry per (origin, destination) and sorts the result.
func Dedupe(entries []Entry) []Entry {
	res := slices.Clone(entries)
	slices.SortStableFunc(res, compareEntries)

	var out []Entry
	for _, e := range res {
		last := len(out) - 1
		if last >= 0 && compareEntries(out[last], e) == 0 {
			if better(e, out[last]) {
				out[last] = e
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

// Compress merges entries of one route, direction and product into
// segments. A new segment starts when the origin changes, the destination
// is not the next one, the amount changes or the default flag changes.
func Compress(entries []Entry) []Segment {
	var res []Segment
	for _, e := range Dedupe(entries) {
		last := len(res) - 1
		if last >= 0 {
			s := &res[last]
			if s.OriginSeq == e.OriginSeq &&
				s.DestToSeq+1 == e.DestSeq &&
				s.AmountCents == e.AmountCents &&
				s.IsDefault == e.IsDefault {
				s.DestToSeq = e.DestSeq
				continue
			}
		}
		res = append(res, Segment{
			OriginSeq:   e.OriginSeq,
			DestFromSeq: e.DestSeq,
			DestToSeq:   e.DestSeq,
			AmountCents: e.AmountCents,
			IsDefault:   e.IsDefault,
		})
	}
	return res
}

// Decompress expands segments back into sorted entries.
func Decompress(segments []Segment) []Entry {
	var res []Entry
	for _, s := range segments {
		for d := s.DestFromSeq; d <= s.DestToSeq; d++ {
			res = append(res, Entry{
				OriginSeq:   s.OriginSeq,
				DestSeq:     d,
				AmountCents: s.AmountCents,
				IsDefault:   s.IsDefault,
			})
		}
	}
	slices.SortFunc(res, compareEntries)
	return res
}
