package iovalidate

import (
	"cmp"
	"context"
	"slices"

	"github.com/gnames/hktransit/pkg/schema"
)

// crossConsistency checks pattern sequences, fare windows, circular
// patterns, fare coverage and headway bands.
func (d *data) crossConsistency(ctx context.Context, c *checker) {
	for _, p := range d.g.Patterns {
		d.patternSequence(c, p)
	}
	if ctx.Err() != nil {
		return
	}
	d.fareWindows(c)
	d.missingFares(c)
	if ctx.Err() != nil {
		return
	}
	d.headways(c)
}

func (d *data) patternSequence(c *checker, p schema.RoutePattern) {
	const entity = "route_patterns"
	ss := d.stops[p.PatternID]
	n := len(ss)

	if !p.SequenceIncomplete && n > 0 {
		if ss[0].Seq != 1 {
			c.fatal(CodeSeqBase, entity, p.PatternKey, "seq", "1", itoa(ss[0].Seq))
		}
		for i := 1; i < n; i++ {
			if ss[i].Seq != ss[i-1].Seq+1 {
				c.fatal(CodeSeqGaps, entity, p.PatternKey, "seq",
					itoa(ss[i-1].Seq+1), itoa(ss[i].Seq))
				break
			}
		}
	}

	if n < d.opts.MinPatternStops {
		c.warn(CodeTooShort, entity, p.PatternKey, "stops",
			">= "+itoa(d.opts.MinPatternStops), itoa(n))
	}
	if d.opts.MaxPatternStops > 0 && n > d.opts.MaxPatternStops {
		c.warn(CodeTooLong, entity, p.PatternKey, "stops",
			"<= "+itoa(d.opts.MaxPatternStops), itoa(n))
	}

	if p.IsCircular && n > 1 && ss[0].PlaceID != ss[n-1].PlaceID {
		c.warn(CodeCircularEnds, entity, p.PatternKey, "place_id",
			itoa(ss[0].PlaceID), itoa(ss[n-1].PlaceID))
	}
}

// fareWindows checks that origin and destination sequences of rules bound
// to a pattern fit its stop count.
func (d *data) fareWindows(c *checker) {
	for _, fr := range d.g.FareRules {
		if !fr.PatternID.Valid {
			continue
		}
		n := int64(len(d.stops[fr.PatternID.Int64]))
		for _, v := range []struct {
			field string
			seq   int64
			valid bool
		}{
			{"origin_seq", fr.OriginSeq.Int64, fr.OriginSeq.Valid},
			{"destination_seq", fr.DestinationSeq.Int64, fr.DestinationSeq.Valid},
		} {
			if v.valid && v.seq > n {
				c.warn(CodeFareWindow, "fare_rules", fr.RuleKey, v.field,
					"<= "+itoa(n), itoa(v.seq))
			}
		}
	}
}

// missingFares reports routes without fare rules in modes that have
// fares at all.
func (d *data) missingFares(c *checker) {
	priced := make(map[string]struct{})
	routes := make(map[int64]struct{})
	for _, fr := range d.g.FareRules {
		priced[fr.Mode] = struct{}{}
		if fr.RouteID.Valid {
			routes[fr.RouteID.Int64] = struct{}{}
		}
		if fr.PatternID.Valid {
			if p, ok := d.idx.Patterns[fr.PatternID.Int64]; ok {
				routes[p.RouteID] = struct{}{}
			}
		}
	}
	for _, r := range d.g.Routes {
		if _, ok := priced[r.Mode]; !ok {
			continue
		}
		if _, ok := routes[r.RouteID]; !ok {
			c.warn(CodeMissingFares, "routes", r.RouteKey, "fare_rules", ">= 1", "0")
		}
	}
}

// headways checks that bands of a pattern and service have positive
// windows and do not overlap. A band overlaps when it starts before the
// latest end of the earlier bands of its pattern and service.
func (d *data) headways(c *checker) {
	const entity = "pattern_headways"
	bands := slices.Clone(d.g.PatternHeadways)
	slices.SortFunc(bands, func(a, b schema.PatternHeadway) int {
		return cmp.Or(
			cmp.Compare(a.PatternID, b.PatternID),
			cmp.Compare(a.ServiceID, b.ServiceID),
			cmp.Compare(a.StartTime, b.StartTime),
		)
	})

	var maxEnd string
	for i, ph := range bands {
		key := d.patternKey(ph.PatternID) + "@" + ph.ServiceID + "@" + ph.StartTime
		if ph.EndTime <= ph.StartTime {
			c.fatal(CodeHeadwayWindow, entity, key, "end_time",
				"> "+ph.StartTime, ph.EndTime)
		}
		if i > 0 {
			prev := bands[i-1]
			if prev.PatternID != ph.PatternID || prev.ServiceID != ph.ServiceID {
				maxEnd = ""
			}
		}
		if maxEnd != "" && ph.StartTime < maxEnd {
			c.fatal(CodeHeadwayOverlap, entity, key, "start_time",
				">= "+maxEnd, ph.StartTime)
		}
		maxEnd = max(maxEnd, ph.EndTime)
	}
}
