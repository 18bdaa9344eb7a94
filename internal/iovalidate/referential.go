package iovalidate

import (
	"context"

	"github.com/gnames/hktransit/pkg/graph"
)

// referential checks that every foreign reference resolves and that
// place parent chains terminate.
func (d *data) referential(ctx context.Context, c *checker) {
	missing := func(entity, key, field, target, val string) {
		c.fatal(CodeFKMissing, entity, key, field, "row in "+target, val)
	}

	for _, p := range d.g.Places {
		if !p.ParentPlaceID.Valid {
			continue
		}
		if _, ok := d.idx.Places[p.ParentPlaceID.Int64]; !ok {
			missing("places", p.PlaceKey, "parent_place_id", "places",
				itoa(p.ParentPlaceID.Int64))
		}
	}
	d.parentCycles(c)

	for _, r := range d.g.Routes {
		if _, ok := d.idx.Operators[r.OperatorID]; !ok {
			missing("routes", r.RouteKey, "operator_id", "operators", r.OperatorID)
		}
	}
	for _, p := range d.g.Patterns {
		if _, ok := d.idx.Routes[p.RouteID]; !ok {
			missing("route_patterns", p.PatternKey, "route_id", "routes", itoa(p.RouteID))
		}
	}
	for _, ps := range d.g.PatternStops {
		key := d.patternKey(ps.PatternID)
		if _, ok := d.idx.Patterns[ps.PatternID]; !ok {
			missing("pattern_stops", key, "pattern_id", "route_patterns", itoa(ps.PatternID))
		}
		if _, ok := d.idx.Places[ps.PlaceID]; !ok {
			missing("pattern_stops", key, "place_id", "places", itoa(ps.PlaceID))
		}
	}
	if ctx.Err() != nil {
		return
	}

	for _, fr := range d.g.FareRules {
		if _, ok := d.idx.Operators[fr.OperatorID]; !ok {
			missing("fare_rules", fr.RuleKey, "operator_id", "operators", fr.OperatorID)
		}
		if fr.RouteID.Valid {
			if _, ok := d.idx.Routes[fr.RouteID.Int64]; !ok {
				missing("fare_rules", fr.RuleKey, "route_id", "routes", itoa(fr.RouteID.Int64))
			}
		}
		if fr.PatternID.Valid {
			if _, ok := d.idx.Patterns[fr.PatternID.Int64]; !ok {
				missing("fare_rules", fr.RuleKey, "pattern_id", "route_patterns",
					itoa(fr.PatternID.Int64))
			}
		}
	}
	for _, fa := range d.g.FareAmounts {
		key := d.ruleKey(fa.FareRuleID)
		if _, ok := d.idx.Rules[fa.FareRuleID]; !ok {
			missing("fare_amounts", key, "fare_rule_id", "fare_rules", itoa(fa.FareRuleID))
		}
		if _, ok := d.idx.Products[fa.FareProductID]; !ok {
			missing("fare_amounts", key, "fare_product_id", "fare_products",
				itoa(fa.FareProductID))
		}
	}
	if ctx.Err() != nil {
		return
	}

	for _, hf := range d.g.Frequencies {
		if _, ok := d.idx.Trips[hf.SampleTripID]; !ok {
			missing("headway_frequencies", hf.UpstreamRouteID, "sample_trip_id",
				"headway_trips", hf.SampleTripID)
		}
	}
	for _, st := range d.g.StopTimes {
		if _, ok := d.idx.Trips[st.TripID]; !ok {
			missing("headway_stop_times", st.TripID, "trip_id", "headway_trips", st.TripID)
		}
	}
	for _, ph := range d.g.PatternHeadways {
		if _, ok := d.idx.Patterns[ph.PatternID]; !ok {
			missing("pattern_headways", d.patternKey(ph.PatternID), "pattern_id",
				"route_patterns", itoa(ph.PatternID))
		}
	}

	d.mappingTargets(c)
}

// mappingTargets checks that upstream mappings point to existing
// entities.
func (d *data) mappingTargets(c *checker) {
	routes := make(map[string]struct{}, len(d.g.Routes))
	for _, r := range d.g.Routes {
		routes[r.RouteKey] = struct{}{}
	}
	exists := map[string]func(string) bool{
		"operator_mappings": func(k string) bool {
			_, ok := d.idx.Operators[k]
			return ok
		},
		"place_mappings": func(k string) bool {
			_, ok := d.idx.PlaceByKey[k]
			return ok
		},
		"route_mappings": func(k string) bool {
			_, ok := routes[k]
			return ok
		},
	}
	for _, table := range graph.MappingTables {
		for _, m := range d.g.Mappings(table) {
			if !exists[table](m.StableKey) {
				c.fatal(CodeFKMissing, table, m.StableKey, "stable_key",
					"existing entity", m.Source+"/"+m.UpstreamID)
			}
		}
	}
}

// parentCycles reports every place whose parent chain comes back to it.
func (d *data) parentCycles(c *checker) {
	for _, p := range d.g.Places {
		seen := map[int64]struct{}{p.PlaceID: {}}
		cur := p.ParentPlaceID
		for cur.Valid {
			if cur.Int64 == p.PlaceID {
				c.fatal(CodeParentCycle, "places", p.PlaceKey, "parent_place_id",
					"terminating chain", itoa(p.ParentPlaceID.Int64))
				break
			}
			if _, ok := seen[cur.Int64]; ok {
				// a cycle further up, reported for its members
				break
			}
			seen[cur.Int64] = struct{}{}
			parent, ok := d.idx.Places[cur.Int64]
			if !ok {
				break
			}
			cur = parent.ParentPlaceID
		}
	}
}
