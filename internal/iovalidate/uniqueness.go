package iovalidate

import (
	"context"
	"fmt"

	"github.com/gnames/hktransit/pkg/graph"
)

// unique reports values seen more than once.
type unique struct {
	c      *checker
	entity string
	field  string
	seen   map[string]struct{}
}

func (d *data) unique(c *checker, entity, field string) *unique {
	return &unique{c: c, entity: entity, field: field, seen: make(map[string]struct{})}
}

func (u *unique) add(key, val string) {
	if _, ok := u.seen[val]; ok {
		u.c.fatal(CodeUnique, u.entity, key, u.field, "unique", val)
		return
	}
	u.seen[val] = struct{}{}
}

// uniqueness checks that stable and surrogate keys are unique, pattern
// stops do not repeat places unless allowed and every fare rule has at
// most one amount per product and one default.
func (d *data) uniqueness(ctx context.Context, c *checker) {
	ops := d.unique(c, "operators", "operator_id")
	for _, o := range d.g.Operators {
		ops.add(o.OperatorID, o.OperatorID)
	}

	placeIDs := d.unique(c, "places", "place_id")
	placeKeys := d.unique(c, "places", "place_key")
	for _, p := range d.g.Places {
		placeIDs.add(p.PlaceKey, itoa(p.PlaceID))
		placeKeys.add(p.PlaceKey, p.PlaceKey)
	}

	routeIDs := d.unique(c, "routes", "route_id")
	routeKeys := d.unique(c, "routes", "route_key")
	for _, r := range d.g.Routes {
		routeIDs.add(r.RouteKey, itoa(r.RouteID))
		routeKeys.add(r.RouteKey, r.RouteKey)
	}

	patIDs := d.unique(c, "route_patterns", "pattern_id")
	patKeys := d.unique(c, "route_patterns", "pattern_key")
	for _, p := range d.g.Patterns {
		patIDs.add(p.PatternKey, itoa(p.PatternID))
		patKeys.add(p.PatternKey, p.PatternKey)
	}
	if ctx.Err() != nil {
		return
	}

	seqs := d.unique(c, "pattern_stops", "seq")
	places := d.unique(c, "pattern_stops", "place_id")
	for _, ps := range d.g.PatternStops {
		key := d.patternKey(ps.PatternID)
		seqs.add(key, fmt.Sprintf("%d#%d", ps.PatternID, ps.Seq))
		if !ps.AllowRepeat {
			places.add(key, fmt.Sprintf("%d@%d", ps.PatternID, ps.PlaceID))
		}
	}
	if ctx.Err() != nil {
		return
	}

	prodIDs := d.unique(c, "fare_products", "fare_product_id")
	prodKeys := d.unique(c, "fare_products", "product_key")
	for _, fp := range d.g.FareProducts {
		prodIDs.add(fp.ProductKey, itoa(fp.FareProductID))
		prodKeys.add(fp.ProductKey, fp.ProductKey)
	}
	ruleIDs := d.unique(c, "fare_rules", "fare_rule_id")
	ruleKeys := d.unique(c, "fare_rules", "rule_key")
	for _, fr := range d.g.FareRules {
		ruleIDs.add(fr.RuleKey, itoa(fr.FareRuleID))
		ruleKeys.add(fr.RuleKey, fr.RuleKey)
	}

	amounts := d.unique(c, "fare_amounts", "fare_product_id")
	defaults := make(map[int64]int)
	for _, fa := range d.g.FareAmounts {
		key := d.ruleKey(fa.FareRuleID)
		amounts.add(key, fmt.Sprintf("%d/%d", fa.FareRuleID, fa.FareProductID))
		if fa.IsDefault {
			defaults[fa.FareRuleID]++
		}
	}
	for id, n := range defaults {
		if n > 1 {
			c.fatal(CodeMultipleDefault, "fare_amounts", d.ruleKey(id),
				"is_default", "1", itoa(n))
		}
	}
	if ctx.Err() != nil {
		return
	}

	services := d.unique(c, "service_calendars", "service_id")
	for _, sc := range d.g.Calendars {
		services.add(sc.ServiceID, sc.ServiceID)
	}
	exceptions := d.unique(c, "service_exceptions", "date")
	for _, se := range d.g.Exceptions {
		exceptions.add(se.ServiceID, se.ServiceID+"@"+se.Date)
	}
	trips := d.unique(c, "headway_trips", "trip_id")
	for _, t := range d.g.Trips {
		trips.add(t.TripID, t.TripID)
	}
	stopTimes := d.unique(c, "headway_stop_times", "stop_sequence")
	for _, st := range d.g.StopTimes {
		stopTimes.add(st.TripID, fmt.Sprintf("%s#%d", st.TripID, st.StopSequence))
	}
	bands := d.unique(c, "pattern_headways", "start_time")
	for _, ph := range d.g.PatternHeadways {
		bands.add(d.patternKey(ph.PatternID),
			fmt.Sprintf("%d@%s@%s", ph.PatternID, ph.ServiceID, ph.StartTime))
	}

	// An upstream id maps to one stable key.
	for _, table := range graph.MappingTables {
		u := d.unique(c, table, "upstream_id")
		for _, m := range d.g.Mappings(table) {
			u.add(m.StableKey, m.Source+"/"+m.Mode+"/"+m.UpstreamID)
		}
	}
}
