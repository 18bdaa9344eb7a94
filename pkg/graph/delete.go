package graph

import (
	"slices"

	"github.com/gnames/hktransit/pkg/schema"
)

// DeleteRoute removes a route together with its patterns, pattern stops,
// fare rules bound to the route or its patterns, their amounts, pattern
// headways and route mappings. Places and operators are never removed.
// It returns false if the route does not exist.
func (g *Graph) DeleteRoute(routeID int64) bool {
	idx := slices.IndexFunc(g.Routes, func(r schema.Route) bool {
		return r.RouteID == routeID
	})
	if idx < 0 {
		return false
	}
	routeKey := g.Routes[idx].RouteKey
	g.Routes = slices.Delete(g.Routes, idx, idx+1)

	patterns := make(map[int64]struct{})
	g.Patterns = slices.DeleteFunc(g.Patterns, func(p schema.RoutePattern) bool {
		if p.RouteID == routeID {
			patterns[p.PatternID] = struct{}{}
			return true
		}
		return false
	})

	g.PatternStops = slices.DeleteFunc(g.PatternStops, func(ps schema.PatternStop) bool {
		_, ok := patterns[ps.PatternID]
		return ok
	})

	g.PatternHeadways = slices.DeleteFunc(g.PatternHeadways, func(ph schema.PatternHeadway) bool {
		_, ok := patterns[ph.PatternID]
		return ok
	})

	rules := make(map[int64]struct{})
	g.FareRules = slices.DeleteFunc(g.FareRules, func(fr schema.FareRule) bool {
		bound := fr.RouteID.Valid && fr.RouteID.Int64 == routeID
		if !bound && fr.PatternID.Valid {
			_, bound = patterns[fr.PatternID.Int64]
		}
		if bound {
			rules[fr.FareRuleID] = struct{}{}
		}
		return bound
	})

	g.FareAmounts = slices.DeleteFunc(g.FareAmounts, func(fa schema.FareAmount) bool {
		_, ok := rules[fa.FareRuleID]
		return ok
	})

	g.RouteMappings = slices.DeleteFunc(g.RouteMappings, func(m schema.RouteMapping) bool {
		return m.StableKey == routeKey
	})
	return true
}
