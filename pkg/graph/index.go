package graph

import "github.com/gnames/hktransit/pkg/schema"

// Index provides lookups over a graph. It must be rebuilt after the
// graph is modified.
type Index struct {
	Places       map[int64]*schema.Place
	PlaceByKey   map[string]*schema.Place
	Routes       map[int64]*schema.Route
	Patterns     map[int64]*schema.RoutePattern
	Operators    map[string]*schema.Operator
	Products     map[int64]*schema.FareProduct
	Rules        map[int64]*schema.FareRule
	Trips        map[string]*schema.HeadwayTrip
	Calendars    map[string]*schema.ServiceCalendar
	PatternStops map[int64][]schema.PatternStop
}

// NewIndex builds an index of g. Pattern stops keep graph order.
func NewIndex(g *Graph) *Index {
	res := Index{
		Places:       make(map[int64]*schema.Place, len(g.Places)),
		PlaceByKey:   make(map[string]*schema.Place, len(g.Places)),
		Routes:       make(map[int64]*schema.Route, len(g.Routes)),
		Patterns:     make(map[int64]*schema.RoutePattern, len(g.Patterns)),
		Operators:    make(map[string]*schema.Operator, len(g.Operators)),
		Products:     make(map[int64]*schema.FareProduct, len(g.FareProducts)),
		Rules:        make(map[int64]*schema.FareRule, len(g.FareRules)),
		Trips:        make(map[string]*schema.HeadwayTrip, len(g.Trips)),
		Calendars:    make(map[string]*schema.ServiceCalendar, len(g.Calendars)),
		PatternStops: make(map[int64][]schema.PatternStop),
	}
	for i := range g.Places {
		p := &g.Places[i]
		res.Places[p.PlaceID] = p
		res.PlaceByKey[p.PlaceKey] = p
	}
	for i := range g.Routes {
		res.Routes[g.Routes[i].RouteID] = &g.Routes[i]
	}
	for i := range g.Patterns {
		res.Patterns[g.Patterns[i].PatternID] = &g.Patterns[i]
	}
	for i := range g.Operators {
		res.Operators[g.Operators[i].OperatorID] = &g.Operators[i]
	}
	for i := range g.FareProducts {
		res.Products[g.FareProducts[i].FareProductID] = &g.FareProducts[i]
	}
	for i := range g.FareRules {
		res.Rules[g.FareRules[i].FareRuleID] = &g.FareRules[i]
	}
	for i := range g.Trips {
		res.Trips[g.Trips[i].TripID] = &g.Trips[i]
	}
	for i := range g.Calendars {
		res.Calendars[g.Calendars[i].ServiceID] = &g.Calendars[i]
	}
	for _, ps := range g.PatternStops {
		res.PatternStops[ps.PatternID] = append(res.PatternStops[ps.PatternID], ps)
	}
	return &res
}
