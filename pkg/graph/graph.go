// Package graph keeps the canonical entity graph in memory. The graph is
// produced by Normalize, frozen for Validate, written verbatim by Commit
// and projected by Serve.
package graph

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/gnames/gnuuid"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/schema"
)

// Graph is the canonical entity graph. Surrogate ids are assigned in
// stable key order, so identical input gives identical ids.
type Graph struct {
	Operators       []schema.Operator
	Places          []schema.Place
	Routes          []schema.Route
	Patterns        []schema.RoutePattern
	PatternStops    []schema.PatternStop
	FareProducts    []schema.FareProduct
	FareRules       []schema.FareRule
	FareAmounts     []schema.FareAmount
	Calendars       []schema.ServiceCalendar
	Exceptions      []schema.ServiceException
	Trips           []schema.HeadwayTrip
	Frequencies     []schema.HeadwayFrequency
	StopTimes       []schema.HeadwayStopTime
	PatternHeadways []schema.PatternHeadway

	OperatorMappings []schema.OperatorMapping
	PlaceMappings    []schema.PlaceMapping
	RouteMappings    []schema.RouteMapping
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// WithHeadwayMode returns a shallow copy of the graph without the
// tables the headway mode drops from the artifacts.
func (g *Graph) WithHeadwayMode(mode config.HeadwayMode) *Graph {
	res := *g
	keep := func(t schema.DDLGenerator) bool {
		return schema.KeepTable(mode, t.TableName())
	}
	if !keep(schema.ServiceCalendar{}) {
		res.Calendars = nil
	}
	if !keep(schema.ServiceException{}) {
		res.Exceptions = nil
	}
	if !keep(schema.HeadwayTrip{}) {
		res.Trips = nil
	}
	if !keep(schema.HeadwayFrequency{}) {
		res.Frequencies = nil
	}
	if !keep(schema.HeadwayStopTime{}) {
		res.StopTimes = nil
	}
	if !keep(schema.PatternHeadway{}) {
		res.PatternHeadways = nil
	}
	return &res
}

// Rows returns rows of a canonical table as a slice of models.
// The meta table is not part of the graph.
func (g *Graph) Rows(table string) []any {
	switch table {
	case "operators":
		return toAny(g.Operators)
	case "places":
		return toAny(g.Places)
	case "routes":
		return toAny(g.Routes)
	case "route_patterns":
		return toAny(g.Patterns)
	case "pattern_stops":
		return toAny(g.PatternStops)
	case "fare_products":
		return toAny(g.FareProducts)
	case "fare_rules":
		return toAny(g.FareRules)
	case "fare_amounts":
		return toAny(g.FareAmounts)
	case "service_calendars":
		return toAny(g.Calendars)
	case "service_exceptions":
		return toAny(g.Exceptions)
	case "headway_trips":
		return toAny(g.Trips)
	case "headway_frequencies":
		return toAny(g.Frequencies)
	case "headway_stop_times":
		return toAny(g.StopTimes)
	case "pattern_headways":
		return toAny(g.PatternHeadways)
	case "operator_mappings":
		return toAny(g.OperatorMappings)
	case "place_mappings":
		return toAny(g.PlaceMappings)
	case "route_mappings":
		return toAny(g.RouteMappings)
	}
	return nil
}

func toAny[T any](rows []T) []any {
	res := make([]any, len(rows))
	for i := range rows {
		res[i] = rows[i]
	}
	return res
}

// MappingTables are names of upstream id mapping tables.
var MappingTables = []string{"operator_mappings", "place_mappings", "route_mappings"}

// Mappings returns rows of a mapping table converted to UpstreamMapping.
func (g *Graph) Mappings(table string) []schema.UpstreamMapping {
	switch table {
	case "operator_mappings":
		return upstream(g.OperatorMappings, func(m schema.OperatorMapping) schema.UpstreamMapping {
			return schema.UpstreamMapping(m)
		})
	case "place_mappings":
		return upstream(g.PlaceMappings, func(m schema.PlaceMapping) schema.UpstreamMapping {
			return schema.UpstreamMapping(m)
		})
	case "route_mappings":
		return upstream(g.RouteMappings, func(m schema.RouteMapping) schema.UpstreamMapping {
			return schema.UpstreamMapping(m)
		})
	}
	return nil
}

func upstream[T any](mm []T, conv func(T) schema.UpstreamMapping) []schema.UpstreamMapping {
	res := make([]schema.UpstreamMapping, len(mm))
	for i := range mm {
		res[i] = conv(mm[i])
	}
	return res
}

// Counts returns number of rows per canonical table.
func (g *Graph) Counts() map[string]int {
	res := make(map[string]int)
	for _, t := range schema.CanonicalTables() {
		name := t.TableName()
		if name == "meta" {
			continue
		}
		res[name] = len(g.Rows(name))
	}
	return res
}

// Sort puts every table in its natural key order.
func (g *Graph) Sort() {
	slices.SortFunc(g.Operators, func(a, b schema.Operator) int {
		return cmp.Compare(a.OperatorID, b.OperatorID)
	})
	slices.SortFunc(g.Places, func(a, b schema.Place) int {
		return cmp.Compare(a.PlaceID, b.PlaceID)
	})
	slices.SortFunc(g.Routes, func(a, b schema.Route) int {
		return cmp.Compare(a.RouteID, b.RouteID)
	})
	slices.SortFunc(g.Patterns, func(a, b schema.RoutePattern) int {
		return cmp.Compare(a.PatternID, b.PatternID)
	})
	slices.SortFunc(g.PatternStops, func(a, b schema.PatternStop) int {
		return cmp.Or(
			cmp.Compare(a.PatternID, b.PatternID),
			cmp.Compare(a.Seq, b.Seq),
		)
	})
	slices.SortFunc(g.FareProducts, func(a, b schema.FareProduct) int {
		return cmp.Compare(a.FareProductID, b.FareProductID)
	})
	slices.SortFunc(g.FareRules, func(a, b schema.FareRule) int {
		return cmp.Compare(a.FareRuleID, b.FareRuleID)
	})
	slices.SortFunc(g.FareAmounts, func(a, b schema.FareAmount) int {
		return cmp.Or(
			cmp.Compare(a.FareRuleID, b.FareRuleID),
			cmp.Compare(a.FareProductID, b.FareProductID),
		)
	})
	slices.SortFunc(g.Calendars, func(a, b schema.ServiceCalendar) int {
		return cmp.Compare(a.ServiceID, b.ServiceID)
	})
	slices.SortFunc(g.Exceptions, func(a, b schema.ServiceException) int {
		return cmp.Or(
			cmp.Compare(a.ServiceID, b.ServiceID),
			cmp.Compare(a.Date, b.Date),
		)
	})
	slices.SortFunc(g.Trips, func(a, b schema.HeadwayTrip) int {
		return cmp.Compare(a.TripID, b.TripID)
	})
	slices.SortFunc(g.Frequencies, func(a, b schema.HeadwayFrequency) int {
		return cmp.Or(
			cmp.Compare(a.UpstreamRouteID, b.UpstreamRouteID),
			cmp.Compare(a.RouteSeq, b.RouteSeq),
			cmp.Compare(a.ServiceID, b.ServiceID),
			cmp.Compare(a.StartTime, b.StartTime),
			cmp.Compare(a.EndTime, b.EndTime),
		)
	})
	slices.SortFunc(g.StopTimes, func(a, b schema.HeadwayStopTime) int {
		return cmp.Or(
			cmp.Compare(a.TripID, b.TripID),
			cmp.Compare(a.StopSequence, b.StopSequence),
		)
	})
	slices.SortFunc(g.PatternHeadways, func(a, b schema.PatternHeadway) int {
		return cmp.Or(
			cmp.Compare(a.PatternID, b.PatternID),
			cmp.Compare(a.ServiceID, b.ServiceID),
			cmp.Compare(a.StartTime, b.StartTime),
		)
	})
	sortMappings(g.OperatorMappings, func(m schema.OperatorMapping) schema.UpstreamMapping {
		return schema.UpstreamMapping(m)
	})
	sortMappings(g.PlaceMappings, func(m schema.PlaceMapping) schema.UpstreamMapping {
		return schema.UpstreamMapping(m)
	})
	sortMappings(g.RouteMappings, func(m schema.RouteMapping) schema.UpstreamMapping {
		return schema.UpstreamMapping(m)
	})
}

func sortMappings[T any](mm []T, conv func(T) schema.UpstreamMapping) {
	slices.SortFunc(mm, func(x, y T) int {
		a, b := conv(x), conv(y)
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.Mode, b.Mode),
			cmp.Compare(a.UpstreamID, b.UpstreamID),
		)
	})
}

// Fingerprint is a SHA-256 digest over all rows in table order.
func (g *Graph) Fingerprint() string {
	h := sha256.New()
	for _, t := range schema.CanonicalTables() {
		name := t.TableName()
		fmt.Fprintf(h, "#%s\n", name)
		for _, row := range g.Rows(name) {
			fmt.Fprintf(h, "%v\n", row)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// BuildID is UUID v5 of the fingerprint.
func (g *Graph) BuildID() string {
	return gnuuid.New(g.Fingerprint()).String()
}
