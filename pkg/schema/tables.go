package schema

import (
	"github.com/gnames/hktransit/pkg/config"
)

// CanonicalTables returns models of the truth database in the order
// of their foreign key dependencies.
func CanonicalTables() []DDLGenerator {
	return []DDLGenerator{
		Meta{},
		Operator{},
		Place{},
		Route{},
		RoutePattern{},
		PatternStop{},
		FareProduct{},
		FareRule{},
		FareAmount{},
		ServiceCalendar{},
		ServiceException{},
		HeadwayTrip{},
		HeadwayFrequency{},
		HeadwayStopTime{},
		PatternHeadway{},
		OperatorMapping{},
		PlaceMapping{},
		RouteMapping{},
	}
}

// ServingTables returns models of the serving database.
func ServingTables() []DDLGenerator {
	return []DDLGenerator{
		AppMeta{},
		AppOperator{},
		AppPlace{},
		AppRoute{},
		AppPattern{},
		AppPatternStop{},
		AppFareProduct{},
		FareSegment{},
		SearchDoc{},
		SearchFTS{},
		AppPatternHeadway{},
	}
}

// headwayTables lists tables controlled by the headway mode. The value
// tells if the table survives the 'partial' mode.
var headwayTables = map[string]bool{
	"service_calendars":   false,
	"service_exceptions":  true,
	"headway_trips":       false,
	"headway_frequencies": false,
	"headway_stop_times":  false,
	"pattern_headways":    true,
}

// IsHeadwayTable checks if a table is controlled by the headway mode.
func IsHeadwayTable(table string) bool {
	_, ok := headwayTables[table]
	return ok
}

// KeepTable decides if a table belongs to an artifact built with the
// given headway mode.
func KeepTable(mode config.HeadwayMode, table string) bool {
	partial, ok := headwayTables[table]
	if !ok {
		return true
	}
	switch mode {
	case config.HeadwayNone:
		return false
	case config.HeadwayPartial:
		return partial
	default:
		return true
	}
}

// FilterTables removes tables dropped by the headway mode.
func FilterTables(
	tables []DDLGenerator,
	mode config.HeadwayMode,
) []DDLGenerator {
	res := make([]DDLGenerator, 0, len(tables))
	for _, t := range tables {
		if KeepTable(mode, t.TableName()) {
			res = append(res, t)
		}
	}
	return res
}
