package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// generateDDL creates a CREATE TABLE statement from struct tags.
// Table-level constraints (composite keys, checks) are appended after
// columns.
func generateDDL(model any, tableName string, constraints ...string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var columns []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("ddl")

		if dbTag != "" && ddlTag != "" {
			columns = append(columns, fmt.Sprintf("    %s %s", dbTag, ddlTag))
		}
	}
	for _, c := range constraints {
		columns = append(columns, "    "+c)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (\n%s\n);",
		tableName,
		strings.Join(columns, ",\n"))

	return ddl
}

// Meta DDL methods
func (m Meta) TableDDL() string {
	return generateDDL(m, m.TableName())
}

func (m Meta) IndexDDL() []string {
	return []string{}
}

func (m Meta) TableName() string {
	return "meta"
}

// Operator DDL methods
func (o Operator) TableDDL() string {
	return generateDDL(o, o.TableName())
}

func (o Operator) IndexDDL() []string {
	return []string{}
}

func (o Operator) TableName() string {
	return "operators"
}

// Place DDL methods
func (p Place) TableDDL() string {
	return generateDDL(p, p.TableName(),
		PlaceTypes.Check("place_type"),
		Modes.Check("primary_mode"),
		"CHECK (parent_place_id IS NULL OR parent_place_id <> place_id)",
	)
}

func (p Place) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_places_parent ON places(parent_place_id);",
		"CREATE INDEX idx_places_type_mode ON places(place_type, primary_mode);",
		"CREATE INDEX idx_places_geohash ON places(geohash);",
	}
}

func (p Place) TableName() string {
	return "places"
}

// Route DDL methods
func (r Route) TableDDL() string {
	return generateDDL(r, r.TableName(), Modes.Check("mode"))
}

func (r Route) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_routes_operator_mode ON routes(operator_id, mode);",
		"CREATE INDEX idx_routes_mode_short_name ON routes(mode, route_short_name);",
		"CREATE INDEX idx_routes_upstream ON routes(upstream_route_id);",
	}
}

func (r Route) TableName() string {
	return "routes"
}

// RoutePattern DDL methods
func (rp RoutePattern) TableDDL() string {
	types := append([]string{ServiceTypeUnknown}, ServiceTypes.Values...)
	st := Enum{Name: ServiceTypes.Name, Values: types}
	return generateDDL(rp, rp.TableName(), st.Check("service_type"))
}

func (rp RoutePattern) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_route_patterns_route ON route_patterns(route_id, route_seq);",
	}
}

func (rp RoutePattern) TableName() string {
	return "route_patterns"
}

// PatternStop DDL methods
func (ps PatternStop) TableDDL() string {
	return generateDDL(ps, ps.TableName(), "PRIMARY KEY (pattern_id, seq)")
}

func (ps PatternStop) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_pattern_stops_place ON pattern_stops(place_id);",
		"CREATE UNIQUE INDEX ux_pattern_stops_place ON pattern_stops(pattern_id, place_id) WHERE allow_repeat = 0;",
	}
}

func (ps PatternStop) TableName() string {
	return "pattern_stops"
}

// FareProduct DDL methods
func (fp FareProduct) TableDDL() string {
	return generateDDL(fp, fp.TableName(), Modes.Check("mode"))
}

func (fp FareProduct) IndexDDL() []string {
	return []string{}
}

func (fp FareProduct) TableName() string {
	return "fare_products"
}

// FareRule DDL methods
func (fr FareRule) TableDDL() string {
	return generateDDL(fr, fr.TableName(),
		Modes.Check("mode"),
		"CHECK (route_id IS NOT NULL OR pattern_id IS NOT NULL)",
	)
}

func (fr FareRule) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_fare_rules_route ON fare_rules(route_id, route_seq, origin_seq, destination_seq);",
		"CREATE INDEX idx_fare_rules_pattern ON fare_rules(pattern_id);",
		"CREATE INDEX idx_fare_rules_operator_mode ON fare_rules(operator_id, mode);",
	}
}

func (fr FareRule) TableName() string {
	return "fare_rules"
}

// FareAmount DDL methods
func (fa FareAmount) TableDDL() string {
	return generateDDL(fa, fa.TableName(),
		"PRIMARY KEY (fare_rule_id, fare_product_id)")
}

func (fa FareAmount) IndexDDL() []string {
	return []string{
		"CREATE UNIQUE INDEX ux_fare_amounts_default ON fare_amounts(fare_rule_id) WHERE is_default = 1;",
		"CREATE INDEX idx_fare_amounts_product ON fare_amounts(fare_product_id);",
	}
}

func (fa FareAmount) TableName() string {
	return "fare_amounts"
}

// ServiceCalendar DDL methods
func (sc ServiceCalendar) TableDDL() string {
	return generateDDL(sc, sc.TableName(), "CHECK (end_date >= start_date)")
}

func (sc ServiceCalendar) IndexDDL() []string {
	return []string{}
}

func (sc ServiceCalendar) TableName() string {
	return "service_calendars"
}

// ServiceException DDL methods
func (se ServiceException) TableDDL() string {
	return generateDDL(se, se.TableName(), "PRIMARY KEY (service_id, date)")
}

func (se ServiceException) IndexDDL() []string {
	return []string{}
}

func (se ServiceException) TableName() string {
	return "service_exceptions"
}

// HeadwayTrip DDL methods
func (ht HeadwayTrip) TableDDL() string {
	return generateDDL(ht, ht.TableName())
}

func (ht HeadwayTrip) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_headway_trips_route ON headway_trips(upstream_route_id, route_seq);",
	}
}

func (ht HeadwayTrip) TableName() string {
	return "headway_trips"
}

// HeadwayFrequency DDL methods
func (hf HeadwayFrequency) TableDDL() string {
	return generateDDL(hf, hf.TableName(),
		"PRIMARY KEY (upstream_route_id, route_seq, service_id, start_time, end_time)",
		"CHECK (end_time > start_time)",
	)
}

func (hf HeadwayFrequency) IndexDDL() []string {
	return []string{}
}

func (hf HeadwayFrequency) TableName() string {
	return "headway_frequencies"
}

// HeadwayStopTime DDL methods
func (hs HeadwayStopTime) TableDDL() string {
	return generateDDL(hs, hs.TableName(), "PRIMARY KEY (trip_id, stop_sequence)")
}

func (hs HeadwayStopTime) IndexDDL() []string {
	return []string{}
}

func (hs HeadwayStopTime) TableName() string {
	return "headway_stop_times"
}

// PatternHeadway DDL methods
func (ph PatternHeadway) TableDDL() string {
	return generateDDL(ph, ph.TableName(),
		"PRIMARY KEY (pattern_id, service_id, start_time)",
		"CHECK (end_time > start_time)",
	)
}

func (ph PatternHeadway) IndexDDL() []string {
	return []string{}
}

func (ph PatternHeadway) TableName() string {
	return "pattern_headways"
}

// OperatorMapping DDL methods
func (m OperatorMapping) TableDDL() string {
	return generateDDL(m, m.TableName(), "PRIMARY KEY (source, mode, upstream_id)")
}

func (m OperatorMapping) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_operator_mappings_key ON operator_mappings(stable_key);",
	}
}

func (m OperatorMapping) TableName() string {
	return "operator_mappings"
}

// PlaceMapping DDL methods
func (m PlaceMapping) TableDDL() string {
	return generateDDL(m, m.TableName(), "PRIMARY KEY (source, mode, upstream_id)")
}

func (m PlaceMapping) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_place_mappings_key ON place_mappings(stable_key);",
	}
}

func (m PlaceMapping) TableName() string {
	return "place_mappings"
}

// RouteMapping DDL methods
func (m RouteMapping) TableDDL() string {
	return generateDDL(m, m.TableName(), "PRIMARY KEY (source, mode, upstream_id)")
}

func (m RouteMapping) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_route_mappings_key ON route_mappings(stable_key);",
	}
}

func (m RouteMapping) TableName() string {
	return "route_mappings"
}
