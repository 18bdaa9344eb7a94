package schema

import (
	"fmt"
	"strings"
)

// Enum is a closed domain of textual values with stable integer codes.
// Codes are positions in Values plus one, code 0 is reserved for values
// outside of the domain. New members must be appended to Values, never
// inserted, so codes of existing members stay the same across rebuilds.
type Enum struct {
	Name   string
	Values []string
}

// Code returns the integer code of a value, or 0 if the value does not
// belong to the domain.
func (e Enum) Code(val string) int {
	for i, v := range e.Values {
		if v == val {
			return i + 1
		}
	}
	return 0
}

// Valid checks if a value belongs to the domain.
func (e Enum) Valid(val string) bool {
	return e.Code(val) > 0
}

// Codes returns value to code mapping.
func (e Enum) Codes() map[string]int {
	res := make(map[string]int, len(e.Values))
	for i, v := range e.Values {
		res[v] = i + 1
	}
	return res
}

// Check returns CHECK constraint that limits a column to the domain.
func (e Enum) Check(column string) string {
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		vals[i] = "'" + v + "'"
	}
	return fmt.Sprintf("CHECK (%s IN (%s))", column, strings.Join(vals, ", "))
}

var (
	// Modes are transport modes of routes and places.
	Modes = Enum{
		Name: "mode",
		Values: []string{
			"bus", "gmb", "mtr", "lightrail", "mtr_bus", "ferry", "tram",
			"peak_tram",
		},
	}

	// PlaceTypes are kinds of places.
	PlaceTypes = Enum{
		Name: "place_type",
		Values: []string{
			"stop", "station", "platform", "entrance_exit", "pier",
			"station_complex", "virtual_interchange",
		},
	}

	// ServiceTypes describe the kind of service of a route pattern.
	// "unknown" keeps code 0 in the serving database.
	ServiceTypes = Enum{
		Name: "service_type",
		Values: []string{
			"regular", "night", "express", "holiday", "limited", "special",
		},
	}
)

// ServiceTypeUnknown is allowed in the canonical database and maps to
// code 0 in the serving database.
const ServiceTypeUnknown = "unknown"

// Direction ids of route patterns. They are used as codes directly.
const (
	DirectionUnknown          = 0
	DirectionOutbound         = 1
	DirectionInbound          = 2
	DirectionClockwise        = 3
	DirectionCounterClockwise = 4
)

// Exception types of service exceptions.
const (
	ExceptionAdded   = 1
	ExceptionRemoved = 2
)

// ValidServiceType checks a canonical service type.
func ValidServiceType(s string) bool {
	return s == ServiceTypeUnknown || ServiceTypes.Valid(s)
}

// ValidDirection checks a direction id.
func ValidDirection(d int) bool {
	return d >= DirectionUnknown && d <= DirectionCounterClockwise
}

// EnumCodes collects all code tables for the serving metadata.
func EnumCodes() map[string]map[string]int {
	dirs := map[string]int{
		"unknown":          DirectionUnknown,
		"outbound":         DirectionOutbound,
		"inbound":          DirectionInbound,
		"clockwise":        DirectionClockwise,
		"counterclockwise": DirectionCounterClockwise,
	}
	return map[string]map[string]int{
		Modes.Name:        Modes.Codes(),
		PlaceTypes.Name:   PlaceTypes.Codes(),
		ServiceTypes.Name: ServiceTypes.Codes(),
		"direction_id":    dirs,
	}
}
