// Package schema provides table models of the truth (canonical) and the
// serving databases. Struct tags `db` and `ddl` drive DDL generation,
// inserts and scans, so both databases are projections of the same models.
package schema

import (
	"database/sql"
)

// DDLGenerator defines how Go models generate SQLite DDL.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement for this model.
	TableDDL() string

	// IndexDDL returns CREATE INDEX statements for this model.
	// Returns empty slice if no indexes needed.
	IndexDDL() []string

	// TableName returns the SQLite table name for this model.
	TableName() string
}

// Meta is the single metadata row of the truth database.
type Meta struct {
	// MetaID is always 1.
	MetaID int `db:"meta_id" ddl:"INTEGER PRIMARY KEY CHECK (meta_id = 1)"`

	// SchemaVersion is the version of the canonical schema.
	SchemaVersion int `db:"schema_version" ddl:"INTEGER NOT NULL"`

	// BundleVersion is a release label of the data bundle.
	BundleVersion string `db:"bundle_version" ddl:"TEXT NOT NULL"`

	// BuildID is UUID v5 of the graph fingerprint. Identical input
	// produces identical BuildID.
	BuildID string `db:"build_id" ddl:"TEXT NOT NULL"`

	// RunID is a random UUID of the pipeline run.
	RunID string `db:"run_id" ddl:"TEXT NOT NULL"`

	// GeneratedAt is RFC3339 UTC timestamp.
	GeneratedAt string `db:"generated_at" ddl:"TEXT NOT NULL"`

	// HeadwayMode is 'full', 'partial' or 'none'.
	HeadwayMode string `db:"headway_mode" ddl:"TEXT NOT NULL"`

	// Notes is a JSON array of advisory findings.
	Notes string `db:"notes" ddl:"TEXT"`
}

// Operator is a company that runs routes.
type Operator struct {
	// OperatorID is a stable key, e.g. 'td:operator:KMB'.
	OperatorID string `db:"operator_id" ddl:"TEXT PRIMARY KEY"`

	// OperatorCode is the upstream company code.
	OperatorCode string `db:"operator_code" ddl:"TEXT NOT NULL"`

	NameEn sql.NullString `db:"name_en" ddl:"TEXT"`
	NameTc sql.NullString `db:"name_tc" ddl:"TEXT"`
	NameSc sql.NullString `db:"name_sc" ddl:"TEXT"`

	IsActive bool `db:"is_active" ddl:"INTEGER NOT NULL DEFAULT 1"`
}

// Place is a boarding point, station, platform, entrance, pier or a
// virtual interchange.
type Place struct {
	// PlaceID is a run-local surrogate key.
	PlaceID int64 `db:"place_id" ddl:"INTEGER PRIMARY KEY"`

	// PlaceKey is the stable key, e.g. 'td:bus:1234'.
	PlaceKey string `db:"place_key" ddl:"TEXT NOT NULL UNIQUE"`

	PlaceType   string `db:"place_type" ddl:"TEXT NOT NULL"`
	PrimaryMode string `db:"primary_mode" ddl:"TEXT NOT NULL"`

	NameEn sql.NullString `db:"name_en" ddl:"TEXT"`
	NameTc sql.NullString `db:"name_tc" ddl:"TEXT"`
	NameSc sql.NullString `db:"name_sc" ddl:"TEXT"`

	// Lat and Lon are WGS84 coordinates.
	Lat sql.NullFloat64 `db:"lat" ddl:"REAL"`
	Lon sql.NullFloat64 `db:"lon" ddl:"REAL"`

	// HK80X and HK80Y are HK1980 Grid easting and northing.
	HK80X sql.NullFloat64 `db:"hk80_x" ddl:"REAL"`
	HK80Y sql.NullFloat64 `db:"hk80_y" ddl:"REAL"`

	// Geohash of WGS84 coordinates with precision 7.
	Geohash sql.NullString `db:"geohash" ddl:"TEXT"`

	// ParentPlaceID points to the containing place.
	ParentPlaceID sql.NullInt64 `db:"parent_place_id" ddl:"INTEGER REFERENCES places(place_id)"`

	IsActive bool `db:"is_active" ddl:"INTEGER NOT NULL DEFAULT 1"`
}

// Route is one published service line run by one operator.
type Route struct {
	RouteID  int64  `db:"route_id" ddl:"INTEGER PRIMARY KEY"`
	RouteKey string `db:"route_key" ddl:"TEXT NOT NULL UNIQUE"`

	// UpstreamRouteID is the identifier used by the data provider.
	// It is not guaranteed to be unique across time.
	UpstreamRouteID string `db:"upstream_route_id" ddl:"TEXT NOT NULL"`

	Mode       string `db:"mode" ddl:"TEXT NOT NULL"`
	OperatorID string `db:"operator_id" ddl:"TEXT NOT NULL REFERENCES operators(operator_id)"`

	RouteShortName sql.NullString `db:"route_short_name" ddl:"TEXT"`

	RouteLongNameEn sql.NullString `db:"route_long_name_en" ddl:"TEXT"`
	RouteLongNameTc sql.NullString `db:"route_long_name_tc" ddl:"TEXT"`
	RouteLongNameSc sql.NullString `db:"route_long_name_sc" ddl:"TEXT"`

	OriginTextEn sql.NullString `db:"origin_text_en" ddl:"TEXT"`
	OriginTextTc sql.NullString `db:"origin_text_tc" ddl:"TEXT"`
	OriginTextSc sql.NullString `db:"origin_text_sc" ddl:"TEXT"`

	DestinationTextEn sql.NullString `db:"destination_text_en" ddl:"TEXT"`
	DestinationTextTc sql.NullString `db:"destination_text_tc" ddl:"TEXT"`
	DestinationTextSc sql.NullString `db:"destination_text_sc" ddl:"TEXT"`

	ServiceAreaCode    sql.NullString `db:"service_area_code" ddl:"TEXT"`
	JourneyTimeMinutes sql.NullInt64  `db:"journey_time_minutes" ddl:"INTEGER"`

	IsActive bool `db:"is_active" ddl:"INTEGER NOT NULL DEFAULT 1"`
}

// RoutePattern is one directional or variant shape of a route.
type RoutePattern struct {
	PatternID  int64  `db:"pattern_id" ddl:"INTEGER PRIMARY KEY"`
	PatternKey string `db:"pattern_key" ddl:"TEXT NOT NULL UNIQUE"`
	RouteID    int64  `db:"route_id" ddl:"INTEGER NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE"`

	// RouteSeq is the upstream direction/variant number.
	RouteSeq int `db:"route_seq" ddl:"INTEGER NOT NULL"`

	// DirectionID: 0 unknown, 1 outbound, 2 inbound, 3 clockwise,
	// 4 counterclockwise.
	DirectionID int    `db:"direction_id" ddl:"INTEGER NOT NULL CHECK (direction_id BETWEEN 0 AND 4)"`
	ServiceType string `db:"service_type" ddl:"TEXT NOT NULL"`

	HeadsignEn sql.NullString `db:"headsign_en" ddl:"TEXT"`
	HeadsignTc sql.NullString `db:"headsign_tc" ddl:"TEXT"`
	HeadsignSc sql.NullString `db:"headsign_sc" ddl:"TEXT"`

	// SequenceIncomplete is set when upstream stop sequence is known
	// to be partial.
	SequenceIncomplete bool `db:"sequence_incomplete" ddl:"INTEGER NOT NULL DEFAULT 0"`

	// IsCircular is set for loop patterns that revisit a place.
	IsCircular bool `db:"is_circular" ddl:"INTEGER NOT NULL DEFAULT 0"`

	IsActive bool `db:"is_active" ddl:"INTEGER NOT NULL DEFAULT 1"`
}

// PatternStop is an ordered membership of a place in a pattern.
type PatternStop struct {
	PatternID int64 `db:"pattern_id" ddl:"INTEGER NOT NULL REFERENCES route_patterns(pattern_id) ON DELETE CASCADE"`
	Seq       int   `db:"seq" ddl:"INTEGER NOT NULL CHECK (seq >= 1)"`
	PlaceID   int64 `db:"place_id" ddl:"INTEGER NOT NULL REFERENCES places(place_id)"`

	// AllowRepeat lets a place appear more than once in the pattern.
	AllowRepeat bool `db:"allow_repeat" ddl:"INTEGER NOT NULL DEFAULT 0"`
}

// FareProduct is a kind of ticket, e.g. adult single journey.
type FareProduct struct {
	FareProductID int64          `db:"fare_product_id" ddl:"INTEGER PRIMARY KEY"`
	ProductKey    string         `db:"product_key" ddl:"TEXT NOT NULL UNIQUE"`
	Mode          string         `db:"mode" ddl:"TEXT NOT NULL"`
	NameEn        sql.NullString `db:"name_en" ddl:"TEXT"`
	Currency      string         `db:"currency" ddl:"TEXT NOT NULL DEFAULT 'HKD'"`
	IsActive      bool           `db:"is_active" ddl:"INTEGER NOT NULL DEFAULT 1"`
}

// FareRule binds a price window to a route or a pattern.
type FareRule struct {
	FareRuleID int64  `db:"fare_rule_id" ddl:"INTEGER PRIMARY KEY"`
	RuleKey    string `db:"rule_key" ddl:"TEXT NOT NULL UNIQUE"`
	OperatorID string `db:"operator_id" ddl:"TEXT NOT NULL REFERENCES operators(operator_id)"`
	Mode       string `db:"mode" ddl:"TEXT NOT NULL"`

	RouteID   sql.NullInt64 `db:"route_id" ddl:"INTEGER REFERENCES routes(route_id) ON DELETE CASCADE"`
	PatternID sql.NullInt64 `db:"pattern_id" ddl:"INTEGER REFERENCES route_patterns(pattern_id) ON DELETE CASCADE"`
	RouteSeq  sql.NullInt64 `db:"route_seq" ddl:"INTEGER"`

	// OriginSeq and DestinationSeq define the stop-sequence window.
	OriginSeq      sql.NullInt64 `db:"origin_seq" ddl:"INTEGER CHECK (origin_seq IS NULL OR origin_seq >= 1)"`
	DestinationSeq sql.NullInt64 `db:"destination_seq" ddl:"INTEGER CHECK (destination_seq IS NULL OR destination_seq >= 1)"`

	FareType string `db:"fare_type" ddl:"TEXT NOT NULL DEFAULT 'section'"`
	Currency string `db:"currency" ddl:"TEXT NOT NULL DEFAULT 'HKD'"`
	IsActive bool   `db:"is_active" ddl:"INTEGER NOT NULL DEFAULT 1"`
}

// FareAmount is a price of a fare rule for one product.
type FareAmount struct {
	FareRuleID    int64 `db:"fare_rule_id" ddl:"INTEGER NOT NULL REFERENCES fare_rules(fare_rule_id) ON DELETE CASCADE"`
	FareProductID int64 `db:"fare_product_id" ddl:"INTEGER NOT NULL REFERENCES fare_products(fare_product_id)"`
	AmountCents   int64 `db:"amount_cents" ddl:"INTEGER NOT NULL CHECK (amount_cents >= 0)"`
	IsDefault     bool  `db:"is_default" ddl:"INTEGER NOT NULL DEFAULT 0"`
}

// ServiceCalendar is a weekly day-of-service mask with a validity range.
type ServiceCalendar struct {
	ServiceID string `db:"service_id" ddl:"TEXT PRIMARY KEY"`

	// DaysMask has bit 0 for Monday up to bit 6 for Sunday.
	DaysMask int `db:"days_mask" ddl:"INTEGER NOT NULL CHECK (days_mask BETWEEN 0 AND 127)"`

	// StartDate and EndDate are YYYYMMDD.
	StartDate string `db:"start_date" ddl:"TEXT NOT NULL"`
	EndDate   string `db:"end_date" ddl:"TEXT NOT NULL"`
}

// ServiceException adds or removes service on a date.
type ServiceException struct {
	ServiceID     string `db:"service_id" ddl:"TEXT NOT NULL"`
	Date          string `db:"date" ddl:"TEXT NOT NULL"`
	ExceptionType int    `db:"exception_type" ddl:"INTEGER NOT NULL CHECK (exception_type IN (1, 2))"`
}

// HeadwayTrip is an upstream scheduled trip.
type HeadwayTrip struct {
	TripID          string         `db:"trip_id" ddl:"TEXT PRIMARY KEY"`
	UpstreamRouteID string         `db:"upstream_route_id" ddl:"TEXT NOT NULL"`
	RouteSeq        int            `db:"route_seq" ddl:"INTEGER NOT NULL"`
	ServiceID       string         `db:"service_id" ddl:"TEXT NOT NULL"`
	DepartureTime   sql.NullString `db:"departure_time" ddl:"TEXT"`
}

// HeadwayFrequency is a frequency band at upstream route scope.
type HeadwayFrequency struct {
	UpstreamRouteID string `db:"upstream_route_id" ddl:"TEXT NOT NULL"`
	RouteSeq        int    `db:"route_seq" ddl:"INTEGER NOT NULL"`
	ServiceID       string `db:"service_id" ddl:"TEXT NOT NULL"`
	StartTime       string `db:"start_time" ddl:"TEXT NOT NULL"`
	EndTime         string `db:"end_time" ddl:"TEXT NOT NULL"`
	HeadwaySecs     int    `db:"headway_secs" ddl:"INTEGER NOT NULL CHECK (headway_secs > 0)"`
	SampleTripID    string `db:"sample_trip_id" ddl:"TEXT NOT NULL REFERENCES headway_trips(trip_id)"`
}

// HeadwayStopTime is an explicit stop time of an upstream trip.
type HeadwayStopTime struct {
	TripID         string         `db:"trip_id" ddl:"TEXT NOT NULL REFERENCES headway_trips(trip_id) ON DELETE CASCADE"`
	StopSequence   int            `db:"stop_sequence" ddl:"INTEGER NOT NULL CHECK (stop_sequence >= 1)"`
	UpstreamStopID sql.NullString `db:"upstream_stop_id" ddl:"TEXT"`
	ArrivalTime    sql.NullString `db:"arrival_time" ddl:"TEXT"`
	DepartureTime  sql.NullString `db:"departure_time" ddl:"TEXT"`
}

// PatternHeadway is a frequency band correlated to a canonical pattern.
// The correlation is heuristic (upstream route id and route_seq), see
// ionormalize headway correlation.
type PatternHeadway struct {
	PatternID   int64  `db:"pattern_id" ddl:"INTEGER NOT NULL REFERENCES route_patterns(pattern_id) ON DELETE CASCADE"`
	ServiceID   string `db:"service_id" ddl:"TEXT NOT NULL"`
	StartTime   string `db:"start_time" ddl:"TEXT NOT NULL"`
	EndTime     string `db:"end_time" ddl:"TEXT NOT NULL"`
	HeadwaySecs int    `db:"headway_secs" ddl:"INTEGER NOT NULL CHECK (headway_secs > 0)"`
}

// UpstreamMapping keeps upstream identifier to stable key correlation.
type UpstreamMapping struct {
	Source string `db:"source" ddl:"TEXT NOT NULL"`

	// Mode is empty for operators, upstream ids are per mode otherwise.
	Mode       string `db:"mode" ddl:"TEXT NOT NULL DEFAULT ''"`
	UpstreamID string `db:"upstream_id" ddl:"TEXT NOT NULL"`
	StableKey  string `db:"stable_key" ddl:"TEXT NOT NULL"`
}

// OperatorMapping maps upstream company codes to operator ids.
type OperatorMapping UpstreamMapping

// PlaceMapping maps upstream stop ids to place keys.
type PlaceMapping UpstreamMapping

// RouteMapping maps upstream route ids to route keys.
type RouteMapping UpstreamMapping
