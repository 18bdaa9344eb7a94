package schema

import (
	"database/sql"
)

// Serving database models. Textual enums are replaced by integer codes
// (see Enum), stable keys are dropped and coordinates are fixed-point.

// AppMeta is the single metadata row of the serving database.
type AppMeta struct {
	MetaID        int    `db:"meta_id" ddl:"INTEGER PRIMARY KEY CHECK (meta_id = 1)"`
	SchemaVersion int    `db:"schema_version" ddl:"INTEGER NOT NULL"`
	BundleVersion string `db:"bundle_version" ddl:"TEXT NOT NULL"`
	BuildID       string `db:"build_id" ddl:"TEXT NOT NULL"`
	GeneratedAt   string `db:"generated_at" ddl:"TEXT NOT NULL"`

	// EnumCodes is JSON of enum name -> value -> code.
	EnumCodes string `db:"enum_codes" ddl:"TEXT NOT NULL"`

	Notes string `db:"notes" ddl:"TEXT"`
}

type AppOperator struct {
	OperatorID   int64          `db:"operator_id" ddl:"INTEGER PRIMARY KEY"`
	OperatorCode string         `db:"operator_code" ddl:"TEXT NOT NULL"`
	NameEn       sql.NullString `db:"name_en" ddl:"TEXT"`
	NameTc       sql.NullString `db:"name_tc" ddl:"TEXT"`
	NameSc       sql.NullString `db:"name_sc" ddl:"TEXT"`
}

type AppPlace struct {
	PlaceID     int64          `db:"place_id" ddl:"INTEGER PRIMARY KEY"`
	PlaceTypeID int            `db:"place_type_id" ddl:"INTEGER NOT NULL"`
	ModeID      int            `db:"mode_id" ddl:"INTEGER NOT NULL"`
	NameEn      sql.NullString `db:"name_en" ddl:"TEXT"`
	NameTc      sql.NullString `db:"name_tc" ddl:"TEXT"`
	NameSc      sql.NullString `db:"name_sc" ddl:"TEXT"`

	// LatE7 and LonE7 are WGS84 degrees multiplied by 1e7.
	LatE7 sql.NullInt64 `db:"lat_e7" ddl:"INTEGER"`
	LonE7 sql.NullInt64 `db:"lon_e7" ddl:"INTEGER"`

	ParentPlaceID sql.NullInt64 `db:"parent_place_id" ddl:"INTEGER"`
}

type AppRoute struct {
	RouteID        int64          `db:"route_id" ddl:"INTEGER PRIMARY KEY"`
	OperatorID     int64          `db:"operator_id" ddl:"INTEGER NOT NULL REFERENCES operators(operator_id)"`
	ModeID         int            `db:"mode_id" ddl:"INTEGER NOT NULL"`
	RouteShortName string         `db:"route_short_name" ddl:"TEXT NOT NULL DEFAULT ''"`
	OriginEn       sql.NullString `db:"origin_en" ddl:"TEXT"`
	OriginTc       sql.NullString `db:"origin_tc" ddl:"TEXT"`
	OriginSc       sql.NullString `db:"origin_sc" ddl:"TEXT"`
	DestinationEn  sql.NullString `db:"destination_en" ddl:"TEXT"`
	DestinationTc  sql.NullString `db:"destination_tc" ddl:"TEXT"`
	DestinationSc  sql.NullString `db:"destination_sc" ddl:"TEXT"`
}

type AppPattern struct {
	PatternID     int64          `db:"pattern_id" ddl:"INTEGER PRIMARY KEY"`
	RouteID       int64          `db:"route_id" ddl:"INTEGER NOT NULL REFERENCES routes(route_id)"`
	RouteSeq      int            `db:"route_seq" ddl:"INTEGER NOT NULL"`
	DirectionID   int            `db:"direction_id" ddl:"INTEGER NOT NULL"`
	ServiceTypeID int            `db:"service_type_id" ddl:"INTEGER NOT NULL"`
	HeadsignEn    sql.NullString `db:"headsign_en" ddl:"TEXT"`
	HeadsignTc    sql.NullString `db:"headsign_tc" ddl:"TEXT"`
	HeadsignSc    sql.NullString `db:"headsign_sc" ddl:"TEXT"`
	IsCircular    bool           `db:"is_circular" ddl:"INTEGER NOT NULL DEFAULT 0"`
}

type AppPatternStop struct {
	PatternID int64 `db:"pattern_id" ddl:"INTEGER NOT NULL REFERENCES route_patterns(pattern_id)"`
	Seq       int   `db:"seq" ddl:"INTEGER NOT NULL"`
	PlaceID   int64 `db:"place_id" ddl:"INTEGER NOT NULL REFERENCES places(place_id)"`
}

type AppFareProduct struct {
	FareProductID int64          `db:"fare_product_id" ddl:"INTEGER PRIMARY KEY"`
	ModeID        int            `db:"mode_id" ddl:"INTEGER NOT NULL"`
	NameEn        sql.NullString `db:"name_en" ddl:"TEXT"`
}

// FareSegment is a run of contiguous destination sequences that share
// one price from the same origin.
type FareSegment struct {
	RouteID       int64 `db:"route_id" ddl:"INTEGER NOT NULL REFERENCES routes(route_id)"`
	RouteSeq      int   `db:"route_seq" ddl:"INTEGER NOT NULL"`
	FareProductID int64 `db:"fare_product_id" ddl:"INTEGER NOT NULL REFERENCES fare_products(fare_product_id)"`
	OriginSeq     int   `db:"origin_seq" ddl:"INTEGER NOT NULL"`
	DestFromSeq   int   `db:"dest_from_seq" ddl:"INTEGER NOT NULL"`
	DestToSeq     int   `db:"dest_to_seq" ddl:"INTEGER NOT NULL"`
	AmountCents   int64 `db:"amount_cents" ddl:"INTEGER NOT NULL"`
	IsDefault     bool  `db:"is_default" ddl:"INTEGER NOT NULL DEFAULT 0"`
}

// SearchDoc is one searchable place ('p') or route ('r').
type SearchDoc struct {
	DocID      int64         `db:"doc_id" ddl:"INTEGER PRIMARY KEY"`
	Kind       string        `db:"kind" ddl:"TEXT NOT NULL CHECK (kind IN ('p', 'r'))"`
	RefID      int64         `db:"ref_id" ddl:"INTEGER NOT NULL"`
	ModeID     int           `db:"mode_id" ddl:"INTEGER NOT NULL"`
	OperatorID sql.NullInt64 `db:"operator_id" ddl:"INTEGER"`
	Code       string        `db:"code" ddl:"TEXT NOT NULL DEFAULT ''"`
}

// SearchFTS is a row of the contentless full-text index. Its rowid is
// the doc_id of SearchDoc.
type SearchFTS struct {
	RowID int64  `db:"rowid"`
	Code  string `db:"code"`
	En    string `db:"en"`
	Tc    string `db:"tc"`
	Sc    string `db:"sc"`
}

type AppPatternHeadway struct {
	PatternID   int64  `db:"pattern_id" ddl:"INTEGER NOT NULL REFERENCES route_patterns(pattern_id)"`
	ServiceID   string `db:"service_id" ddl:"TEXT NOT NULL"`
	StartTime   string `db:"start_time" ddl:"TEXT NOT NULL"`
	EndTime     string `db:"end_time" ddl:"TEXT NOT NULL"`
	HeadwaySecs int    `db:"headway_secs" ddl:"INTEGER NOT NULL"`
}

func (m AppMeta) TableDDL() string   { return generateDDL(m, m.TableName()) }
func (m AppMeta) IndexDDL() []string { return []string{} }
func (m AppMeta) TableName() string  { return "meta" }

func (o AppOperator) TableDDL() string   { return generateDDL(o, o.TableName()) }
func (o AppOperator) IndexDDL() []string { return []string{} }
func (o AppOperator) TableName() string  { return "operators" }

func (p AppPlace) TableDDL() string { return generateDDL(p, p.TableName()) }
func (p AppPlace) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_places_parent ON places(parent_place_id);",
	}
}
func (p AppPlace) TableName() string { return "places" }

func (r AppRoute) TableDDL() string { return generateDDL(r, r.TableName()) }
func (r AppRoute) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_routes_short_name ON routes(route_short_name);",
		"CREATE INDEX idx_routes_mode_short_name ON routes(mode_id, route_short_name);",
		"CREATE INDEX idx_routes_operator ON routes(operator_id);",
	}
}
func (r AppRoute) TableName() string { return "routes" }

func (p AppPattern) TableDDL() string { return generateDDL(p, p.TableName()) }
func (p AppPattern) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_route_patterns_route ON route_patterns(route_id);",
	}
}
func (p AppPattern) TableName() string { return "route_patterns" }

func (ps AppPatternStop) TableDDL() string {
	return generateDDL(ps, ps.TableName(), "PRIMARY KEY (pattern_id, seq)")
}
func (ps AppPatternStop) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_pattern_stops_place ON pattern_stops(place_id);",
	}
}
func (ps AppPatternStop) TableName() string { return "pattern_stops" }

func (fp AppFareProduct) TableDDL() string   { return generateDDL(fp, fp.TableName()) }
func (fp AppFareProduct) IndexDDL() []string { return []string{} }
func (fp AppFareProduct) TableName() string  { return "fare_products" }

func (fs FareSegment) TableDDL() string {
	return generateDDL(fs, fs.TableName(),
		"PRIMARY KEY (route_id, route_seq, fare_product_id, origin_seq, dest_from_seq)",
		"CHECK (dest_to_seq >= dest_from_seq)",
	)
}
func (fs FareSegment) IndexDDL() []string { return []string{} }
func (fs FareSegment) TableName() string  { return "fare_segments" }

func (d SearchDoc) TableDDL() string { return generateDDL(d, d.TableName()) }
func (d SearchDoc) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_search_docs_ref ON search_docs(kind, ref_id);",
	}
}
func (d SearchDoc) TableName() string { return "search_docs" }

// TableDDL of SearchFTS creates a contentless FTS5 table. Diacritics are
// folded by the unicode61 tokenizer, CJK text has to be segmented before
// insert (see textnorm.SegmentCJK).
func (f SearchFTS) TableDDL() string {
	return "CREATE VIRTUAL TABLE search_fts USING fts5(\n" +
		"    code, en, tc, sc,\n" +
		"    content='',\n" +
		"    tokenize='unicode61 remove_diacritics 2'\n" +
		");"
}
func (f SearchFTS) IndexDDL() []string { return []string{} }
func (f SearchFTS) TableName() string  { return "search_fts" }

func (ph AppPatternHeadway) TableDDL() string {
	return generateDDL(ph, ph.TableName(), "PRIMARY KEY (pattern_id, service_id, start_time)")
}
func (ph AppPatternHeadway) IndexDDL() []string { return []string{} }
func (ph AppPatternHeadway) TableName() string  { return "pattern_headways" }
