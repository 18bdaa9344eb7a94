// Package staged describes record batches produced by upstream parsers.
// All fields are strings, typing happens in Normalize. Struct tags `csv`
// bind fields to CSV header columns and `validate` tags declare required
// and well-formed fields.
package staged

// Table is a kind of staged batch.
type Table string

const (
	TableOperator     Table = "operator"
	TablePlace        Table = "place"
	TableRoute        Table = "route"
	TableRouteStop    Table = "route_stop"
	TableFare         Table = "fare"
	TableCalendar     Table = "calendar"
	TableCalendarDate Table = "calendar_date"
	TableTrip         Table = "trip"
	TableFrequency    Table = "frequency"
	TableStopTime     Table = "stop_time"
)

// Tables returns all staged tables in the order Normalize resolves them.
func Tables() []Table {
	return []Table{
		TableOperator, TablePlace, TableRoute, TableRouteStop, TableFare,
		TableCalendar, TableCalendarDate, TableTrip, TableFrequency,
		TableStopTime,
	}
}

// NeedsMode reports if batches of the table must declare a mode.
func (t Table) NeedsMode() bool {
	switch t {
	case TablePlace, TableRoute, TableRouteStop, TableFare:
		return true
	}
	return false
}

// Origin locates a staged record.
type Origin struct {
	Source string
	Mode   string
	Path   string
	// Line is the 1-based data row number, the header is not counted.
	Line int
}

type OperatorRecord struct {
	Origin      `csv:"-"`
	CompanyCode string `csv:"COMPANY_CODE" validate:"required"`
	NameEn      string `csv:"COMPANY_NAMEE"`
	NameTc      string `csv:"COMPANY_NAMEC"`
	NameSc      string `csv:"COMPANY_NAMES"`
}

type PlaceRecord struct {
	Origin `csv:"-"`
	StopID string `csv:"STOP_ID" validate:"required"`
	NameEn string `csv:"STOP_NAMEE"`
	NameTc string `csv:"STOP_NAMEC"`
	NameSc string `csv:"STOP_NAMES"`

	// X and Y are HK1980 Grid easting and northing.
	X string `csv:"X" validate:"omitempty,numeric"`
	Y string `csv:"Y" validate:"omitempty,numeric"`

	Lat string `csv:"LAT" validate:"omitempty,latitude"`
	Lon string `csv:"LON" validate:"omitempty,longitude"`

	PlaceType    string `csv:"PLACE_TYPE"`
	ParentStopID string `csv:"PARENT_STOP_ID"`
}

type RouteRecord struct {
	Origin        `csv:"-"`
	RouteID       string `csv:"ROUTE_ID" validate:"required"`
	CompanyCode   string `csv:"COMPANY_CODE" validate:"required"`
	RouteNameEn   string `csv:"ROUTE_NAMEE"`
	RouteNameTc   string `csv:"ROUTE_NAMEC"`
	RouteNameSc   string `csv:"ROUTE_NAMES"`
	LocStartEn    string `csv:"LOC_START_NAMEE"`
	LocStartTc    string `csv:"LOC_START_NAMEC"`
	LocStartSc    string `csv:"LOC_START_NAMES"`
	LocEndEn      string `csv:"LOC_END_NAMEE"`
	LocEndTc      string `csv:"LOC_END_NAMEC"`
	LocEndSc      string `csv:"LOC_END_NAMES"`
	ServiceMode   string `csv:"SERVICE_MODE"`
	SpecialType   string `csv:"SPECIAL_TYPE" validate:"omitempty,number"`
	JourneyTime   string `csv:"JOURNEY_TIME" validate:"omitempty,number"`
	District      string `csv:"DISTRICT"`
}

type RouteStopRecord struct {
	Origin   `csv:"-"`
	RouteID  string `csv:"ROUTE_ID" validate:"required"`
	RouteSeq string `csv:"ROUTE_SEQ" validate:"required,number"`
	StopSeq  string `csv:"STOP_SEQ" validate:"required,number"`
	StopID   string `csv:"STOP_ID" validate:"required"`
}

type FareRecord struct {
	Origin   `csv:"-"`
	RouteID  string `csv:"ROUTE_ID" validate:"required"`
	RouteSeq string `csv:"ROUTE_SEQ" validate:"required,number"`
	OnSeq    string `csv:"ON_SEQ" validate:"required,number"`
	OffSeq   string `csv:"OFF_SEQ" validate:"required,number"`
	Price    string `csv:"PRICE" validate:"required,numeric"`
}

type CalendarRecord struct {
	Origin    `csv:"-"`
	ServiceID string `csv:"service_id" validate:"required"`
	Monday    string `csv:"monday" validate:"omitempty,oneof=0 1"`
	Tuesday   string `csv:"tuesday" validate:"omitempty,oneof=0 1"`
	Wednesday string `csv:"wednesday" validate:"omitempty,oneof=0 1"`
	Thursday  string `csv:"thursday" validate:"omitempty,oneof=0 1"`
	Friday    string `csv:"friday" validate:"omitempty,oneof=0 1"`
	Saturday  string `csv:"saturday" validate:"omitempty,oneof=0 1"`
	Sunday    string `csv:"sunday" validate:"omitempty,oneof=0 1"`
	StartDate string `csv:"start_date" validate:"required,len=8,number"`
	EndDate   string `csv:"end_date" validate:"required,len=8,number"`
}

// Days returns day flags from Monday to Sunday.
func (c CalendarRecord) Days() []string {
	return []string{
		c.Monday, c.Tuesday, c.Wednesday, c.Thursday,
		c.Friday, c.Saturday, c.Sunday,
	}
}

type CalendarDateRecord struct {
	Origin        `csv:"-"`
	ServiceID     string `csv:"service_id" validate:"required"`
	Date          string `csv:"date" validate:"required,len=8,number"`
	ExceptionType string `csv:"exception_type" validate:"required,oneof=1 2"`
}

type TripRecord struct {
	Origin    `csv:"-"`
	RouteID   string `csv:"route_id" validate:"required"`
	ServiceID string `csv:"service_id" validate:"required"`
	TripID    string `csv:"trip_id" validate:"required"`
}

type FrequencyRecord struct {
	Origin      `csv:"-"`
	TripID      string `csv:"trip_id" validate:"required"`
	StartTime   string `csv:"start_time" validate:"required"`
	EndTime     string `csv:"end_time" validate:"required"`
	HeadwaySecs string `csv:"headway_secs" validate:"required,number"`
}

type StopTimeRecord struct {
	Origin        `csv:"-"`
	TripID        string `csv:"trip_id" validate:"required"`
	StopSequence  string `csv:"stop_sequence" validate:"required,number"`
	StopID        string `csv:"stop_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

// Invalid is a staged record rejected before Normalize.
type Invalid struct {
	Origin
	Table Table
	Field string
	Value string
	Tag   string
}

// Dataset holds all staged records of a run.
type Dataset struct {
	Operators     []OperatorRecord
	Places        []PlaceRecord
	Routes        []RouteRecord
	RouteStops    []RouteStopRecord
	Fares         []FareRecord
	Calendars     []CalendarRecord
	CalendarDates []CalendarDateRecord
	Trips         []TripRecord
	Frequencies   []FrequencyRecord
	StopTimes     []StopTimeRecord

	Invalid []Invalid
}
