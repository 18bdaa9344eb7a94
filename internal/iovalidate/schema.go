package iovalidate

import (
	"context"
	"strconv"

	"github.com/gnames/hktransit/pkg/schema"
)

// schema checks closed enum domains, required keys and numeric ranges.
func (d *data) schema(ctx context.Context, c *checker) {
	enum := func(e schema.Enum, entity, key, field, val string) {
		if !e.Valid(val) {
			c.fatal(CodeEnum, entity, key, field, e.Name, val)
		}
	}
	atLeast := func(entity, key, field string, lo, val int64) {
		if val < lo {
			c.fatal(CodeRange, entity, key, field,
				">= "+itoa(lo), itoa(val))
		}
	}

	for _, o := range d.g.Operators {
		if o.OperatorID == "" {
			c.fatal(CodeKeyNull, "operators", o.OperatorCode, "operator_id", "not null", "")
		}
	}
	for _, p := range d.g.Places {
		if p.PlaceKey == "" {
			c.fatal(CodeKeyNull, "places", itoa(p.PlaceID), "place_key", "not null", "")
		}
		enum(schema.PlaceTypes, "places", p.PlaceKey, "place_type", p.PlaceType)
		enum(schema.Modes, "places", p.PlaceKey, "primary_mode", p.PrimaryMode)
	}
	for _, r := range d.g.Routes {
		if r.RouteKey == "" {
			c.fatal(CodeKeyNull, "routes", itoa(r.RouteID), "route_key", "not null", "")
		}
		if r.OperatorID == "" {
			c.fatal(CodeKeyNull, "routes", r.RouteKey, "operator_id", "not null", "")
		}
		enum(schema.Modes, "routes", r.RouteKey, "mode", r.Mode)
	}
	if ctx.Err() != nil {
		return
	}

	for _, p := range d.g.Patterns {
		if p.PatternKey == "" {
			c.fatal(CodeKeyNull, "route_patterns", itoa(p.PatternID), "pattern_key", "not null", "")
		}
		if !schema.ValidServiceType(p.ServiceType) {
			c.fatal(CodeEnum, "route_patterns", p.PatternKey, "service_type",
				schema.ServiceTypes.Name, p.ServiceType)
		}
		if !schema.ValidDirection(p.DirectionID) {
			c.fatal(CodeEnum, "route_patterns", p.PatternKey, "direction_id",
				"0..4", itoa(p.DirectionID))
		}
	}
	for _, ps := range d.g.PatternStops {
		atLeast("pattern_stops", d.patternKey(ps.PatternID), "seq", 1, int64(ps.Seq))
	}
	if ctx.Err() != nil {
		return
	}

	for _, fp := range d.g.FareProducts {
		enum(schema.Modes, "fare_products", fp.ProductKey, "mode", fp.Mode)
	}
	for _, fr := range d.g.FareRules {
		enum(schema.Modes, "fare_rules", fr.RuleKey, "mode", fr.Mode)
		if !fr.RouteID.Valid && !fr.PatternID.Valid {
			c.fatal(CodeKeyNull, "fare_rules", fr.RuleKey, "route_id",
				"route_id or pattern_id", "")
		}
		if fr.OriginSeq.Valid {
			atLeast("fare_rules", fr.RuleKey, "origin_seq", 1, fr.OriginSeq.Int64)
		}
		if fr.DestinationSeq.Valid {
			atLeast("fare_rules", fr.RuleKey, "destination_seq", 1, fr.DestinationSeq.Int64)
		}
	}
	for _, fa := range d.g.FareAmounts {
		atLeast("fare_amounts", d.ruleKey(fa.FareRuleID), "amount_cents", 0, fa.AmountCents)
	}
	if ctx.Err() != nil {
		return
	}

	for _, sc := range d.g.Calendars {
		if sc.DaysMask < 0 || sc.DaysMask > 127 {
			c.fatal(CodeRange, "service_calendars", sc.ServiceID, "days_mask",
				"0..127", itoa(sc.DaysMask))
		}
		if sc.EndDate < sc.StartDate {
			c.fatal(CodeRange, "service_calendars", sc.ServiceID, "end_date",
				">= "+sc.StartDate, sc.EndDate)
		}
	}
	for _, se := range d.g.Exceptions {
		typ := se.ExceptionType
		if typ != schema.ExceptionAdded && typ != schema.ExceptionRemoved {
			c.fatal(CodeEnum, "service_exceptions", se.ServiceID+"@"+se.Date,
				"exception_type", "1 or 2", strconv.Itoa(typ))
		}
	}
	for _, hf := range d.g.Frequencies {
		key := hf.UpstreamRouteID + ":" + itoa(hf.RouteSeq) + ":" + hf.ServiceID +
			"@" + hf.StartTime
		atLeast("headway_frequencies", key, "headway_secs", 1, int64(hf.HeadwaySecs))
		if hf.EndTime <= hf.StartTime {
			c.fatal(CodeRange, "headway_frequencies", key, "end_time",
				"> "+hf.StartTime, hf.EndTime)
		}
	}
	for _, st := range d.g.StopTimes {
		atLeast("headway_stop_times", st.TripID, "stop_sequence", 1, int64(st.StopSequence))
	}
	for _, ph := range d.g.PatternHeadways {
		key := d.patternKey(ph.PatternID) + "@" + ph.ServiceID + "@" + ph.StartTime
		atLeast("pattern_headways", key, "headway_secs", 1, int64(ph.HeadwaySecs))
	}
}
