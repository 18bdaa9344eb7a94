package ionormalize

import (
	"cmp"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/staged"
)

// tripParts splits an upstream trip id like '1001_1_1_0600' into parts.
func tripParts(id string) []string {
	id = strings.TrimSpace(id)
	if parts := strings.Split(id, "_"); len(parts) >= 2 {
		return parts
	}
	if parts := strings.Split(id, "-"); len(parts) >= 2 {
		return parts
	}
	return nil
}

// tripBound reads route_seq from the second part of a trip id. Zero
// means unknown.
func tripBound(parts []string) int {
	if len(parts) < 2 {
		return 0
	}
	b := strings.ToUpper(strings.TrimSpace(parts[1]))
	if i, err := strconv.Atoi(b); err == nil && i >= 0 {
		return i
	}
	switch b {
	case "O", "OUT", "OUTBOUND", "OB":
		return 1
	case "I", "IN", "INBOUND", "IB":
		return 2
	}
	return 0
}

// tripDeparture reads the departure from the fourth part of a trip id.
func tripDeparture(parts []string) sql.NullString {
	if len(parts) < 4 {
		return sql.NullString{}
	}
	d := strings.TrimSpace(parts[3])
	switch {
	case d == "":
		return sql.NullString{}
	case strings.Contains(d, ":"):
	case len(d) == 6 && isDigits(d):
		d = d[:2] + ":" + d[2:4] + ":" + d[4:]
	case len(d) == 4 && isDigits(d):
		d = d[:2] + ":" + d[2:] + ":00"
	}
	return sql.NullString{String: d, Valid: true}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// normTime turns 'H:MM', 'HH:MM' or 'H:MM:SS' into 'HH:MM:SS'. Hours
// can exceed 23 for services after midnight.
func normTime(s string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 2 {
		parts = append(parts, "00")
	}
	if len(parts) != 3 {
		return "", false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (i > 0 && n > 59) {
			return "", false
		}
		nums[i] = n
	}
	return fmt.Sprintf("%02d:%02d:%02d", nums[0], nums[1], nums[2]), true
}

// resolveHeadways builds upstream-scoped trips, frequencies and stop
// times. They keep upstream route ids and are correlated to patterns
// after patterns exist.
func (r *run) resolveHeadways() error {
	trips := make(map[string]int)
	for _, t := range r.ds.Trips {
		id := strings.TrimSpace(t.TripID)
		if _, ok := trips[id]; ok {
			continue
		}
		parts := tripParts(id)
		trips[id] = len(r.g.Trips)
		r.g.Trips = append(r.g.Trips, schema.HeadwayTrip{
			TripID:          id,
			UpstreamRouteID: strings.TrimSpace(t.RouteID),
			RouteSeq:        tripBound(parts),
			ServiceID:       strings.TrimSpace(t.ServiceID),
			DepartureTime:   tripDeparture(parts),
		})
	}

	r.resolveFrequencies(trips)
	r.resolveStopTimes(trips)
	return nil
}

type freqKey struct {
	route   string
	seq     int
	service string
	start   string
	end     string
}

func (r *run) resolveFrequencies(trips map[string]int) {
	idx := make(map[freqKey]int)
	for _, f := range r.ds.Frequencies {
		id := strings.TrimSpace(f.TripID)
		pos, ok := trips[id]
		if !ok {
			r.unresolve(f.Origin, staged.TableFrequency,
				ReasonMissingTrip, "trip_id", f.TripID)
			continue
		}
		start, ok1 := normTime(f.StartTime)
		end, ok2 := normTime(f.EndTime)
		if !ok1 || !ok2 {
			r.unresolve(f.Origin, staged.TableFrequency,
				ReasonBadTime, "start_time", f.StartTime+"-"+f.EndTime)
			continue
		}
		if end <= start {
			r.unresolve(f.Origin, staged.TableFrequency,
				ReasonBadTime, "end_time", f.StartTime+"-"+f.EndTime)
			continue
		}
		secs, err := strconv.Atoi(f.HeadwaySecs)
		if err != nil {
			r.unresolve(f.Origin, staged.TableFrequency,
				ReasonInvalid, "headway_secs", f.HeadwaySecs)
			continue
		}

		trip := r.g.Trips[pos]
		k := freqKey{
			route:   trip.UpstreamRouteID,
			seq:     trip.RouteSeq,
			service: trip.ServiceID,
			start:   start,
			end:     end,
		}
		if i, ok := idx[k]; ok {
			hf := &r.g.Frequencies[i]
			hf.HeadwaySecs = min(hf.HeadwaySecs, secs)
			continue
		}
		idx[k] = len(r.g.Frequencies)
		r.g.Frequencies = append(r.g.Frequencies, schema.HeadwayFrequency{
			UpstreamRouteID: k.route,
			RouteSeq:        k.seq,
			ServiceID:       k.service,
			StartTime:       start,
			EndTime:         end,
			HeadwaySecs:     secs,
			SampleTripID:    id,
		})
	}
}

func (r *run) resolveStopTimes(trips map[string]int) {
	seen := make(map[string]struct{})
	for _, st := range r.ds.StopTimes {
		id := strings.TrimSpace(st.TripID)
		if _, ok := trips[id]; !ok {
			r.unresolve(st.Origin, staged.TableStopTime,
				ReasonMissingTrip, "trip_id", st.TripID)
			continue
		}
		seq, err := strconv.Atoi(st.StopSequence)
		if err != nil {
			r.unresolve(st.Origin, staged.TableStopTime,
				ReasonInvalid, "stop_sequence", st.StopSequence)
			continue
		}
		k := id + "|" + strconv.Itoa(seq)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		r.g.StopTimes = append(r.g.StopTimes, schema.HeadwayStopTime{
			TripID:         id,
			StopSequence:   seq,
			UpstreamStopID: nullable(strings.TrimSpace(st.StopID), false),
			ArrivalTime:    nullable(st.ArrivalTime, true),
			DepartureTime:  nullable(st.DepartureTime, true),
		})
	}
}

// nullable returns an optional value, normalizing it as a time if asked.
func nullable(s string, isTime bool) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	if isTime {
		if t, ok := normTime(s); ok {
			s = t
		}
	}
	return sql.NullString{String: s, Valid: true}
}

// correlateHeadways maps upstream frequencies to canonical patterns.
// The correlation is a heuristic: an upstream route id must map to
// exactly one route, and the route_seq parsed from trip ids picks the
// pattern with the most stops.
func (r *run) correlateHeadways() error {
	if len(r.g.Frequencies) == 0 {
		return nil
	}

	upstream := make(map[string]map[int64]struct{})
	for _, m := range r.g.RouteMappings {
		pos, ok := r.routes[m.StableKey]
		if !ok {
			continue
		}
		id := keys.RouteID(m.UpstreamID)
		if upstream[id] == nil {
			upstream[id] = make(map[int64]struct{})
		}
		upstream[id][r.g.Routes[pos].RouteID] = struct{}{}
	}

	type band struct {
		pattern int64
		service string
		start   string
	}
	bands := make(map[band]*schema.PatternHeadway)
	for _, f := range r.g.Frequencies {
		if f.RouteSeq == 0 {
			r.stats.MissingRouteSeq++
			continue
		}
		routes := upstream[keys.RouteID(f.UpstreamRouteID)]
		if len(routes) > 1 {
			r.stats.AmbiguousRoute++
			continue
		}
		if len(routes) == 0 {
			r.stats.MissingRoute++
			continue
		}
		var routeID int64
		for id := range routes {
			routeID = id
		}
		pid, ok := r.longestPattern(routeID, f.RouteSeq)
		if !ok {
			r.stats.MissingPattern++
			continue
		}

		b := band{pattern: pid, service: f.ServiceID, start: f.StartTime}
		if ph, ok := bands[b]; ok {
			ph.HeadwaySecs = min(ph.HeadwaySecs, f.HeadwaySecs)
			ph.EndTime = max(ph.EndTime, f.EndTime)
			continue
		}
		bands[b] = &schema.PatternHeadway{
			PatternID:   pid,
			ServiceID:   f.ServiceID,
			StartTime:   f.StartTime,
			EndTime:     f.EndTime,
			HeadwaySecs: f.HeadwaySecs,
		}
	}

	for _, ph := range bands {
		r.g.PatternHeadways = append(r.g.PatternHeadways, *ph)
	}
	slices.SortFunc(r.g.PatternHeadways, func(a, b schema.PatternHeadway) int {
		return cmp.Or(
			cmp.Compare(a.PatternID, b.PatternID),
			cmp.Compare(a.ServiceID, b.ServiceID),
			cmp.Compare(a.StartTime, b.StartTime),
		)
	})
	r.stats.Inserted = len(r.g.PatternHeadways)
	return nil
}

// longestPattern picks the pattern of a route and route_seq with the
// most stops, the smallest pattern key on ties.
func (r *run) longestPattern(routeID int64, seq int) (int64, bool) {
	pp := r.patterns[routeSeq{routeID: routeID, seq: seq}]
	if len(pp) == 0 {
		return 0, false
	}
	best := r.g.Patterns[pp[0]]
	for _, pos := range pp[1:] {
		p := r.g.Patterns[pos]
		n, bn := r.patternStops[p.PatternID], r.patternStops[best.PatternID]
		if n > bn || (n == bn && p.PatternKey < best.PatternKey) {
			best = p
		}
	}
	return best.PatternID, true
}
