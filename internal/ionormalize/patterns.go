package ionormalize

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/staged"
)

const entPatterns = "route_patterns"

// patternStop is a staged route stop with resolved keys.
type patternStop struct {
	stopSeq  int
	placeKey string
	line     int
}

// stopList is the stop sequence of one route and route_seq given by one
// source.
type stopList struct {
	routeKey string
	routeSeq int
	source   string
	mode     string
	stops    []patternStop
	// dropped counts stops with an unknown place.
	dropped int
}

// stagedPattern is a pattern before surrogate ids are known.
type stagedPattern struct {
	key   keys.Key
	list  *stopList
	flags schema.RoutePattern
}

func (r *run) stopLists() []*stopList {
	idx := make(map[string]*stopList)
	var res []*stopList
	for _, v := range r.ds.RouteStops {
		routeKey := keys.Route(v.Mode, v.RouteID).Stable
		if _, ok := r.routes[routeKey]; !ok {
			r.unresolve(v.Origin, staged.TableRouteStop,
				ReasonMissingRoute, "ROUTE_ID", v.RouteID)
			continue
		}
		routeSeq, err1 := strconv.Atoi(v.RouteSeq)
		stopSeq, err2 := strconv.Atoi(v.StopSeq)
		if err1 != nil || err2 != nil {
			r.unresolve(v.Origin, staged.TableRouteStop,
				ReasonInvalid, "ROUTE_SEQ", v.RouteSeq+"/"+v.StopSeq)
			continue
		}

		id := routeKey + "|" + strconv.Itoa(routeSeq) + "|" + v.Source
		sl, ok := idx[id]
		if !ok {
			sl = &stopList{
				routeKey: routeKey,
				routeSeq: routeSeq,
				source:   v.Source,
				mode:     v.Mode,
			}
			idx[id] = sl
			res = append(res, sl)
		}

		placeKey := keys.Place(v.Mode, v.StopID).Stable
		if _, ok := r.places[placeKey]; !ok {
			r.unresolve(v.Origin, staged.TableRouteStop,
				ReasonMissingPlace, "STOP_ID", v.StopID)
			sl.dropped++
			// the position is kept to detect gaps in STOP_SEQ
			sl.stops = append(sl.stops, patternStop{stopSeq: stopSeq, line: v.Line})
			continue
		}
		sl.stops = append(sl.stops, patternStop{
			stopSeq: stopSeq, placeKey: placeKey, line: v.Line,
		})
	}

	for _, sl := range res {
		slices.SortStableFunc(sl.stops, func(a, b patternStop) int {
			return cmp.Or(
				cmp.Compare(a.stopSeq, b.stopSeq),
				cmp.Compare(a.placeKey, b.placeKey),
				cmp.Compare(a.line, b.line),
			)
		})
	}

	// Lists from the most authoritative source come first, so they win
	// when two sources give the same pattern.
	slices.SortFunc(res, func(a, b *stopList) int {
		return cmp.Or(
			cmp.Compare(a.routeKey, b.routeKey),
			cmp.Compare(a.routeSeq, b.routeSeq),
			r.prec.Compare(entPatterns, "stops", a.source, b.source),
		)
	})
	return res
}

func (sl *stopList) placeKeys() []string {
	res := make([]string, 0, len(sl.stops))
	for _, s := range sl.stops {
		if s.placeKey != "" {
			res = append(res, s.placeKey)
		}
	}
	return res
}

// incomplete is true for minibus lists with at most two stops, for
// lists with dropped stops and when STOP_SEQ is not 1..N.
func (sl *stopList) incomplete() bool {
	if sl.dropped > 0 {
		return true
	}
	if sl.mode == "gmb" && len(sl.stops) <= 2 {
		return true
	}
	for i, s := range sl.stops {
		if s.stopSeq != i+1 {
			return true
		}
	}
	return false
}

func circular(placeKeys []string) bool {
	seen := make(map[string]struct{}, len(placeKeys))
	for _, k := range placeKeys {
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

func (r *run) resolvePatterns() error {
	var pending []stagedPattern
	seen := make(map[string]struct{})
	for _, sl := range r.stopLists() {
		pks := sl.placeKeys()
		if len(pks) == 0 {
			continue
		}
		k := keys.Pattern(sl.routeKey, sl.routeSeq, pks)
		if _, ok := seen[k.Stable]; ok {
			continue
		}
		seen[k.Stable] = struct{}{}

		route := &r.g.Routes[r.routes[sl.routeKey]]
		dir := directionID(sl.routeSeq)
		isCircular := circular(pks)
		pending = append(pending, stagedPattern{
			key:  k,
			list: sl,
			flags: schema.RoutePattern{
				PatternKey:  k.Stable,
				RouteID:     route.RouteID,
				RouteSeq:    sl.routeSeq,
				DirectionID: dir,
				ServiceType: serviceType(
					route.Mode,
					route.RouteShortName.String,
					r.specialType[sl.routeKey],
				),
				HeadsignEn: headsign(dir, route.OriginTextEn, route.DestinationTextEn),
				HeadsignTc: headsign(dir, route.OriginTextTc, route.DestinationTextTc),
				HeadsignSc: headsign(dir, route.OriginTextSc, route.DestinationTextSc),

				SequenceIncomplete: sl.incomplete(),
				IsCircular:         isCircular,
				IsActive:           true,
			},
		})
	}

	patKeys := make([]string, len(pending))
	kk := make([]keys.Key, len(pending))
	for i, sp := range pending {
		patKeys[i] = sp.key.Stable
		kk[i] = sp.key
	}
	ids := surrogate(patKeys)
	slices.SortFunc(pending, func(a, b stagedPattern) int {
		return cmp.Compare(a.key.Stable, b.key.Stable)
	})

	for _, sp := range pending {
		p := sp.flags
		p.PatternID = ids[sp.key.Stable]
		pos := len(r.g.Patterns)
		r.g.Patterns = append(r.g.Patterns, p)

		rs := routeSeq{routeID: p.RouteID, seq: p.RouteSeq}
		r.patterns[rs] = append(r.patterns[rs], pos)

		pks := sp.list.placeKeys()
		r.patternStops[p.PatternID] = len(pks)
		for i, pk := range pks {
			r.g.PatternStops = append(r.g.PatternStops, schema.PatternStop{
				PatternID:   p.PatternID,
				Seq:         i + 1,
				PlaceID:     r.places[pk],
				AllowRepeat: p.IsCircular,
			})
		}
	}

	return r.allocate(keys.KindPattern, kk)
}
