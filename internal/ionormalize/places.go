package ionormalize

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/gnames/hktransit/pkg/hk80"
	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/staged"
	"github.com/mmcloughlin/geohash"
)

const (
	entPlaces = "places"

	// geohashChars gives cells of about 150 m.
	geohashChars = 7
)

// defaultPlaceType returns the place type implied by a mode.
func defaultPlaceType(mode string) string {
	switch mode {
	case "ferry":
		return "pier"
	case "peak_tram", "mtr", "lightrail":
		return "station"
	}
	return "stop"
}

// coordinates keep a pair of numbers as text, so a pair is merged as one
// value and never mixes two sources.
func coordinates(source, a, b string) (string, string, bool) {
	x, errX := strconv.ParseFloat(a, 64)
	y, errY := strconv.ParseFloat(b, 64)
	if errX != nil || errY != nil {
		return source, "", false
	}
	return source, fmt.Sprintf("%.7f,%.7f", x, y), true
}

func parseCoordinates(s string) (float64, float64) {
	a, b, _ := strings.Cut(s, ",")
	x, _ := strconv.ParseFloat(a, 64)
	y, _ := strconv.ParseFloat(b, 64)
	return x, y
}

type placeParent struct {
	key    string
	parent string
	origin staged.Origin
}

func (r *run) resolvePlaces() error {
	placeKeys, groups := group(r.ds.Places, func(p staged.PlaceRecord) string {
		return keys.Place(p.Mode, p.StopID).Stable
	})
	ids := surrogate(placeKeys)

	kk := make([]keys.Key, 0, len(placeKeys))
	mapped := make(map[schema.PlaceMapping]struct{})
	var parents []placeParent
	for _, pk := range placeKeys {
		rr := groups[pk]
		mode := rr[0].Mode
		k := keys.Place(mode, rr[0].StopID)
		kk = append(kk, k)

		p := schema.Place{
			PlaceID:     ids[pk],
			PlaceKey:    pk,
			PrimaryMode: mode,
			PlaceType:   r.placeType(pk, mode, rr),
			NameEn: pickText(r, entPlaces, pk, "name_en",
				values(rr, func(p staged.PlaceRecord) (string, string, bool) {
					return text(p.Source, p.NameEn)
				})),
			NameTc: pickText(r, entPlaces, pk, "name_tc",
				values(rr, func(p staged.PlaceRecord) (string, string, bool) {
					return text(p.Source, p.NameTc)
				})),
			NameSc: pickText(r, entPlaces, pk, "name_sc",
				values(rr, func(p staged.PlaceRecord) (string, string, bool) {
					return text(p.Source, p.NameSc)
				})),
			IsActive: true,
		}
		r.placeCoordinates(&p, rr)

		parent := pick(r, entPlaces, pk, "parent_stop_id",
			values(rr, func(p staged.PlaceRecord) (string, string, bool) {
				id := keys.StopID(p.ParentStopID)
				return p.Source, id, id != ""
			}))
		if parent.Valid {
			parents = append(parents, placeParent{
				key:    pk,
				parent: keys.Place(mode, parent.Val).Stable,
				origin: rr[0].Origin,
			})
		}

		r.g.Places = append(r.g.Places, p)
		r.places[pk] = p.PlaceID

		for _, v := range rr {
			m := schema.PlaceMapping{
				Source:     v.Source,
				Mode:       mode,
				UpstreamID: strings.TrimSpace(v.StopID),
				StableKey:  pk,
			}
			if _, ok := mapped[m]; !ok {
				mapped[m] = struct{}{}
				r.g.PlaceMappings = append(r.g.PlaceMappings, m)
			}
		}
	}

	r.linkParents(parents)
	return r.allocate(keys.KindPlace, kk)
}

// placeType uses an explicit staged type when it belongs to the closed
// domain, otherwise the type implied by the mode.
func (r *run) placeType(key, mode string, rr []staged.PlaceRecord) string {
	vals := values(rr, func(p staged.PlaceRecord) (string, string, bool) {
		t := strings.ToLower(strings.TrimSpace(p.PlaceType))
		if t == "" {
			return p.Source, t, false
		}
		if !schema.PlaceTypes.Valid(t) {
			r.unresolve(p.Origin, staged.TablePlace,
				ReasonUnknownEnum, "PLACE_TYPE", p.PlaceType)
			return p.Source, t, false
		}
		return p.Source, t, true
	})
	res := pick(r, entPlaces, key, "place_type", vals)
	if res.Valid {
		return res.Val
	}
	return defaultPlaceType(mode)
}

// placeCoordinates sets WGS84 and HK80 coordinates. WGS84 given by a
// source wins, otherwise it is computed from the HK80 grid.
func (r *run) placeCoordinates(p *schema.Place, rr []staged.PlaceRecord) {
	wgs := pick(r, entPlaces, p.PlaceKey, "lat_lon",
		values(rr, func(v staged.PlaceRecord) (string, string, bool) {
			return coordinates(v.Source, v.Lat, v.Lon)
		}))
	grid := pick(r, entPlaces, p.PlaceKey, "hk80",
		values(rr, func(v staged.PlaceRecord) (string, string, bool) {
			return coordinates(v.Source, v.X, v.Y)
		}))

	if grid.Valid {
		x, y := parseCoordinates(grid.Val)
		p.HK80X = sql.NullFloat64{Float64: x, Valid: true}
		p.HK80Y = sql.NullFloat64{Float64: y, Valid: true}
	}

	switch {
	case wgs.Valid:
		lat, lon := parseCoordinates(wgs.Val)
		p.Lat = sql.NullFloat64{Float64: lat, Valid: true}
		p.Lon = sql.NullFloat64{Float64: lon, Valid: true}
	case grid.Valid:
		x, y := p.HK80X.Float64, p.HK80Y.Float64
		if !hk80.Valid(x, y) {
			r.unresolve(rr[0].Origin, staged.TablePlace,
				ReasonBadCoordinates, "X", grid.Val)
			break
		}
		lat, lon := hk80.ToWGS84(x, y)
		p.Lat = sql.NullFloat64{Float64: lat, Valid: true}
		p.Lon = sql.NullFloat64{Float64: lon, Valid: true}
	}

	if p.Lat.Valid && p.Lon.Valid {
		gh := geohash.EncodeWithPrecision(p.Lat.Float64, p.Lon.Float64, geohashChars)
		p.Geohash = sql.NullString{String: gh, Valid: true}
	}
}

// linkParents resolves parent references after all places exist. The
// first pass links parents that were already streamed, the deferred
// rest is retried once against all places. Cycle edges are dropped.
func (r *run) linkParents(parents []placeParent) {
	idx := make(map[string]int, len(r.g.Places))
	for i := range r.g.Places {
		idx[r.g.Places[i].PlaceKey] = i
	}

	var deferred []placeParent
	for _, pp := range parents {
		pid, ok := r.places[pp.parent]
		child := idx[pp.key]
		if !ok || pid > r.g.Places[child].PlaceID {
			deferred = append(deferred, pp)
			continue
		}
		r.g.Places[child].ParentPlaceID = sql.NullInt64{Int64: pid, Valid: true}
	}

	for _, pp := range deferred {
		pid, ok := r.places[pp.parent]
		if !ok {
			r.unresolve(pp.origin, staged.TablePlace,
				ReasonMissingParent, "PARENT_STOP_ID", keys.LastSegment(pp.parent))
			continue
		}
		r.g.Places[idx[pp.key]].ParentPlaceID = sql.NullInt64{Int64: pid, Valid: true}
	}

	r.breakCycles(parents)
}

// breakCycles walks parent chains in place id order. A chain that
// returns to its start loses the edge of the start place, so every
// cycle is broken at its first place.
func (r *run) breakCycles(parents []placeParent) {
	origins := make(map[int64]staged.Origin, len(parents))
	for _, pp := range parents {
		origins[r.places[pp.key]] = pp.origin
	}
	byID := make(map[int64]*schema.Place, len(r.g.Places))
	for i := range r.g.Places {
		byID[r.g.Places[i].PlaceID] = &r.g.Places[i]
	}

	for i := range r.g.Places {
		start := &r.g.Places[i]
		seen := map[int64]struct{}{start.PlaceID: {}}
		cur := start
		for cur.ParentPlaceID.Valid {
			next, ok := byID[cur.ParentPlaceID.Int64]
			if !ok {
				break
			}
			if next.PlaceID == start.PlaceID {
				r.unresolve(origins[start.PlaceID], staged.TablePlace,
					ReasonParentCycle, "PARENT_STOP_ID",
					keys.LastSegment(byID[start.ParentPlaceID.Int64].PlaceKey))
				start.ParentPlaceID = sql.NullInt64{}
				break
			}
			if _, ok := seen[next.PlaceID]; ok {
				break
			}
			seen[next.PlaceID] = struct{}{}
			cur = next
		}
	}
}
