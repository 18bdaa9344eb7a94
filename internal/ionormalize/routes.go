package ionormalize

import (
	"database/sql"
	"strings"

	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/staged"
)

const entRoutes = "routes"

func routeText(get func(staged.RouteRecord) string) func(staged.RouteRecord) (string, string, bool) {
	return func(v staged.RouteRecord) (string, string, bool) {
		return text(v.Source, get(v))
	}
}

func (r *run) resolveRoutes() error {
	routeKeys, groups := group(r.ds.Routes, func(v staged.RouteRecord) string {
		if keys.OperatorCode(v.CompanyCode) == "" {
			r.unresolve(v.Origin, staged.TableRoute,
				ReasonInvalid, "COMPANY_CODE", v.CompanyCode)
			return ""
		}
		return keys.Route(v.Mode, v.RouteID).Stable
	})
	ids := surrogate(routeKeys)

	kk := make([]keys.Key, 0, len(routeKeys))
	var opKeys []keys.Key
	opMapped := make(map[schema.OperatorMapping]struct{})
	for _, m := range r.g.OperatorMappings {
		opMapped[m] = struct{}{}
	}
	mapped := make(map[schema.RouteMapping]struct{})

	for _, rk := range routeKeys {
		rr := groups[rk]
		mode := rr[0].Mode
		k := keys.Route(mode, rr[0].RouteID)
		kk = append(kk, k)

		op := pick(r, entRoutes, rk, "operator_id",
			values(rr, func(v staged.RouteRecord) (string, string, bool) {
				code := keys.OperatorCode(v.CompanyCode)
				return v.Source, code, code != ""
			}))
		opKey, fresh := r.ensureOperator(op.Val)
		if fresh {
			opKeys = append(opKeys, opKey)
		}
		for _, v := range rr {
			if keys.OperatorCode(v.CompanyCode) != op.Val {
				continue
			}
			m := schema.OperatorMapping{
				Source:     v.Source,
				UpstreamID: strings.TrimSpace(v.CompanyCode),
				StableKey:  opKey.Stable,
			}
			if _, ok := opMapped[m]; !ok {
				opMapped[m] = struct{}{}
				r.g.OperatorMappings = append(r.g.OperatorMappings, m)
			}
		}

		route := schema.Route{
			RouteID:         ids[rk],
			RouteKey:        rk,
			UpstreamRouteID: keys.RouteID(rr[0].RouteID),
			Mode:            mode,
			OperatorID:      opKey.Stable,
			RouteShortName: pickText(r, entRoutes, rk, "route_short_name",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.RouteNameEn }))),
			RouteLongNameEn: pickText(r, entRoutes, rk, "route_long_name_en",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.RouteNameEn }))),
			RouteLongNameTc: pickText(r, entRoutes, rk, "route_long_name_tc",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.RouteNameTc }))),
			RouteLongNameSc: pickText(r, entRoutes, rk, "route_long_name_sc",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.RouteNameSc }))),
			OriginTextEn: pickText(r, entRoutes, rk, "origin_text_en",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.LocStartEn }))),
			OriginTextTc: pickText(r, entRoutes, rk, "origin_text_tc",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.LocStartTc }))),
			OriginTextSc: pickText(r, entRoutes, rk, "origin_text_sc",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.LocStartSc }))),
			DestinationTextEn: pickText(r, entRoutes, rk, "destination_text_en",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.LocEndEn }))),
			DestinationTextTc: pickText(r, entRoutes, rk, "destination_text_tc",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.LocEndTc }))),
			DestinationTextSc: pickText(r, entRoutes, rk, "destination_text_sc",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.LocEndSc }))),
			ServiceAreaCode: pickText(r, entRoutes, rk, "service_area_code",
				values(rr, routeText(func(v staged.RouteRecord) string { return v.District }))),
			JourneyTimeMinutes: pickInt(r, entRoutes, rk, "journey_time_minutes",
				values(rr, func(v staged.RouteRecord) (string, int64, bool) {
					return integer(v.Source, v.JourneyTime)
				})),
			IsActive: true,
		}
		special := pickInt(r, entRoutes, rk, "special_type",
			values(rr, func(v staged.RouteRecord) (string, int64, bool) {
				return integer(v.Source, v.SpecialType)
			}))
		r.specialType[rk] = special.Int64

		r.routes[rk] = len(r.g.Routes)
		r.g.Routes = append(r.g.Routes, route)

		for _, v := range rr {
			m := schema.RouteMapping{
				Source:     v.Source,
				Mode:       mode,
				UpstreamID: strings.TrimSpace(v.RouteID),
				StableKey:  rk,
			}
			if _, ok := mapped[m]; !ok {
				mapped[m] = struct{}{}
				r.g.RouteMappings = append(r.g.RouteMappings, m)
			}
		}
	}

	if len(opKeys) > 0 {
		if err := r.allocate(keys.KindOperator, opKeys); err != nil {
			return err
		}
	}
	return r.allocate(keys.KindRoute, kk)
}

// directionID maps route_seq to a direction: 1 is outbound, 2 inbound.
func directionID(routeSeq int) int {
	switch routeSeq {
	case 1:
		return schema.DirectionOutbound
	case 2:
		return schema.DirectionInbound
	}
	return schema.DirectionUnknown
}

// serviceType derives a service type from the route number and the
// upstream special type.
func serviceType(mode, shortName string, special int64) string {
	name := strings.ToUpper(shortName)
	if mode == "bus" || mode == "gmb" {
		if strings.HasPrefix(name, "N") {
			return "night"
		}
		if strings.HasPrefix(name, "X") || strings.HasSuffix(name, "X") {
			return "express"
		}
	}
	if special == 1 || special == 3 {
		return "special"
	}
	return "regular"
}

// headsign is the destination for outbound and the origin for inbound
// patterns.
func headsign(dir int, origin, dest sql.NullString) sql.NullString {
	switch dir {
	case schema.DirectionOutbound:
		return dest
	case schema.DirectionInbound:
		return origin
	}
	return sql.NullString{}
}
