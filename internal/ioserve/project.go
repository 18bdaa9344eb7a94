package ioserve

import (
	"cmp"
	"database/sql"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/fares"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/textnorm"
)

// Projection is the content of the serving database.
type Projection struct {
	Meta            schema.AppMeta
	Operators       []schema.AppOperator
	Places          []schema.AppPlace
	Routes          []schema.AppRoute
	Patterns        []schema.AppPattern
	PatternStops    []schema.AppPatternStop
	FareProducts    []schema.AppFareProduct
	FareSegments    []schema.FareSegment
	SearchDocs      []schema.SearchDoc
	SearchFTS       []schema.SearchFTS
	PatternHeadways []schema.AppPatternHeadway
}

// Rows returns rows of a serving table.
func (p *Projection) Rows(table string) []any {
	switch table {
	case "meta":
		return []any{p.Meta}
	case "operators":
		return toAny(p.Operators)
	case "places":
		return toAny(p.Places)
	case "routes":
		return toAny(p.Routes)
	case "route_patterns":
		return toAny(p.Patterns)
	case "pattern_stops":
		return toAny(p.PatternStops)
	case "fare_products":
		return toAny(p.FareProducts)
	case "fare_segments":
		return toAny(p.FareSegments)
	case "search_docs":
		return toAny(p.SearchDocs)
	case "search_fts":
		return toAny(p.SearchFTS)
	case "pattern_headways":
		return toAny(p.PatternHeadways)
	}
	return nil
}

func toAny[T any](rows []T) []any {
	res := make([]any, len(rows))
	for i := range rows {
		res[i] = rows[i]
	}
	return res
}

// e7 converts degrees to fixed-point integers.
func e7(v sql.NullFloat64) sql.NullInt64 {
	if !v.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(math.Round(v.Float64 * 1e7)), Valid: true}
}

// OperatorEnum is the enum_codes entry that maps operator codes to the
// integer operator ids of the serving database.
const OperatorEnum = "operator_id"

// Project derives the serving database content from the canonical graph.
// Textual enums become integer codes, stable keys are dropped and fares
// are compressed into segments. Operator codes found in prev keep their
// ids, new operators are appended after the largest known id.
func Project(
	g *graph.Graph,
	meta *schema.Meta,
	mode config.HeadwayMode,
	prev map[string]int,
) (*Projection, error) {
	res := &Projection{}

	opIDs, known := operatorIDs(g, prev)
	enums := schema.EnumCodes()
	enums[OperatorEnum] = known

	enc := gnfmt.GNjson{}
	codes, err := enc.Encode(enums)
	if err != nil {
		return nil, err
	}
	res.Meta = schema.AppMeta{
		MetaID:        1,
		SchemaVersion: config.SchemaVersion,
		BundleVersion: meta.BundleVersion,
		BuildID:       meta.BuildID,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		EnumCodes:     string(codes),
		Notes:         meta.Notes,
	}

	for _, o := range g.Operators {
		res.Operators = append(res.Operators, schema.AppOperator{
			OperatorID:   opIDs[o.OperatorID],
			OperatorCode: keys.LastSegment(o.OperatorID),
			NameEn:       o.NameEn,
			NameTc:       o.NameTc,
			NameSc:       o.NameSc,
		})
	}

	for _, p := range g.Places {
		res.Places = append(res.Places, schema.AppPlace{
			PlaceID:       p.PlaceID,
			PlaceTypeID:   schema.PlaceTypes.Code(p.PlaceType),
			ModeID:        schema.Modes.Code(p.PrimaryMode),
			NameEn:        p.NameEn,
			NameTc:        p.NameTc,
			NameSc:        p.NameSc,
			LatE7:         e7(p.Lat),
			LonE7:         e7(p.Lon),
			ParentPlaceID: p.ParentPlaceID,
		})
	}

	for _, r := range g.Routes {
		res.Routes = append(res.Routes, schema.AppRoute{
			RouteID:        r.RouteID,
			OperatorID:     opIDs[r.OperatorID],
			ModeID:         schema.Modes.Code(r.Mode),
			RouteShortName: r.RouteShortName.String,
			OriginEn:       r.OriginTextEn,
			OriginTc:       r.OriginTextTc,
			OriginSc:       r.OriginTextSc,
			DestinationEn:  r.DestinationTextEn,
			DestinationTc:  r.DestinationTextTc,
			DestinationSc:  r.DestinationTextSc,
		})
	}

	for _, p := range g.Patterns {
		res.Patterns = append(res.Patterns, schema.AppPattern{
			PatternID:     p.PatternID,
			RouteID:       p.RouteID,
			RouteSeq:      p.RouteSeq,
			DirectionID:   p.DirectionID,
			ServiceTypeID: schema.ServiceTypes.Code(p.ServiceType),
			HeadsignEn:    p.HeadsignEn,
			HeadsignTc:    p.HeadsignTc,
			HeadsignSc:    p.HeadsignSc,
			IsCircular:    p.IsCircular,
		})
	}
	for _, ps := range g.PatternStops {
		res.PatternStops = append(res.PatternStops, schema.AppPatternStop{
			PatternID: ps.PatternID,
			Seq:       ps.Seq,
			PlaceID:   ps.PlaceID,
		})
	}

	for _, fp := range g.FareProducts {
		res.FareProducts = append(res.FareProducts, schema.AppFareProduct{
			FareProductID: fp.FareProductID,
			ModeID:        schema.Modes.Code(fp.Mode),
			NameEn:        fp.NameEn,
		})
	}
	res.FareSegments = fareSegments(g)

	res.searchDocs(g, opIDs)

	if mode != config.HeadwayNone {
		for _, ph := range g.PatternHeadways {
			res.PatternHeadways = append(res.PatternHeadways, schema.AppPatternHeadway(ph))
		}
	}
	return res, nil
}

// operatorIDs assigns integer ids to operators. Codes are append-only:
// known codes, including retired ones, are never renumbered and new
// operators take the next ids in operator_id order.
func operatorIDs(
	g *graph.Graph,
	prev map[string]int,
) (map[string]int64, map[string]int) {
	known := make(map[string]int, len(prev)+len(g.Operators))
	maps.Copy(known, prev)
	var next int
	for _, v := range known {
		next = max(next, v)
	}

	ids := make([]string, len(g.Operators))
	for i, o := range g.Operators {
		ids[i] = o.OperatorID
	}
	slices.Sort(ids)
	res := make(map[string]int64, len(ids))
	for _, id := range ids {
		code := keys.LastSegment(id)
		if _, ok := known[code]; !ok {
			next++
			known[code] = next
		}
		res[id] = int64(known[code])
	}
	return res, known
}

type segmentKey struct {
	routeID  int64
	routeSeq int
	product  int64
}

// fareSegments groups fare amounts by route, route_seq and product and
// compresses destinations of every origin into ranges. Rules without an
// origin and destination window cannot be segmented and are skipped.
func fareSegments(g *graph.Graph) []schema.FareSegment {
	idx := graph.NewIndex(g)
	groups := make(map[segmentKey][]fares.Entry)
	for _, fa := range g.FareAmounts {
		fr, ok := idx.Rules[fa.FareRuleID]
		if !ok || !fr.OriginSeq.Valid || !fr.DestinationSeq.Valid {
			continue
		}
		k := segmentKey{product: fa.FareProductID}
		if fr.RouteID.Valid {
			k.routeID = fr.RouteID.Int64
		}
		if fr.RouteSeq.Valid {
			k.routeSeq = int(fr.RouteSeq.Int64)
		}
		if fr.PatternID.Valid {
			if p, ok := idx.Patterns[fr.PatternID.Int64]; ok {
				k.routeID = p.RouteID
				k.routeSeq = p.RouteSeq
			}
		}
		if k.routeID == 0 {
			continue
		}
		groups[k] = append(groups[k], fares.Entry{
			OriginSeq:   int(fr.OriginSeq.Int64),
			DestSeq:     int(fr.DestinationSeq.Int64),
			AmountCents: fa.AmountCents,
			IsDefault:   fa.IsDefault,
		})
	}

	kk := make([]segmentKey, 0, len(groups))
	for k := range groups {
		kk = append(kk, k)
	}
	slices.SortFunc(kk, func(a, b segmentKey) int {
		return cmp.Or(
			cmp.Compare(a.routeID, b.routeID),
			cmp.Compare(a.routeSeq, b.routeSeq),
			cmp.Compare(a.product, b.product),
		)
	})

	var res []schema.FareSegment
	for _, k := range kk {
		for _, s := range fares.Compress(groups[k]) {
			res = append(res, schema.FareSegment{
				RouteID:       k.routeID,
				RouteSeq:      k.routeSeq,
				FareProductID: k.product,
				OriginSeq:     s.OriginSeq,
				DestFromSeq:   s.DestFromSeq,
				DestToSeq:     s.DestToSeq,
				AmountCents:   s.AmountCents,
				IsDefault:     s.IsDefault,
			})
		}
	}
	return res
}

func join(ss ...sql.NullString) string {
	var parts []string
	for _, s := range ss {
		if s.Valid && s.String != "" {
			parts = append(parts, s.String)
		}
	}
	return strings.Join(parts, " ")
}

// searchDocs emits one document per place and route. CJK columns are
// segmented into single ideographs.
func (p *Projection) searchDocs(g *graph.Graph, opIDs map[string]int64) {
	var docID int64
	add := func(doc schema.SearchDoc, en, tc, sc string) {
		docID++
		doc.DocID = docID
		p.SearchDocs = append(p.SearchDocs, doc)
		p.SearchFTS = append(p.SearchFTS, schema.SearchFTS{
			RowID: docID,
			Code:  doc.Code,
			En:    textnorm.NormalizeEN(en),
			Tc:    textnorm.SegmentCJK(tc),
			Sc:    textnorm.SegmentCJK(sc),
		})
	}

	for _, pl := range g.Places {
		add(schema.SearchDoc{
			Kind:   "p",
			RefID:  pl.PlaceID,
			ModeID: schema.Modes.Code(pl.PrimaryMode),
		}, pl.NameEn.String, pl.NameTc.String, pl.NameSc.String)
	}

	for _, r := range g.Routes {
		code := r.RouteShortName.String
		add(schema.SearchDoc{
			Kind:       "r",
			RefID:      r.RouteID,
			ModeID:     schema.Modes.Code(r.Mode),
			OperatorID: sql.NullInt64{Int64: opIDs[r.OperatorID], Valid: true},
			Code:       code,
		},
			join(r.RouteShortName, r.OriginTextEn, r.DestinationTextEn),
			join(r.OriginTextTc, r.DestinationTextTc),
			join(r.OriginTextSc, r.DestinationTextSc),
		)
	}
}
