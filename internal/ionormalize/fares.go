package ionormalize

import (
	"database/sql"
	"math"
	"slices"
	"strconv"

	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/precedence"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/staged"
)

const entFareAmounts = "fare_amounts"

// fareRow is a staged fare with resolved keys.
type fareRow struct {
	rule  keys.Key
	route *schema.Route
	seq   int
	on    int
	off   int
	cents precedence.Value[int64]
}

// cents converts a price in dollars to cents.
func cents(price float64) int64 {
	return int64(math.Round(price * 100))
}

func (r *run) fareRows() []fareRow {
	var res []fareRow
	for _, v := range r.ds.Fares {
		routeKey := keys.Route(v.Mode, v.RouteID).Stable
		pos, ok := r.routes[routeKey]
		if !ok {
			r.unresolve(v.Origin, staged.TableFare,
				ReasonMissingRoute, "ROUTE_ID", v.RouteID)
			continue
		}
		seq, err1 := strconv.Atoi(v.RouteSeq)
		on, err2 := strconv.Atoi(v.OnSeq)
		off, err3 := strconv.Atoi(v.OffSeq)
		price, err4 := strconv.ParseFloat(v.Price, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			r.unresolve(v.Origin, staged.TableFare, ReasonInvalid, "PRICE", v.Price)
			continue
		}

		route := &r.g.Routes[pos]
		res = append(res, fareRow{
			rule: keys.FareRule(
				route.Mode, route.OperatorID, route.RouteKey, seq, on, off,
			),
			route: route,
			seq:   seq,
			on:    on,
			off:   off,
			cents: precedence.Value[int64]{
				Source: v.Source, Val: cents(price), Valid: true,
			},
		})
	}
	return res
}

func (r *run) resolveFares() error {
	rows := r.fareRows()
	if len(rows) == 0 {
		return nil
	}

	ruleKeys, groups := group(rows, func(f fareRow) string { return f.rule.Stable })
	ruleIDs := surrogate(ruleKeys)

	// one default product per mode
	modes := make(map[string]string)
	for _, f := range rows {
		modes[keys.FareProduct(f.route.Mode).Stable] = f.route.Mode
	}
	pks := make([]string, 0, len(modes))
	for k := range modes {
		pks = append(pks, k)
	}
	slices.Sort(pks)
	productIDs := surrogate(pks)

	var kk []keys.Key
	for _, pk := range pks {
		k := keys.FareProduct(modes[pk])
		kk = append(kk, k)
		r.g.FareProducts = append(r.g.FareProducts, schema.FareProduct{
			FareProductID: productIDs[pk],
			ProductKey:    pk,
			Mode:          modes[pk],
			NameEn:        sql.NullString{String: "Adult single journey", Valid: true},
			Currency:      "HKD",
			IsActive:      true,
		})
	}
	if err := r.allocate(keys.KindFareProduct, kk); err != nil {
		return err
	}

	kk = make([]keys.Key, 0, len(ruleKeys))
	for _, rk := range ruleKeys {
		ff := groups[rk]
		f := ff[0]
		kk = append(kk, f.rule)

		rule := schema.FareRule{
			FareRuleID:     ruleIDs[rk],
			RuleKey:        rk,
			OperatorID:     f.route.OperatorID,
			Mode:           f.route.Mode,
			RouteID:        sql.NullInt64{Int64: f.route.RouteID, Valid: true},
			RouteSeq:       sql.NullInt64{Int64: int64(f.seq), Valid: true},
			OriginSeq:      sql.NullInt64{Int64: int64(f.on), Valid: true},
			DestinationSeq: sql.NullInt64{Int64: int64(f.off), Valid: true},
			FareType:       "section",
			Currency:       "HKD",
			IsActive:       true,
		}
		// A rule is bound to a pattern only when its route_seq has
		// exactly one pattern.
		pp := r.patterns[routeSeq{routeID: f.route.RouteID, seq: f.seq}]
		if len(pp) == 1 {
			pid := r.g.Patterns[pp[0]].PatternID
			rule.PatternID = sql.NullInt64{Int64: pid, Valid: true}
		}
		r.g.FareRules = append(r.g.FareRules, rule)

		vals := make([]precedence.Value[int64], len(ff))
		for i := range ff {
			vals[i] = ff[i].cents
		}
		amount := pick(r, entFareAmounts, rk, "amount_cents", vals)
		r.g.FareAmounts = append(r.g.FareAmounts, schema.FareAmount{
			FareRuleID:    rule.FareRuleID,
			FareProductID: productIDs[keys.FareProduct(f.route.Mode).Stable],
			AmountCents:   amount.Val,
			IsDefault:     true,
		})
	}

	return r.allocate(keys.KindFareRule, kk)
}
