package ionormalize

import (
	"strings"

	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/staged"
)

const entOperators = "operators"

func (r *run) resolveOperators() error {
	codes, groups := group(r.ds.Operators, func(o staged.OperatorRecord) string {
		code := keys.OperatorCode(o.CompanyCode)
		if code == "" {
			r.unresolve(o.Origin, staged.TableOperator,
				ReasonInvalid, "COMPANY_CODE", o.CompanyCode)
		}
		return code
	})

	kk := make([]keys.Key, 0, len(codes))
	mapped := make(map[schema.OperatorMapping]struct{})
	for _, code := range codes {
		rr := groups[code]
		k := keys.Operator(code)
		kk = append(kk, k)

		op := schema.Operator{
			OperatorID:   k.Stable,
			OperatorCode: code,
			NameEn: pickText(r, entOperators, k.Stable, "name_en",
				values(rr, func(o staged.OperatorRecord) (string, string, bool) {
					return text(o.Source, o.NameEn)
				})),
			NameTc: pickText(r, entOperators, k.Stable, "name_tc",
				values(rr, func(o staged.OperatorRecord) (string, string, bool) {
					return text(o.Source, o.NameTc)
				})),
			NameSc: pickText(r, entOperators, k.Stable, "name_sc",
				values(rr, func(o staged.OperatorRecord) (string, string, bool) {
					return text(o.Source, o.NameSc)
				})),
			IsActive: true,
		}
		r.g.Operators = append(r.g.Operators, op)
		r.operators[k.Stable] = struct{}{}

		for _, o := range rr {
			m := schema.OperatorMapping{
				Source:     o.Source,
				UpstreamID: strings.TrimSpace(o.CompanyCode),
				StableKey:  k.Stable,
			}
			if _, ok := mapped[m]; !ok {
				mapped[m] = struct{}{}
				r.g.OperatorMappings = append(r.g.OperatorMappings, m)
			}
		}
	}

	return r.allocate(keys.KindOperator, kk)
}

// ensureOperator creates an operator known only from route records.
// It returns the key if the operator is new.
func (r *run) ensureOperator(code string) (keys.Key, bool) {
	k := keys.Operator(code)
	if _, ok := r.operators[k.Stable]; ok {
		return k, false
	}
	r.operators[k.Stable] = struct{}{}
	r.g.Operators = append(r.g.Operators, schema.Operator{
		OperatorID:   k.Stable,
		OperatorCode: keys.OperatorCode(code),
		IsActive:     true,
	})
	return k, true
}
