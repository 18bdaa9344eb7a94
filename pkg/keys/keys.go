// Package keys builds natural keys of canonical entities and derives their
// stable keys. Natural keys never contain run-local surrogate ids, and
// multi-valued components are sorted, so the same upstream facts always
// give the same key.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

// Kind is a kind of keyed canonical entity. Every kind has its own
// namespace in the registry.
type Kind string

const (
	KindOperator    Kind = "operator"
	KindPlace       Kind = "place"
	KindRoute       Kind = "route"
	KindPattern     Kind = "pattern"
	KindFareRule    Kind = "fare_rule"
	KindFareProduct Kind = "fare_product"
)

// Kinds returns all key kinds.
func Kinds() []Kind {
	return []Kind{
		KindOperator, KindPlace, KindRoute,
		KindPattern, KindFareRule, KindFareProduct,
	}
}

// Prefix of keys derived from Transport Department data.
const Prefix = "td"

// ProductPrefix of fare product keys.
const ProductPrefix = "hk"

// Key is a natural key together with the stable key derived from it.
type Key struct {
	Kind    Kind
	Natural string
	Stable  string
}

func natural(kind Kind, parts ...string) string {
	return string(kind) + "|" + strings.Join(parts, "|")
}

// OperatorCode canonicalizes an upstream company code. Joint operations
// like 'kmb+ctb' become 'CTB+KMB'.
func OperatorCode(code string) string {
	parts := strings.Split(code, "+")
	res := make([]string, 0, len(parts))
	for _, v := range parts {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			res = append(res, v)
		}
	}
	slices.Sort(res)
	return strings.Join(slices.Compact(res), "+")
}

// RouteID normalizes an upstream route identifier. Digit-only ids lose
// their leading zeros, so '0012' and '12' are the same route.
func RouteID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !isDigits(id) {
		return id
	}
	id = strings.TrimLeft(id, "0")
	if id == "" {
		return "0"
	}
	return id
}

// StopID normalizes an upstream stop identifier.
func StopID(id string) string {
	return strings.TrimSpace(id)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Operator returns the key of an operator.
func Operator(code string) Key {
	code = OperatorCode(code)
	return Key{
		Kind:    KindOperator,
		Natural: natural(KindOperator, code),
		Stable:  Prefix + ":operator:" + code,
	}
}

// Place returns the key of a place known by an upstream stop id.
func Place(mode, stopID string) Key {
	stopID = StopID(stopID)
	return Key{
		Kind:    KindPlace,
		Natural: natural(KindPlace, mode, stopID),
		Stable:  Prefix + ":" + mode + ":" + stopID,
	}
}

// Route returns the key of a route known by an upstream route id.
func Route(mode, routeID string) Key {
	routeID = RouteID(routeID)
	return Key{
		Kind:    KindRoute,
		Natural: natural(KindRoute, mode, routeID),
		Stable:  Prefix + ":" + mode + ":" + routeID,
	}
}

// Pattern returns the key of a pattern. Stop keys are in travel order,
// the order is part of the pattern identity.
func Pattern(routeKey string, routeSeq int, stopKeys []string) Key {
	seq := strconv.Itoa(routeSeq)
	joined := strings.Join(stopKeys, "|")
	return Key{
		Kind:    KindPattern,
		Natural: natural(KindPattern, routeKey, seq, joined),
		Stable:  routeKey + ":" + seq + ":" + StopsHash(stopKeys),
	}
}

// StopsHash is the first 16 hex digits of SHA-256 over stop keys.
func StopsHash(stopKeys []string) string {
	sum := sha256.Sum256([]byte(strings.Join(stopKeys, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// FareRule returns the key of a sectional fare rule.
func FareRule(
	mode, operatorID, routeKey string,
	routeSeq, originSeq, destSeq int,
) Key {
	parts := []string{
		mode, operatorID, routeKey,
		strconv.Itoa(routeSeq),
		strconv.Itoa(originSeq),
		strconv.Itoa(destSeq),
	}
	return Key{
		Kind:    KindFareRule,
		Natural: natural(KindFareRule, parts...),
		Stable:  Prefix + ":fare_rule:" + strings.Join(parts, ":") + ":",
	}
}

// FareProduct returns the key of the default product of a mode.
func FareProduct(mode string) Key {
	return Key{
		Kind:    KindFareProduct,
		Natural: natural(KindFareProduct, mode, "default"),
		Stable:  ProductPrefix + ":fare_product:" + mode + ":default",
	}
}

// LastSegment returns the part of a stable key after the last ':'.
func LastSegment(key string) string {
	idx := strings.LastIndexByte(key, ':')
	if idx < 0 {
		return key
	}
	return key[idx+1:]
}
