package ioserve

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gnames/hktransit/pkg/textnorm"
)

const (
	searchLimit = 100
	prefixLimit = 50
)

// Hit is one full-text search result. Lower Rank is better.
type Hit struct {
	Kind       string        `json:"kind"`
	RefID      int64         `json:"refId"`
	ModeID     int           `json:"modeId"`
	OperatorID sql.NullInt64 `json:"operatorId"`
	Rank       float64       `json:"rank"`
}

// RouteHit is one route-number lookup result.
type RouteHit struct {
	RouteID        int64  `json:"routeId"`
	ModeID         int    `json:"modeId"`
	OperatorID     int64  `json:"operatorId"`
	RouteShortName string `json:"routeShortName"`
}

// Filter narrows a route-number lookup. Zero values do not filter.
type Filter struct {
	ModeID     int
	OperatorID int64
}

// Search runs a full-text query against search_fts. The query is
// prepared with textnorm.PrepareQuery, so CJK input is segmented and a
// trailing '*' keeps prefix semantics.
func Search(ctx context.Context, db *sql.DB, query string) ([]Hit, error) {
	match := textnorm.PrepareQuery(query)
	if match == "" {
		return nil, nil
	}
	q := `
SELECT d.kind, d.ref_id, d.mode_id, d.operator_id,
       bm25(search_fts, 8.0, 4.0, 2.0, 2.0) AS score
  FROM search_fts
    JOIN search_docs d ON d.doc_id = search_fts.rowid
  WHERE search_fts MATCH ?
  ORDER BY score, d.doc_id
  LIMIT ?`
	rows, err := db.QueryContext(ctx, q, match, searchLimit)
	if err != nil {
		return nil, QueryError(match, err)
	}
	defer rows.Close()

	var res []Hit
	for rows.Next() {
		var h Hit
		err = rows.Scan(&h.Kind, &h.RefID, &h.ModeID, &h.OperatorID, &h.Rank)
		if err != nil {
			return nil, QueryError(match, err)
		}
		res = append(res, h)
	}
	if err = rows.Err(); err != nil {
		return nil, QueryError(match, err)
	}
	return res, nil
}

// RoutePrefix finds routes which short name starts with prefix. Exact
// match comes first, then shorter names, then lexical order.
func RoutePrefix(
	ctx context.Context,
	db *sql.DB,
	prefix string,
	f Filter,
) ([]RouteHit, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`
SELECT route_id, mode_id, operator_id, route_short_name
  FROM routes
  WHERE route_short_name >= ? AND route_short_name < ?`)
	args := []any{prefix, prefix + "\U0010FFFF"}
	if f.ModeID > 0 {
		sb.WriteString(" AND mode_id = ?")
		args = append(args, f.ModeID)
	}
	if f.OperatorID > 0 {
		sb.WriteString(" AND operator_id = ?")
		args = append(args, f.OperatorID)
	}
	sb.WriteString(`
  ORDER BY route_short_name = ? DESC, length(route_short_name),
    route_short_name, route_id
  LIMIT ?`)
	args = append(args, prefix, prefixLimit)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, QueryError(prefix, err)
	}
	defer rows.Close()

	var res []RouteHit
	for rows.Next() {
		var h RouteHit
		err = rows.Scan(&h.RouteID, &h.ModeID, &h.OperatorID, &h.RouteShortName)
		if err != nil {
			return nil, QueryError(prefix, err)
		}
		res = append(res, h)
	}
	if err = rows.Err(); err != nil {
		return nil, QueryError(prefix, err)
	}
	return res, nil
}
