package iocommit

import (
	"context"
	"database/sql"

	"github.com/gnames/hktransit/internal/ioschema"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/schema"
)

// Load reads the truth database back into a graph. Tables missing
// because of the headway mode stay empty.
func Load(ctx context.Context, path string) (*graph.Graph, *schema.Meta, error) {
	db, err := ioschema.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	have, err := ioschema.Tables(ctx, db)
	if err != nil {
		return nil, nil, err
	}

	metas, err := read[schema.Meta](ctx, db, have)
	if err != nil {
		return nil, nil, err
	}
	var meta schema.Meta
	if len(metas) > 0 {
		meta = metas[0]
	}

	g := graph.New()
	loaders := []func() error{
		into(ctx, db, have, &g.Operators),
		into(ctx, db, have, &g.Places),
		into(ctx, db, have, &g.Routes),
		into(ctx, db, have, &g.Patterns),
		into(ctx, db, have, &g.PatternStops),
		into(ctx, db, have, &g.FareProducts),
		into(ctx, db, have, &g.FareRules),
		into(ctx, db, have, &g.FareAmounts),
		into(ctx, db, have, &g.Calendars),
		into(ctx, db, have, &g.Exceptions),
		into(ctx, db, have, &g.Trips),
		into(ctx, db, have, &g.Frequencies),
		into(ctx, db, have, &g.StopTimes),
		into(ctx, db, have, &g.PatternHeadways),
		into(ctx, db, have, &g.OperatorMappings),
		into(ctx, db, have, &g.PlaceMappings),
		into(ctx, db, have, &g.RouteMappings),
	}
	for _, load := range loaders {
		if err = load(); err != nil {
			return nil, nil, err
		}
	}
	g.Sort()
	return g, &meta, nil
}

func into[T schema.DDLGenerator](
	ctx context.Context,
	db *sql.DB,
	have map[string]struct{},
	dst *[]T,
) func() error {
	return func() error {
		res, err := read[T](ctx, db, have)
		*dst = res
		return err
	}
}

func read[T schema.DDLGenerator](
	ctx context.Context,
	db *sql.DB,
	have map[string]struct{},
) ([]T, error) {
	var model T
	if _, ok := have[model.TableName()]; !ok {
		return nil, nil
	}
	return ioschema.Read[T](ctx, db)
}
