// Package ioschema creates, fills and reads SQLite artifacts described by
// pkg/schema models. Artifacts are built in a temporary file and renamed
// over the destination only when they are complete.
package ioschema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/pkg/schema"
	_ "modernc.org/sqlite"
)

// Writer builds one SQLite artifact.
type Writer struct {
	dst string
	tmp string
	db  *sql.DB
}

// Create opens a fresh temporary database next to dst with foreign keys
// enforced. Leftovers of an interrupted build are removed first.
func Create(dst string) (*Writer, error) {
	tmp := dst + ".tmp"
	iofs.RemoveTemp(tmp)

	db, err := sql.Open("sqlite", tmp+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, OpenError(tmp, err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		iofs.RemoveTemp(tmp)
		return nil, OpenError(tmp, err)
	}
	return &Writer{dst: dst, tmp: tmp, db: db}, nil
}

// DB returns the connection to the temporary database.
func (w *Writer) DB() *sql.DB {
	return w.db
}

// CreateTables runs CREATE TABLE statements of the models.
func (w *Writer) CreateTables(ctx context.Context, tables []schema.DDLGenerator) error {
	for _, t := range tables {
		if _, err := w.db.ExecContext(ctx, t.TableDDL()); err != nil {
			return CreateTableError(t.TableName(), err)
		}
	}
	return nil
}

// CreateIndexes builds indexes of the models. Indexes are created after
// the bulk insert.
func (w *Writer) CreateIndexes(ctx context.Context, tables []schema.DDLGenerator) error {
	for _, t := range tables {
		for _, q := range t.IndexDDL() {
			if _, err := w.db.ExecContext(ctx, q); err != nil {
				return CreateIndexError(t.TableName(), err)
			}
		}
	}
	return nil
}

// InsertAll writes rows of every table in one transaction.
func (w *Writer) InsertAll(
	ctx context.Context,
	tables []schema.DDLGenerator,
	rows func(table string) []any,
) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return InsertError("", err)
	}
	for _, t := range tables {
		if err = insert(ctx, tx, t, rows(t.TableName())); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return InsertError("", err)
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, t schema.DDLGenerator, rows []any) error {
	name := t.TableName()
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, schema.InsertSQL(t))
	if err != nil {
		return InsertError(name, err)
	}
	defer stmt.Close()

	bar := pb.Full.Start(len(rows))
	bar.Set("prefix", fmt.Sprintf("%-20s", name))
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx, schema.Values(row)...); err != nil {
			return InsertError(name, err)
		}
		bar.Increment()
	}
	slog.Debug("Inserted rows", "table", name, "rows", len(rows))
	return nil
}

// Exec runs statements in order, for example ANALYZE and VACUUM.
func (w *Writer) Exec(ctx context.Context, qq ...string) error {
	for _, q := range qq {
		if _, err := w.db.ExecContext(ctx, q); err != nil {
			return InsertError(q, err)
		}
	}
	return nil
}

// Finish switches the journal back to DELETE, closes the database and
// renames it over the destination.
func (w *Writer) Finish(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		w.Abort()
		return InsertError("journal_mode", err)
	}
	if err := w.db.Close(); err != nil {
		iofs.RemoveTemp(w.tmp)
		return OpenError(w.tmp, err)
	}
	return iofs.AtomicReplace(w.tmp, w.dst)
}

// Abort closes and removes the temporary database. The destination is
// not touched.
func (w *Writer) Abort() {
	w.db.Close()
	iofs.RemoveTemp(w.tmp)
}

// Open opens an existing artifact read-only.
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, OpenError(path, err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, OpenError(path, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, OpenError(path, err)
	}
	return db, nil
}

// Tables returns names of tables in a database, including virtual ones.
func Tables(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	q := `SELECT name FROM sqlite_master WHERE type = 'table'`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, ReadError("sqlite_master", err)
	}
	defer rows.Close()

	res := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, ReadError("sqlite_master", err)
		}
		res[name] = struct{}{}
	}
	return res, rows.Err()
}

// Count returns the number of rows of a table.
func Count(ctx context.Context, db *sql.DB, table string) (int, error) {
	var res int
	q := fmt.Sprintf("SELECT count(*) FROM %s", table)
	if err := db.QueryRowContext(ctx, q).Scan(&res); err != nil {
		return 0, ReadError(table, err)
	}
	return res, nil
}

// Read loads all rows of a model table.
func Read[T schema.DDLGenerator](ctx context.Context, db *sql.DB) ([]T, error) {
	var model T
	name := model.TableName()
	rows, err := db.QueryContext(ctx, schema.SelectSQL(model))
	if err != nil {
		return nil, ReadError(name, err)
	}
	defer rows.Close()

	var res []T
	for rows.Next() {
		var v T
		if err = rows.Scan(schema.Pointers(&v)...); err != nil {
			return nil, ReadError(name, err)
		}
		res = append(res, v)
	}
	if err = rows.Err(); err != nil {
		return nil, ReadError(name, err)
	}
	return res, nil
}

// Check runs integrity and foreign key checks and returns problems found.
func Check(ctx context.Context, db *sql.DB) ([]string, error) {
	var res []string
	rows, err := db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, ReadError("integrity_check", err)
	}
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			rows.Close()
			return nil, ReadError("integrity_check", err)
		}
		if s != "ok" {
			res = append(res, s)
		}
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return nil, ReadError("foreign_key_check", err)
	}
	defer rows.Close()
	for rows.Next() {
		var table, parent string
		var rowid sql.NullInt64
		var fkid int
		if err = rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return nil, ReadError("foreign_key_check", err)
		}
		res = append(res, fmt.Sprintf(
			"%s row %d references missing %s", table, rowid.Int64, parent,
		))
	}
	return res, rows.Err()
}
