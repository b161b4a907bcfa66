package dbcontext

import (
	"context"
	"database/sql"
)

// Querier is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can execute a query returning rows.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB is a stored-procedure invocation handle: one dialect, one Querier, and
// the process-wide metadata caches. It is safe for concurrent use; every
// operation opens, executes, reads, and closes its own cursor.
type DB struct {
	q       Querier
	dialect Dialect
	catalog *catalog
	schemas *schemaSet
	sink    ErrorSink
}

// Option customizes a DB at construction.
type Option func(*DB)

// WithErrorSink replaces the default zap-backed sink.
func WithErrorSink(s ErrorSink) Option {
	return func(d *DB) { d.sink = s }
}

// WithMetadataSource replaces the dialect-backed parameter catalog lookup.
func WithMetadataSource(ms MetadataSource) Option {
	return func(d *DB) { d.catalog.source = ms }
}

// WithCatalogCache injects the store for per-procedure parameter lists.
func WithCatalogCache(c Cache) Option {
	return func(d *DB) { d.catalog.cache = c }
}

// WithSchemaCache injects the store for per-type field schemas.
func WithSchemaCache(c Cache) Option {
	return func(d *DB) { d.schemas.cache = c }
}

// New wraps an open Querier with a backend dialect. Use Open to go from a
// connection profile straight to a DB.
func New(q Querier, dialect Dialect, opts ...Option) *DB {
	d := &DB{
		q:       q,
		dialect: dialect,
		catalog: &catalog{cache: NewMapCache()},
		schemas: &schemaSet{cache: NewMapCache()},
		sink:    defaultSink(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.catalog.source == nil {
		d.catalog.source = dialectSource{q: q, d: dialect}
	}
	return d
}

// Dialect returns the active backend dialect.
func (d *DB) Dialect() Dialect { return d.dialect }

// run renders the call statement for the bound parameter set and opens the
// cursor. The caller owns closing it.
func (d *DB) run(ctx context.Context, procedure string, params []Param) (*sql.Rows, error) {
	text, args := d.dialect.CallText(procedure, params)
	return d.q.QueryContext(ctx, text, args...)
}

// bind resolves the procedure's declared parameters and matches the model
// against them.
func (d *DB) bind(ctx context.Context, procedure string, model any, exclude []string) ([]Param, error) {
	descs, err := d.catalog.resolve(ctx, procedure)
	if err != nil {
		return nil, err
	}
	return bindModel(d.schemas, model, descs, d.dialect.Prefix(), newNameSet(exclude))
}

// fail records the real error in the sink and hands the caller the fixed
// conversion.
func (d *DB) fail(op, procedure string, err error) Response {
	d.sink.Record(op, procedure, err)
	return failureResponse(CodeFailure, FailureMessage)
}
