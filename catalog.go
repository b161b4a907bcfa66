package dbcontext

import (
	"context"
	"fmt"
)

// Parameter describes one declared parameter of a stored procedure: its name
// as the backend reports it (prefix included) and whether null is permitted.
// Parameter lists are immutable once fetched.
type Parameter struct {
	Name     string
	Nullable bool
}

// MetadataSource lists a procedure's declared parameters from the backend's
// catalog views. The query text differs per backend; the default source runs
// the active dialect's catalog query. Tests substitute their own.
type MetadataSource interface {
	Parameters(ctx context.Context, procedure string) ([]Parameter, error)
}

type dialectSource struct {
	q Querier
	d Dialect
}

func (s dialectSource) Parameters(ctx context.Context, procedure string) (out []Parameter, err error) {
	rows, err := s.q.QueryContext(ctx, s.d.CatalogQuery(), s.d.CatalogArgs(procedure)...)
	if err != nil {
		return nil, fmt.Errorf("dbcontext: catalog query for %s: %w", procedure, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		var name string
		var nullable any
		if err := rows.Scan(&name, &nullable); err != nil {
			return nil, fmt.Errorf("dbcontext: catalog row for %s: %w", procedure, err)
		}
		out = append(out, Parameter{Name: name, Nullable: toBool(nullable)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// catalog resolves parameter lists through a MetadataSource and memoizes them
// in an injected Cache keyed by procedure name. There is no invalidation: a
// procedure whose signature changes after first resolution is not
// re-discovered within this process.
type catalog struct {
	source MetadataSource
	cache  Cache
}

func (c *catalog) resolve(ctx context.Context, procedure string) ([]Parameter, error) {
	if v, ok := c.cache.Get(procedure); ok {
		return v.([]Parameter), nil
	}
	list, err := c.source.Parameters(ctx, procedure)
	if err != nil {
		return nil, err
	}
	c.cache.Set(procedure, list)
	return list, nil
}
