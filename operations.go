package dbcontext

import (
	"context"
	"errors"
	"strings"
)

// Operation kinds. Each is a separate ErrorSink destination.
const (
	opExecute    = "execute"
	opFirst      = "first"
	opSelect     = "select"
	opPage       = "page"
	opPageTable  = "page_table"
	opQueryTable = "query_table"
)

// Execute binds a model onto a procedure's declared parameters, runs it, and
// reads the Response from the first row. Fields named in exclude are never
// bound. Backend failures are converted: the detail goes to the ErrorSink and
// the Response carries the fixed FailureMessage.
func Execute(ctx context.Context, d *DB, procedure string, model any, exclude ...string) Response {
	params, err := d.bind(ctx, procedure, model, exclude)
	if err != nil {
		return d.fail(opExecute, procedure, err)
	}
	return execParams(ctx, d, opExecute, procedure, params)
}

// ExecuteParams runs a procedure with an ad-hoc parameter list, typically
// built with ParamsOf. Params matching no declared parameter are dropped and
// the rest are put in declaration order.
func ExecuteParams(ctx context.Context, d *DB, procedure string, params []Param) Response {
	descs, err := d.catalog.resolve(ctx, procedure)
	if err != nil {
		return d.fail(opExecute, procedure, err)
	}
	return execParams(ctx, d, opExecute, procedure, orderByCatalog(descs, params))
}

// ExecuteStrict is the validated-update path: every declared parameter must
// be supplied. When any is missing the call fails before execution with a
// Response naming them all, and nothing is bound or run.
func ExecuteStrict(ctx context.Context, d *DB, procedure string, params []Param) Response {
	descs, err := d.catalog.resolve(ctx, procedure)
	if err != nil {
		return d.fail(opExecute, procedure, err)
	}
	if missing := missingParams(descs, params); len(missing) > 0 {
		return failureResponse(CodeMissingParameters, "Missing parameters: "+strings.Join(missing, ", "))
	}
	return execParams(ctx, d, opExecute, procedure, orderByCatalog(descs, params))
}

func execParams(ctx context.Context, d *DB, op, procedure string, params []Param) Response {
	rows, err := d.run(ctx, procedure, params)
	if err != nil {
		return d.fail(op, procedure, err)
	}
	defer rows.Close()

	resp, err := readResponse(rows)
	if err != nil {
		return d.fail(op, procedure, err)
	}
	return resp
}

// First binds a filter model, runs the procedure, and materializes the single
// result row into T. No row yields a Response with CodeEmptyResult and the
// zero T. Mapping errors propagate through the error return; backend failures
// are converted into the Response.
func First[T any](ctx context.Context, d *DB, procedure string, filter any, exclude ...string) (T, Response, error) {
	var zero T
	params, err := d.bind(ctx, procedure, filter, exclude)
	if err != nil {
		return zero, d.fail(opFirst, procedure, err), nil
	}
	rows, err := d.run(ctx, procedure, params)
	if err != nil {
		return zero, d.fail(opFirst, procedure, err), nil
	}
	defer rows.Close()

	v, err := scanModel[T](d, rows)
	if err != nil {
		if errors.Is(err, ErrEmptyResult) {
			return zero, failureResponse(CodeEmptyResult, "no rows returned"), nil
		}
		if fatal(err) {
			return zero, newResponse(), err
		}
		return zero, d.fail(opFirst, procedure, err), nil
	}
	return v, newResponse(), nil
}

// Select binds a filter model, runs the procedure, and materializes every
// result row into a slice of T. An empty result is a success with no rows.
func Select[T any](ctx context.Context, d *DB, procedure string, filter any, exclude ...string) ([]T, Response, error) {
	params, err := d.bind(ctx, procedure, filter, exclude)
	if err != nil {
		return nil, d.fail(opSelect, procedure, err), nil
	}
	rows, err := d.run(ctx, procedure, params)
	if err != nil {
		return nil, d.fail(opSelect, procedure, err), nil
	}
	defer rows.Close()

	out, err := scanModels[T](d, rows)
	if err != nil {
		if fatal(err) {
			return nil, newResponse(), err
		}
		return nil, d.fail(opSelect, procedure, err), nil
	}
	return out, newResponse(), nil
}

// Page runs the two-result-set paging convention into typed rows: the first
// result set is data, the second holds the total row count.
func Page[T any](ctx context.Context, d *DB, procedure string, filter any, exclude ...string) (Grid[T], Response, error) {
	var g Grid[T]
	params, err := d.bind(ctx, procedure, filter, exclude)
	if err != nil {
		return g, d.fail(opPage, procedure, err), nil
	}
	rows, err := d.run(ctx, procedure, params)
	if err != nil {
		return g, d.fail(opPage, procedure, err), nil
	}
	defer rows.Close()

	g.Rows, err = scanModels[T](d, rows)
	if err != nil {
		if fatal(err) {
			return Grid[T]{}, newResponse(), err
		}
		return Grid[T]{}, d.fail(opPage, procedure, err), nil
	}
	g.TotalRows, err = readTotal(rows)
	if err != nil {
		return Grid[T]{}, d.fail(opPage, procedure, err), nil
	}
	return g, newResponse(), nil
}

// PageTable is Page in tabular form. A non-empty columns list restricts the
// table to those columns, applied identically to the column declaration and
// to every row.
func PageTable(ctx context.Context, d *DB, procedure string, filter any, columns []string, exclude ...string) (TableGrid, Response) {
	var g TableGrid
	params, err := d.bind(ctx, procedure, filter, exclude)
	if err != nil {
		return g, d.fail(opPageTable, procedure, err)
	}
	rows, err := d.run(ctx, procedure, params)
	if err != nil {
		return g, d.fail(opPageTable, procedure, err)
	}
	defer rows.Close()

	g.Table, err = readTable(rows, newNameSet(columns))
	if err != nil {
		return TableGrid{}, d.fail(opPageTable, procedure, err)
	}
	g.TotalRows, err = readTotal(rows)
	if err != nil {
		return TableGrid{}, d.fail(opPageTable, procedure, err)
	}
	return g, newResponse()
}

// QueryTable is the one read path that does not convert backend failures: it
// records the detail in the ErrorSink and then returns the error to the
// caller. Callers of this family depend on seeing the real error; keep the
// asymmetry.
func QueryTable(ctx context.Context, d *DB, procedure string, model any, exclude ...string) (t Table, err error) {
	params, err := d.bind(ctx, procedure, model, exclude)
	if err != nil {
		d.sink.Record(opQueryTable, procedure, err)
		return Table{}, err
	}
	rows, err := d.run(ctx, procedure, params)
	if err != nil {
		d.sink.Record(opQueryTable, procedure, err)
		return Table{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	t, err = readTable(rows, nil)
	if err != nil {
		d.sink.Record(opQueryTable, procedure, err)
		return Table{}, err
	}
	return t, nil
}

// fatal reports the errors that must reach the caller as errors instead of
// being converted: mapping mismatches and misuse of the API.
func fatal(err error) bool {
	var me *MappingError
	return errors.As(err, &me) || errors.Is(err, ErrNotStruct) || errors.Is(err, ErrNilModel)
}
