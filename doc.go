/*
Package dbcontext is a stored-procedure invocation layer over database/sql:
you name a procedure and hand it a model, and dbcontext discovers the
procedure's declared parameters, binds your fields onto them by name, runs the
call, and materializes the rows back into typed models or tables.

# Overview

dbcontext preserves database/sql semantics while removing the repetitive
parameter and row plumbing around stored procedures. It works with *sql.DB,
*sql.Tx, and *sql.Conn through a backend dialect (SQL Server, MySQL,
PostgreSQL) that supplies the parameter prefix, the catalog lookup, and the
call statement.

# Binding rules

  - Fields bind by `db:"name"` first; otherwise by field name. A field binds
    to the declared parameter named prefix+field, matched ignoring case.
  - Nested composite fields (structs other than time.Time, decimal.Decimal,
    or driver.Valuer types) flatten depth-first; duplicate leaf names take
    the later branch's value.
  - An absent value (nil pointer) binds NULL when the parameter is nullable
    and is omitted when it is not. Fields with no matching parameter are
    skipped.
  - ExecuteStrict refuses to run when any declared parameter is unsupplied,
    naming every missing one.

# Materialization rules

  - Columns match fields by exact name; extra columns are ignored and missing
    columns leave zero values.
  - SQL NULL becomes the field's zero value (or nil pointer), never a driver
    sentinel.
  - If a field (or a value like decimal.Decimal) implements sql.Scanner, its
    Scan method receives the driver value.
  - A type mismatch is a MappingError and propagates to the caller.

# Performance

On first use of a model type or a procedure name, dbcontext builds its field
schema or fetches its parameter list, and memoizes it for the process
lifetime in an injectable, concurrency-safe cache. Concurrent first uses may
fetch twice; both store the same immutable value. There is no invalidation:
redeploying a procedure with a different signature requires a process
restart.

# Error handling

  - Backend failures are converted: the full detail goes to the ErrorSink and
    the caller's Response carries HasError with a fixed generic message.
  - QueryTable is the exception: it logs and then returns the real error.
  - A single-row read with no rows yields CodeEmptyResult, not a failure.

# Output convention

A procedure reports its outcome through optional columns in the first row of
its first result set: IdValue, HasError, ErrorCode, ErrorMessage,
InformationMessage, and _RowGuid. The paging operations read a second result
set whose single row holds the total row count.
*/
package dbcontext
