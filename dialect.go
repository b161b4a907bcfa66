package dbcontext

import (
	"strings"
)

// Kind identifies a supported backend.
type Kind string

const (
	SQLServer  Kind = "sqlserver"
	MySQL      Kind = "mysql"
	PostgreSQL Kind = "postgres"
)

// Dialect supplies everything that differs per backend kind: the parameter
// prefix convention, the catalog query listing a procedure's parameters, and
// the statement text that invokes a procedure with a bound parameter set.
// A Dialect is selected once per DB handle and holds no state.
type Dialect interface {
	Kind() Kind

	// DriverName is the database/sql driver this dialect registers and opens.
	DriverName() string

	// Prefix is the token prepended to a model field name to form its
	// parameter name (for example "@" + "Name" = "@Name").
	Prefix() string

	// CatalogQuery returns the statement that lists a procedure's declared
	// parameters as (name, nullable) rows; CatalogArgs supplies its
	// arguments for a given procedure name.
	CatalogQuery() string
	CatalogArgs(procedure string) []any

	// CallText renders the invocation statement for a procedure and an
	// ordered parameter set, returning the statement and its driver args.
	CallText(procedure string, params []Param) (string, []any)
}

// DialectFor returns the Dialect for an explicitly chosen backend kind.
func DialectFor(kind Kind) (Dialect, error) {
	switch kind {
	case SQLServer:
		return sqlServerDialect{}, nil
	case MySQL:
		return mysqlDialect{}, nil
	case PostgreSQL:
		return postgresDialect{}, nil
	default:
		return nil, ErrUnknownBackend
	}
}

// InferKind classifies a connection string when the backend kind was not
// configured explicitly. URL schemes are unambiguous; otherwise a
// user:pass@tcp(host)/db DSN is MySQL and an ADO-style keyword string with a
// server token is SQL Server. Anything else is a configuration error.
// The connection string is never included in the error; it may carry
// credentials.
func InferKind(dsn string) (Kind, error) {
	s := toLowerAscii(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(s, "sqlserver://"):
		return SQLServer, nil
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return PostgreSQL, nil
	}
	if strings.Contains(s, "@tcp(") || strings.Contains(s, "@unix(") {
		return MySQL, nil
	}
	if strings.Contains(s, "server=") &&
		(strings.Contains(s, "user id=") || strings.Contains(s, "password=") || strings.Contains(s, "port=")) {
		return SQLServer, nil
	}
	return "", ErrUnknownBackend
}
