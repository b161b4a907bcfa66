package dbcontext

import (
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// postgresDialect invokes set-returning functions through SELECT with named
// notation, so omitted parameters fall back to their declared defaults.
// Argument names come from pg_proc and carry whatever prefix the routine was
// declared with; the convention here is "p_". PostgreSQL arguments accept
// NULL unless a domain forbids it, so every parameter reports nullable.
type postgresDialect struct{}

func (postgresDialect) Kind() Kind         { return PostgreSQL }
func (postgresDialect) DriverName() string { return "pgx" }
func (postgresDialect) Prefix() string     { return "p_" }

func (postgresDialect) CatalogQuery() string {
	return `SELECT unnest(proargnames), true FROM pg_proc WHERE proname = $1`
}

func (postgresDialect) CatalogArgs(procedure string) []any {
	return []any{procedure}
}

func (postgresDialect) CallText(procedure string, params []Param) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(procedure)
	b.WriteByte('(')
	args := make([]any, 0, len(params))
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(" => $")
		b.WriteString(strconv.Itoa(i + 1))
		args = append(args, p.Value)
	}
	b.WriteByte(')')
	return b.String(), args
}
