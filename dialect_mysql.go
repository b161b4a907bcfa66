package dbcontext

import (
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// mysqlDialect invokes procedures with CALL and positional placeholders; the
// binder has already put params in declaration order. MySQL routine
// parameters cannot start with "@", so the prefix convention is "p_", and
// information_schema does not model their nullability, so every parameter
// reports nullable.
type mysqlDialect struct{}

func (mysqlDialect) Kind() Kind         { return MySQL }
func (mysqlDialect) DriverName() string { return "mysql" }
func (mysqlDialect) Prefix() string     { return "p_" }

func (mysqlDialect) CatalogQuery() string {
	return `SELECT PARAMETER_NAME, 1 FROM information_schema.PARAMETERS WHERE SPECIFIC_SCHEMA = DATABASE() AND SPECIFIC_NAME = ? AND PARAMETER_MODE IS NOT NULL ORDER BY ORDINAL_POSITION`
}

func (mysqlDialect) CatalogArgs(procedure string) []any {
	return []any{procedure}
}

func (mysqlDialect) CallText(procedure string, params []Param) (string, []any) {
	var b strings.Builder
	b.WriteString("CALL ")
	b.WriteString(procedure)
	b.WriteByte('(')
	args := make([]any, 0, len(params))
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
		args = append(args, p.Value)
	}
	b.WriteByte(')')
	return b.String(), args
}
