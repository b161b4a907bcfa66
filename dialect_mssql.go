package dbcontext

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
)

// sqlServerDialect invokes procedures with EXEC and named arguments. Catalog
// names from sys.parameters already carry the "@" prefix.
type sqlServerDialect struct{}

func (sqlServerDialect) Kind() Kind         { return SQLServer }
func (sqlServerDialect) DriverName() string { return "sqlserver" }
func (sqlServerDialect) Prefix() string     { return "@" }

func (sqlServerDialect) CatalogQuery() string {
	return `SELECT name, is_nullable FROM sys.parameters WHERE object_id = OBJECT_ID(@proc) AND parameter_id > 0 ORDER BY parameter_id`
}

func (sqlServerDialect) CatalogArgs(procedure string) []any {
	return []any{sql.Named("proc", procedure)}
}

func (sqlServerDialect) CallText(procedure string, params []Param) (string, []any) {
	var b strings.Builder
	b.WriteString("EXEC ")
	b.WriteString(procedure)
	args := make([]any, 0, len(params))
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		name := fmt.Sprintf("p%d", i+1)
		b.WriteByte(' ')
		b.WriteString(p.Name)
		b.WriteString(" = @")
		b.WriteString(name)
		args = append(args, sql.Named(name, p.Value))
	}
	return b.String(), args
}
