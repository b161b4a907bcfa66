package dbcontext

import (
	"database/sql"

	"github.com/google/uuid"
)

// Response is the uniform envelope every operation returns. A procedure
// reports its outcome through recognized output columns in the first row of
// its first result set: IdValue, HasError, ErrorCode, ErrorMessage,
// InformationMessage, and _RowGuid (or RowGuid). Any column absent from the
// cursor leaves the corresponding field at its default.
type Response struct {
	IdValue            int64
	HasError           bool
	ErrorCode          string
	ErrorMessage       string
	InformationMessage string
	RowGuid            string
}

// NoValue is the default for the string fields of a Response.
const NoValue = "-"

func newResponse() Response {
	return Response{
		IdValue:            -1,
		ErrorCode:          NoValue,
		ErrorMessage:       NoValue,
		InformationMessage: NoValue,
		RowGuid:            NoValue,
	}
}

func failureResponse(code, message string) Response {
	r := newResponse()
	r.HasError = true
	r.ErrorCode = code
	r.ErrorMessage = message
	return r
}

// readResponse populates a Response from the first row of a cursor. A cursor
// with no rows yields the defaults; output columns are optional by
// convention. Column names match ignoring case because backends fold
// identifier case differently.
func readResponse(rows *sql.Rows) (Response, error) {
	resp := newResponse()

	cols, err := rows.Columns()
	if err != nil {
		return resp, err
	}
	if !rows.Next() {
		return resp, rows.Err()
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return resp, err
	}

	for i, c := range cols {
		v := raw[i]
		if v == nil {
			continue
		}
		switch toLowerAscii(normalizeCol(c)) {
		case "idvalue":
			if n, ok := toInt64(v); ok {
				resp.IdValue = n
			}
		case "haserror":
			resp.HasError = toBool(v)
		case "errorcode":
			resp.ErrorCode = toText(v)
		case "errormessage":
			resp.ErrorMessage = toText(v)
		case "informationmessage":
			resp.InformationMessage = toText(v)
		case "_rowguid", "rowguid":
			resp.RowGuid = canonicalGuid(toText(v))
		}
	}
	return resp, nil
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return NoValue
}

// canonicalGuid lowercases and reformats a guid through uuid parsing; values
// that are not guids pass through unchanged.
func canonicalGuid(s string) string {
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}
