package dbcontext

import "errors"

// ErrEmptyResult is returned by single-row materialization when the procedure
// produced no rows. Operations translate it into a Response with code
// CodeEmptyResult rather than surfacing it directly.
var ErrEmptyResult = errors.New("dbcontext: empty result")

// ErrUnknownBackend is returned when a connection string matches none of the
// supported backend kinds. This is a configuration error, not a runtime one.
var ErrUnknownBackend = errors.New("dbcontext: unrecognized connection string")

// ErrNilModel is returned when a nil model (or nil pointer) is supplied where
// a struct is required.
var ErrNilModel = errors.New("dbcontext: nil model")

// ErrNotStruct is returned when a model argument is not a struct or a pointer
// to one.
var ErrNotStruct = errors.New("dbcontext: model must be a struct or a pointer to struct")

// ErrUnknownField is returned by ParamsOf when a requested field name does not
// exist on the source model.
var ErrUnknownField = errors.New("dbcontext: unknown field")

// Response error codes. Success responses carry NoValue in ErrorCode.
const (
	CodeFailure           = "-1" // backend failure; detail goes to the ErrorSink only
	CodeEmptyResult       = "-2" // single-row read produced no rows
	CodeMissingParameters = "-3" // strict binding found unsupplied parameters
)

// FailureMessage is the fixed message callers see when a backend error is
// converted into a Response. The underlying detail is recorded in the
// ErrorSink and never surfaced here.
const FailureMessage = "the operation could not be completed"
