package operation

import "errors"

// ErrorKind identifies a validation failure class. The values double as i18n
// message keys on the consent UI, so they stay snake_case strings.
type ErrorKind string

const (
	ErrKindRequired         ErrorKind = "error_is_required"
	ErrKindUnknownOperation ErrorKind = "error_unknown_operation"
	ErrKindInvalidWeight    ErrorKind = "error_invalid_weight"
	ErrKindInvalidAsset     ErrorKind = "error_invalid_asset"
	ErrKindInvalidJSON      ErrorKind = "error_invalid_json"
	ErrKindAccountMissing   ErrorKind = "error_account_missing"
)

// FieldError is a user-facing diagnostic for one parameter. A non-empty
// error list means the request is invalid; nothing else branches on it.
type FieldError struct {
	Field  string            `json:"field"`
	Error  ErrorKind         `json:"error"`
	Values map[string]string `json:"values,omitempty"`
}

func requiredError(field string) FieldError {
	return FieldError{
		Field:  field,
		Error:  ErrKindRequired,
		Values: map[string]string{"field": field},
	}
}

func unknownOperationError(opType string) FieldError {
	return FieldError{
		Field:  "operation",
		Error:  ErrKindUnknownOperation,
		Values: map[string]string{"operation": opType},
	}
}

// ErrDuplicateSchema is returned when the registry tables collide at build time.
var ErrDuplicateSchema = errors.New("operation: duplicate schema name")
