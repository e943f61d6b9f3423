package gateway

import (
	"errors"
	"fmt"
	"strings"

	"chaingate.org/internal/operation"
)

// ErrUnknownOperation is returned when a batch names an operation type the
// registry does not know.
var ErrUnknownOperation = errors.New("gateway: unknown operation")

// ErrEmptyBatch is returned for a broadcast request without operations.
var ErrEmptyBatch = errors.New("gateway: empty operation batch")

// ScopeError aggregates every operation type in a batch that falls outside
// the granted scope. The whole batch is rejected.
type ScopeError struct {
	InvalidTypes []string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("the access token scope does not allow the following operation(s): %s",
		strings.Join(e.InvalidTypes, ", "))
}

// AuthorshipError rejects a batch in which any operation names an author
// other than the authenticated user. All-or-nothing: a token scoped to one
// account must never partially broadcast for another.
type AuthorshipError struct {
	User string
}

func (e *AuthorshipError) Error() string {
	return fmt.Sprintf("this access token can only broadcast operations for the account @%s", e.User)
}

// ValidationError carries the field-level diagnostics for one invalid
// operation in a batch.
type ValidationError struct {
	Type   string
	Fields []operation.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("operation %s failed validation (%d field error(s))", e.Type, len(e.Fields))
}
