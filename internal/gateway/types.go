package gateway

import (
	"chaingate.org/internal/operation"
)

// ScopeAll is the wildcard grant authorizing every configured operation.
const ScopeAll = "*"

// OperationRequest is one (type, params) pair of an inbound batch. Batches
// are atomic: every request is evaluated, then the whole batch is accepted
// or rejected.
type OperationRequest struct {
	Type   string           `json:"type"`
	Params operation.Params `json:"params"`
}

// ScopeGrant is the ordered set of operation types one session may
// broadcast. Immutable for the lifetime of a request.
type ScopeGrant []string

// Allows reports whether the grant covers an operation type. Grant entries
// and the probe are compared in canonical snake_case.
func (g ScopeGrant) Allows(opType string) bool {
	probe := operation.SnakeCase(opType)
	for _, entry := range g {
		if entry == ScopeAll || operation.SnakeCase(entry) == probe {
			return true
		}
	}
	return false
}
