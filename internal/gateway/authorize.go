package gateway

import "chaingate.org/internal/operation"

// AuthorizeBatch verifies that every request in the batch is covered by the
// grant and authored by actingUser. Both checks run over the whole batch
// before any verdict is returned; nothing is ever partially authorized.
// Scope violations are reported first, aggregated across the batch. A
// single authorship violation rejects the entire batch.
func (s *Service) AuthorizeBatch(batch []OperationRequest, grant ScopeGrant, actingUser string) error {
	var invalidTypes []string
	seen := make(map[string]struct{})
	authorshipOK := true

	for _, req := range batch {
		canonical := operation.SnakeCase(req.Type)
		if !grant.Allows(req.Type) {
			if _, dup := seen[canonical]; !dup {
				seen[canonical] = struct{}{}
				invalidTypes = append(invalidTypes, canonical)
			}
		}
		if !s.isOperationAuthor(req, actingUser) {
			authorshipOK = false
		}
	}

	if len(invalidTypes) > 0 {
		return &ScopeError{InvalidTypes: invalidTypes}
	}
	if !authorshipOK {
		return &AuthorshipError{User: actingUser}
	}
	return nil
}

// isOperationAuthor checks the value at the schema's author path against the
// acting user. Unknown types are never authorized; a known type without an
// author path is vacuously authorized.
func (s *Service) isOperationAuthor(req OperationRequest, actingUser string) bool {
	schema, ok := s.registry.Resolve(req.Type)
	if !ok {
		return false
	}
	if schema.AuthorPath == "" {
		return true
	}
	v, present := operation.Get(req.Params, schema.AuthorPath)
	if !present {
		return false
	}
	name, isString := v.(string)
	return isString && name == actingUser
}
