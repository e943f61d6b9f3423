package operation

import "context"

// Validate checks a request's params for one operation type. An empty
// result means valid. An unknown type yields a single
// error_unknown_operation diagnostic — the same policy the dispatch layer
// enforces, so an unknown name can never slip through either gate.
//
// Required parameters are checked for presence first; a parameter listed in
// the schema's optional fields is skipped, as is the author field, which is
// defaulted from the session rather than required from the caller. The
// schema's validate hook then appends any semantic errors; it may perform
// I/O and runs to completion before results are returned.
func (r *Registry) Validate(ctx context.Context, opType string, params Params) ([]FieldError, error) {
	schema, ok := r.Resolve(opType)
	if !ok {
		return []FieldError{unknownOperationError(opType)}, nil
	}

	var errs []FieldError
	for _, param := range schema.Params {
		if schema.isOptional(param) || param == schema.AuthorPath {
			continue
		}
		if v, present := params[param]; !present || isFalsy(v) {
			errs = append(errs, requiredError(param))
		}
	}

	if schema.Validate != nil {
		return schema.Validate(ctx, params, errs)
	}
	return errs, nil
}
