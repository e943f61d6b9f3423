package operation

import "context"

// Normalize prepares params for broadcast on behalf of actingUser. The
// input is deep-copied first and never mutated. If the schema declares an
// author path and the caller left it absent or empty, the acting user is
// filled in; a present value is never overwritten. The schema's normalize
// hook, if any, then runs to completion on the defaulted copy.
//
// Unknown operation types pass through unchanged (as a copy); they are
// rejected by validation before anything is broadcast.
func (r *Registry) Normalize(ctx context.Context, opType string, params Params, actingUser string) (Params, error) {
	cloned := params.Clone()
	schema, ok := r.Resolve(opType)
	if !ok {
		return cloned, nil
	}
	if schema.AuthorPath != "" {
		if v, present := Get(cloned, schema.AuthorPath); !present || isFalsy(v) {
			Set(cloned, schema.AuthorPath, actingUser)
		}
	}
	if schema.Normalize != nil {
		return schema.Normalize(ctx, cloned)
	}
	return cloned, nil
}
