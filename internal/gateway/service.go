package gateway

import (
	"context"
	"fmt"

	"chaingate.org/internal/auth"
	"chaingate.org/internal/ledger"
	"chaingate.org/internal/operation"
)

// Service is the broadcast authorization engine: it resolves, validates,
// normalizes and authorizes operation batches, then hands them to the
// ledger client.
type Service struct {
	registry     *operation.Registry
	client       ledger.Client
	signing      ledger.SigningMaterial
	defaultScope []string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithDefaultScope sets the operations granted to sessions whose token
// carries an empty scope.
func WithDefaultScope(scope []string) ServiceOption {
	return func(s *Service) {
		s.defaultScope = scope
	}
}

// WithSigningMaterial sets the broadcaster keys attached to dispatched
// transactions.
func WithSigningMaterial(signing ledger.SigningMaterial) ServiceOption {
	return func(s *Service) {
		s.signing = signing
	}
}

// NewService constructs the engine around an immutable registry and the
// ledger boundary.
func NewService(registry *operation.Registry, client ledger.Client, opts ...ServiceOption) *Service {
	s := &Service{registry: registry, client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the schema catalog to the HTTP layer.
func (s *Service) Registry() *operation.Registry { return s.registry }

// EffectiveScope expands an empty session scope to the configured default
// grant, and a wildcard grant to the full registry catalog, so callers
// always see the concrete operation set. A token issued without explicit
// scope is bounded by deployment configuration, never unbounded.
func (s *Service) EffectiveScope(scope []string) ScopeGrant {
	grant := ScopeGrant(scope)
	if len(grant) == 0 {
		grant = ScopeGrant(s.defaultScope)
	}
	for _, entry := range grant {
		if entry == ScopeAll {
			return ScopeGrant(s.registry.Names())
		}
	}
	return grant
}

// NormalizeAndValidate runs the single-operation pipeline used by consent
// flows: validate the raw params, then produce the author-defaulted,
// normalized copy. A non-empty FieldError list means the request is invalid
// and no normalized params are returned.
func (s *Service) NormalizeAndValidate(ctx context.Context, opType string, params operation.Params, actingUser string) (operation.Params, []operation.FieldError, error) {
	fieldErrs, err := s.registry.Validate(ctx, opType, params)
	if err != nil {
		return nil, nil, fmt.Errorf("validate %s: %w", opType, err)
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}
	normalized, err := s.registry.Normalize(ctx, opType, params, actingUser)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize %s: %w", opType, err)
	}
	return normalized, nil, nil
}

// Broadcast runs the full batch pipeline: resolve, validate, normalize,
// authorize, map custom types to their broadcastable form, dispatch. The
// batch is atomic; the first failing stage rejects all of it and nothing
// reaches the ledger.
func (s *Service) Broadcast(ctx context.Context, session auth.Session, batch []OperationRequest) (ledger.TxResult, error) {
	if len(batch) == 0 {
		return ledger.TxResult{}, ErrEmptyBatch
	}

	normalized := make([]OperationRequest, 0, len(batch))
	for _, req := range batch {
		if _, ok := s.registry.Resolve(req.Type); !ok {
			return ledger.TxResult{}, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Type)
		}
		fieldErrs, err := s.registry.Validate(ctx, req.Type, req.Params)
		if err != nil {
			return ledger.TxResult{}, fmt.Errorf("validate %s: %w", req.Type, err)
		}
		if len(fieldErrs) > 0 {
			return ledger.TxResult{}, &ValidationError{Type: operation.SnakeCase(req.Type), Fields: fieldErrs}
		}
		params, err := s.registry.Normalize(ctx, req.Type, req.Params, session.User)
		if err != nil {
			return ledger.TxResult{}, fmt.Errorf("normalize %s: %w", req.Type, err)
		}
		normalized = append(normalized, OperationRequest{
			Type:   operation.SnakeCase(req.Type),
			Params: params,
		})
	}

	grant := s.EffectiveScope(session.Scope)
	if err := s.AuthorizeBatch(normalized, grant, session.User); err != nil {
		return ledger.TxResult{}, err
	}

	ops, err := s.mapForDispatch(normalized)
	if err != nil {
		return ledger.TxResult{}, err
	}
	result, err := s.client.Broadcast(ctx, ops, s.signing)
	if err != nil {
		return ledger.TxResult{}, fmt.Errorf("broadcast rejected: %w", err)
	}
	return result, nil
}

// mapForDispatch rewrites custom types to their underlying broadcastable
// type; base types pass through unchanged.
func (s *Service) mapForDispatch(batch []OperationRequest) ([]ledger.Operation, error) {
	ops := make([]ledger.Operation, 0, len(batch))
	for _, req := range batch {
		schema, _ := s.registry.Resolve(req.Type)
		opType := schema.Name
		params := req.Params
		if schema.IsCustom() {
			opType = schema.MappedType
			if schema.Wire != nil {
				wired, err := schema.Wire(params)
				if err != nil {
					return nil, fmt.Errorf("map %s for dispatch: %w", req.Type, err)
				}
				params = wired
			}
		}
		ops = append(ops, ledger.Operation{Type: opType, Params: map[string]any(params)})
	}
	return ops, nil
}
