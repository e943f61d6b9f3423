package operation

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Config carries the external collaborators hooks may need.
type Config struct {
	// AccountLookup enables existence checks against the ledger. Optional;
	// when nil those checks are skipped.
	AccountLookup AccountLookup
}

// Registry is the static catalog of operation schemas. Built once at
// startup and immutable afterwards, so concurrent reads need no locking.
type Registry struct {
	base   map[string]Schema
	custom map[string]Schema
}

// NewRegistry builds the schema catalog. A custom schema whose MappedType
// does not resolve to a base schema is a configuration defect and fails the
// build; it is never surfaced at request time.
func NewRegistry(cfg Config) (*Registry, error) {
	r := &Registry{
		base:   make(map[string]Schema),
		custom: make(map[string]Schema),
	}
	for _, s := range baseSchemas() {
		if _, exists := r.base[s.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSchema, s.Name)
		}
		r.base[s.Name] = s
	}
	for _, s := range customSchemas() {
		if _, exists := r.base[s.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSchema, s.Name)
		}
		if _, exists := r.custom[s.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSchema, s.Name)
		}
		mapped, ok := r.base[s.MappedType]
		if !ok {
			return nil, fmt.Errorf("operation: custom schema %q maps to unknown type %q", s.Name, s.MappedType)
		}
		s.Role = mapped.Role
		r.custom[s.Name] = s
	}
	if cfg.AccountLookup != nil {
		s := r.base["account_witness_vote"]
		s.Validate = witnessExists(cfg.AccountLookup)
		r.base["account_witness_vote"] = s
	}
	return r, nil
}

// Resolve looks a name up after snake_case normalization: base schemas
// first, then custom ones. The boolean is false for unknown operations;
// callers must refuse to proceed in that case.
func (r *Registry) Resolve(name string) (Schema, bool) {
	key := SnakeCase(name)
	if s, ok := r.base[key]; ok {
		return s, true
	}
	if s, ok := r.custom[key]; ok {
		return s, true
	}
	return Schema{}, false
}

// AuthorPath returns the author-field path for an operation type, if the
// type is known and declares one.
func (r *Registry) AuthorPath(name string) (string, bool) {
	s, ok := r.Resolve(name)
	if !ok || s.AuthorPath == "" {
		return "", false
	}
	return s.AuthorPath, true
}

// Names returns every registered operation name, sorted. This is the
// expansion of the scope wildcard.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.base)+len(r.custom))
	for name := range r.base {
		out = append(out, name)
	}
	for name := range r.custom {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SnakeCase canonicalizes an operation name: "AccountWitnessVote",
// "account-witness-vote" and "account_witness_vote" all resolve alike.
func SnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	prevLower := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '-' || r == ' ' || r == '_':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
