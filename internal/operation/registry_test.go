package operation

import "testing"

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestResolveBaseAndCustom(t *testing.T) {
	r := newTestRegistry(t)

	s, ok := r.Resolve("vote")
	if !ok || s.Name != "vote" || s.Role != RolePosting {
		t.Fatalf("unexpected vote schema: %+v ok=%v", s, ok)
	}

	s, ok = r.Resolve("follow")
	if !ok || s.MappedType != "custom_json" {
		t.Fatalf("unexpected follow schema: %+v ok=%v", s, ok)
	}
	if s.Role != RolePosting {
		t.Fatalf("custom schema did not inherit mapped role: %q", s.Role)
	}

	if _, ok := r.Resolve("launch_missiles"); ok {
		t.Fatal("expected unknown operation to be unresolved")
	}
}

func TestResolveNormalizesCase(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range []string{"AccountWitnessVote", "account-witness-vote", "account_witness_vote"} {
		if _, ok := r.Resolve(name); !ok {
			t.Fatalf("expected %q to resolve", name)
		}
	}
}

// Every custom schema's mapped type must land on a base schema with a role.
func TestCustomSchemasRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	for _, s := range customSchemas() {
		resolved, ok := r.Resolve(SnakeCase(s.Name))
		if !ok {
			t.Fatalf("custom schema %q did not resolve", s.Name)
		}
		base, ok := r.Resolve(resolved.MappedType)
		if !ok || base.IsCustom() {
			t.Fatalf("custom schema %q maps to invalid base %q", s.Name, resolved.MappedType)
		}
		if resolved.Role != base.Role {
			t.Fatalf("custom schema %q role %q differs from base role %q", s.Name, resolved.Role, base.Role)
		}
	}
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"vote":               "vote",
		"Vote":               "vote",
		"accountWitnessVote": "account_witness_vote",
		"AccountCreate":      "account_create",
		"delete-comment":     "delete_comment",
		"claim reward":       "claim_reward",
		"custom_json":        "custom_json",
	}
	for input, expected := range cases {
		if got := SnakeCase(input); got != expected {
			t.Fatalf("SnakeCase(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestNamesIncludesBothTables(t *testing.T) {
	r := newTestRegistry(t)
	names := r.Names()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range []string{"vote", "comment", "follow", "reblog"} {
		if !seen[want] {
			t.Fatalf("Names() missing %q", want)
		}
	}
}
