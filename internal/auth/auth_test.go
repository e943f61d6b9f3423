package auth

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Setenv("CHAINGATE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	token, err := GenerateToken("alice", "demo-app", RoleApp, []string{"Vote", "comment", "vote"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Proxy != "demo-app" {
		t.Fatalf("unexpected proxy: %s", claims.Proxy)
	}
	if claims.Role != RoleApp {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if len(claims.Scope) != 2 || !slices.Contains(claims.Scope, "vote") || !slices.Contains(claims.Scope, "comment") {
		t.Fatalf("scope not deduplicated: %v", claims.Scope)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Setenv("CHAINGATE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := ParseAndValidate("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
	if _, err := ParseAndValidate(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestGenerateTokenRejectsBadInput(t *testing.T) {
	t.Setenv("CHAINGATE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("", "", RoleUser, nil, time.Hour); err == nil {
		t.Fatal("expected error for empty user")
	}
	if _, err := GenerateToken("alice", "", "admin", nil, time.Hour); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, err := GenerateToken("alice", "", RoleUser, nil, 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestSessionContextRoundTrip(t *testing.T) {
	session := Session{User: "alice", Proxy: "demo-app", Role: RoleApp, Scope: []string{"vote"}}
	ctx := ContextWithSession(context.Background(), session)

	got, ok := SessionFromContext(ctx)
	if !ok {
		t.Fatal("expected session in context")
	}
	if got.User != "alice" || got.Proxy != "demo-app" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatal("unexpected session in empty context")
	}
}
