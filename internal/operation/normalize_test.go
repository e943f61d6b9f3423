package operation

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeDefaultsAuthor(t *testing.T) {
	r := newTestRegistry(t)
	params := Params{"author": "bob", "permlink": "hello", "weight": float64(100)}

	normalized, err := r.Normalize(context.Background(), "vote", params, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if normalized["voter"] != "alice" {
		t.Fatalf("expected voter defaulted to alice, got %v", normalized["voter"])
	}
	if _, ok := params["voter"]; ok {
		t.Fatal("input params were mutated")
	}
}

// Defaulting is idempotent: a present author value is never overwritten.
func TestNormalizeKeepsPresentAuthor(t *testing.T) {
	r := newTestRegistry(t)
	params := Params{"voter": "carol", "author": "bob", "permlink": "hello", "weight": float64(100)}

	normalized, err := r.Normalize(context.Background(), "vote", params, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if normalized["voter"] != "carol" {
		t.Fatalf("present author was overwritten: %v", normalized["voter"])
	}

	again, err := r.Normalize(context.Background(), "vote", normalized, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if again["voter"] != "carol" {
		t.Fatalf("normalization is not idempotent: %v", again["voter"])
	}
}

func TestNormalizeAuthorIntoNestedPath(t *testing.T) {
	r := newTestRegistry(t)
	params := Params{"id": "follow", "json": "{}", "required_posting_auths": []any{}}

	normalized, err := r.Normalize(context.Background(), "custom_json", params, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	v, ok := Get(normalized, "required_posting_auths.0")
	if !ok || v != "alice" {
		t.Fatalf("expected posting auth defaulted, got %v ok=%v", v, ok)
	}
}

func TestNormalizeCommentPermlink(t *testing.T) {
	r := newTestRegistry(t)
	params := Params{"parent_permlink": "chain", "title": "Hello, Ledger World!", "body": "text"}

	normalized, err := r.Normalize(context.Background(), "comment", params, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if normalized["author"] != "alice" {
		t.Fatalf("author not defaulted: %v", normalized["author"])
	}
	permlink, _ := normalized["permlink"].(string)
	if permlink != "hello-ledger-world" {
		t.Fatalf("unexpected permlink: %q", permlink)
	}
	if normalized["json_metadata"] != "{}" {
		t.Fatalf("json_metadata not defaulted: %v", normalized["json_metadata"])
	}

	// A caller-supplied permlink survives.
	params["permlink"] = "my-own-slug"
	normalized, err = r.Normalize(context.Background(), "comment", params, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if normalized["permlink"] != "my-own-slug" {
		t.Fatalf("permlink overwritten: %v", normalized["permlink"])
	}
}

func TestNormalizeFollowDefaultsWhat(t *testing.T) {
	r := newTestRegistry(t)

	normalized, err := r.Normalize(context.Background(), "follow", Params{"following": "bob"}, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if normalized["follower"] != "alice" {
		t.Fatalf("follower not defaulted: %v", normalized["follower"])
	}
	what, ok := normalized["what"].([]any)
	if !ok || len(what) != 1 || what[0] != "blog" {
		t.Fatalf("unexpected what: %v", normalized["what"])
	}

	normalized, err = r.Normalize(context.Background(), "unfollow", Params{"following": "bob"}, "alice")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if what, ok := normalized["what"].([]any); !ok || len(what) != 0 {
		t.Fatalf("unfollow what should be empty, got %v", normalized["what"])
	}
}

func TestFollowWireEnvelope(t *testing.T) {
	r := newTestRegistry(t)
	schema, ok := r.Resolve("follow")
	if !ok || schema.Wire == nil {
		t.Fatal("follow schema missing wire hook")
	}

	wire, err := schema.Wire(Params{"follower": "alice", "following": "bob", "what": []any{"blog"}})
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	if wire["id"] != "follow" {
		t.Fatalf("unexpected id: %v", wire["id"])
	}
	auths, ok := wire["required_posting_auths"].([]any)
	if !ok || len(auths) != 1 || auths[0] != "alice" {
		t.Fatalf("unexpected posting auths: %v", wire["required_posting_auths"])
	}
	raw, _ := wire["json"].(string)
	var payload []any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("wire json invalid: %v", err)
	}
	if payload[0] != "follow" {
		t.Fatalf("unexpected payload tag: %v", payload[0])
	}
	body := payload[1].(map[string]any)
	if body["follower"] != "alice" || body["following"] != "bob" {
		t.Fatalf("unexpected payload body: %v", body)
	}
}

func TestPermlinkFallback(t *testing.T) {
	if got := permlinkFrom(""); !strings.HasPrefix(got, "post-") {
		t.Fatalf("expected generated fallback permlink, got %q", got)
	}
}
