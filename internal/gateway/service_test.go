package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"chaingate.org/internal/auth"
	"chaingate.org/internal/ledger"
	"chaingate.org/internal/operation"
)

type fakeClient struct {
	ops     []ledger.Operation
	signing ledger.SigningMaterial
	result  ledger.TxResult
	err     error
}

func (c *fakeClient) GetAccounts(ctx context.Context, names []string) ([]ledger.Account, error) {
	return nil, nil
}

func (c *fakeClient) Broadcast(ctx context.Context, ops []ledger.Operation, signing ledger.SigningMaterial) (ledger.TxResult, error) {
	c.ops = ops
	c.signing = signing
	return c.result, c.err
}

func (c *fakeClient) CreateAccount(ctx context.Context, account ledger.NewAccount, signing ledger.SigningMaterial) (ledger.TxResult, error) {
	return c.result, c.err
}

func newBroadcastService(t *testing.T, client ledger.Client, opts ...ServiceOption) *Service {
	t.Helper()
	registry, err := operation.NewRegistry(operation.Config{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewService(registry, client, opts...)
}

func aliceSession(scope ...string) auth.Session {
	return auth.Session{User: "alice", Role: auth.RoleUser, Scope: scope}
}

func TestBroadcastDispatchesNormalizedBatch(t *testing.T) {
	client := &fakeClient{result: ledger.TxResult{ID: "tx1", BlockNum: 42}}
	signing := ledger.SigningMaterial{Posting: "5Kposting"}
	svc := newBroadcastService(t, client, WithSigningMaterial(signing))

	batch := []OperationRequest{{
		Type:   "Vote",
		Params: operation.Params{"author": "bob", "permlink": "post", "weight": float64(10000)},
	}}
	result, err := svc.Broadcast(context.Background(), aliceSession("vote"), batch)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if result.ID != "tx1" || result.BlockNum != 42 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(client.ops) != 1 {
		t.Fatalf("expected one dispatched operation, got %d", len(client.ops))
	}
	op := client.ops[0]
	if op.Type != "vote" {
		t.Fatalf("type not canonicalized: %q", op.Type)
	}
	if op.Params["voter"] != "alice" {
		t.Fatalf("author field not defaulted to session user: %v", op.Params["voter"])
	}
	if client.signing.Posting != "5Kposting" {
		t.Fatal("signing material not forwarded")
	}
}

func TestBroadcastMapsCustomOperation(t *testing.T) {
	client := &fakeClient{result: ledger.TxResult{ID: "tx2"}}
	svc := newBroadcastService(t, client)

	batch := []OperationRequest{{
		Type:   "follow",
		Params: operation.Params{"following": "bob"},
	}}
	if _, err := svc.Broadcast(context.Background(), aliceSession("follow"), batch); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	op := client.ops[0]
	if op.Type != "custom_json" {
		t.Fatalf("custom type not mapped, got %q", op.Type)
	}
	auths, ok := op.Params["required_posting_auths"].([]any)
	if !ok || len(auths) != 1 || auths[0] != "alice" {
		t.Fatalf("unexpected posting auths: %v", op.Params["required_posting_auths"])
	}
	raw, _ := op.Params["json"].(string)
	var envelope []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || len(envelope) != 2 {
		t.Fatalf("envelope is not a [tag, payload] pair: %q", raw)
	}
	var tag string
	if err := json.Unmarshal(envelope[0], &tag); err != nil || tag != "follow" {
		t.Fatalf("unexpected envelope tag: %q", envelope[0])
	}
}

func TestBroadcastRejectsEmptyBatch(t *testing.T) {
	svc := newBroadcastService(t, &fakeClient{})
	_, err := svc.Broadcast(context.Background(), aliceSession("vote"), nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestBroadcastRejectsUnknownType(t *testing.T) {
	client := &fakeClient{}
	svc := newBroadcastService(t, client)
	batch := []OperationRequest{{Type: "mint_money", Params: operation.Params{}}}
	_, err := svc.Broadcast(context.Background(), aliceSession(ScopeAll), batch)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
	if client.ops != nil {
		t.Fatal("nothing may reach the ledger on rejection")
	}
}

func TestBroadcastValidationError(t *testing.T) {
	client := &fakeClient{}
	svc := newBroadcastService(t, client)
	batch := []OperationRequest{{
		Type:   "vote",
		Params: operation.Params{"author": "bob", "permlink": "post", "weight": float64(20000)},
	}}
	_, err := svc.Broadcast(context.Background(), aliceSession("vote"), batch)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if valErr.Type != "vote" || len(valErr.Fields) == 0 {
		t.Fatalf("unexpected validation error: %+v", valErr)
	}
	if client.ops != nil {
		t.Fatal("invalid batch must not dispatch")
	}
}

func TestBroadcastScopeErrorBeforeDispatch(t *testing.T) {
	client := &fakeClient{}
	svc := newBroadcastService(t, client)
	batch := []OperationRequest{{
		Type:   "vote",
		Params: operation.Params{"author": "bob", "permlink": "post", "weight": float64(1)},
	}}
	_, err := svc.Broadcast(context.Background(), aliceSession("comment"), batch)
	var scopeErr *ScopeError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("expected *ScopeError, got %v", err)
	}
	if client.ops != nil {
		t.Fatal("out-of-scope batch must not dispatch")
	}
}

func TestBroadcastWrapsRemoteError(t *testing.T) {
	remote := &ledger.RemoteError{Data: &ledger.RemoteErrorData{
		Code:    10,
		Message: "assert failure",
		Stack: []ledger.StackFrame{{
			Format: "Account ${a} does not exist",
			Data:   map[string]any{"a": "ghost"},
		}},
	}}
	client := &fakeClient{err: remote}
	svc := newBroadcastService(t, client)
	batch := []OperationRequest{{
		Type:   "vote",
		Params: operation.Params{"author": "bob", "permlink": "post", "weight": float64(1)},
	}}
	_, err := svc.Broadcast(context.Background(), aliceSession("vote"), batch)
	var remoteErr *ledger.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("remote error must stay unwrappable, got %v", err)
	}
	if remoteErr.FormattedMessage() != "Account ghost does not exist" {
		t.Fatalf("unexpected formatted message: %q", remoteErr.FormattedMessage())
	}
}

func TestBroadcastDefaultScopeApplies(t *testing.T) {
	client := &fakeClient{}
	svc := newBroadcastService(t, client, WithDefaultScope([]string{"vote"}))
	batch := []OperationRequest{{
		Type:   "vote",
		Params: operation.Params{"author": "bob", "permlink": "post", "weight": float64(1)},
	}}
	if _, err := svc.Broadcast(context.Background(), aliceSession(), batch); err != nil {
		t.Fatalf("default scope should authorize vote: %v", err)
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	svc := newBroadcastService(t, &fakeClient{})
	ctx := context.Background()

	params, fieldErrs, err := svc.NormalizeAndValidate(ctx, "vote", operation.Params{
		"author": "bob", "permlink": "post", "weight": float64(100),
	}, "alice")
	if err != nil || len(fieldErrs) != 0 {
		t.Fatalf("unexpected failure: %v %v", fieldErrs, err)
	}
	if params["voter"] != "alice" {
		t.Fatalf("voter not defaulted: %v", params["voter"])
	}

	_, fieldErrs, err = svc.NormalizeAndValidate(ctx, "vote", operation.Params{}, "alice")
	if err != nil {
		t.Fatalf("NormalizeAndValidate: %v", err)
	}
	if len(fieldErrs) == 0 {
		t.Fatal("expected required-field errors for empty params")
	}
}
