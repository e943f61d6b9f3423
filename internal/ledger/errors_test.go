package ledger

import "testing"

func TestFormattedMessageInterpolates(t *testing.T) {
	err := &RemoteError{
		Code:    -32000,
		Message: "assert exception",
		Data: &RemoteErrorData{
			Name: "assert_exception",
			Stack: []StackFrame{
				{
					Format: "Account ${acct} has insufficient funds: ${balance} < ${required}",
					Data:   map[string]any{"acct": "alice", "balance": "0.100 TME", "required": "1.000 TME"},
				},
			},
		},
	}
	want := "Account alice has insufficient funds: 0.100 TME < 1.000 TME"
	if got := err.FormattedMessage(); got != want {
		t.Fatalf("FormattedMessage()=%q, want %q", got, want)
	}
	if err.Error() != want {
		t.Fatalf("Error()=%q, want formatted message", err.Error())
	}
}

func TestFormattedMessageRepeatedPlaceholder(t *testing.T) {
	err := &RemoteError{
		Data: &RemoteErrorData{
			Stack: []StackFrame{
				{Format: "${a} and ${a}", Data: map[string]any{"a": "x"}},
			},
		},
	}
	if got := err.FormattedMessage(); got != "x and x" {
		t.Fatalf("expected every occurrence replaced, got %q", got)
	}
}

func TestErrorFallsBackToRawMessage(t *testing.T) {
	err := &RemoteError{Code: 10, Message: "itr != _by_id.end(): unknown transaction"}
	if err.FormattedMessage() != "" {
		t.Fatalf("expected empty formatted message without stack")
	}
	if err.Error() != "itr != _by_id.end(): unknown transaction" {
		t.Fatalf("expected raw message fallback, got %q", err.Error())
	}
}

func TestErrorGenericWhenEmpty(t *testing.T) {
	err := &RemoteError{Code: 42}
	if err.Error() != "remote error 42" {
		t.Fatalf("expected generic message, got %q", err.Error())
	}
}

func TestPublicKeyForRole(t *testing.T) {
	acct := Account{
		Name:    "alice",
		Posting: Authority{WeightThreshold: 1, KeyAuths: []KeyWeight{{Key: "TME7posting", Weight: 1}}},
		MemoKey: "TME7memo",
	}
	if key, ok := acct.PublicKeyForRole("posting"); !ok || key != "TME7posting" {
		t.Fatalf("unexpected posting key: %q ok=%v", key, ok)
	}
	if key, ok := acct.PublicKeyForRole("memo"); !ok || key != "TME7memo" {
		t.Fatalf("unexpected memo key: %q ok=%v", key, ok)
	}
	if _, ok := acct.PublicKeyForRole("active"); ok {
		t.Fatal("expected missing active key")
	}
	if _, ok := acct.PublicKeyForRole("steward"); ok {
		t.Fatal("expected unknown role to report missing")
	}
}
