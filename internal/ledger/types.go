package ledger

import (
	"errors"
	"time"
)

// KeyWeight pairs a public key with its authority weight.
type KeyWeight struct {
	Key    string `json:"key"`
	Weight int    `json:"weight"`
}

// Authority describes who may sign for one of an account's roles.
type Authority struct {
	WeightThreshold int         `json:"weight_threshold"`
	AccountAuths    []KeyWeight `json:"account_auths"`
	KeyAuths        []KeyWeight `json:"key_auths"`
}

// Account is the read-side view of a ledger account, limited to what the
// gateway needs: the public keys per signing role.
type Account struct {
	Name         string    `json:"name"`
	Owner        Authority `json:"owner"`
	Active       Authority `json:"active"`
	Posting      Authority `json:"posting"`
	MemoKey      string    `json:"memo_key"`
	JSONMetadata string    `json:"json_metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// PublicKeyForRole returns the first public key authorized for the given role.
func (a Account) PublicKeyForRole(role string) (string, bool) {
	var auth Authority
	switch role {
	case "owner":
		auth = a.Owner
	case "active":
		auth = a.Active
	case "posting":
		auth = a.Posting
	case "memo":
		if a.MemoKey == "" {
			return "", false
		}
		return a.MemoKey, true
	default:
		return "", false
	}
	if len(auth.KeyAuths) == 0 || auth.KeyAuths[0].Key == "" {
		return "", false
	}
	return auth.KeyAuths[0].Key, true
}

// Operation is one (type, params) pair of a transaction, already mapped to a
// broadcastable type.
type Operation struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// SigningMaterial carries the broadcaster keys used to sign a transaction.
// Keys are WIF-encoded; which role is populated depends on the operation set.
type SigningMaterial struct {
	Posting string `json:"-"`
	Active  string `json:"-"`
}

// TxResult is the outcome of a successful broadcast.
type TxResult struct {
	ID       string `json:"id"`
	BlockNum uint32 `json:"block_num"`
	TrxNum   uint32 `json:"trx_num"`
	Expired  bool   `json:"expired"`
}

// NewAccount describes an account-creation broadcast performed by the
// configured creator account on behalf of a registrant.
type NewAccount struct {
	Creator      string    `json:"creator"`
	Fee          string    `json:"fee"`
	Delegation   string    `json:"delegation"`
	Name         string    `json:"new_account_name"`
	Owner        Authority `json:"owner"`
	Active       Authority `json:"active"`
	Posting      Authority `json:"posting"`
	MemoKey      string    `json:"memo_key"`
	JSONMetadata string    `json:"json_metadata"`
}

var (
	// ErrAccountNotFound is returned when a requested account does not exist.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrUnavailable is returned when the node cannot be reached.
	ErrUnavailable = errors.New("ledger: node unavailable")
)
