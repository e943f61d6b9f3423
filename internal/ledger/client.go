package ledger

import "context"

// Client is the narrow boundary the gateway consumes: read account public
// keys and submit finished transactions. Consensus rules and the node wire
// format live behind it.
type Client interface {
	GetAccounts(ctx context.Context, names []string) ([]Account, error)
	Broadcast(ctx context.Context, ops []Operation, signing SigningMaterial) (TxResult, error)
	CreateAccount(ctx context.Context, account NewAccount, signing SigningMaterial) (TxResult, error)
}
