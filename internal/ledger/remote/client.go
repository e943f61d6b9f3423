// Package remote implements the ledger.Client boundary over the broadcaster
// node's JSON-RPC endpoint. The node signs submitted transactions with the
// material it is handed, so no signing logic lives in the gateway.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chaingate.org/internal/ledger"
)

const defaultTimeout = 10 * time.Second

// Client speaks JSON-RPC 2.0 to a broadcaster node.
type Client struct {
	url  string
	http *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (useful for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the given node URL with sensible defaults.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:  url,
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ledger.Client = (*Client)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      int                 `json:"id"`
	Result  json.RawMessage     `json:"result"`
	Error   *ledger.RemoteError `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ledger.ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ledger.ErrUnavailable, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %v", ledger.ErrUnavailable, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// GetAccounts resolves accounts by name. Names the node does not know are
// simply absent from the result.
func (c *Client) GetAccounts(ctx context.Context, names []string) ([]ledger.Account, error) {
	var accounts []ledger.Account
	if err := c.call(ctx, "condenser_api.get_accounts", [][]string{names}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Broadcast submits a finished operation batch for signing and inclusion.
func (c *Client) Broadcast(ctx context.Context, ops []ledger.Operation, signing ledger.SigningMaterial) (ledger.TxResult, error) {
	pairs := make([][]any, 0, len(ops))
	for _, op := range ops {
		pairs = append(pairs, []any{op.Type, op.Params})
	}
	params := map[string]any{
		"trx": map[string]any{
			"operations": pairs,
			"extensions": []any{},
		},
		"keys": signingKeys(signing),
	}
	var result ledger.TxResult
	if err := c.call(ctx, "network_broadcast_api.broadcast_transaction_synchronous", params, &result); err != nil {
		return ledger.TxResult{}, err
	}
	return result, nil
}

// CreateAccount asks the node to broadcast an account creation funded and
// delegated by the configured creator.
func (c *Client) CreateAccount(ctx context.Context, account ledger.NewAccount, signing ledger.SigningMaterial) (ledger.TxResult, error) {
	params := map[string]any{
		"account": account,
		"keys":    signingKeys(signing),
	}
	var result ledger.TxResult
	if err := c.call(ctx, "network_broadcast_api.create_account_with_delegation", params, &result); err != nil {
		return ledger.TxResult{}, err
	}
	return result, nil
}

func signingKeys(signing ledger.SigningMaterial) []string {
	var keys []string
	if signing.Posting != "" {
		keys = append(keys, signing.Posting)
	}
	if signing.Active != "" {
		keys = append(keys, signing.Active)
	}
	return keys
}
