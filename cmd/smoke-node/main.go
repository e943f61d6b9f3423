// Command smoke-node probes the configured broadcaster node: it resolves a
// known account and prints its signing keys. Useful as a deployment smoke
// check before pointing the gateway at a node.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"chaingate.org/internal/ledger/remote"
)

func main() {
	url := os.Getenv("CHAINGATE_NODE_URL")
	if url == "" {
		url = "https://api.steemit.com"
	}
	account := "steemit"
	if len(os.Args) > 1 {
		account = os.Args[1]
	}

	client := remote.New(url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accounts, err := client.GetAccounts(ctx, []string{account})
	if err != nil {
		log.Fatalf("get account %s from %s: %v", account, url, err)
	}
	if len(accounts) == 0 {
		log.Fatalf("account %s not found on %s", account, url)
	}

	acc := accounts[0]
	fmt.Printf("node OK: %s\n", url)
	fmt.Printf("account: %s\n", acc.Name)
	for _, role := range []string{"owner", "active", "posting", "memo"} {
		if key, ok := acc.PublicKeyForRole(role); ok {
			fmt.Printf("  %-7s %s\n", role, key)
		}
	}
}
