package operation

import "context"

// Role is the signing authority an operation requires.
type Role string

const (
	RolePosting Role = "posting"
	RoleActive  Role = "active"
	RoleOwner   Role = "owner"
)

// ValidateHook runs operation-specific semantic checks after the required
// field pass, appending to the accumulated errors. Hooks may perform I/O
// (account lookups) and must run to completion before the result is used.
type ValidateHook func(ctx context.Context, params Params, errs []FieldError) ([]FieldError, error)

// NormalizeHook rewrites the author-defaulted params before broadcast.
type NormalizeHook func(ctx context.Context, params Params) (Params, error)

// WireHook converts a custom operation's friendly params into the payload
// its mapped base type actually broadcasts.
type WireHook func(params Params) (Params, error)

// Schema describes one operation type: its canonical snake_case name, its
// ordered parameter list, the signing authority it needs, and which
// parameter path names the account that must match the authenticated user.
// Custom schemas additionally name the base type they broadcast as.
type Schema struct {
	Name           string
	Params         []string
	Role           Role
	AuthorPath     string
	OptionalFields []string
	MappedType     string

	Validate  ValidateHook
	Normalize NormalizeHook
	Wire      WireHook
}

// IsCustom reports whether the schema is layered on top of a base type.
func (s Schema) IsCustom() bool { return s.MappedType != "" }

func (s Schema) isOptional(param string) bool {
	for _, f := range s.OptionalFields {
		if f == param {
			return true
		}
	}
	return false
}

// baseSchemas is the broadcast operation set native to the ledger protocol.
// Author paths follow the protocol's authority rules: the named account is
// the one whose key signs the operation.
func baseSchemas() []Schema {
	return []Schema{
		{
			Name:       "vote",
			Params:     []string{"voter", "author", "permlink", "weight"},
			Role:       RolePosting,
			AuthorPath: "voter",
			Validate:   validateVoteWeight,
		},
		{
			Name:           "comment",
			Params:         []string{"parent_author", "parent_permlink", "author", "permlink", "title", "body", "json_metadata"},
			Role:           RolePosting,
			AuthorPath:     "author",
			OptionalFields: []string{"parent_author", "permlink", "title", "json_metadata"},
			Normalize:      normalizeComment,
		},
		{
			Name:           "comment_options",
			Params:         []string{"author", "permlink", "max_accepted_payout", "percent_steem_dollars", "allow_votes", "allow_curation_rewards", "extensions"},
			Role:           RolePosting,
			AuthorPath:     "author",
			OptionalFields: []string{"extensions"},
		},
		{
			Name:       "delete_comment",
			Params:     []string{"author", "permlink"},
			Role:       RolePosting,
			AuthorPath: "author",
		},
		{
			Name:           "transfer",
			Params:         []string{"from", "to", "amount", "memo"},
			Role:           RoleActive,
			AuthorPath:     "from",
			OptionalFields: []string{"memo"},
			Validate:       validateAssetFields("amount"),
		},
		{
			Name:       "transfer_to_vesting",
			Params:     []string{"from", "to", "amount"},
			Role:       RoleActive,
			AuthorPath: "from",
			Validate:   validateAssetFields("amount"),
		},
		{
			Name:       "withdraw_vesting",
			Params:     []string{"account", "vesting_shares"},
			Role:       RoleActive,
			AuthorPath: "account",
			Validate:   validateAssetFields("vesting_shares"),
		},
		{
			Name:       "delegate_vesting_shares",
			Params:     []string{"delegator", "delegatee", "vesting_shares"},
			Role:       RoleActive,
			AuthorPath: "delegator",
			Validate:   validateAssetFields("vesting_shares"),
		},
		{
			Name:           "claim_reward_balance",
			Params:         []string{"account", "reward_steem", "reward_sbd", "reward_vests"},
			Role:           RolePosting,
			AuthorPath:     "account",
			OptionalFields: []string{"reward_steem", "reward_sbd", "reward_vests"},
		},
		{
			Name:           "account_create",
			Params:         []string{"fee", "creator", "new_account_name", "owner", "active", "posting", "memo_key", "json_metadata"},
			Role:           RoleActive,
			AuthorPath:     "creator",
			OptionalFields: []string{"json_metadata"},
			Validate:       validateAssetFields("fee"),
		},
		{
			Name:           "account_update",
			Params:         []string{"account", "owner", "active", "posting", "memo_key", "json_metadata"},
			Role:           RoleActive,
			AuthorPath:     "account",
			OptionalFields: []string{"owner", "active", "posting", "memo_key", "json_metadata"},
		},
		{
			Name:       "account_witness_vote",
			Params:     []string{"account", "witness", "approve"},
			Role:       RoleActive,
			AuthorPath: "account",
			// OptionalFields covers approve: false means "unvote".
			OptionalFields: []string{"approve"},
		},
		{
			Name:           "account_witness_proxy",
			Params:         []string{"account", "proxy"},
			Role:           RoleActive,
			AuthorPath:     "account",
			OptionalFields: []string{"proxy"},
		},
		{
			Name:           "witness_update",
			Params:         []string{"owner", "url", "block_signing_key", "props", "fee"},
			Role:           RoleActive,
			AuthorPath:     "owner",
			OptionalFields: []string{"url"},
			Validate:       validateAssetFields("fee"),
		},
		{
			Name:           "custom_json",
			Params:         []string{"required_auths", "required_posting_auths", "id", "json"},
			Role:           RolePosting,
			AuthorPath:     "required_posting_auths.0",
			OptionalFields: []string{"required_auths", "required_posting_auths"},
			Validate:       validateCustomJSON,
		},
		{
			Name:           "escrow_transfer",
			Params:         []string{"from", "to", "agent", "escrow_id", "sbd_amount", "steem_amount", "fee", "ratification_deadline", "escrow_expiration", "json_meta"},
			Role:           RoleActive,
			AuthorPath:     "from",
			OptionalFields: []string{"json_meta"},
			Validate:       validateAssetFields("sbd_amount", "steem_amount", "fee"),
		},
	}
}

// customSchemas are gateway-level operation types layered on top of the base
// set. Each broadcasts as its MappedType and inherits that type's signing
// role at resolution time.
func customSchemas() []Schema {
	return []Schema{
		{
			Name:           "follow",
			Params:         []string{"follower", "following", "what"},
			AuthorPath:     "follower",
			OptionalFields: []string{"what"},
			MappedType:     "custom_json",
			Normalize:      normalizeFollowKind("blog"),
			Wire:           followWire("follow", "follower", "following"),
		},
		{
			Name:           "unfollow",
			Params:         []string{"follower", "following", "what"},
			AuthorPath:     "follower",
			OptionalFields: []string{"what"},
			MappedType:     "custom_json",
			Normalize:      normalizeFollowKind(),
			Wire:           followWire("follow", "follower", "following"),
		},
		{
			Name:           "mute",
			Params:         []string{"follower", "following", "what"},
			AuthorPath:     "follower",
			OptionalFields: []string{"what"},
			MappedType:     "custom_json",
			Normalize:      normalizeFollowKind("ignore"),
			Wire:           followWire("follow", "follower", "following"),
		},
		{
			Name:       "reblog",
			Params:     []string{"account", "author", "permlink"},
			AuthorPath: "account",
			MappedType: "custom_json",
			Wire:       reblogWire,
		},
	}
}
