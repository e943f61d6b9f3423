package operation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AccountLookup reports which of the given account names exist on the
// ledger. Wired from the ledger client by the gateway; hooks that need it
// suspend until the lookup completes.
type AccountLookup func(ctx context.Context, names []string) ([]string, error)

// Asset strings look like "1.000 TME" or "1337.455455 SCORE".
var assetRe = regexp.MustCompile(`^[0-9]+\.[0-9]{3,6} [A-Z]{1,7}$`)

const maxCustomJSONIDLength = 32

func validateVoteWeight(_ context.Context, params Params, errs []FieldError) ([]FieldError, error) {
	weight, ok := numericValue(params["weight"])
	if !ok || weight != float64(int64(weight)) || weight < -10000 || weight > 10000 {
		errs = append(errs, FieldError{
			Field:  "weight",
			Error:  ErrKindInvalidWeight,
			Values: map[string]string{"field": "weight"},
		})
	}
	return errs, nil
}

// validateAssetFields checks that every named field, when present, is a
// well-formed asset string. Presence itself is the required-field pass's job.
func validateAssetFields(fields ...string) ValidateHook {
	return func(_ context.Context, params Params, errs []FieldError) ([]FieldError, error) {
		for _, field := range fields {
			v, ok := params[field]
			if !ok || isFalsy(v) {
				continue
			}
			s, isString := v.(string)
			if !isString || !assetRe.MatchString(s) {
				errs = append(errs, FieldError{
					Field:  field,
					Error:  ErrKindInvalidAsset,
					Values: map[string]string{"field": field},
				})
			}
		}
		return errs, nil
	}
}

func validateCustomJSON(_ context.Context, params Params, errs []FieldError) ([]FieldError, error) {
	if id, ok := params["id"].(string); ok && len(id) > maxCustomJSONIDLength {
		errs = append(errs, FieldError{
			Field:  "id",
			Error:  ErrKindInvalidJSON,
			Values: map[string]string{"field": "id"},
		})
	}
	if raw, ok := params["json"].(string); ok && raw != "" {
		if !json.Valid([]byte(raw)) {
			errs = append(errs, FieldError{
				Field:  "json",
				Error:  ErrKindInvalidJSON,
				Values: map[string]string{"field": "json"},
			})
		}
	}
	return errs, nil
}

// witnessExists verifies the voted witness account is known to the ledger.
func witnessExists(lookup AccountLookup) ValidateHook {
	return func(ctx context.Context, params Params, errs []FieldError) ([]FieldError, error) {
		witness, ok := params["witness"].(string)
		if !ok || witness == "" {
			return errs, nil
		}
		existing, err := lookup(ctx, []string{witness})
		if err != nil {
			return errs, fmt.Errorf("witness lookup: %w", err)
		}
		found := false
		for _, name := range existing {
			if name == witness {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, FieldError{
				Field:  "witness",
				Error:  ErrKindAccountMissing,
				Values: map[string]string{"field": "witness", "account": witness},
			})
		}
		return errs, nil
	}
}

// normalizeComment fills a permlink derived from the title when the caller
// omitted one, and defaults json_metadata to an empty object.
func normalizeComment(_ context.Context, params Params) (Params, error) {
	if isFalsy(params["permlink"]) {
		title, _ := params["title"].(string)
		params["permlink"] = permlinkFrom(title)
	}
	if isFalsy(params["json_metadata"]) {
		params["json_metadata"] = "{}"
	}
	return params, nil
}

// normalizeFollowKind defaults the "what" list; follow is ["blog"], mute is
// ["ignore"], unfollow is the empty list.
func normalizeFollowKind(kinds ...string) NormalizeHook {
	return func(_ context.Context, params Params) (Params, error) {
		if _, ok := params["what"]; !ok {
			what := make([]any, 0, len(kinds))
			for _, k := range kinds {
				what = append(what, k)
			}
			params["what"] = what
		}
		return params, nil
	}
}

// followWire wraps follow-plugin params into the custom_json envelope the
// base type broadcasts.
func followWire(tag string, fields ...string) WireHook {
	return func(params Params) (Params, error) {
		payload := make(map[string]any, len(fields)+1)
		for _, f := range fields {
			payload[f] = params[f]
		}
		if what, ok := params["what"]; ok {
			payload["what"] = what
		}
		author, _ := params[fields[0]].(string)
		return customJSONEnvelope(tag, author, payload)
	}
}

func reblogWire(params Params) (Params, error) {
	payload := map[string]any{
		"account":  params["account"],
		"author":   params["author"],
		"permlink": params["permlink"],
	}
	author, _ := params["account"].(string)
	return customJSONEnvelope("reblog", author, payload)
}

func customJSONEnvelope(tag, author string, payload map[string]any) (Params, error) {
	encoded, err := json.Marshal([]any{tag, payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", tag, err)
	}
	return Params{
		"required_auths":         []any{},
		"required_posting_auths": []any{author},
		"id":                     "follow",
		"json":                   string(encoded),
	}, nil
}

func permlinkFrom(title string) string {
	slug := slugify(title)
	if slug == "" {
		return fmt.Sprintf("post-%d", time.Now().UnixNano())
	}
	return slug
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
