package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chaingate.org/internal/audit"
	"chaingate.org/internal/auth"
	"chaingate.org/internal/ids"
	"chaingate.org/internal/ledger"
	"chaingate.org/internal/obs"
	"chaingate.org/internal/store/pg"
)

type meResponse struct {
	User         string          `json:"user"`
	Name         string          `json:"name"`
	Account      ledger.Account  `json:"account"`
	Scope        []string        `json:"scope"`
	UserMetadata json.RawMessage `json:"user_metadata,omitempty"`
}

type updateMeRequest struct {
	UserMetadata json.RawMessage `json:"user_metadata"`
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
		a.showMe(w, r)
	case http.MethodPut:
		a.updateMe(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut)
	}
}

func (a *API) showMe(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(w, r)
	if !ok {
		return
	}
	account, ok := a.lookupAccount(w, r, session.User)
	if !ok {
		return
	}

	resp := meResponse{
		User:    session.User,
		Name:    session.User,
		Account: account,
		Scope:   a.gateway.EffectiveScope(session.Scope),
	}
	if a.metadata != nil && session.Proxy != "" {
		metadata, err := a.metadata.UserMetadata(r.Context(), session.User, session.Proxy)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, errServerError, "metadata lookup failed")
			return
		}
		resp.UserMetadata = json.RawMessage(metadata)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(w, r)
	if !ok {
		return
	}
	if a.metadata == nil {
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable, "metadata store not configured")
		return
	}
	if session.Proxy == "" {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "user metadata is stored per app; token has no app")
		return
	}

	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if len(req.UserMetadata) == 0 {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "user_metadata is required")
		return
	}
	if a.metadataCap > 0 && len(req.UserMetadata) > a.metadataCap {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "user_metadata exceeds the size limit")
		return
	}
	if !json.Valid(req.UserMetadata) {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "user_metadata must be valid JSON")
		return
	}

	if err := a.metadata.UpdateUserMetadata(r.Context(), session.User, session.Proxy, string(req.UserMetadata)); err != nil {
		writeError(w, r, http.StatusInternalServerError, errServerError, "metadata update failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "gateway.metadata.update", map[string]any{
		"size": len(req.UserMetadata),
	})
	a.showMe(w, r)
}

type challengeRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type challengeResponse struct {
	Username  string `json:"username"`
	Token     string `json:"token"`
	PublicKey string `json:"public_key"`
	Challenge string `json:"challenge"`
}

// handleLoginChallenge mints a user token and returns the public key the
// client must prove ownership of, plus a one-time challenge nonce.
func (a *API) handleLoginChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	switch r.Method {
	case http.MethodGet:
		req.Username = strings.TrimSpace(r.URL.Query().Get("username"))
		req.Role = strings.TrimSpace(r.URL.Query().Get("role"))
	case http.MethodPost:
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, errInvalidRequest, err.Error())
			return
		}
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	if req.Username == "" {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "username is required")
		return
	}
	if req.Role == "" {
		req.Role = "memo"
	}

	account, ok := a.lookupAccount(w, r, req.Username)
	if !ok {
		return
	}
	publicKey, ok := account.PublicKeyForRole(req.Role)
	if !ok {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "account has no key for role "+req.Role)
		return
	}

	token, err := auth.GenerateToken(req.Username, "", auth.RoleUser, nil, a.tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errServerError, "token issuance failed")
		return
	}
	a.recordToken(r, token)

	writeJSON(w, http.StatusOK, challengeResponse{
		Username:  req.Username,
		Token:     token,
		PublicKey: publicKey,
		Challenge: ids.New(),
	})
}

// recordToken persists the minted token for later revocation. Best effort;
// issuance never fails because the store is down.
func (a *API) recordToken(r *http.Request, token string) {
	if a.tokens == nil {
		return
	}
	claims, err := auth.ParseAndValidate(token)
	if err != nil {
		return
	}
	_ = a.tokens.RecordToken(r.Context(), claims.ID, claims.Subject, claims.Proxy, claims.ExpiresAt.Time)
}

type registerRequest struct {
	Name         string           `json:"name"`
	Owner        ledger.Authority `json:"owner"`
	Active       ledger.Authority `json:"active"`
	Posting      ledger.Authority `json:"posting"`
	MemoKey      string           `json:"memo_key"`
	JSONMetadata string           `json:"json_metadata"`
}

// handleRegister creates a ledger account through the configured creator,
// gated by the sliding-window limiter keyed on client IP. The use is recorded
// only after the creation succeeded; denied or failed attempts do not burn
// quota.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.limiter == nil || a.creator.Username == "" {
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable, "registration is not configured")
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(strings.ToLower(req.Name))
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "name is required")
		return
	}
	if req.MemoKey == "" {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "memo_key is required")
		return
	}

	key := clientIP(r)
	admitted, err := a.limiter.Admit(r.Context(), key)
	if err != nil {
		obs.RegistrationDeniedTotal.Inc()
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable, "registration temporarily unavailable")
		return
	}
	if !admitted {
		obs.RegistrationDeniedTotal.Inc()
		_ = audit.LogEvent(r.Context(), "gateway.register.denied", map[string]any{
			"name": req.Name, "key": key,
		})
		writeError(w, r, http.StatusTooManyRequests, errInvalidRequest, "registration limit reached for this address")
		return
	}

	account := ledger.NewAccount{
		Creator:      a.creator.Username,
		Fee:          a.creator.Fee,
		Delegation:   a.creator.Delegation,
		Name:         req.Name,
		Owner:        req.Owner,
		Active:       req.Active,
		Posting:      req.Posting,
		MemoKey:      req.MemoKey,
		JSONMetadata: req.JSONMetadata,
	}
	result, err := a.ledger.CreateAccount(r.Context(), account, a.signing)
	if err != nil {
		a.handleLedgerError(w, r, err)
		return
	}

	if err := a.limiter.RecordUse(r.Context(), key); err != nil {
		obs.LogRequest(map[string]any{
			"level": "error",
			"msg":   "record registration use failed",
			"key":   key,
			"error": err.Error(),
		})
	}
	obs.RegistrationsTotal.Inc()
	_ = audit.LogEvent(r.Context(), "gateway.register", map[string]any{
		"name": req.Name, "creator": a.creator.Username,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"result":  result,
	})
}

type revokeResponse struct {
	Success bool  `json:"success"`
	Revoked int64 `json:"revoked"`
}

// handleTokenRevoke serves /api/token/revoke/{type}/{clientId?}. Type "user"
// revokes the session user's tokens, optionally narrowed to one app. Type
// "app" revokes every token issued through the app, across all users, and is
// reserved for the app's owner.
func (a *API) handleTokenRevoke(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(w, r)
	if !ok {
		return
	}
	if a.tokens == nil {
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable, "token store not configured")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/token/revoke/")
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	var clientID string
	if len(parts) == 2 {
		clientID = parts[1]
	}

	var (
		n   int64
		err error
	)
	switch parts[0] {
	case "user":
		n, err = a.tokens.RevokeTokens(r.Context(), session.User, clientID)
	case "app":
		if clientID == "" {
			clientID = session.Proxy
		}
		if clientID == "" {
			writeError(w, r, http.StatusBadRequest, errInvalidRequest, "client id is required")
			return
		}
		if !a.requireAppOwner(w, r, session, clientID) {
			return
		}
		n, err = a.tokens.RevokeAppTokens(r.Context(), clientID)
	default:
		writeError(w, r, http.StatusNotFound, errInvalidRequest, "unknown revocation type")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errServerError, "revocation failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "gateway.token.revoke", map[string]any{
		"type": parts[0], "client_id": clientID, "revoked": n,
	})
	writeJSON(w, http.StatusOK, revokeResponse{Success: true, Revoked: n})
}

// requireAppOwner verifies the session user owns the app, writing the error
// response otherwise. App-wide revocation touches other users' tokens, so it
// never proceeds without the ownership check.
func (a *API) requireAppOwner(w http.ResponseWriter, r *http.Request, session auth.Session, clientID string) bool {
	if a.apps == nil {
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable, "app registry not configured")
		return false
	}
	app, err := a.apps.FindApp(r.Context(), clientID)
	if errors.Is(err, pg.ErrAppNotFound) {
		writeError(w, r, http.StatusNotFound, errInvalidRequest, "unknown app")
		return false
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errServerError, "app lookup failed")
		return false
	}
	if app.Owner != session.User {
		writeError(w, r, http.StatusForbidden, errUnauthorizedClient, "only the app owner can revoke its tokens")
		return false
	}
	return true
}

// lookupAccount resolves one account or writes the error response.
func (a *API) lookupAccount(w http.ResponseWriter, r *http.Request, name string) (ledger.Account, bool) {
	accounts, err := a.ledger.GetAccounts(r.Context(), []string{name})
	if err != nil {
		a.handleLedgerError(w, r, err)
		return ledger.Account{}, false
	}
	for _, account := range accounts {
		if account.Name == name {
			return account, true
		}
	}
	writeError(w, r, http.StatusNotFound, errInvalidRequest, "account not found")
	return ledger.Account{}, false
}

func (a *API) handleLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	var remoteErr *ledger.RemoteError
	switch {
	case errors.As(err, &remoteErr):
		writeError(w, r, http.StatusInternalServerError, errServerError, remoteErr.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, r, http.StatusNotFound, errInvalidRequest, "account not found")
	case errors.Is(err, ledger.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable, "ledger node unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, errServerError, "internal error")
	}
}
