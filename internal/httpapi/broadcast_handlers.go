package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"chaingate.org/internal/audit"
	"chaingate.org/internal/gateway"
	"chaingate.org/internal/ledger"
	"chaingate.org/internal/obs"
)

type broadcastRequest struct {
	Operations []gateway.OperationRequest `json:"operations"`
}

type broadcastResponse struct {
	Success bool            `json:"success"`
	Result  ledger.TxResult `json:"result"`
}

func (a *API) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	session, ok := a.session(w, r)
	if !ok {
		return
	}

	var req broadcastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}

	result, err := a.gateway.Broadcast(r.Context(), session, req.Operations)
	if err != nil {
		a.handleBroadcastError(w, r, err)
		return
	}

	obs.BroadcastsTotal.WithLabelValues("ok").Inc()
	_ = audit.LogEvent(r.Context(), "gateway.broadcast", map[string]any{
		"operations": len(req.Operations),
		"tx_id":      result.ID,
		"block_num":  strconv.FormatUint(uint64(result.BlockNum), 10),
	})
	writeJSON(w, http.StatusOK, broadcastResponse{Success: true, Result: result})
}

func (a *API) handleBroadcastError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		scopeErr  *gateway.ScopeError
		authErr   *gateway.AuthorshipError
		valErr    *gateway.ValidationError
		remoteErr *ledger.RemoteError
	)
	switch {
	case errors.Is(err, gateway.ErrEmptyBatch):
		obs.BroadcastsTotal.WithLabelValues("validation").Inc()
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, "operations are required")
	case errors.Is(err, gateway.ErrUnknownOperation):
		obs.BroadcastsTotal.WithLabelValues("validation").Inc()
		writeError(w, r, http.StatusBadRequest, errInvalidRequest, err.Error())
	case errors.As(err, &valErr):
		obs.BroadcastsTotal.WithLabelValues("validation").Inc()
		writeFieldErrors(w, r, valErr.Type, valErr.Fields)
	case errors.As(err, &scopeErr):
		obs.BroadcastsTotal.WithLabelValues("scope").Inc()
		_ = audit.LogEvent(r.Context(), "gateway.broadcast.scope_denied", map[string]any{
			"invalid_types": scopeErr.InvalidTypes,
		})
		writeError(w, r, http.StatusUnauthorized, errInvalidScope, scopeErr.Error())
	case errors.As(err, &authErr):
		obs.BroadcastsTotal.WithLabelValues("authorship").Inc()
		_ = audit.LogEvent(r.Context(), "gateway.broadcast.authorship_denied", nil)
		writeError(w, r, http.StatusUnauthorized, errUnauthorizedClient, authErr.Error())
	case errors.As(err, &remoteErr):
		obs.BroadcastsTotal.WithLabelValues("remote").Inc()
		writeError(w, r, http.StatusInternalServerError, errServerError, remoteErr.Error())
	case errors.Is(err, ledger.ErrUnavailable):
		obs.BroadcastsTotal.WithLabelValues("remote").Inc()
		writeError(w, r, http.StatusServiceUnavailable, errUnavailable, "ledger node unavailable")
	default:
		obs.BroadcastsTotal.WithLabelValues("remote").Inc()
		writeError(w, r, http.StatusInternalServerError, errServerError, "internal error")
	}
}
