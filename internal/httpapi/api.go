package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"chaingate.org/internal/auth"
	"chaingate.org/internal/config"
	"chaingate.org/internal/gateway"
	"chaingate.org/internal/ledger"
	"chaingate.org/internal/obs"
	"chaingate.org/internal/ratelimit"
	"chaingate.org/internal/store/pg"
)

// ReadyProbe — readiness check backed by the metadata database when present.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// TokenStore persists issued tokens so they can be revoked.
type TokenStore interface {
	RecordToken(ctx context.Context, jti, username, clientID string, expiresAt time.Time) error
	RevokeTokens(ctx context.Context, username, clientID string) (int64, error)
	RevokeAppTokens(ctx context.Context, clientID string) (int64, error)
}

// AppStore resolves registered apps, for ownership checks on app-wide
// revocation.
type AppStore interface {
	FindApp(ctx context.Context, clientID string) (pg.App, error)
}

// MetadataStore keeps the per-app user metadata blob.
type MetadataStore interface {
	UserMetadata(ctx context.Context, username, clientID string) (string, error)
	UpdateUserMetadata(ctx context.Context, username, clientID, metadata string) error
}

// API — HTTP layer over the broadcast gateway.
type API struct {
	mux        *http.ServeMux
	gateway    *gateway.Service
	ledger     ledger.Client
	readyProbe ReadyProbe
	version    string

	limiter     *ratelimit.Limiter
	creator     config.Creator
	signing     ledger.SigningMaterial
	tokens      TokenStore
	apps        AppStore
	metadata    MetadataStore
	metadataCap int
	tokenTTL    time.Duration

	rateBurst     int
	ratePerSecond int
}

// Option configures the API.
type Option func(*API)

// WithRegistration wires the account-creation flow: the sliding-window
// limiter and the creator account paying the fee.
func WithRegistration(limiter *ratelimit.Limiter, creator config.Creator) Option {
	return func(a *API) {
		a.limiter = limiter
		a.creator = creator
	}
}

// WithSigningMaterial sets the broadcaster keys used for account creation.
func WithSigningMaterial(signing ledger.SigningMaterial) Option {
	return func(a *API) { a.signing = signing }
}

// WithTokenStore enables token recording and revocation.
func WithTokenStore(tokens TokenStore) Option {
	return func(a *API) { a.tokens = tokens }
}

// WithAppStore enables app-wide revocation by the app's owner.
func WithAppStore(apps AppStore) Option {
	return func(a *API) { a.apps = apps }
}

// WithMetadataStore enables per-app user metadata on /api/me.
func WithMetadataStore(metadata MetadataStore, maxSize int) Option {
	return func(a *API) {
		a.metadata = metadata
		a.metadataCap = maxSize
	}
}

// WithTokenTTL overrides the lifetime of tokens minted by the login
// challenge.
func WithTokenTTL(ttl time.Duration) Option {
	return func(a *API) {
		if ttl > 0 {
			a.tokenTTL = ttl
		}
	}
}

// WithRateLimit tunes the per-IP token bucket in front of every endpoint.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		a.rateBurst = burst
		a.ratePerSecond = perSecond
	}
}

func New(gw *gateway.Service, lc ledger.Client, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:           http.NewServeMux(),
		gateway:       gw,
		ledger:        lc,
		readyProbe:    rp,
		version:       version,
		metadataCap:   10240,
		tokenTTL:      7 * 24 * time.Hour,
		rateBurst:     20,
		ratePerSecond: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// gateway surface
	a.mux.HandleFunc("/api/broadcast", a.handleBroadcast)
	a.mux.HandleFunc("/api/me", a.handleMe)
	a.mux.HandleFunc("/api/login/challenge", a.handleLoginChallenge)
	a.mux.HandleFunc("/api/register", a.handleRegister)
	a.mux.HandleFunc("/api/token/revoke/", a.handleTokenRevoke)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "chaingate-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// session pulls the authenticated session or replies 401.
func (a *API) session(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, errInvalidGrant, "authentication required")
		return auth.Session{}, false
	}
	return session, true
}
