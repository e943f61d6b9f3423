// Package pg persists gateway state: registration rate windows, registered
// apps, issued tokens and per-app user metadata.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"chaingate.org/internal/ratelimit"
)

var (
	// ErrAppNotFound marks a client_id with no registered app.
	ErrAppNotFound = errors.New("pg: app not found")
)

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// EnsureSchema creates the gateway tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`create table if not exists rate_windows(
			key text primary key,
			uses jsonb not null default '[]',
			updated_at timestamptz not null default now()
		)`,
		`create table if not exists apps(
			client_id text primary key,
			owner text not null,
			created_at timestamptz not null default now()
		)`,
		`create table if not exists tokens(
			jti text primary key,
			username text not null,
			client_id text not null default '',
			issued_at timestamptz not null default now(),
			expires_at timestamptz not null
		)`,
		`create table if not exists user_metadata(
			username text not null,
			client_id text not null,
			metadata text not null default '{}',
			updated_at timestamptz not null default now(),
			primary key (username, client_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// App is one registered OAuth client.
type App struct {
	ClientID  string
	Owner     string
	CreatedAt time.Time
}

// FindApp looks a registered app up by client id.
func (s *Store) FindApp(ctx context.Context, clientID string) (App, error) {
	var app App
	err := s.db.QueryRowContext(ctx, `
		select client_id, owner, created_at from apps where client_id=$1
	`, clientID).Scan(&app.ClientID, &app.Owner, &app.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return App{}, ErrAppNotFound
	}
	if err != nil {
		return App{}, err
	}
	return app, nil
}

// RecordToken stores one issued token so it can be revoked later.
func (s *Store) RecordToken(ctx context.Context, jti, username, clientID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tokens(jti, username, client_id, expires_at)
		values ($1,$2,$3,$4)
		on conflict (jti) do nothing
	`, jti, username, clientID, expiresAt)
	return err
}

// RevokeTokens deletes the recorded tokens for a user. An empty clientID
// revokes every token of the user; otherwise only the tokens issued through
// that app. Returns how many tokens were revoked.
func (s *Store) RevokeTokens(ctx context.Context, username, clientID string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if clientID == "" {
		res, err = s.db.ExecContext(ctx, `delete from tokens where username=$1`, username)
	} else {
		res, err = s.db.ExecContext(ctx, `delete from tokens where username=$1 and client_id=$2`, username, clientID)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeAppTokens deletes every recorded token issued through one app,
// regardless of which user holds it. Callers must verify app ownership
// first. Returns how many tokens were revoked.
func (s *Store) RevokeAppTokens(ctx context.Context, clientID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from tokens where client_id=$1`, clientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UserMetadata returns the stored metadata blob for (username, clientID).
// A missing row is an empty object, not an error.
func (s *Store) UserMetadata(ctx context.Context, username, clientID string) (string, error) {
	var metadata string
	err := s.db.QueryRowContext(ctx, `
		select metadata from user_metadata where username=$1 and client_id=$2
	`, username, clientID).Scan(&metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return "{}", nil
	}
	if err != nil {
		return "", err
	}
	return metadata, nil
}

// UpdateUserMetadata upserts the metadata blob for (username, clientID).
func (s *Store) UpdateUserMetadata(ctx context.Context, username, clientID, metadata string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_metadata(username, client_id, metadata, updated_at)
		values ($1,$2,$3,now())
		on conflict (username, client_id) do update
		set metadata = excluded.metadata, updated_at = now()
	`, username, clientID, metadata)
	return err
}

// RateWindows exposes the rate_windows table as a limiter store.
func (s *Store) RateWindows() ratelimit.Store {
	return &rateWindowStore{db: s.db}
}

// rateWindowStore keeps each key's use timestamps as a JSON array of unix
// milliseconds, newest last.
type rateWindowStore struct {
	db *sql.DB
}

func (w *rateWindowStore) Get(ctx context.Context, key string) (ratelimit.Record, bool, error) {
	var raw []byte
	err := w.db.QueryRowContext(ctx, `select uses from rate_windows where key=$1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ratelimit.Record{}, false, nil
	}
	if err != nil {
		return ratelimit.Record{}, false, err
	}
	var millis []int64
	if err := json.Unmarshal(raw, &millis); err != nil {
		return ratelimit.Record{}, false, fmt.Errorf("decode rate window for %q: %w", key, err)
	}
	uses := make([]time.Time, 0, len(millis))
	for _, ms := range millis {
		uses = append(uses, time.UnixMilli(ms))
	}
	return ratelimit.Record{Key: key, Uses: uses}, true, nil
}

func (w *rateWindowStore) Put(ctx context.Context, record ratelimit.Record) error {
	millis := make([]int64, 0, len(record.Uses))
	for _, t := range record.Uses {
		millis = append(millis, t.UnixMilli())
	}
	raw, err := json.Marshal(millis)
	if err != nil {
		return fmt.Errorf("encode rate window for %q: %w", record.Key, err)
	}
	_, err = w.db.ExecContext(ctx, `
		insert into rate_windows(key, uses, updated_at)
		values ($1,$2,now())
		on conflict (key) do update
		set uses = excluded.uses, updated_at = now()
	`, record.Key, raw)
	return err
}
