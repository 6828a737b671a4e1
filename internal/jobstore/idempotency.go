package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/esrp/kernel/internal/protocol"
)

// PutResponse caches resp under key, to be returned verbatim (modulo the
// original request_id) to any later request presenting the same
// idempotency key within the retention window. Per spec §4.2, servers
// synthesizing a key from the payload hash MUST cache the mapping for at
// least mode.timeout_ms; Store.config.IdempotencyRetention is this store's
// chosen window.
func (s *Store) PutResponse(ctx context.Context, key string, requestID string, resp *protocol.Response, now time.Time) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("jobstore: marshal cached response: %w", err)
	}

	expiresAt := now.Add(s.config.IdempotencyRetention)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO idempotency_cache (idempotency_key, request_id, response, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING
	`,
		key, requestID, string(body),
		now.UTC().Format(time.RFC3339Nano), expiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("jobstore: put cached response: %w", err)
	}
	return nil
}

// GetResponse returns the cached response for key, if present and not
// expired. The second return value reports whether a live entry was found.
func (s *Store) GetResponse(ctx context.Context, key string, now time.Time) (*protocol.Response, bool, error) {
	var body, expiresAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT response, expires_at FROM idempotency_cache WHERE idempotency_key = ?
	`, key).Scan(&body, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("jobstore: get cached response: %w", err)
	}

	expiry, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return nil, false, fmt.Errorf("jobstore: parse cache expiry: %w", err)
	}
	if now.After(expiry) {
		return nil, false, nil
	}

	var resp protocol.Response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, false, fmt.Errorf("jobstore: unmarshal cached response: %w", err)
	}
	return &resp, true, nil
}

// PruneExpired deletes idempotency cache rows whose expiry has passed as of
// now, returning the number of rows removed. Callers run this periodically;
// the kernel itself never calls it implicitly.
func (s *Store) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM idempotency_cache WHERE expires_at <= ?
	`, now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("jobstore: prune expired cache entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("jobstore: prune rows affected: %w", err)
	}
	return n, nil
}
