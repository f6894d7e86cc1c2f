package postgres

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"orderdesk/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// stalePendingAfter is how long a pending key may stay unfinished before it is reclaimed.
const stalePendingAfter = time.Minute

// IdempotencyRecord stores the result of an idempotent operation.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  int               `db:"response_status"`
	ContentType string            `db:"response_content_type"`
	UpdatedAt   time.Time         `db:"updated_at"`
	Inserted    bool              `db:"inserted"`
}

// IdempotencyReplay is a stored HTTP response.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps Idempotency-Key records for mutating requests
// such as payment recording.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl}
}

// AcquireKey claims key for a request.
// It returns (nil, nil) when the caller owns the key and must process the
// request, a replay when the operation already finished, or a Conflict when
// the key is in flight or was used for a different request.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := time.Now().UTC()

	var rec IdempotencyRecord
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING idempotency_key, user_id, operation, status, request_hash,
		          COALESCE(response, ''::bytea), COALESCE(response_status, 0),
		          COALESCE(response_content_type, ''), updated_at, (xmax = 0)
	`, key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&rec.Key, &rec.UserID, &rec.Operation, &rec.Status, &rec.RequestHash,
		&rec.Response, &rec.StatusCode, &rec.ContentType, &rec.UpdatedAt, &rec.Inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}

	return s.resolve(ctx, rec, userID, operation, requestHash, now)
}

func (s *IdempotencyStore) resolve(ctx context.Context, rec IdempotencyRecord, userID, operation, requestHash string, now time.Time) (*IdempotencyReplay, error) {
	if rec.Inserted {
		return nil, nil
	}

	if rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash {
		return nil, apperror.NewConflict("idempotency key was used for a different request").
			WithDetail("key", rec.Key)
	}

	switch rec.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return replayOf(rec), nil
	case IdempotencyStatusPending:
		if now.Sub(rec.UpdatedAt) <= stalePendingAfter {
			return nil, apperror.NewConflict("request with this idempotency key is in progress").
				WithDetail("key", rec.Key)
		}
		if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
			UPDATE sys_idempotency SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3
		`, now, rec.Key, IdempotencyStatusPending); err != nil {
			return nil, fmt.Errorf("reclaim stale key: %w", err)
		}
		return nil, nil
	}
	return nil, nil
}

func replayOf(rec IdempotencyRecord) *IdempotencyReplay {
	r := &IdempotencyReplay{StatusCode: rec.StatusCode, ContentType: rec.ContentType, Body: rec.Response}
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	if r.ContentType == "" {
		r.ContentType = "application/json"
	}
	return r
}

// CompleteKey stores the response of a finished operation.
// Responses with status >= 500 are stored as failed so that clients see the same outcome on retry.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	status := IdempotencyStatusSuccess
	if statusCode >= http.StatusInternalServerError {
		status = IdempotencyStatusFailed
	}

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1, response = $2, response_status = $3, response_content_type = $4, updated_at = $5
		WHERE idempotency_key = $6
	`, status, body, statusCode, contentType, time.Now().UTC(), key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// ReleaseKey forgets a key whose request was rejected before doing any work,
// so the client may retry with a corrected body.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2
	`, key, IdempotencyStatusPending)
	return err
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
