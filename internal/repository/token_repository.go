package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/zapgroups/admin-api/internal/model"
)

// TokenRepo persists refresh-token records. Rows are revoked, never deleted,
// so the table doubles as a session audit trail.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Insert stores a new refresh-token record.
func (r *TokenRepo) Insert(ctx context.Context, rec model.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, ip_address, user_agent) VALUES (?,?,?,?,?)",
		rec.UserID, rec.TokenHash, rec.ExpiresAt, nullable(rec.IPAddress), nullable(rec.UserAgent))
	return err
}

// ActiveByUser returns the user's non-revoked, non-expired records, newest
// first. The presented raw token is verified against these hashes by the
// caller; salted hashes cannot serve as lookup keys.
func (r *TokenRepo) ActiveByUser(ctx context.Context, userID uint64, now time.Time) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked, ip_address, user_agent, created_at "+
			"FROM refresh_tokens WHERE user_id=? AND revoked=0 AND expires_at > ? ORDER BY created_at DESC",
		userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.RefreshToken
	for rows.Next() {
		var (
			rec       model.RefreshToken
			ipAddress sql.NullString
			userAgent sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt,
			&rec.Revoked, &ipAddress, &userAgent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.IPAddress = ipAddress.String
		rec.UserAgent = userAgent.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Rotate revokes every active record for the user and inserts the successor
// in one transaction. A concurrent refresh racing on the same account finds
// no active record once this commits.
func (r *TokenRepo) Rotate(ctx context.Context, userID uint64, next model.RefreshToken) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, ip_address, user_agent) VALUES (?,?,?,?,?)",
		next.UserID, next.TokenHash, next.ExpiresAt, nullable(next.IPAddress), nullable(next.UserAgent)); err != nil {
		return err
	}
	return tx.Commit()
}

// RevokeAll marks every record for the user revoked. Idempotent.
func (r *TokenRepo) RevokeAll(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	return err
}
