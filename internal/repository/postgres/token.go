package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-ops-api/internal/repository"
)

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(base BaseRepository) repository.TokenRepository {
	return &tokenRepository{base}
}

func (r *tokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, token, userID, expiry, time.Now()); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (r *tokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT user_id FROM password_reset_tokens
		WHERE token = $1 AND expires_at > $2 AND used_at IS NULL
	`
	var userID uuid.UUID
	if err := r.db.GetContext(ctx, &userID, query, token, time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, repository.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to validate reset token: %w", err)
	}
	return userID, nil
}

func (r *tokenRepository) InvalidateResetToken(ctx context.Context, token string) error {
	query := `UPDATE password_reset_tokens SET used_at = $1 WHERE token = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), token); err != nil {
		return fmt.Errorf("failed to invalidate reset token: %w", err)
	}
	return nil
}
