package sqlite

import (
	"context"
	"time"

	"github.com/zusplus/zusplus/internal/idp/domain"
)

type challengesRepo struct {
	q dbtx
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO challenges (id, factor_id, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.FactorID, c.UserID, c.CreatedAt.UTC(), c.ExpiresAt.UTC())
	return err
}

func (r *challengesRepo) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, factor_id, user_id, created_at, expires_at, used_at
		FROM challenges WHERE id = ?`, id)

	var c domain.Challenge
	err := row.Scan(&c.ID, &c.FactorID, &c.UserID, &c.CreatedAt, &c.ExpiresAt, &c.UsedAt)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return c, nil
}

// ConsumeChallenge flips used_at exactly once. The `used_at IS NULL` filter
// makes the first caller win and every replay fail with ErrNotFound.
func (r *challengesRepo) ConsumeChallenge(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE challenges SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM challenges WHERE expires_at < ?`, time.Now().UTC())
	return err
}
