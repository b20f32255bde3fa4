package sqlite

import (
	"context"
	"time"

	"github.com/zusplus/zusplus/internal/idp/domain"
)

type factorsRepo struct {
	q dbtx
}

func (r *factorsRepo) GetFactorByID(ctx context.Context, id string) (domain.Factor, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, friendly_name, secret, status, created_at, updated_at, verified_at
		FROM factors WHERE id = ?`, id)
	return scanFactor(row)
}

func (r *factorsRepo) ListVerifiedFactors(ctx context.Context, userID string) ([]domain.Factor, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, friendly_name, secret, status, created_at, updated_at, verified_at
		FROM factors
		WHERE user_id = ? AND status = ?
		ORDER BY created_at ASC`, userID, domain.FactorStatusVerified)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var factors []domain.Factor
	for rows.Next() {
		f, err := scanFactor(rows)
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

func (r *factorsRepo) CreateFactor(ctx context.Context, f domain.Factor) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO factors (id, user_id, friendly_name, secret, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.FriendlyName, f.Secret, domain.FactorStatusUnverified, now, now)
	return err
}

func (r *factorsRepo) MarkFactorVerified(ctx context.Context, factorID string) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx, `
		UPDATE factors SET status = ?, verified_at = ?, updated_at = ?
		WHERE id = ?`, domain.FactorStatusVerified, now, now, factorID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *factorsRepo) DeleteUnverifiedFactors(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM factors WHERE user_id = ? AND status = ?`,
		userID, domain.FactorStatusUnverified)
	return err
}

func scanFactor(row rowScanner) (domain.Factor, error) {
	var f domain.Factor
	err := row.Scan(&f.ID, &f.UserID, &f.FriendlyName, &f.Secret, &f.Status,
		&f.CreatedAt, &f.UpdatedAt, &f.VerifiedAt)
	if err != nil {
		return domain.Factor{}, mapNotFound(err)
	}
	return f, nil
}
