package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/zusplus/zusplus/internal/idp/domain"
)

type sessionsRepo struct {
	q dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, aal, amr, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.AAL, strings.Join(s.AMR, " "),
		s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	return err
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, aal, amr, created_at, expires_at, revoked_at
		FROM sessions WHERE id = ?`, id)

	var s domain.Session
	var amr string
	err := row.Scan(&s.ID, &s.UserID, &s.AAL, &amr, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.AMR = strings.Fields(amr)
	return s, nil
}

func (r *sessionsRepo) PromoteSession(ctx context.Context, id string, amr []string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE sessions SET aal = ?, amr = ?
		WHERE id = ? AND revoked_at IS NULL`,
		domain.AAL2, strings.Join(amr, " "), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
