// internal/waves/repository.go

package waves

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrWaveNotFound = errors.New("wave not found")

type Repository interface {
	Create(ctx context.Context, wave *Wave) error
	GetByID(ctx context.Context, id int64) (*Wave, error)
	// ActiveByUsers returns unexpired waves authored by any of the given
	// users, newest first.
	ActiveByUsers(ctx context.Context, userIDs []int64, limit int) ([]*Wave, error)
	Delete(ctx context.Context, id, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, wave *Wave) error {
	query := `
        INSERT INTO waves (user_id, content, skill_tag, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		wave.UserID, wave.Content, wave.SkillTag, wave.CreatedAt, wave.ExpiresAt,
	).Scan(&wave.ID)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Wave, error) {
	query := `
        SELECT id, user_id, content, skill_tag, created_at, expires_at
        FROM waves
        WHERE id = $1 AND expires_at > $2`

	var wave Wave
	if err := r.db.GetContext(ctx, &wave, query, id, time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWaveNotFound
		}
		return nil, err
	}
	return &wave, nil
}

func (r *postgresRepository) ActiveByUsers(ctx context.Context, userIDs []int64, limit int) ([]*Wave, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
        SELECT id, user_id, content, skill_tag, created_at, expires_at
        FROM waves
        WHERE user_id = ANY($1) AND expires_at > $2
        ORDER BY created_at DESC
        LIMIT $3`

	waves := []*Wave{}
	if err := r.db.SelectContext(ctx, &waves, query, pq.Array(userIDs), time.Now(), limit); err != nil {
		return nil, err
	}
	return waves, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM waves WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWaveNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM waves WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
