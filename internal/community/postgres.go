// internal/community/postgres.go

package community

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/skillswap/skillswap-backend/internal/geo"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

type communityRow struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Lat         sql.NullFloat64 `db:"lat"`
	Lng         sql.NullFloat64 `db:"lng"`
	IsPublic    bool            `db:"is_public"`
	MemberCount int             `db:"member_count"`
	CreatedBy   int64           `db:"created_by"`
	CreatedAt   time.Time       `db:"created_at"`
	IsMember    bool            `db:"is_member"`
}

func (r *postgresRepository) Create(ctx context.Context, c *Community) error {
	query := `
        INSERT INTO communities (name, description, lat, lng, is_public, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`

	var lat, lng interface{}
	if c.Location != nil {
		lat, lng = c.Location.Lat, c.Location.Lng
	}

	c.CreatedAt = time.Now()
	if err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Description, lat, lng, c.IsPublic, c.CreatedBy, c.CreatedAt,
	).Scan(&c.ID); err != nil {
		return err
	}

	// Creator joins automatically.
	return r.AddMember(ctx, c.ID, c.CreatedBy)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Community, error) {
	query := `
        SELECT c.id, c.name, COALESCE(c.description, '') AS description,
               c.lat, c.lng, c.is_public, c.created_by, c.created_at,
               (SELECT COUNT(*) FROM community_members m WHERE m.community_id = c.id) AS member_count,
               false AS is_member
        FROM communities c
        WHERE c.id = $1`

	var row communityRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommunityNotFound
		}
		return nil, err
	}
	return row.toCommunity(), nil
}

func (r *postgresRepository) ListActive(ctx context.Context, userID int64, limit int) ([]*Community, error) {
	query := `
        SELECT c.id, c.name, COALESCE(c.description, '') AS description,
               c.lat, c.lng, c.is_public, c.created_by, c.created_at,
               (SELECT COUNT(*) FROM community_members m WHERE m.community_id = c.id) AS member_count,
               EXISTS(
                   SELECT 1 FROM community_members m
                   WHERE m.community_id = c.id AND m.user_id = $1
               ) AS is_member
        FROM communities c
        WHERE c.is_public = true
           OR EXISTS(
               SELECT 1 FROM community_members m
               WHERE m.community_id = c.id AND m.user_id = $1
           )
        ORDER BY c.created_at DESC
        LIMIT $2`

	rows := []communityRow{}
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, err
	}

	communities := make([]*Community, 0, len(rows))
	for i := range rows {
		communities = append(communities, rows[i].toCommunity())
	}
	return communities, nil
}

func (r *postgresRepository) AddMember(ctx context.Context, communityID, userID int64) error {
	query := `
        INSERT INTO community_members (community_id, user_id, joined_at)
        VALUES ($1, $2, CURRENT_TIMESTAMP)
        ON CONFLICT (community_id, user_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, communityID, userID)
	return err
}

func (r *postgresRepository) RemoveMember(ctx context.Context, communityID, userID int64) error {
	query := `DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, communityID, userID)
	return err
}

func (row *communityRow) toCommunity() *Community {
	c := &Community{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		IsPublic:    row.IsPublic,
		MemberCount: row.MemberCount,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		IsMember:    row.IsMember,
	}
	if row.Lat.Valid && row.Lng.Valid {
		c.Location = &geo.Point{Lat: row.Lat.Float64, Lng: row.Lng.Float64}
	}
	return c
}
