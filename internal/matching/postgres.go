// internal/matching/postgres.go

package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/skillswap/skillswap-backend/internal/geo"
)

const defaultPoolLimit = 100

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

type profileRow struct {
	ID            int64           `db:"id"`
	Username      string          `db:"username"`
	DisplayName   string          `db:"display_name"`
	Lat           sql.NullFloat64 `db:"lat"`
	Lng           sql.NullFloat64 `db:"lng"`
	Availability  sql.NullString  `db:"availability"`
	RatingAverage sql.NullFloat64 `db:"rating_average"`
	RatingCount   sql.NullInt64   `db:"rating_count"`
}

func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	query := `
        SELECT u.id, u.username, u.display_name, u.lat, u.lng, u.availability,
               rt.average AS rating_average, rt.count AS rating_count
        FROM users u
        LEFT JOIN user_ratings rt ON rt.user_id = u.id
        WHERE u.id = $1`

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	profile := row.toProfile()

	if err := r.loadSkills(ctx, []*Profile{profile}); err != nil {
		return nil, err
	}

	blocked, err := r.loadBlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.BlockedIDs = blocked

	return profile, nil
}

func (r *postgresRepository) FindCandidates(ctx context.Context, actorID int64, filters *CandidateFilters) ([]*Profile, error) {
	limit := defaultPoolLimit
	if filters != nil && filters.Limit > 0 && filters.Limit < defaultPoolLimit {
		limit = filters.Limit
	}

	query := `
        SELECT u.id, u.username, u.display_name, u.lat, u.lng, u.availability,
               rt.average AS rating_average, rt.count AS rating_count
        FROM users u
        LEFT JOIN user_ratings rt ON rt.user_id = u.id
        WHERE u.id != $1 AND u.is_active = true`
	args := []interface{}{actorID}

	if filters != nil && filters.Availability != "" {
		args = append(args, filters.Availability)
		query += ` AND u.availability = $2`
	}

	query += ` ORDER BY u.last_active DESC`

	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	rows := []profileRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	profiles := make([]*Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].toProfile())
	}

	if err := r.loadSkills(ctx, profiles); err != nil {
		return nil, err
	}

	if filters != nil && filters.Search != "" {
		profiles = filterBySkillSearch(profiles, filters.Search)
	}

	return profiles, nil
}

// loadSkills attaches teach/learn skill lists to every profile in one query.
func (r *postgresRepository) loadSkills(ctx context.Context, profiles []*Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	byID := make(map[int64]*Profile, len(profiles))
	ids := make([]int64, 0, len(profiles))
	for _, p := range profiles {
		p.TeachSkills = []Skill{}
		p.LearnSkills = []string{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query := `
        SELECT user_id, kind, tag, COALESCE(level, '') AS level
        FROM user_skills
        WHERE user_id = ANY($1)
        ORDER BY user_id, tag`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var kind, tag, level string
		if err := rows.Scan(&userID, &kind, &tag, &level); err != nil {
			continue
		}
		p, ok := byID[userID]
		if !ok {
			continue
		}
		switch kind {
		case "teach":
			p.TeachSkills = append(p.TeachSkills, Skill{Tag: tag, Level: level})
		case "learn":
			p.LearnSkills = append(p.LearnSkills, tag)
		}
	}
	return rows.Err()
}

func (r *postgresRepository) loadBlockedIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	query := `SELECT blocked_user_id FROM blocked_users WHERE user_id = $1`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}

	blocked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		blocked[id] = true
	}
	return blocked, nil
}

func (row *profileRow) toProfile() *Profile {
	p := &Profile{
		ID:          row.ID,
		Username:    row.Username,
		DisplayName: row.DisplayName,
	}
	if row.Lat.Valid && row.Lng.Valid {
		p.Location = &geo.Point{Lat: row.Lat.Float64, Lng: row.Lng.Float64}
	}
	if row.Availability.Valid && row.Availability.String != "" {
		availability := row.Availability.String
		p.Availability = &availability
	}
	if row.RatingAverage.Valid {
		p.Rating = &Rating{
			Average: row.RatingAverage.Float64,
			Count:   int(row.RatingCount.Int64),
		}
	}
	return p
}

func filterBySkillSearch(profiles []*Profile, search string) []*Profile {
	matched := profiles[:0]
	for _, p := range profiles {
		if profileMentionsSkill(p, search) {
			matched = append(matched, p)
		}
	}
	return matched
}

// profileMentionsSkill reports whether any teach or learn tag contains the
// search term, case-insensitive.
func profileMentionsSkill(p *Profile, search string) bool {
	needle := strings.ToLower(search)
	for _, s := range p.TeachSkills {
		if strings.Contains(strings.ToLower(s.Tag), needle) {
			return true
		}
	}
	for _, tag := range p.LearnSkills {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
