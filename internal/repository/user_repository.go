package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"raid-recruit/internal/database"
	"raid-recruit/internal/domain/user"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, character_name, server, data_center, bio,
	availability, roles, progression, lodestone_id, lodestone_verified_at, jobs, grand_company, free_company,
	created_at, updated_at`

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u user.User) error {
	prog, err := encodeJSONObject(u.Progression)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, character_name, server, data_center, bio,
			availability, roles, progression, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,$12,$13)`,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.CharacterName,
		u.Server,
		u.DataCenter,
		u.Bio,
		nonNilStrings(u.Availability),
		nonNilStrings(u.Roles),
		prog,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return user.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1))`, username).Scan(&exists)
	return exists, err
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, in user.ProfileUpdate) error {
	sets := make([]string, 0, 8)
	args := []any{id}
	argIndex := 2

	addSet := func(column string, value any, cast string) {
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, argIndex, cast))
		args = append(args, value)
		argIndex++
	}

	if in.CharacterName != nil {
		addSet("character_name", strings.TrimSpace(*in.CharacterName), "")
	}
	if in.Server != nil {
		addSet("server", strings.TrimSpace(*in.Server), "")
	}
	if in.DataCenter != nil {
		addSet("data_center", strings.TrimSpace(*in.DataCenter), "")
	}
	if in.Bio != nil {
		addSet("bio", strings.TrimSpace(*in.Bio), "")
	}
	if in.Availability != nil {
		addSet("availability", in.Availability, "")
	}
	if in.Roles != nil {
		addSet("roles", in.Roles, "")
	}
	if in.Progression != nil {
		prog, err := encodeJSONObject(in.Progression)
		if err != nil {
			return err
		}
		addSet("progression", prog, "::jsonb")
	}
	addSet("updated_at", time.Now().UTC(), "")

	affected, err := r.db.Exec(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`,
		args...,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) SearchPlayers(ctx context.Context, f user.PlayerFilter) ([]user.User, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	conditions := []string{"id <> $1"}
	args := []any{f.ExcludeID}
	argIndex := 2

	if dc := strings.TrimSpace(f.DataCenter); dc != "" {
		conditions = append(conditions, fmt.Sprintf("lower(data_center) = lower($%d)", argIndex))
		args = append(args, dc)
		argIndex++
	}
	if srv := strings.TrimSpace(f.Server); srv != "" {
		conditions = append(conditions, fmt.Sprintf("lower(server) = lower($%d)", argIndex))
		args = append(args, srv)
		argIndex++
	}
	if role := strings.TrimSpace(f.Role); role != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(roles) AS r(name) WHERE lower(r.name) = lower($%d))", argIndex))
		args = append(args, role)
		argIndex++
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY updated_at DESC, id LIMIT $%d", argIndex)
	args = append(args, limit)

	return r.queryUsers(ctx, query, args...)
}

func (r *PostgresUserRepository) SetLodestone(ctx context.Context, id uuid.UUID, c user.LodestoneCharacter) error {
	jobs, err := encodeJSONObject(c.Jobs)
	if err != nil {
		return err
	}
	var verifiedAt *time.Time
	if !c.VerifiedAt.IsZero() {
		v := c.VerifiedAt.UTC()
		verifiedAt = &v
	}

	affected, err := r.db.Exec(ctx,
		`UPDATE users SET
			lodestone_id = $2,
			character_name = $3,
			server = $4,
			data_center = CASE WHEN $5::text = '' THEN data_center ELSE $5::text END,
			jobs = $6::jsonb,
			grand_company = $7,
			free_company = $8,
			lodestone_verified_at = $9,
			updated_at = now()
		 WHERE id = $1`,
		id,
		c.LodestoneID,
		c.CharacterName,
		c.Server,
		c.DataCenter,
		jobs,
		c.GrandCompany,
		c.FreeCompany,
		verifiedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "users_lodestone_id_key") {
			return user.ErrAlreadyExists
		}
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) ClearLodestone(ctx context.Context, id uuid.UUID) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE users SET
			lodestone_id = NULL,
			lodestone_verified_at = NULL,
			jobs = '{}'::jsonb,
			grand_company = '',
			free_company = '',
			updated_at = now()
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) ListLinkedLodestone(ctx context.Context, limit, offset int) ([]user.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return r.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lodestone_id IS NOT NULL
		 ORDER BY lodestone_verified_at ASC NULLS FIRST, id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, args ...any) (user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if database.IsNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]user.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanUser(row database.Row) (user.User, error) {
	var (
		u           user.User
		progRaw     []byte
		jobsRaw     []byte
		lodestoneID *string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CharacterName,
		&u.Server,
		&u.DataCenter,
		&u.Bio,
		&u.Availability,
		&u.Roles,
		&progRaw,
		&lodestoneID,
		&u.LodestoneVerifiedAt,
		&jobsRaw,
		&u.GrandCompany,
		&u.FreeCompany,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	if lodestoneID != nil {
		u.LodestoneID = *lodestoneID
	}

	u.Progression = map[string]any{}
	if len(progRaw) > 0 {
		if err := json.Unmarshal(progRaw, &u.Progression); err != nil {
			return user.User{}, fmt.Errorf("decode progression: %w", err)
		}
	}
	u.Jobs = map[string]int{}
	if len(jobsRaw) > 0 {
		if err := json.Unmarshal(jobsRaw, &u.Jobs); err != nil {
			return user.User{}, fmt.Errorf("decode jobs: %w", err)
		}
	}
	if u.Availability == nil {
		u.Availability = []string{}
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, nil
}

func encodeJSONObject[V any](m map[string]V) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
