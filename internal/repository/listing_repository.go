package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"raid-recruit/internal/database"
	"raid-recruit/internal/domain/listing"

	"github.com/google/uuid"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

const listingColumns = `id, title, description, owner_id, content_type, content_name, data_center, server,
	roles_needed, schedule, requirements, voice_chat, additional_info, state, application_count, created_at, updated_at`

type PostgresListingRepository struct {
	db database.DB
}

func NewPostgresListingRepository(db database.DB) *PostgresListingRepository {
	return &PostgresListingRepository{db: db}
}

func (r *PostgresListingRepository) Create(ctx context.Context, l listing.Listing) error {
	roles, reqs, err := encodeListingJSON(l)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10,$11::jsonb,$12,$13,$14,$15,$16,$17)`,
		l.ID,
		l.Title,
		l.Description,
		l.OwnerID,
		l.ContentType,
		l.ContentName,
		l.DataCenter,
		l.Server,
		roles,
		nonNilStrings(l.Schedule),
		reqs,
		l.VoiceChat,
		l.AdditionalInfo,
		string(l.State),
		l.ApplicationCount,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error) {
	row := r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if err != nil {
		if database.IsNoRows(err) {
			return listing.Listing{}, listing.ErrNotFound
		}
		return listing.Listing{}, err
	}
	return l, nil
}

// List applies the visibility rule in SQL: public states, or anything the
// viewer owns. It returns the page and the total match count.
func (r *PostgresListingRepository) List(ctx context.Context, f listing.Filter) ([]listing.Listing, int, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	viewer := uuid.Nil
	if f.Viewer != nil {
		viewer = *f.Viewer
	}
	public := make([]string, 0, 2)
	for _, s := range listing.PublicStates() {
		public = append(public, string(s))
	}

	conditions := []string{"(state = ANY($1) OR owner_id = $2)"}
	args := []any{public, viewer}
	argIndex := 3

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
	if ct := strings.TrimSpace(f.ContentType); ct != "" {
		conditions = append(conditions, fmt.Sprintf("lower(content_type) = lower($%d)", argIndex))
		args = append(args, ct)
		argIndex++
	}
	if f.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", argIndex))
		args = append(args, string(f.State))
		argIndex++
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []listing.Listing{}, 0, nil
	}

	query := `SELECT ` + listingColumns + ` FROM listings` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, perPage, (page-1)*perPage)

	items, err := r.queryListings(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresListingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]listing.Listing, error) {
	return r.queryListings(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE owner_id = $1 ORDER BY created_at DESC, id`,
		ownerID,
	)
}

func (r *PostgresListingRepository) ListRecruiting(ctx context.Context, excludeOwner uuid.UUID, limit int) ([]listing.Listing, error) {
	if limit <= 0 {
		limit = 500
	}
	return r.queryListings(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE state = $1 AND owner_id <> $2
		 ORDER BY created_at DESC, id
		 LIMIT $3`,
		string(listing.StateRecruiting), excludeOwner, limit,
	)
}

// Update is a compare-and-set on updated_at, so an edit based on a stale
// read never overwrites a concurrent state change.
func (r *PostgresListingRepository) Update(ctx context.Context, l listing.Listing, prevUpdatedAt time.Time) error {
	roles, reqs, err := encodeListingJSON(l)
	if err != nil {
		return err
	}

	affected, err := r.db.Exec(ctx,
		`UPDATE listings SET
			title = $2,
			description = $3,
			content_type = $4,
			content_name = $5,
			data_center = $6,
			server = $7,
			roles_needed = $8::jsonb,
			schedule = $9,
			requirements = $10::jsonb,
			voice_chat = $11,
			additional_info = $12,
			state = $13,
			updated_at = $14
		 WHERE id = $1 AND updated_at = $15 AND state <> $16`,
		l.ID,
		l.Title,
		l.Description,
		l.ContentType,
		l.ContentName,
		l.DataCenter,
		l.Server,
		roles,
		nonNilStrings(l.Schedule),
		reqs,
		l.VoiceChat,
		l.AdditionalInfo,
		string(l.State),
		l.UpdatedAt,
		prevUpdatedAt,
		string(listing.StateFilled),
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.missingOrStale(ctx, l.ID)
	}
	return nil
}

func (r *PostgresListingRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return listing.ErrNotFound
	}
	return fmt.Errorf("%w: listing changed since it was read", listing.ErrConflict)
}

func (r *PostgresListingRepository) UpdateState(ctx context.Context, id uuid.UUID, st listing.State, updatedAt time.Time) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE listings SET state = $2, updated_at = $3 WHERE id = $1`,
		id, string(st), updatedAt,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// Delete removes the listing and its applications in one transaction.
func (r *PostgresListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM applications WHERE listing_id = $1`, id); err != nil {
			return err
		}
		affected, err := tx.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return listing.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresListingRepository) queryListings(ctx context.Context, query string, args ...any) ([]listing.Listing, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]listing.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanListing(row database.Row) (listing.Listing, error) {
	var (
		l        listing.Listing
		state    string
		rolesRaw []byte
		reqsRaw  []byte
	)
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.OwnerID,
		&l.ContentType,
		&l.ContentName,
		&l.DataCenter,
		&l.Server,
		&rolesRaw,
		&l.Schedule,
		&reqsRaw,
		&l.VoiceChat,
		&l.AdditionalInfo,
		&state,
		&l.ApplicationCount,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return listing.Listing{}, err
	}

	// Stored states are not re-parsed here; the lifecycle rejects unknown ones
	// when they are used.
	l.State = listing.State(state)

	l.RolesNeeded = map[string]int{}
	if len(rolesRaw) > 0 {
		if err := json.Unmarshal(rolesRaw, &l.RolesNeeded); err != nil {
			return listing.Listing{}, fmt.Errorf("decode roles_needed: %w", err)
		}
	}
	l.Requirements = map[string]any{}
	if len(reqsRaw) > 0 {
		if err := json.Unmarshal(reqsRaw, &l.Requirements); err != nil {
			return listing.Listing{}, fmt.Errorf("decode requirements: %w", err)
		}
	}
	if l.Schedule == nil {
		l.Schedule = []string{}
	}
	return l, nil
}

func encodeListingJSON(l listing.Listing) (string, string, error) {
	roles := l.RolesNeeded
	if roles == nil {
		roles = map[string]int{}
	}
	reqs := l.Requirements
	if reqs == nil {
		reqs = map[string]any{}
	}
	rb, err := json.Marshal(roles)
	if err != nil {
		return "", "", fmt.Errorf("encode roles_needed: %w", err)
	}
	qb, err := json.Marshal(reqs)
	if err != nil {
		return "", "", fmt.Errorf("encode requirements: %w", err)
	}
	return string(rb), string(qb), nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
