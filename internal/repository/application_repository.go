package repository

import (
	"context"
	"fmt"
	"time"

	"raid-recruit/internal/database"
	"raid-recruit/internal/domain/application"
	"raid-recruit/internal/domain/listing"

	"github.com/google/uuid"
)

const applicationColumns = `a.id, a.listing_id, a.applicant_id, a.status, a.message, a.availability,
	a.preferred_roles, a.experience, a.created_at, a.updated_at`

type PostgresApplicationRepository struct {
	db database.DB
}

func NewPostgresApplicationRepository(db database.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

// Create inserts the application and bumps the listing's application_count
// in the same transaction. A second application for the same pair is
// rejected with ErrDuplicate by the unique constraint, not by a prior read.
// The bump only matches a recruiting listing, so an apply racing a state
// change rolls back with ErrInvalidState.
func (r *PostgresApplicationRepository) Create(ctx context.Context, a application.Application) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		affected, err := tx.Exec(ctx,
			`INSERT INTO applications (id, listing_id, applicant_id, status, message, availability, preferred_roles, experience, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			 ON CONFLICT (listing_id, applicant_id) DO NOTHING`,
			a.ID,
			a.ListingID,
			a.ApplicantID,
			string(a.Status),
			a.Message,
			nonNilStrings(a.Availability),
			nonNilStrings(a.PreferredRoles),
			a.Experience,
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if affected == 0 {
			return application.ErrDuplicate
		}

		affected, err = tx.Exec(ctx,
			`UPDATE listings SET application_count = application_count + 1 WHERE id = $1 AND state = $2`,
			a.ListingID, string(listing.StateRecruiting),
		)
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: listing stopped recruiting", listing.ErrInvalidState)
		}
		return nil
	})
}

func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (application.Application, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+applicationColumns+`, l.title, COALESCE(NULLIF(u.character_name, ''), u.username)
		 FROM applications a
		 JOIN listings l ON l.id = a.listing_id
		 JOIN users u ON u.id = a.applicant_id
		 WHERE a.id = $1`,
		id,
	)
	a, err := scanApplication(row)
	if err != nil {
		if database.IsNoRows(err) {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, err
	}
	return a, nil
}

func (r *PostgresApplicationRepository) Exists(ctx context.Context, listingID, applicantID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE listing_id = $1 AND applicant_id = $2)`,
		listingID, applicantID,
	).Scan(&exists)
	return exists, err
}

func (r *PostgresApplicationRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]application.Application, error) {
	return r.queryApplications(ctx,
		`SELECT `+applicationColumns+`, l.title, COALESCE(NULLIF(u.character_name, ''), u.username)
		 FROM applications a
		 JOIN listings l ON l.id = a.listing_id
		 JOIN users u ON u.id = a.applicant_id
		 WHERE a.applicant_id = $1
		 ORDER BY a.created_at DESC, a.id`,
		applicantID,
	)
}

func (r *PostgresApplicationRepository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]application.Application, error) {
	return r.queryApplications(ctx,
		`SELECT `+applicationColumns+`, l.title, COALESCE(NULLIF(u.character_name, ''), u.username)
		 FROM applications a
		 JOIN listings l ON l.id = a.listing_id
		 JOIN users u ON u.id = a.applicant_id
		 WHERE a.listing_id = $1
		 ORDER BY a.created_at ASC, a.id`,
		listingID,
	)
}

func (r *PostgresApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, st application.Status, updatedAt time.Time) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(st), updatedAt,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return application.ErrNotFound
	}
	return nil
}

// Delete removes the application and decrements the listing counter,
// never below zero.
func (r *PostgresApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		var listingID uuid.UUID
		err := tx.QueryRow(ctx, `DELETE FROM applications WHERE id = $1 RETURNING listing_id`, id).Scan(&listingID)
		if err != nil {
			if database.IsNoRows(err) {
				return application.ErrNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE listings SET application_count = GREATEST(application_count - 1, 0) WHERE id = $1`,
			listingID,
		)
		return err
	})
}

func (r *PostgresApplicationRepository) queryApplications(ctx context.Context, query string, args ...any) ([]application.Application, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanApplication(row database.Row) (application.Application, error) {
	var (
		a      application.Application
		status string
	)
	err := row.Scan(
		&a.ID,
		&a.ListingID,
		&a.ApplicantID,
		&status,
		&a.Message,
		&a.Availability,
		&a.PreferredRoles,
		&a.Experience,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ListingTitle,
		&a.ApplicantName,
	)
	if err != nil {
		return application.Application{}, err
	}
	a.Status = application.Status(status)
	return a, nil
}
