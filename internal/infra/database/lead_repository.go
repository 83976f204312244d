package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/entity"
)

const uniqueViolation = "23505"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS leads (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	email               TEXT NOT NULL,
	phone               TEXT NOT NULL,
	country_of_interest TEXT NOT NULL,
	program_type        TEXT NOT NULL,
	major               TEXT,
	message             TEXT,
	source              TEXT NOT NULL,
	destination         TEXT,
	target_university   TEXT,
	target_program      TEXT,
	status              TEXT NOT NULL,
	priority            TEXT NOT NULL,
	assigned_to         TEXT,
	notes               TEXT,
	last_contact_at     TIMESTAMPTZ,
	lead_score          INTEGER NOT NULL,
	timeline            JSONB NOT NULL DEFAULT '[]'::jsonb,
	tracking            JSONB NOT NULL DEFAULT '{}'::jsonb,
	day_bucket          TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS leads_email_day_bucket_key ON leads (email, day_bucket);
CREATE INDEX IF NOT EXISTS leads_email_created_at_idx ON leads (email, created_at DESC);
CREATE INDEX IF NOT EXISTS leads_status_idx ON leads (status);
`

type LeadRepository struct {
	DB DB
}

func NewLeadRepository(db DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, schemaSQL); err != nil {
		return eris.Wrap(err, "postgres: ensure schema")
	}
	return nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	lead.PrepareForCreate(time.Now())

	timeline, err := json.Marshal(lead.Timeline)
	if err != nil {
		return eris.Wrap(err, "postgres: encode timeline")
	}
	tracking, err := json.Marshal(lead.Tracking)
	if err != nil {
		return eris.Wrap(err, "postgres: encode tracking")
	}

	query := `
		INSERT INTO leads (
			id, name, email, phone, country_of_interest, program_type,
			major, message, source, destination, target_university, target_program,
			status, priority, assigned_to, notes, last_contact_at, lead_score,
			timeline, tracking, day_bucket, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19::jsonb, $20::jsonb, $21, $22, $23
		)
	`

	_, err = r.DB.Exec(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.CountryOfInterest,
		string(lead.ProgramType),
		nullString(lead.Major),
		nullString(lead.Message),
		lead.Source,
		nullString(lead.Destination),
		nullString(lead.TargetUniversity),
		nullString(lead.TargetProgram),
		string(lead.Status),
		string(lead.Priority),
		nullString(lead.AssignedTo),
		nullString(lead.Notes),
		lead.LastContactAt,
		lead.LeadScore,
		string(timeline),
		string(tracking),
		lead.DayBucket,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return entity.ErrDuplicateLead
		}
		return eris.Wrap(err, "postgres: insert lead")
	}
	return nil
}

func (r *LeadRepository) ExistsByEmailSince(ctx context.Context, email string, since time.Time) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE email = $1 AND created_at >= $2)`,
		email, since,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: check recent lead")
	}
	return exists, nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, name, email, phone, country_of_interest, program_type,
			COALESCE(major, ''), COALESCE(message, ''), source,
			COALESCE(destination, ''), COALESCE(target_university, ''), COALESCE(target_program, ''),
			status, priority, COALESCE(assigned_to, ''), COALESCE(notes, ''), last_contact_at,
			lead_score, timeline, tracking, day_bucket, created_at, updated_at
		FROM leads
		WHERE id = $1
	`

	var (
		lead     entity.Lead
		timeline []byte
		tracking []byte
	)
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.CountryOfInterest,
		&lead.ProgramType,
		&lead.Major,
		&lead.Message,
		&lead.Source,
		&lead.Destination,
		&lead.TargetUniversity,
		&lead.TargetProgram,
		&lead.Status,
		&lead.Priority,
		&lead.AssignedTo,
		&lead.Notes,
		&lead.LastContactAt,
		&lead.LeadScore,
		&timeline,
		&tracking,
		&lead.DayBucket,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find lead %s", id)
	}

	if err := json.Unmarshal(timeline, &lead.Timeline); err != nil {
		return nil, eris.Wrap(err, "postgres: decode timeline")
	}
	if err := json.Unmarshal(tracking, &lead.Tracking); err != nil {
		return nil, eris.Wrap(err, "postgres: decode tracking")
	}
	return &lead, nil
}

// UpdateStatus appends entry to the timeline in the same statement so
// concurrent changes cannot drop each other's entries.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus, entry entity.TimelineEntry) error {
	entryJSON, err := json.Marshal([]entity.TimelineEntry{entry})
	if err != nil {
		return eris.Wrap(err, "postgres: encode timeline entry")
	}

	tag, err := r.DB.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = $2, timeline = timeline || $3::jsonb WHERE id = $4`,
		string(status), entry.Timestamp, string(entryJSON), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
