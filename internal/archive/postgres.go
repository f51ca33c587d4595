package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jordan/resume-tailor/internal/extraction"
)

// emptyNotNil keeps pgx from writing NULL into NOT NULL text[] columns.
func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Postgres is the durable Store backed by a single jobs table.
type Postgres struct {
	pool *pgxpool.Pool
}

// schema is applied on connect. The table is owned entirely by this tool, so
// idempotent creation here replaces a migration step.
const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id                uuid PRIMARY KEY,
    url               text NOT NULL UNIQUE,
    status            text NOT NULL DEFAULT 'scraped',
    company           text NOT NULL DEFAULT '',
    role              text NOT NULL DEFAULT '',
    location          text NOT NULL DEFAULT '',
    work_type         text NOT NULL DEFAULT '',
    requirements      text[] NOT NULL DEFAULT '{}',
    nice_to_have      text[] NOT NULL DEFAULT '{}',
    experience_years  text NOT NULL DEFAULT '',
    salary            text NOT NULL DEFAULT '',
    short_description text NOT NULL DEFAULT '',
    artifacts         text[] NOT NULL DEFAULT '{}',
    scraped_at        timestamptz NOT NULL DEFAULT NOW(),
    applied_at        timestamptz,
    updated_at        timestamptz NOT NULL DEFAULT NOW()
)`

// ConnectPostgres opens a connection pool, verifies it, and ensures the jobs
// table exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure jobs table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const recordColumns = `id, url, status, company, role, location, work_type,
       requirements, nice_to_have, experience_years, salary, short_description,
       artifacts, scraped_at, applied_at, updated_at`

func scanRecord(row pgx.Row) (*ApplicationRecord, error) {
	var rec ApplicationRecord
	err := row.Scan(&rec.ID, &rec.URL, &rec.Status, &rec.Fields.Company,
		&rec.Fields.Role, &rec.Fields.Location, &rec.Fields.WorkType,
		&rec.Fields.Requirements, &rec.Fields.NiceToHave,
		&rec.Fields.ExperienceYears, &rec.Fields.Salary,
		&rec.Fields.ShortDescription, &rec.Artifacts, &rec.ScrapedAt,
		&rec.AppliedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertJobPosting inserts or updates the row for input.URL in one statement.
// Empty incoming values never overwrite stored ones, artifact names are
// unioned, and the status column is left alone so an applied record stays
// applied across re-scrapes.
func (p *Postgres) UpsertJobPosting(ctx context.Context, input *UpsertInput) (*ApplicationRecord, error) {
	fields := mergeFields(extraction.JobFields{}, input.Fields)

	row := p.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, url, company, role, location, work_type,
		                   requirements, nice_to_have, experience_years, salary,
		                   short_description, artifacts)
		 VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (url) DO UPDATE SET
		     company = COALESCE(NULLIF(EXCLUDED.company, ''), jobs.company),
		     role = COALESCE(NULLIF(EXCLUDED.role, ''), jobs.role),
		     location = COALESCE(NULLIF(EXCLUDED.location, ''), jobs.location),
		     work_type = COALESCE(NULLIF(EXCLUDED.work_type, ''), jobs.work_type),
		     requirements = CASE WHEN cardinality(EXCLUDED.requirements) > 0
		                         THEN EXCLUDED.requirements ELSE jobs.requirements END,
		     nice_to_have = CASE WHEN cardinality(EXCLUDED.nice_to_have) > 0
		                         THEN EXCLUDED.nice_to_have ELSE jobs.nice_to_have END,
		     experience_years = COALESCE(NULLIF(EXCLUDED.experience_years, ''), jobs.experience_years),
		     salary = COALESCE(NULLIF(EXCLUDED.salary, ''), jobs.salary),
		     short_description = COALESCE(NULLIF(EXCLUDED.short_description, ''), jobs.short_description),
		     artifacts = (SELECT COALESCE(array_agg(DISTINCT a), '{}')
		                  FROM unnest(jobs.artifacts || EXCLUDED.artifacts) AS a),
		     updated_at = NOW()
		 RETURNING `+recordColumns,
		input.URL, fields.Company, fields.Role, fields.Location, fields.WorkType,
		emptyNotNil(fields.Requirements), emptyNotNil(fields.NiceToHave),
		fields.ExperienceYears, fields.Salary, fields.ShortDescription,
		emptyNotNil(input.Artifacts),
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert job posting: %w", err)
	}
	return rec, nil
}

func (p *Postgres) GetRecord(ctx context.Context, url string) (*ApplicationRecord, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM jobs WHERE url = $1`, url)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// MarkApplied flips status in one guarded UPDATE. COALESCE on applied_at
// keeps the original timestamp when the record is already applied.
func (p *Postgres) MarkApplied(ctx context.Context, url string) (*ApplicationRecord, error) {
	row := p.pool.QueryRow(ctx,
		`UPDATE jobs SET status = 'applied',
		        applied_at = COALESCE(applied_at, NOW()),
		        updated_at = NOW()
		 WHERE url = $1 AND company <> '' AND role <> ''
		 RETURNING `+recordColumns, url)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark applied: %w", err)
	}

	// No row matched the guard. Tell the caller which precondition failed.
	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE url = $1)`, url,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to mark applied: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrNoMetadata
}

func (p *Postgres) ListRecords(ctx context.Context, limit int) ([]ApplicationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM jobs ORDER BY scraped_at DESC, url`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []ApplicationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func (p *Postgres) ClearAll(ctx context.Context) ([]string, error) {
	var artifacts []string
	err := p.pool.QueryRow(ctx,
		`WITH removed AS (DELETE FROM jobs RETURNING artifacts)
		 SELECT COALESCE(array_agg(DISTINCT a), '{}')
		 FROM removed, unnest(removed.artifacts) AS a`,
	).Scan(&artifacts)
	if err != nil {
		return nil, fmt.Errorf("failed to clear archive: %w", err)
	}
	return artifacts, nil
}
