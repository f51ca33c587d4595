// Package archive persists one application record per job posting URL and
// tracks its progress from scraped to applied.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jordan/resume-tailor/internal/extraction"
)

// Status is the lifecycle state of an application record.
type Status string

const (
	StatusScraped Status = "scraped"
	StatusApplied Status = "applied"
)

// ApplicationRecord is the archived state for one job posting, keyed by URL.
type ApplicationRecord struct {
	ID        uuid.UUID            `json:"id"`
	URL       string               `json:"url"`
	Status    Status               `json:"status"`
	Fields    extraction.JobFields `json:"fields"`
	Artifacts []string             `json:"artifacts,omitempty"`
	ScrapedAt time.Time            `json:"scraped_at"`
	AppliedAt *time.Time           `json:"applied_at,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// HasMetadata reports whether the record carries enough extracted fields to
// identify the application (company and role at minimum).
func (r *ApplicationRecord) HasMetadata() bool {
	return r.Fields.Company != "" && r.Fields.Role != ""
}

// UpsertInput is the payload for UpsertJobPosting. Fields and Artifacts are
// both optional: absent fields never erase previously stored ones, and
// artifact names are merged into the existing set.
type UpsertInput struct {
	URL       string
	Fields    *extraction.JobFields
	Artifacts []string
}

// Store is the archive persistence contract. Implementations must make
// operations on the same URL serializable: a repeated upsert for a URL
// updates the existing record in place and never creates a duplicate.
type Store interface {
	// UpsertJobPosting creates the record for input.URL on first call and
	// updates it on subsequent calls. Re-upserting an applied record keeps
	// it applied.
	UpsertJobPosting(ctx context.Context, input *UpsertInput) (*ApplicationRecord, error)

	// GetRecord returns the record for the URL, or ErrNotFound.
	GetRecord(ctx context.Context, url string) (*ApplicationRecord, error)

	// MarkApplied transitions the record to StatusApplied. Unknown URL
	// returns ErrNotFound; a record without company/role metadata returns
	// ErrNoMetadata. Marking an already applied record is a no-op that
	// returns the record unchanged.
	MarkApplied(ctx context.Context, url string) (*ApplicationRecord, error)

	// ListRecords returns records newest first. limit <= 0 means no limit.
	ListRecords(ctx context.Context, limit int) ([]ApplicationRecord, error)

	// Count returns the number of archived records.
	Count(ctx context.Context) (int, error)

	// ClearAll removes every record and returns the artifact names the
	// removed records referenced, so the caller can delete the files.
	ClearAll(ctx context.Context) ([]string, error)

	Close()
}

// mergeArtifacts appends names from add that existing does not already hold,
// preserving insertion order.
func mergeArtifacts(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(add))
	for _, name := range existing {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, name)
	}
	for _, name := range add {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, name)
	}
	return merged
}

// mergeFields overlays non-empty values from update onto base. Empty update
// values leave the stored value untouched.
func mergeFields(base extraction.JobFields, update *extraction.JobFields) extraction.JobFields {
	if update == nil {
		return base
	}
	if update.Company != "" {
		base.Company = update.Company
	}
	if update.Role != "" {
		base.Role = update.Role
	}
	if update.Location != "" {
		base.Location = update.Location
	}
	if update.WorkType != "" {
		base.WorkType = update.WorkType
	}
	if len(update.Requirements) > 0 {
		base.Requirements = update.Requirements
	}
	if len(update.NiceToHave) > 0 {
		base.NiceToHave = update.NiceToHave
	}
	if update.ExperienceYears != "" {
		base.ExperienceYears = update.ExperienceYears
	}
	if update.Salary != "" {
		base.Salary = update.Salary
	}
	if update.ShortDescription != "" {
		base.ShortDescription = update.ShortDescription
	}
	return base
}
