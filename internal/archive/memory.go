package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and by runs without a
// database. Records for different URLs can be written concurrently; writes
// to the same URL are serialized by a per-URL lock.
type Memory struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	records map[string]*ApplicationRecord

	now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		locks:   make(map[string]*sync.Mutex),
		records: make(map[string]*ApplicationRecord),
		now:     time.Now,
	}
}

// lockURL acquires the per-URL lock and returns its release func.
func (m *Memory) lockURL(url string) func() {
	m.mu.Lock()
	l, ok := m.locks[url]
	if !ok {
		l = &sync.Mutex{}
		m.locks[url] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (m *Memory) get(url string) *ApplicationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[url]
}

func (m *Memory) put(rec *ApplicationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.URL] = rec
}

// copyRecord returns a detached copy so callers cannot mutate stored state.
func copyRecord(rec *ApplicationRecord) *ApplicationRecord {
	out := *rec
	out.Artifacts = append([]string(nil), rec.Artifacts...)
	out.Fields.Requirements = append([]string(nil), rec.Fields.Requirements...)
	out.Fields.NiceToHave = append([]string(nil), rec.Fields.NiceToHave...)
	if rec.AppliedAt != nil {
		applied := *rec.AppliedAt
		out.AppliedAt = &applied
	}
	return &out
}

func (m *Memory) UpsertJobPosting(ctx context.Context, input *UpsertInput) (*ApplicationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := m.lockURL(input.URL)
	defer unlock()

	now := m.now()
	rec := m.get(input.URL)
	if rec == nil {
		rec = &ApplicationRecord{
			ID:        uuid.New(),
			URL:       input.URL,
			Status:    StatusScraped,
			ScrapedAt: now,
		}
	}
	rec.Fields = mergeFields(rec.Fields, input.Fields)
	rec.Artifacts = mergeArtifacts(rec.Artifacts, input.Artifacts)
	rec.UpdatedAt = now
	m.put(rec)
	return copyRecord(rec), nil
}

func (m *Memory) GetRecord(ctx context.Context, url string) (*ApplicationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := m.get(url)
	if rec == nil {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (m *Memory) MarkApplied(ctx context.Context, url string) (*ApplicationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := m.lockURL(url)
	defer unlock()

	rec := m.get(url)
	if rec == nil {
		return nil, ErrNotFound
	}
	if rec.Status == StatusApplied {
		return copyRecord(rec), nil
	}
	if !rec.HasMetadata() {
		return nil, ErrNoMetadata
	}
	now := m.now()
	rec.Status = StatusApplied
	rec.AppliedAt = &now
	rec.UpdatedAt = now
	m.put(rec)
	return copyRecord(rec), nil
}

func (m *Memory) ListRecords(ctx context.Context, limit int) ([]ApplicationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	all := make([]*ApplicationRecord, 0, len(m.records))
	for _, rec := range m.records {
		all = append(all, rec)
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].ScrapedAt.Equal(all[j].ScrapedAt) {
			return all[i].ScrapedAt.After(all[j].ScrapedAt)
		}
		return all[i].URL < all[j].URL
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]ApplicationRecord, 0, len(all))
	for _, rec := range all {
		out = append(out, *copyRecord(rec))
	}
	return out, nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *Memory) ClearAll(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var artifacts []string
	for _, rec := range m.records {
		artifacts = mergeArtifacts(artifacts, rec.Artifacts)
	}
	m.records = make(map[string]*ApplicationRecord)
	sort.Strings(artifacts)
	return artifacts, nil
}

func (m *Memory) Close() {}
