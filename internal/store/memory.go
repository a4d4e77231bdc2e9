package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/agentic-research/yomitran/internal/note"
)

type memRecord struct {
	schema string
	fields map[string]string
	tags   map[string]struct{}
	raw    any
}

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	schemas []note.Schema
	records map[int64]*memRecord
	// tagIndex maps a tag to the IDs of the records carrying it.
	tagIndex map[string]*roaring64.Bitmap
	nextID   int64
}

func NewMemoryStore(schemas ...note.Schema) *MemoryStore {
	return &MemoryStore{
		schemas:  slices.Clone(schemas),
		records:  make(map[int64]*memRecord),
		tagIndex: make(map[string]*roaring64.Bitmap),
		nextID:   1,
	}
}

func (s *MemoryStore) Schemas(_ context.Context) ([]note.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.schemas), nil
}

func (s *MemoryStore) AddSchema(_ context.Context, sc note.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.schemas {
		if existing.ID == sc.ID {
			s.schemas[i] = sc
			return nil
		}
	}
	s.schemas = append(s.schemas, sc)
	return nil
}

func (s *MemoryStore) AddSource(_ context.Context, rec *note.Source) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := rec.ID
	if id == 0 {
		id = s.nextID
	}
	if _, dup := s.records[id]; dup {
		return 0, fmt.Errorf("record %d already exists", id)
	}
	s.put(id, rec.Schema, rec.Fields, rec.Tags, rec.Raw)
	return id, nil
}

// put stores a record. Callers hold the write lock.
func (s *MemoryStore) put(id int64, schema string, fields map[string]string, tags []string, raw any) {
	r := &memRecord{
		schema: schema,
		fields: maps.Clone(fields),
		tags:   make(map[string]struct{}),
		raw:    raw,
	}
	if r.fields == nil {
		r.fields = make(map[string]string)
	}
	s.records[id] = r
	s.tag(id, tags...)
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

func (s *MemoryStore) tag(id int64, tags ...string) {
	r := s.records[id]
	for _, t := range tags {
		if t == "" {
			continue
		}
		r.tags[t] = struct{}{}
		bm, ok := s.tagIndex[t]
		if !ok {
			bm = roaring64.New()
			s.tagIndex[t] = bm
		}
		bm.Add(uint64(id))
	}
}

func (s *MemoryStore) source(id int64, r *memRecord) *note.Source {
	tags := make([]string, 0, len(r.tags))
	for t := range r.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return &note.Source{ID: id, Schema: r.schema, Fields: maps.Clone(r.fields), Tags: tags, Raw: r.raw}
}

func (s *MemoryStore) FindSources(ctx context.Context, q Query) ([]*note.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.records))
	for id, r := range s.records {
		if q.Schema == "" || r.schema == q.Schema {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	excluded := s.tagIndex[q.ExcludeTag]
	var out []*note.Source
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if q.ExcludeTag != "" && excluded != nil && excluded.Contains(uint64(id)) {
			continue
		}
		out = append(out, s.source(id, s.records[id]))
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*note.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return s.source(id, r), nil
}

func (s *MemoryStore) CreateTarget(_ context.Context, t *note.Target) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(t)
}

func (s *MemoryStore) create(t *note.Target) (int64, error) {
	if !s.hasSchema(t.Schema) {
		return 0, fmt.Errorf("create target: schema %q: %w", t.Schema, ErrNotFound)
	}
	id := s.nextID
	s.put(id, t.Schema, t.Fields, t.AllTags(), nil)
	return id, nil
}

func (s *MemoryStore) hasSchema(id string) bool {
	for _, sc := range s.schemas {
		if sc.ID == id {
			return true
		}
	}
	return false
}

func (s *MemoryStore) AppendTags(_ context.Context, id int64, tags ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("append tags to %d: %w", id, ErrNotFound)
	}
	s.tag(id, tags...)
	return nil
}

func (s *MemoryStore) SetField(_ context.Context, id int64, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("set field on %d: %w", id, ErrNotFound)
	}
	r.fields[field] = value
	return nil
}

// Commit creates t and marks its source under one lock.
func (s *MemoryStore) Commit(_ context.Context, t *note.Target, m Mark) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.records[m.SourceID]
	if !ok {
		return 0, fmt.Errorf("commit: source %d: %w", m.SourceID, ErrNotFound)
	}
	id, err := s.create(t)
	if err != nil {
		return 0, err
	}
	s.tag(m.SourceID, m.Tags...)
	if cur, has := src.fields[m.BacklinkField]; has && m.BacklinkField != "" {
		src.fields[m.BacklinkField] = note.AppendLink(cur, note.Link(m.BacklinkLabel, id))
	}
	return id, nil
}

// Tagged returns the IDs of the records carrying tag, in order.
func (s *MemoryStore) Tagged(tag string) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bm, ok := s.tagIndex[tag]
	if !ok {
		return nil
	}
	out := make([]int64, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int64(it.Next()))
	}
	return out
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
