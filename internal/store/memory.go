package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend keeps all documents in process memory. With a snapshot
// path it reloads state at open and rewrites the file on every mutation,
// which is plenty for a mock backend's data set.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
	path string
}

func NewMemoryBackend(path string) (*MemoryBackend, error) {
	b := &MemoryBackend{
		data: make(map[string]map[string][]byte),
		path: path,
	}
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store snapshot: %w", err)
	}
	var snapshot map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode store snapshot: %w", err)
	}
	for collection, docs := range snapshot {
		b.data[collection] = make(map[string][]byte, len(docs))
		for id, doc := range docs {
			b.data[collection][id] = []byte(doc)
		}
	}
	return b, nil
}

func (b *MemoryBackend) Insert(_ context.Context, collection, id string, doc []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs := b.data[collection]
	if docs == nil {
		docs = make(map[string][]byte)
		b.data[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return fmt.Errorf("%s/%s already exists", collection, id)
	}
	docs[id] = cloneBytes(doc)
	return b.persistLocked()
}

func (b *MemoryBackend) Get(_ context.Context, collection, id string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	doc, ok := b.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(doc), nil
}

func (b *MemoryBackend) Replace(_ context.Context, collection, id string, doc []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs := b.data[collection]
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	docs[id] = cloneBytes(doc)
	return b.persistLocked()
}

func (b *MemoryBackend) Delete(_ context.Context, collection, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs := b.data[collection]
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	delete(docs, id)
	return b.persistLocked()
}

func (b *MemoryBackend) FindOne(_ context.Context, collection string, filter Filter) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	matched := b.matchLocked(collection, filter)
	if len(matched) == 0 {
		return nil, ErrNotFound
	}
	sortDocs(matched, "")
	return cloneBytes(matched[0].raw), nil
}

func (b *MemoryBackend) Find(_ context.Context, collection string, filter Filter, opts FindOptions) ([][]byte, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	matched := b.matchLocked(collection, filter)
	total := int64(len(matched))
	sortDocs(matched, opts.Sort)

	opts = clampOptions(opts)
	start := (opts.Page - 1) * opts.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([][]byte, 0, end-start)
	for _, d := range matched[start:end] {
		page = append(page, cloneBytes(d.raw))
	}
	return page, total, nil
}

func (b *MemoryBackend) Close() error { return nil }

type memoryDoc struct {
	id     string
	raw    []byte
	fields map[string]any
}

func (b *MemoryBackend) matchLocked(collection string, filter Filter) []memoryDoc {
	var matched []memoryDoc
	for id, raw := range b.data[collection] {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		if !matchesFilter(fields, filter) {
			continue
		}
		matched = append(matched, memoryDoc{id: id, raw: raw, fields: fields})
	}
	return matched
}

func (b *MemoryBackend) persistLocked() error {
	if b.path == "" {
		return nil
	}
	snapshot := make(map[string]map[string]json.RawMessage, len(b.data))
	for collection, docs := range b.data {
		snapshot[collection] = make(map[string]json.RawMessage, len(docs))
		for id, doc := range docs {
			snapshot[collection][id] = json.RawMessage(doc)
		}
	}
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store snapshot: %w", err)
	}
	if err := os.WriteFile(b.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write store snapshot: %w", err)
	}
	return nil
}

func matchesFilter(fields map[string]any, filter Filter) bool {
	for key, want := range filter {
		got, ok := fields[key]
		if !ok {
			return false
		}
		if !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares a decoded JSON value with a filter value supplied
// from Go code, so ints match the float64s JSON decoding produces.
func looseEqual(got, want any) bool {
	if gn, ok := asFloat(got); ok {
		if wn, ok := asFloat(want); ok {
			return gn == wn
		}
		return false
	}
	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	case nil:
		return got == nil
	default:
		return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func sortDocs(docs []memoryDoc, sortField string) {
	desc := strings.HasPrefix(sortField, "-")
	field := strings.TrimPrefix(sortField, "-")
	sort.SliceStable(docs, func(i, j int) bool {
		if field != "" {
			cmp := compareFields(docs[i].fields[field], docs[j].fields[field])
			if desc {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		// Tie-break on id so pagination order is total.
		return docs[i].id < docs[j].id
	})
}

func compareFields(a, b any) int {
	if an, aok := asFloat(a); aok {
		if bn, bok := asFloat(b); bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
