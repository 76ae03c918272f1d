// Package store is a small document store with pluggable backends. Records
// are JSON documents grouped into named collections; filters are top-level
// field equality. Backends provide no cross-collection transactions, so
// multi-record updates are sequenced writes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter matches documents whose top-level fields equal the given values.
// Keys are JSON field names.
type Filter map[string]any

// FindOptions control ordering and pagination. Sort names a JSON field;
// a "-" prefix sorts descending. Without Sort, results are ordered by id
// so pagination stays stable.
type FindOptions struct {
	Sort  string
	Page  int
	Limit int
}

// Page is the list envelope: one page of records plus pagination totals.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Backend is the document-level storage contract implemented by the
// memory, postgres and mongo drivers.
type Backend interface {
	Insert(ctx context.Context, collection, id string, doc []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Replace(ctx context.Context, collection, id string, doc []byte) error
	Delete(ctx context.Context, collection, id string) error
	FindOne(ctx context.Context, collection string, filter Filter) ([]byte, error)
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([][]byte, int64, error)
	Close() error
}

// Record is what typed collections store. Validate runs on every Create
// and Save, so malformed records never reach a backend.
type Record interface {
	RecordID() string
	Validate() error
}

// Collection is a typed view over one backend collection.
type Collection[T any] struct {
	backend Backend
	name    string
}

func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{backend: backend, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	raw, err := c.backend.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return c.decode(raw)
}

func (c *Collection[T]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	raw, err := c.backend.FindOne(ctx, c.name, filter)
	if err != nil {
		return nil, err
	}
	return c.decode(raw)
}

func (c *Collection[T]) Create(ctx context.Context, rec *T) error {
	id, doc, err := c.encode(rec)
	if err != nil {
		return err
	}
	return c.backend.Insert(ctx, c.name, id, doc)
}

// Save replaces the stored record wholesale. Callers read, mutate and Save;
// there is no partial patch.
func (c *Collection[T]) Save(ctx context.Context, rec *T) error {
	id, doc, err := c.encode(rec)
	if err != nil {
		return err
	}
	return c.backend.Replace(ctx, c.name, id, doc)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.backend.Delete(ctx, c.name, id)
}

// Count reports how many records match filter.
func (c *Collection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	_, total, err := c.backend.Find(ctx, c.name, filter, FindOptions{Page: 1, Limit: 1})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (c *Collection[T]) FindMany(ctx context.Context, filter Filter, opts FindOptions) (*Page[T], error) {
	opts = clampOptions(opts)
	raws, total, err := c.backend.Find(ctx, c.name, filter, opts)
	if err != nil {
		return nil, err
	}
	data := make([]T, 0, len(raws))
	for _, raw := range raws {
		rec, err := c.decode(raw)
		if err != nil {
			return nil, err
		}
		data = append(data, *rec)
	}
	return &Page[T]{
		Data:       data,
		Page:       opts.Page,
		Limit:      opts.Limit,
		Total:      total,
		TotalPages: totalPages(total, opts.Limit),
	}, nil
}

func (c *Collection[T]) encode(rec *T) (string, []byte, error) {
	r, ok := any(rec).(Record)
	if !ok {
		return "", nil, fmt.Errorf("%s: record type does not implement store.Record", c.name)
	}
	if err := r.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid %s record: %w", c.name, err)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode %s record: %w", c.name, err)
	}
	return r.RecordID(), doc, nil
}

func (c *Collection[T]) decode(raw []byte) (*T, error) {
	rec := new(T)
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", c.name, err)
	}
	return rec, nil
}

func clampOptions(opts FindOptions) FindOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	return opts
}

func totalPages(total int64, limit int) int {
	if limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
