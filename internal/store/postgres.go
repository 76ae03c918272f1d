package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresBackend stores every collection in one documents table with a
// jsonb column. Filters use @> containment; the schema is created by the
// database migrator.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(connectionString string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Insert(ctx context.Context, collection, id string, doc []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3)
	`, collection, id, doc)
	if err != nil {
		return fmt.Errorf("failed to insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var doc []byte
	err := b.db.QueryRowContext(ctx, `
		SELECT doc FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (b *PostgresBackend) Replace(ctx context.Context, collection, id string, doc []byte) error {
	res, err := b.db.ExecContext(ctx, `
		UPDATE documents SET doc = $3, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, doc)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, collection, id string) error {
	res, err := b.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) FindOne(ctx context.Context, collection string, filter Filter) ([]byte, error) {
	where, args, err := b.where(collection, filter)
	if err != nil {
		return nil, err
	}
	var doc []byte
	query := "SELECT doc FROM documents WHERE " + where + " ORDER BY id LIMIT 1"
	err = b.db.QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return doc, nil
}

func (b *PostgresBackend) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([][]byte, int64, error) {
	opts = clampOptions(opts)
	where, args, err := b.where(collection, filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM documents WHERE " + where
	if err := b.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}

	// doc->field keeps jsonb typing, so numbers sort numerically and
	// RFC3339 timestamps sort chronologically.
	orderBy := "id ASC"
	if opts.Sort != "" {
		dir := "ASC"
		field := opts.Sort
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			dir = "DESC"
		}
		args = append(args, field)
		orderBy = fmt.Sprintf("doc->$%d %s, id ASC", len(args), dir)
	}

	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	query := fmt.Sprintf(
		"SELECT doc FROM documents WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		where, orderBy, len(args)-1, len(args),
	)

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s rows: %w", collection, err)
	}
	return docs, total, nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

func (b *PostgresBackend) where(collection string, filter Filter) (string, []any, error) {
	where := "collection = $1"
	args := []any{collection}
	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		args = append(args, filterJSON)
		where += fmt.Sprintf(" AND doc @> $%d", len(args))
	}
	return where, args, nil
}
