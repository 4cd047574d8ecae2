package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore stores leads in the relational database.
type PostgresStore struct {
	pool rowQuerier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func newPostgresStoreWithQuerier(q rowQuerier) *PostgresStore {
	if q == nil {
		panic("leads: querier required")
	}
	return &PostgresStore{pool: q}
}

// Insert writes one row. The lead is committed only when the insert reports a row.
func (s *PostgresStore) Insert(ctx context.Context, lead *StoredLead) (string, error) {
	id := lead.ID
	if id == "" {
		id = uuid.New().String()
	}
	meta, err := json.Marshal(lead.Metadata)
	if err != nil {
		return "", fmt.Errorf("leads: encode metadata: %w", err)
	}
	query := `
		INSERT INTO leads (id, name, email, phone, city, street, notes, status, priority, source, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	ct, err := s.pool.Exec(ctx, query,
		id,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.City,
		lead.Street,
		lead.Notes,
		lead.Status,
		lead.Priority,
		lead.Source,
		meta,
		lead.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("leads: insert failed: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return "", fmt.Errorf("leads: insert affected %d rows", ct.RowsAffected())
	}
	return id, nil
}

// Query lists leads in a creation-time window, newest first.
func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]*StoredLead, error) {
	var (
		conds []string
		args  []any
	)
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	query := `SELECT id, name, email, phone, city, street, notes, status, priority, source, metadata, created_at FROM leads`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: query failed: %w", err)
	}
	defer rows.Close()

	var out []*StoredLead
	for rows.Next() {
		var (
			lead      StoredLead
			meta      []byte
			createdAt time.Time
		)
		if err := rows.Scan(
			&lead.ID,
			&lead.Name,
			&lead.Email,
			&lead.Phone,
			&lead.City,
			&lead.Street,
			&lead.Notes,
			&lead.Status,
			&lead.Priority,
			&lead.Source,
			&meta,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &lead.Metadata); err != nil {
				return nil, fmt.Errorf("leads: decode metadata: %w", err)
			}
		}
		lead.CreatedAt = createdAt.UTC()
		out = append(out, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: query failed: %w", err)
	}
	return out, nil
}
