package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/pagination"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PropertyRepository persists canonical listings. Uniqueness is enforced on
// dedup_key; inserting an already-seen listing is a silent skip, never an
// error, so re-running a scan is idempotent.
type PropertyRepository struct {
	db dbtx
}

func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{db: pool}
}

func NewPropertyRepositoryWithTx(tx pgx.Tx) *PropertyRepository {
	return &PropertyRepository{db: tx}
}

const insertPropertySQL = `
	INSERT INTO properties (id, dedup_key, source, source_id, url, address, city, state, postal_code, country, lat, lng, price_minor, currency, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (dedup_key) DO NOTHING`

// InsertBatch inserts properties in one round trip and returns how many rows
// were actually written. Conflicting dedup keys are skipped by the database.
func (r *PropertyRepository) InsertBatch(ctx context.Context, properties []*domain.Property) (int, error) {
	if len(properties) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range properties {
		d := p.Draft
		batch.Queue(insertPropertySQL,
			p.ID, p.DedupKey, d.Source, d.SourceID, d.URL, d.Address, d.City, d.State, d.PostalCode, d.Country,
			d.Lat, d.Lng, d.PriceMinor, nullableString(string(d.Currency)), d.Metadata, p.CreatedAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range properties {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// GetByDedupKey fetches a property by its uniqueness key.
func (r *PropertyRepository) GetByDedupKey(ctx context.Context, dedupKey string) (*domain.Property, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, dedup_key, source, source_id, url, address, city, state, postal_code, country, lat, lng, price_minor, currency, metadata, created_at
		 FROM properties WHERE dedup_key = $1`,
		dedupKey,
	)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrCodeNotFound, "property not found")
		}
		return nil, err
	}
	return p, nil
}

// CountBySource returns the number of stored listings per source.
func (r *PropertyRepository) CountBySource(ctx context.Context) (map[domain.Source]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT source, COUNT(*) FROM properties GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Source]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		counts[domain.Source(source)] = count
	}
	return counts, rows.Err()
}

// ListWithCursor pages stored listings newest first, keyed on
// (created_at, id) so inserts during iteration never shift the window.
func (r *PropertyRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.PropertyPageResult, error) {
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, dedup_key, source, source_id, url, address, city, state, postal_code, country, lat, lng, price_minor, currency, metadata, created_at
			 FROM properties
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, dedup_key, source, source_id, url, address, city, state, postal_code, country, lat, lng, price_minor, currency, metadata, created_at
			 FROM properties
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.PropertyPageResult{Items: items, NextCursor: nextCursor, HasMore: hasMore}, nil
}

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var p domain.Property
	var sourceID, url, address, city, state, postalCode, country, currency *string
	var source string

	err := row.Scan(&p.ID, &p.DedupKey, &source, &sourceID, &url, &address, &city, &state, &postalCode, &country,
		&p.Draft.Lat, &p.Draft.Lng, &p.Draft.PriceMinor, &currency, &p.Draft.Metadata, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Draft.Source = domain.Source(source)
	p.Draft.SourceID = stringOrEmpty(sourceID)
	p.Draft.URL = stringOrEmpty(url)
	p.Draft.Address = stringOrEmpty(address)
	p.Draft.City = stringOrEmpty(city)
	p.Draft.State = stringOrEmpty(state)
	p.Draft.PostalCode = stringOrEmpty(postalCode)
	p.Draft.Country = stringOrEmpty(country)
	p.Draft.Currency = domain.Currency(stringOrEmpty(currency))
	return &p, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
