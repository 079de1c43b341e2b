// Package postgres provides a Postgres-backed lead store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "leads"

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const leadColumns = `id, email, name, company, phone, phone_e164, industry, location, source_url, source_name, scraped_at, verified`

// Config controls the Postgres connection pool used for leads.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// LeadStore keeps leads in a table with a unique email column. Insertion
// order is tracked by a serial seq column.
type LeadStore struct {
	pool  pool
	table string
}

// NewLeadStore connects to Postgres using cfg.
func NewLeadStore(ctx context.Context, cfg Config) (*LeadStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &LeadStore{pool: p, table: table}, nil
}

// NewLeadStoreWithPool constructs a store from an existing pool.
func NewLeadStoreWithPool(p pool, table string) (*LeadStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &LeadStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return defaultTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *LeadStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the lead table when it does not exist.
func (s *LeadStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL,
	email       TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	phone_e164  TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	source_url  TEXT NOT NULL DEFAULT '',
	source_name TEXT NOT NULL DEFAULT '',
	scraped_at  TIMESTAMPTZ NOT NULL,
	verified    BOOLEAN NOT NULL DEFAULT FALSE
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create lead table: %w", err)
	}
	return nil
}

// InsertIfAbsent implements lead.Store.
func (s *LeadStore) InsertIfAbsent(ctx context.Context, l lead.Lead) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) ON CONFLICT (email) DO NOTHING`,
		s.table, leadColumns)
	tag, err := s.pool.Exec(ctx, query,
		l.ID,
		l.Email,
		l.Name,
		l.Company,
		l.Phone,
		l.PhoneE164,
		l.Industry,
		l.Location,
		l.SourceURL,
		l.SourceName,
		l.ScrapedAt.UTC(),
		l.Verified,
	)
	if err != nil {
		return false, fmt.Errorf("insert lead: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// BulkInsert implements lead.Store. It stops at the first database error and
// reports how many leads were added before it.
func (s *LeadStore) BulkInsert(ctx context.Context, leads []lead.Lead) (int, error) {
	added := 0
	for _, l := range leads {
		ok, err := s.InsertIfAbsent(ctx, l)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Dedupe removes rows that share an email with an earlier row. With the
// unique constraint in place this only affects tables created elsewhere.
func (s *LeadStore) Dedupe(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %[1]s a USING %[1]s b WHERE a.email = b.email AND a.seq > b.seq`, s.table)
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("dedupe leads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Filter implements lead.Store.
func (s *LeadStore) Filter(ctx context.Context, q lead.LeadQuery) ([]lead.Lead, error) {
	var (
		conds []string
		args  []any
	)
	addCond := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+likeEscaper.Replace(value)+"%")
		conds = append(conds, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, column, len(args)))
	}
	if q.Industry != lead.AllIndustries {
		addCond("industry", q.Industry)
	}
	addCond("location", q.Location)
	addCond("source_name", q.Source)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", leadColumns, s.table)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY seq")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return s.queryLeads(ctx, b.String(), args...)
}

// List implements lead.Store.
func (s *LeadStore) List(ctx context.Context, limit, offset int) ([]lead.Lead, int, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", leadColumns, s.table)
	args := []any{}
	if limit > 0 {
		args = append(args, limit, offset)
		query += " LIMIT $1 OFFSET $2"
	} else {
		args = append(args, offset)
		query += " OFFSET $1"
	}
	leads, err := s.queryLeads(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// Clear implements lead.Store.
func (s *LeadStore) Clear(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table))
	if err != nil {
		return 0, fmt.Errorf("clear leads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Stats implements lead.Store.
func (s *LeadStore) Stats(ctx context.Context, now time.Time) (lead.Stats, error) {
	leads, err := s.queryLeads(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", leadColumns, s.table))
	if err != nil {
		return lead.Stats{}, err
	}
	return lead.Summarize(leads, now), nil
}

// Count implements lead.Store.
func (s *LeadStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (s *LeadStore) queryLeads(ctx context.Context, query string, args ...any) ([]lead.Lead, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := []lead.Lead{}
	for rows.Next() {
		var l lead.Lead
		if err := rows.Scan(
			&l.ID,
			&l.Email,
			&l.Name,
			&l.Company,
			&l.Phone,
			&l.PhoneE164,
			&l.Industry,
			&l.Location,
			&l.SourceURL,
			&l.SourceName,
			&l.ScrapedAt,
			&l.Verified,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}
