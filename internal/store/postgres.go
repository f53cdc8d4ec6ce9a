package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenthands/annuaire/internal/record"
)

// modifiedField is stamped with the current date on every write.
const modifiedField = "date_derniere_modification"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	db   querier
}

// Open builds a pool from a connection string and verifies it answers.
func Open(ctx context.Context, connString string) (*Postgres, error) {
	if connString == "" {
		return nil, fmt.Errorf("store: empty connection string")
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("store: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return NewPostgres(pool), nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, db: pool}
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Ping(ctx)
}

// EnsureSchema creates the pg_trgm extension and both tables when they are missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) InTx(ctx context.Context, fn func(Store) error) error {
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		return fn(&Postgres{pool: p.pool, db: tx})
	})
}

func (p *Postgres) List(ctx context.Context, kind record.Kind) ([]record.Record, error) {
	query := fmt.Sprintf(listQuery, ident(kind.Table()))
	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", kind, err)
	}
	return collectRecords(rows, kind)
}

func (p *Postgres) Create(ctx context.Context, kind record.Kind, rec record.Record) (int64, error) {
	var (
		cols   []string
		values []string
		args   []any
	)
	for _, f := range kind.Schema() {
		v, ok := rec[f.Name]
		if !ok || f.Name == modifiedField {
			continue
		}
		args = append(args, v)
		cols = append(cols, ident(f.Name))
		values = append(values, fmt.Sprintf("$%d", len(args)))
	}
	cols = append(cols, ident(modifiedField))
	values = append(values, "CURRENT_DATE")

	query := fmt.Sprintf(insertQuery, ident(kind.Table()), strings.Join(cols, ", "), strings.Join(values, ", "))

	var numero int64
	if err := p.db.QueryRow(ctx, query, args...).Scan(&numero); err != nil {
		return 0, fmt.Errorf("store: insert %s: %w", kind, err)
	}
	return numero, nil
}

func (p *Postgres) Replace(ctx context.Context, kind record.Kind, recs []record.Record) error {
	for _, rec := range recs {
		if _, ok := rec.Key(); !ok {
			return ErrMissingKey
		}
	}
	return p.InTx(ctx, func(s Store) error {
		tx := s.(*Postgres)
		for _, rec := range recs {
			if err := tx.replaceOne(ctx, kind, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Postgres) replaceOne(ctx context.Context, kind record.Kind, rec record.Record) error {
	numero, _ := rec.Key()

	var (
		sets []string
		args []any
	)
	for _, f := range kind.Schema() {
		v, ok := rec[f.Name]
		if !ok || f.Name == modifiedField {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(f.Name), len(args)))
	}
	sets = append(sets, ident(modifiedField)+" = CURRENT_DATE")
	args = append(args, numero)

	query := fmt.Sprintf(updateQuery, ident(kind.Table()), strings.Join(sets, ", "), len(args))
	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("store: replace %s %d: %w", kind, numero, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: replace %s %d: %w", kind, numero, ErrNotFound)
	}
	return nil
}

func (p *Postgres) FindSimilar(ctx context.Context, kind record.Kind, rec record.Record, threshold float64) ([]record.Record, error) {
	match := rec.String(kind.MatchField())
	if match == "" {
		return nil, nil
	}
	query := fmt.Sprintf(similarQuery, ident(kind.Table()), ident(kind.MatchField()), ident(kind.PrefixField()))
	rows, err := p.db.Query(ctx, query, match, threshold, rec.String(kind.PrefixField()))
	if err != nil {
		return nil, fmt.Errorf("store: find similar %s: %w", kind, err)
	}
	return collectRecords(rows, kind)
}

func collectRecords(rows pgx.Rows, kind record.Kind) ([]record.Record, error) {
	defer rows.Close()

	recs := make([]record.Record, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", kind, err)
		}
		var rec record.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("store: decode %s row: %w", kind, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate %s: %w", kind, err)
	}
	return recs, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
