package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sizzlebits/layerlens/common/settings"
)

// PostgresRepository stores overrides as JSONB rows: one row for the global
// record, one per domain.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Connection pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) Global(ctx context.Context) (*settings.Override, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM global_settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read global settings: %w", err)
	}
	return decodeOverride(data)
}

func (r *PostgresRepository) SaveGlobal(ctx context.Context, o settings.Override) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal global settings: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO global_settings (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = $1, updated_at = NOW()
	`, data)
	if err != nil {
		return fmt.Errorf("failed to save global settings: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Domain(ctx context.Context, domain string) (*settings.Override, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM domain_settings WHERE domain = $1`, domain).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDomainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings for %q: %w", domain, err)
	}
	return decodeOverride(data)
}

func (r *PostgresRepository) SaveDomain(ctx context.Context, domain string, o settings.Override) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal settings for %q: %w", domain, err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO domain_settings (domain, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (domain) DO UPDATE SET data = $2, updated_at = NOW()
	`, domain, data)
	if err != nil {
		return fmt.Errorf("failed to save settings for %q: %w", domain, err)
	}
	return nil
}

func (r *PostgresRepository) DeleteDomain(ctx context.Context, domain string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM domain_settings WHERE domain = $1`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete settings for %q: %w", domain, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDomainNotFound
	}
	return nil
}

func (r *PostgresRepository) Domains(ctx context.Context) (map[string]settings.Override, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT domain, data FROM domain_settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domain settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]settings.Override)
	for rows.Next() {
		var domain string
		var data []byte
		if err := rows.Scan(&domain, &data); err != nil {
			return nil, fmt.Errorf("failed to scan domain settings: %w", err)
		}
		o, err := decodeOverride(data)
		if err != nil {
			return nil, err
		}
		out[domain] = *o
	}
	return out, rows.Err()
}

// ReplaceAll runs inside one transaction so a failed import rolls back to
// the previous state.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, global settings.Override, domains map[string]settings.Override) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	globalData, err := json.Marshal(global)
	if err != nil {
		return fmt.Errorf("failed to marshal global settings: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO global_settings (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = $1, updated_at = NOW()
	`, globalData); err != nil {
		return fmt.Errorf("failed to replace global settings: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM domain_settings`); err != nil {
		return fmt.Errorf("failed to clear domain settings: %w", err)
	}
	for domain, o := range domains {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to marshal settings for %q: %w", domain, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO domain_settings (domain, data, updated_at)
			VALUES ($1, $2, NOW())
		`, domain, data); err != nil {
			return fmt.Errorf("failed to insert settings for %q: %w", domain, err)
		}
	}

	return tx.Commit(ctx)
}

func decodeOverride(data []byte) (*settings.Override, error) {
	var o settings.Override
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to decode stored settings: %w", err)
	}
	return &o, nil
}
