// Package postgres provides PostgreSQL persistence using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/traveller/internal/config"
)

// ApplicationName identifies table server connections in pg_stat_activity.
const ApplicationName = "traveller-tableserver"

// SQLSTATE codes the repositories map to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

// Pool owns the pgx connection pool shared by every repository.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg and pings it.
//
// Postcondition: Returns a pool that answered a ping, or an error with no
// connections left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return &Pool{pool: pool}, nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Stat reports connection usage for metrics.
func (p *Pool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// sqlState returns the SQLSTATE carried by err, or "".
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isDuplicateKeyError(err error) bool { return sqlState(err) == codeUniqueViolation }

func isForeignKeyError(err error) bool { return sqlState(err) == codeForeignKeyViolation }

// isNoRows reports whether err means the looked-up row does not exist. A
// malformed UUID cannot match any row either.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || sqlState(err) == codeInvalidText
}

// nullable maps an empty identifier to SQL NULL.
func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
