package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Account represents an account row.
type Account struct {
	ID         string
	Name       string
	ProviderID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Bill represents one imported bill line.
type Bill struct {
	ID          string
	AccountID   string
	ProviderID  string
	Date        time.Time
	AmountCents int64
	Description string
	Category    *string
	RuleID      *string
	SourceHash  string
	CreatedAt   time.Time
}

// Rule categorises bills read with one provider.
type Rule struct {
	ID          string
	ProviderID  string
	Name        string
	Pattern     string
	PatternType string
	Category    string
	Priority    int
	Enabled     bool
	CreatedAt   time.Time
}

// Pattern types accepted by the rules table.
const (
	PatternExact    = "exact"
	PatternContains = "contains"
	PatternExpr     = "expr"
)
