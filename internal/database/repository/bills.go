package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned by Insert when the bill's source hash already exists.
var ErrDuplicate = errors.New("duplicate bill")

// BillFilters defines list filters.
type BillFilters struct {
	ProviderID    string
	AccountID     string
	Month         time.Time // use first day of month; zero time = no month filter
	Search        string
	Uncategorized bool
	Limit         int
}

// BillRepo handles bills.
type BillRepo struct {
	db *sql.DB
}

func NewBillRepo(db *sql.DB) *BillRepo { return &BillRepo{db: db} }

func (r *BillRepo) Insert(ctx context.Context, b Bill) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO bills(id, account_id, provider_id, date, amount, description, category, rule_id, source_hash, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, b.ID, b.AccountID, b.ProviderID, b.Date, b.AmountCents, b.Description, b.Category, b.RuleID, b.SourceHash)
	if isUnique(err) {
		return ErrDuplicate
	}
	return err
}

func (r *BillRepo) Get(ctx context.Context, id string) (*Bill, error) {
	row := r.db.QueryRowContext(ctx, billSelect+` WHERE id = ?`, id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BillRepo) UpdateCategory(ctx context.Context, id string, category, ruleID *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bills SET category = ?, rule_id = ? WHERE id = ?`, category, ruleID, id)
	return err
}

func (r *BillRepo) List(ctx context.Context, f BillFilters) ([]Bill, error) {
	var where []string
	var args []interface{}

	if f.ProviderID != "" {
		where = append(where, "provider_id = ?")
		args = append(args, f.ProviderID)
	}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if !f.Month.IsZero() {
		start := time.Date(f.Month.Year(), f.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, start, end)
	}
	if f.Search != "" {
		where = append(where, "description LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if f.Uncategorized {
		where = append(where, "category IS NULL")
	}

	query := billSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count returns the number of bills read with providerID, or all bills when it is empty.
func (r *BillRepo) Count(ctx context.Context, providerID string) (int, error) {
	var n int
	var err error
	if providerID == "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills`).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills WHERE provider_id = ?`, providerID).Scan(&n)
	}
	return n, err
}

const billSelect = `SELECT id, account_id, provider_id, date, amount, description, category, rule_id, source_hash, created_at FROM bills`

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(s scanner) (Bill, error) {
	var b Bill
	var category, ruleID sql.NullString
	if err := s.Scan(&b.ID, &b.AccountID, &b.ProviderID, &b.Date, &b.AmountCents, &b.Description, &category, &ruleID, &b.SourceHash, &b.CreatedAt); err != nil {
		return Bill{}, err
	}
	if category.Valid {
		b.Category = &category.String
	}
	if ruleID.Valid {
		b.RuleID = &ruleID.String
	}
	return b, nil
}

func isUnique(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
