package repository

import (
	"context"
	"database/sql"
	"errors"
)

// RuleRepo stores categorisation rules.
type RuleRepo struct{ db DBTX }

func NewRuleRepo(db DBTX) *RuleRepo { return &RuleRepo{db: db} }

func (r *RuleRepo) Add(ctx context.Context, rule Rule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO rules(id, provider_id, name, pattern, pattern_type, category, priority, enabled, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, rule.ID, rule.ProviderID, rule.Name, rule.Pattern, rule.PatternType, rule.Category, rule.Priority, rule.Enabled)
	return err
}

func (r *RuleRepo) Get(ctx context.Context, id string) (*Rule, error) {
	row := r.db.QueryRowContext(ctx, ruleSelect+` WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListForProvider returns the rules for providerID, highest priority first.
func (r *RuleRepo) ListForProvider(ctx context.Context, providerID string) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, ruleSelect+` WHERE provider_id = ? ORDER BY priority DESC, created_at, id`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *RuleRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rules SET enabled = ? WHERE id = ?`, enabled, id)
	return err
}

func (r *RuleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	return err
}

const ruleSelect = `SELECT id, provider_id, name, pattern, pattern_type, category, priority, enabled, created_at FROM rules`

func scanRule(s scanner) (Rule, error) {
	var rule Rule
	err := s.Scan(&rule.ID, &rule.ProviderID, &rule.Name, &rule.Pattern, &rule.PatternType, &rule.Category, &rule.Priority, &rule.Enabled, &rule.CreatedAt)
	return rule, err
}
