package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jask/jaskbills/internal/database"
)

// ResetReport counts the rows a reset removed.
type ResetReport struct {
	Bills    int64
	Rules    int64
	Accounts int64
}

// MaintenanceService runs destructive actions surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset deletes every bill, account and rule and restores the default rules
// in the same transaction, so a failed reseed leaves the data untouched.
func (s *MaintenanceService) Reset(ctx context.Context) (ResetReport, error) {
	var rep ResetReport
	if s.DB == nil {
		return rep, fmt.Errorf("maintenance: db not configured")
	}
	// bills reference accounts, so they go first
	steps := []struct {
		table string
		n     *int64
	}{
		{"bills", &rep.Bills},
		{"rules", &rep.Rules},
		{"accounts", &rep.Accounts},
	}
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, st := range steps {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+st.table)
			if err != nil {
				return fmt.Errorf("reset table %s: %w", st.table, err)
			}
			if *st.n, err = res.RowsAffected(); err != nil {
				return fmt.Errorf("reset table %s: %w", st.table, err)
			}
		}
		if err := database.SeedDefaults(ctx, tx); err != nil {
			return fmt.Errorf("reseed rules: %w", err)
		}
		return nil
	})
	if err != nil {
		return ResetReport{}, err
	}
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		slog.Warn("maintenance: vacuum", "err", err)
	}
	slog.Info("database reset", "bills", rep.Bills, "rules", rep.Rules, "accounts", rep.Accounts)
	return rep, nil
}
