package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/jask/jaskbills/internal/database/repository"
)

// defaultRules are seeded per built-in provider.
var defaultRules = []repository.Rule{
	{ProviderID: "anz", Name: "Card repayments", Pattern: "PAYMENT THANKYOU", PatternType: repository.PatternContains, Category: "Transfers", Priority: 10},
	{ProviderID: "anz", Name: "Groceries", Pattern: "WOOLWORTHS", PatternType: repository.PatternContains, Category: "Groceries"},
	{ProviderID: "cba", Name: "Salary", Pattern: `amount > 0 && description contains "SALARY"`, PatternType: repository.PatternExpr, Category: "Income", Priority: 10},
	{ProviderID: "generic", Name: "Utilities", Pattern: `description matches "(?i)(energy|water|gas)"`, PatternType: repository.PatternExpr, Category: "Utilities"},
}

// SeedDefaults ensures baseline rules exist for new databases.
// It is idempotent and safe to run on every startup or inside a transaction.
func SeedDefaults(ctx context.Context, db repository.DBTX) error {
	ruleRepo := repository.NewRuleRepo(db)
	for _, r := range defaultRules {
		r.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("rule:"+r.ProviderID+":"+r.Name)).String()
		r.Enabled = true
		existing, err := ruleRepo.Get(ctx, r.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := ruleRepo.Add(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
