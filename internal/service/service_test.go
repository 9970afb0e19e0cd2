package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/jaskbills/internal/database"
	"github.com/jask/jaskbills/internal/database/repository"
	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/selection"
	"github.com/jask/jaskbills/internal/testdata"
)

type fixture struct {
	ctx   context.Context
	sel   *selection.Selection
	bills *BillService
	rules *RuleService
	maint *MaintenanceService
	repo  *repository.BillRepo
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.SeedDefaults(ctx, db))

	reg, err := provider.NewRegistry(provider.Defaults()...)
	require.NoError(t, err)

	sel := selection.New()
	billRepo := repository.NewBillRepo(db)
	ruleRepo := repository.NewRuleRepo(db)
	return fixture{
		ctx: ctx,
		sel: sel,
		bills: &BillService{
			Bills: billRepo, Accounts: repository.NewAccountRepo(db), Rules: ruleRepo,
			Providers: reg, Selection: sel, TZ: time.UTC,
		},
		rules: &RuleService{Rules: ruleRepo, Bills: billRepo, Providers: reg, Selection: sel},
		maint: &MaintenanceService{DB: db},
		repo:  billRepo,
	}
}

const anzData = "3/02/2026,203.92,PAYMENT THANKYOU 528417\n" +
	"2/02/2026,-20,DAN MURPHY'S/580 MELBOURN SPOTSWOOD\n"

func TestImport_RequiresSelection(t *testing.T) {
	t.Parallel()
	f := setup(t)
	_, err := f.bills.Import(f.ctx, strings.NewReader(anzData), "ANZ Credit")
	require.ErrorIs(t, err, ErrNoSelection)
}

func TestImport_UsesSelectedProvider(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.sel.Write("anz")

	res, err := f.bills.Import(f.ctx, strings.NewReader(anzData), "ANZ Credit")
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Equal(t, "anz", res.ProviderID)
	require.Equal(t, 2, res.Imported)
	require.Equal(t, 1, res.Categorised)
	require.Equal(t, ',', res.Meta.Delimiter)

	list, err := f.bills.List(f.ctx, repository.BillFilters{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	byDesc := map[string]repository.Bill{}
	for _, b := range list {
		byDesc[b.Description] = b
	}
	pay := byDesc["PAYMENT THANKYOU 528417"]
	require.Equal(t, int64(20392), pay.AmountCents)
	require.NotNil(t, pay.Category)
	require.Equal(t, "Transfers", *pay.Category)
	require.Equal(t, int64(-2000), byDesc["DAN MURPHY'S/580 MELBOURN SPOTSWOOD"].AmountCents)

	// Re-import should skip duplicates via source hash.
	res2, err := f.bills.Import(f.ctx, strings.NewReader(anzData), "ANZ Credit")
	require.NoError(t, err)
	require.Equal(t, 0, res2.Imported)
	require.Equal(t, 2, res2.Skipped)
}

func TestImport_FollowsSelectionChanges(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.sel.Write("anz")
	_, err := f.bills.Import(f.ctx, strings.NewReader(anzData), "")
	require.NoError(t, err)

	f.sel.Write("generic")
	generic := "date,description,amount\n" +
		"2026-02-01,WOOLWORTHS 123,-45.67\n" +
		"\n" +
		"2026-02-03,SALARY,2500.00\n" +
		"not-a-date,BAD,1\n"
	res, err := f.bills.Import(f.ctx, strings.NewReader(generic), "Everyday")
	require.NoError(t, err)
	require.Equal(t, "generic", res.ProviderID)
	require.Equal(t, 2, res.Imported)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Error(), "row 2: date")

	// listing is scoped to the selected provider
	list, err := f.bills.List(f.ctx, repository.BillFilters{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, b := range list {
		require.Equal(t, "generic", b.ProviderID)
	}

	f.sel.Clear()
	list, err = f.bills.List(f.ctx, repository.BillFilters{})
	require.NoError(t, err)
	require.Len(t, list, 4)
}

func TestImport_UnknownSelection(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.sel.Write("azn")
	_, err := f.bills.Import(f.ctx, strings.NewReader(anzData), "")
	var unk *provider.UnknownError
	require.True(t, errors.As(err, &unk))
	require.Equal(t, "anz", unk.Suggestion)
}

func TestImport_ParseErrorsAreReported(t *testing.T) {
	t.Parallel()
	f := setup(t)
	data := "3/02/2026,10.00,OK\n" +
		"4/02/2026,x\"y,BROKEN\n" +
		"5/02/2026,abc,BAD AMOUNT\n"
	res, err := f.bills.ImportWith(f.ctx, "anz", strings.NewReader(data), "ANZ")
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Len(t, res.Errors, 2)
	require.Contains(t, res.Errors[0].Error(), "bare")
	require.Contains(t, res.Errors[1].Error(), "amount")
}

func TestImportWith_IgnoresSelection(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.sel.Write("generic")
	res, err := f.bills.ImportWith(f.ctx, "ANZ", strings.NewReader(anzData), "")
	require.NoError(t, err)
	require.Equal(t, "anz", res.ProviderID)
	require.Equal(t, 2, res.Imported)

	id, _ := f.sel.Read()
	require.Equal(t, "generic", id)
}

func TestRuleService(t *testing.T) {
	t.Parallel()
	f := setup(t)

	_, err := f.rules.Add(f.ctx, RuleInput{Pattern: "DAN MURPHY", Category: "Alcohol"})
	require.ErrorIs(t, err, ErrNoSelection)

	f.sel.Write("anz")
	_, err = f.bills.Import(f.ctx, strings.NewReader(anzData), "ANZ Credit")
	require.NoError(t, err)

	_, err = f.rules.Add(f.ctx, RuleInput{Pattern: "DAN MURPHY"})
	require.EqualError(t, err, "category is required")
	_, err = f.rules.Add(f.ctx, RuleInput{Pattern: "amount <", PatternType: repository.PatternExpr, Category: "X"})
	require.Error(t, err)

	r, err := f.rules.Add(f.ctx, RuleInput{Pattern: "dan murphy", Category: "Alcohol", Priority: 20})
	require.NoError(t, err)
	require.Equal(t, "anz", r.ProviderID)
	require.Equal(t, "dan murphy", r.Name)

	list, err := f.rules.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, r.ID, list[0].ID)

	changed, err := f.rules.Apply(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, changed)

	// rules are scoped: the cba view cannot touch anz rules
	f.sel.Write("cba")
	_, err = f.rules.Toggle(f.ctx, r.ID)
	require.Error(t, err)
	require.Error(t, f.rules.Delete(f.ctx, r.ID))

	f.sel.Write("anz")
	enabled, err := f.rules.Toggle(f.ctx, r.ID)
	require.NoError(t, err)
	require.False(t, enabled)
	require.NoError(t, f.rules.Delete(f.ctx, r.ID))
	list, err = f.rules.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestRuleService_Match(t *testing.T) {
	t.Parallel()
	f := setup(t)
	f.sel.Write("generic")

	pay := repository.Bill{ProviderID: "anz", Description: "PAYMENT THANKYOU 1", AmountCents: 100}
	r, err := f.rules.Match(f.ctx, pay)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.Equal(t, "Transfers", r.Category)

	salary := repository.Bill{ProviderID: "cba", Description: "ACME SALARY", AmountCents: 250000}
	r, err = f.rules.Match(f.ctx, salary)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.Equal(t, "Income", r.Category)

	// amount > 0 is part of the cba salary rule
	salary.AmountCents = -1
	r, err = f.rules.Match(f.ctx, salary)
	require.NoError(t, err)
	require.Nil(t, r)

	// rules do not leak across providers
	pay.ProviderID = "cba"
	r, err = f.rules.Match(f.ctx, pay)
	require.NoError(t, err)
	require.Nil(t, r)
}

func TestSimilar(t *testing.T) {
	t.Parallel()
	f := setup(t)
	data := "1/02/2026,-12.50,UBER EATS SYDNEY\n" +
		"3/02/2026,-12.50,UBER *EATS SYDNEY\n" +
		"20/02/2026,-12.50,UBER EATS SYDNEY AU\n" +
		"3/02/2026,-99.00,UBER EATS SYDNEY X\n"
	res, err := f.bills.ImportWith(f.ctx, "anz", strings.NewReader(data), "Visa")
	require.NoError(t, err)
	require.Equal(t, 4, res.Imported)

	all, err := f.repo.List(f.ctx, repository.BillFilters{Search: "UBER EATS SYDNEY"})
	require.NoError(t, err)
	var first repository.Bill
	for _, b := range all {
		if b.Description == "UBER EATS SYDNEY" {
			first = b
		}
	}
	require.NotEmpty(t, first.ID)

	sim, err := f.bills.Similar(f.ctx, first)
	require.NoError(t, err)
	require.Len(t, sim, 1)
	require.Equal(t, "UBER *EATS SYDNEY", sim[0].Description)
}

func TestMaintenanceReset(t *testing.T) {
	t.Parallel()
	f := setup(t)
	_, err := f.bills.ImportWith(f.ctx, "anz", strings.NewReader(anzData), "")
	require.NoError(t, err)

	f.sel.Write("anz")
	_, err = f.rules.Add(f.ctx, RuleInput{Pattern: "DAN MURPHY", Category: "Alcohol"})
	require.NoError(t, err)
	before, err := f.rules.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, before, 3)

	rep, err := f.maint.Reset(f.ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), rep.Bills)
	require.Equal(t, int64(5), rep.Rules)
	require.Equal(t, int64(1), rep.Accounts)

	n, err := f.repo.Count(f.ctx, "")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	// the user rule is gone and the defaults are back
	after, err := f.rules.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	for _, r := range after {
		require.NotEqual(t, "DAN MURPHY", r.Pattern)
	}

	_, err = (&MaintenanceService{}).Reset(f.ctx)
	require.Error(t, err)
}

func TestImport_GeneratedExportsPerProvider(t *testing.T) {
	t.Parallel()
	f := setup(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, p := range provider.Defaults() {
		exp := testdata.Generate(p, 40, uint64(i+1), start)
		f.sel.Write(p.ID)

		res, err := f.bills.Import(f.ctx, strings.NewReader(exp.CSV), p.Name+" account")
		require.NoError(t, err)
		require.Empty(t, res.Errors, p.ID)
		require.Equal(t, 40, res.Imported, p.ID)

		res, err = f.bills.Import(f.ctx, strings.NewReader(exp.CSV), p.Name+" account")
		require.NoError(t, err)
		require.Equal(t, 40, res.Skipped, p.ID)

		list, err := f.bills.List(f.ctx, repository.BillFilters{})
		require.NoError(t, err)
		require.Len(t, list, 40, p.ID)
	}

	f.sel.Clear()
	n, err := f.repo.Count(f.ctx, "")
	require.NoError(t, err)
	require.Equal(t, 120, n)
}
