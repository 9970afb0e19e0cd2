package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jask/jaskbills/internal/csvparse"
	"github.com/jask/jaskbills/internal/database/repository"
	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/rules"
	"github.com/jask/jaskbills/internal/selection"
)

// ErrNoSelection is returned when an operation needs a selected provider and none is set.
var ErrNoSelection = errors.New("no provider selected")

// BillService imports bill files with the selected provider.
type BillService struct {
	Bills     *repository.BillRepo
	Accounts  *repository.AccountRepo
	Rules     *repository.RuleRepo
	Providers *provider.Registry
	Selection *selection.Selection
	TZ        *time.Location

	mu           sync.Mutex
	accountCache map[string]repository.Account
}

type ImportResult struct {
	ProviderID  string
	Imported    int
	Skipped     int
	Categorised int
	Errors      []error
	Meta        csvparse.Meta
}

// Import parses r with the currently selected provider.
func (s *BillService) Import(ctx context.Context, r io.Reader, accountName string) (ImportResult, error) {
	p, err := selectedProvider(s.Selection, s.Providers)
	if err != nil {
		return ImportResult{}, err
	}
	return s.importWith(ctx, p, r, accountName)
}

// ImportWith parses r with providerID regardless of the selection.
func (s *BillService) ImportWith(ctx context.Context, providerID string, r io.Reader, accountName string) (ImportResult, error) {
	p, err := s.Providers.Lookup(providerID)
	if err != nil {
		return ImportResult{}, err
	}
	return s.importWith(ctx, p, r, accountName)
}

func (s *BillService) importWith(ctx context.Context, p provider.Provider, r io.Reader, accountName string) (ImportResult, error) {
	res := ImportResult{ProviderID: p.ID}
	if strings.TrimSpace(accountName) == "" {
		accountName = p.Name
	}
	acct, err := s.accountForName(ctx, accountName, p.ID)
	if err != nil {
		return res, err
	}

	var ruleSet rules.Set
	if s.Rules != nil {
		rs, err := s.Rules.ListForProvider(ctx, p.ID)
		if err != nil {
			return res, fmt.Errorf("load rules: %w", err)
		}
		ruleSet = rules.NewSet(rs)
		slog.Debug("import rules", "provider", p.ID, "loaded", len(rs), "compiled", ruleSet.Len())
	}

	parsed, err := csvparse.Parse(r, p.ParseConfig())
	if err != nil {
		return res, err
	}
	res.Meta = parsed.Meta
	for _, pe := range parsed.Errors {
		res.Errors = append(res.Errors, pe)
	}

	for _, rec := range parsed.Rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entry, err := p.Extract(rec, s.TZ)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("row %d: %w", rec.Index, err))
			continue
		}
		b := repository.Bill{
			ID:          uuid.NewString(),
			AccountID:   acct.ID,
			ProviderID:  p.ID,
			Date:        entry.Date,
			AmountCents: entry.AmountCents,
			Description: entry.Description,
			SourceHash:  hashSource(acct.ID, entry.Date.Format(time.DateOnly), fmt.Sprintf("%d", entry.AmountCents), entry.Description),
		}
		if rule := ruleSet.First(rules.Input{Description: b.Description, AmountCents: b.AmountCents, Date: b.Date}); rule != nil {
			b.Category = &rule.Category
			b.RuleID = &rule.ID
		}
		if err := s.Bills.Insert(ctx, b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, fmt.Errorf("row %d insert: %w", rec.Index, err))
			continue
		}
		res.Imported++
		if b.Category != nil {
			res.Categorised++
		}
	}
	if len(res.Errors) > 0 {
		slog.Warn("import finished with errors", "provider", p.ID, "errors", len(res.Errors))
	}
	return res, nil
}

// List returns bills for the selected provider. With no selection it lists every provider.
func (s *BillService) List(ctx context.Context, f repository.BillFilters) ([]repository.Bill, error) {
	if id, ok := s.Selection.Read(); ok && f.ProviderID == "" {
		f.ProviderID = id
	}
	return s.Bills.List(ctx, f)
}

func (s *BillService) accountForName(ctx context.Context, name, providerID string) (repository.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.Account{}, errors.New("account name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountCache == nil {
		s.accountCache = make(map[string]repository.Account)
	}
	if acct, ok := s.accountCache[name]; ok && acct.ProviderID == providerID {
		return acct, nil
	}
	acct := repository.Account{ID: deterministicAccountID(name), Name: name, ProviderID: providerID}
	if err := s.Accounts.Upsert(ctx, acct); err != nil {
		return repository.Account{}, err
	}
	s.accountCache[name] = acct
	return acct, nil
}

func selectedProvider(sel *selection.Selection, reg *provider.Registry) (provider.Provider, error) {
	if sel == nil {
		return provider.Provider{}, ErrNoSelection
	}
	id, ok := sel.Read()
	if !ok {
		return provider.Provider{}, ErrNoSelection
	}
	return reg.Lookup(id)
}

func hashSource(parts ...string) string {
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%x", sum[:])
}

func deterministicAccountID(name string) string {
	key := strings.ToLower(strings.TrimSpace(filepath.Base(name)))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
