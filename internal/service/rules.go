package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/jaskbills/internal/database/repository"
	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/rules"
	"github.com/jask/jaskbills/internal/selection"
)

// RuleService manages the rules of the selected provider.
type RuleService struct {
	Rules     *repository.RuleRepo
	Bills     *repository.BillRepo
	Providers *provider.Registry
	Selection *selection.Selection
}

// RuleInput is a new rule as entered by a user.
type RuleInput struct {
	Name        string
	Pattern     string
	PatternType string
	Category    string
	Priority    int
}

// Current returns the selected provider.
func (s *RuleService) Current() (provider.Provider, error) {
	return selectedProvider(s.Selection, s.Providers)
}

func (s *RuleService) List(ctx context.Context) ([]repository.Rule, error) {
	p, err := s.Current()
	if err != nil {
		return nil, err
	}
	return s.Rules.ListForProvider(ctx, p.ID)
}

// Add validates and stores a rule for the selected provider.
func (s *RuleService) Add(ctx context.Context, in RuleInput) (repository.Rule, error) {
	p, err := s.Current()
	if err != nil {
		return repository.Rule{}, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return repository.Rule{}, errors.New("category is required")
	}
	if in.PatternType == "" {
		in.PatternType = repository.PatternContains
	}
	r := repository.Rule{
		ID:          uuid.NewString(),
		ProviderID:  p.ID,
		Name:        strings.TrimSpace(in.Name),
		Pattern:     strings.TrimSpace(in.Pattern),
		PatternType: in.PatternType,
		Category:    strings.TrimSpace(in.Category),
		Priority:    in.Priority,
		Enabled:     true,
	}
	if r.Name == "" {
		r.Name = r.Pattern
	}
	if _, err := rules.Compile(r); err != nil {
		return repository.Rule{}, err
	}
	if err := s.Rules.Add(ctx, r); err != nil {
		return repository.Rule{}, fmt.Errorf("add rule: %w", err)
	}
	return r, nil
}

// Toggle flips a rule's enabled flag and returns the new state.
func (s *RuleService) Toggle(ctx context.Context, id string) (bool, error) {
	r, err := s.owned(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.Rules.SetEnabled(ctx, id, !r.Enabled); err != nil {
		return false, err
	}
	return !r.Enabled, nil
}

func (s *RuleService) Delete(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	return s.Rules.Delete(ctx, id)
}

// Apply categorises the selected provider's uncategorised bills and returns how many changed.
func (s *RuleService) Apply(ctx context.Context) (int, error) {
	p, err := s.Current()
	if err != nil {
		return 0, err
	}
	rs, err := s.Rules.ListForProvider(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	ruleSet := rules.NewSet(rs)
	bills, err := s.Bills.List(ctx, repository.BillFilters{ProviderID: p.ID, Uncategorized: true})
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, b := range bills {
		r := ruleSet.First(rules.Input{Description: b.Description, AmountCents: b.AmountCents, Date: b.Date})
		if r == nil {
			continue
		}
		if err := s.Bills.UpdateCategory(ctx, b.ID, &r.Category, &r.ID); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// Match returns the highest-priority enabled rule of b's provider that matches
// b, or nil. It does not depend on the selection.
func (s *RuleService) Match(ctx context.Context, b repository.Bill) (*repository.Rule, error) {
	rs, err := s.Rules.ListForProvider(ctx, b.ProviderID)
	if err != nil {
		return nil, err
	}
	return rules.NewSet(rs).First(rules.Input{Description: b.Description, AmountCents: b.AmountCents, Date: b.Date}), nil
}

// owned loads a rule and checks it belongs to the selected provider.
func (s *RuleService) owned(ctx context.Context, id string) (*repository.Rule, error) {
	p, err := s.Current()
	if err != nil {
		return nil, err
	}
	r, err := s.Rules.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || r.ProviderID != p.ID {
		return nil, fmt.Errorf("rule %s not found for provider %s", id, p.ID)
	}
	return r, nil
}
