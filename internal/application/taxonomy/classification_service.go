package taxonomy

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/taxonomy"
)

// TaxonomyCache is the read-through cache the service consults before
// hitting the repositories. Implementations swallow their own transport
// errors and report a miss instead.
type TaxonomyCache interface {
	GetEntries(ctx context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, bool)
	SetEntries(ctx context.Context, kind taxonomy.Kind, entries []taxonomy.Entry)
	InvalidateEntries(ctx context.Context, kind taxonomy.Kind)
	GetTable(ctx context.Context) (taxonomy.CodeTable, bool)
	SetTable(ctx context.Context, table taxonomy.CodeTable)
	InvalidateTable(ctx context.Context)
}

// ClassificationService resolves ERP brand and category codes against the
// web catalog taxonomy and manages the category rule set.
type ClassificationService struct {
	entries taxonomy.EntryRepository
	codes   taxonomy.CodeTableRepository
	rules   taxonomy.CategoryRuleRepository
	cache   TaxonomyCache
}

// NewClassificationService creates a new ClassificationService
func NewClassificationService(
	entries taxonomy.EntryRepository,
	codes taxonomy.CodeTableRepository,
	rules taxonomy.CategoryRuleRepository,
	cache TaxonomyCache,
) *ClassificationService {
	return &ClassificationService{
		entries: entries,
		codes:   codes,
		rules:   rules,
		cache:   cache,
	}
}

// ---------------------------------------------------------------------------
// Code resolution
// ---------------------------------------------------------------------------

// Resolve maps an ERP code onto a web taxonomy entry ID. The curated code
// table wins over the exact-match fallback against the live entries; a miss
// is a regular outcome, not an error.
func (s *ClassificationService) Resolve(ctx context.Context, kind taxonomy.Kind, erpCode string) (string, bool, error) {
	table, err := s.loadTable(ctx)
	if err != nil {
		return "", false, err
	}
	entries, err := s.loadEntries(ctx, kind)
	if err != nil {
		return "", false, err
	}

	id, ok := taxonomy.NewResolver(table).Resolve(kind, erpCode, entries)
	return id, ok, nil
}

// SaveMapping upserts a curated code table entry and drops the cached table
func (s *ClassificationService) SaveMapping(ctx context.Context, kind taxonomy.Kind, erpCode, webID string) error {
	if err := s.codes.SaveMapping(ctx, kind, taxonomy.NormalizeCode(erpCode), webID); err != nil {
		return err
	}
	s.cache.InvalidateTable(ctx)
	return nil
}

// DeleteMapping removes a curated code table entry and drops the cached table
func (s *ClassificationService) DeleteMapping(ctx context.Context, kind taxonomy.Kind, erpCode string) error {
	if err := s.codes.DeleteMapping(ctx, kind, taxonomy.NormalizeCode(erpCode)); err != nil {
		return err
	}
	s.cache.InvalidateTable(ctx)
	return nil
}

// RefreshEntries replaces the stored snapshot of web taxonomy entries for a
// kind, typically after a catalog pull, and invalidates the cache.
func (s *ClassificationService) RefreshEntries(ctx context.Context, kind taxonomy.Kind, entries []taxonomy.Entry) error {
	if err := s.entries.SaveAll(ctx, kind, entries); err != nil {
		return err
	}
	s.cache.InvalidateEntries(ctx, kind)
	return nil
}

// GetEntries returns the stored web taxonomy entries for a kind, served from
// cache when warm
func (s *ClassificationService) GetEntries(ctx context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, error) {
	return s.loadEntries(ctx, kind)
}

// ---------------------------------------------------------------------------
// Category classification
// ---------------------------------------------------------------------------

// Classify suggests a web category for an ERP class code pair using the
// active rule set. A nil suggestion without error means no rule applies or
// the matching rule is explicitly unmapped.
func (s *ClassificationService) Classify(ctx context.Context, erpClassCode string, erpClassCode2 *string) (*string, error) {
	rules, err := s.rules.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	return taxonomy.Classify(erpClassCode, erpClassCode2, rules)
}

// ---------------------------------------------------------------------------
// Rule management
// ---------------------------------------------------------------------------

// RuleRequest carries the writable fields of a category rule
type RuleRequest struct {
	ERPClassCode  string
	ERPClassCode2 *string
	WebCategoryID *string
}

// CreateRule adds a category rule; at most one active rule may exist per
// class code pair.
func (s *ClassificationService) CreateRule(ctx context.Context, req RuleRequest) (*taxonomy.CategoryRule, error) {
	rule, err := taxonomy.NewCategoryRule(req.ERPClassCode, req.ERPClassCode2, req.WebCategoryID)
	if err != nil {
		return nil, err
	}

	exists, err := s.rules.ExistsActivePair(ctx, rule.ERPClassCode, rule.ERPClassCode2, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, taxonomy.ErrRulePairExists
	}

	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule rewrites a rule's codes and target category
func (s *ClassificationService) UpdateRule(ctx context.Context, id uuid.UUID, req RuleRequest) (*taxonomy.CategoryRule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := taxonomy.NewCategoryRule(req.ERPClassCode, req.ERPClassCode2, req.WebCategoryID)
	if err != nil {
		return nil, err
	}

	if rule.IsActive {
		exists, err := s.rules.ExistsActivePair(ctx, updated.ERPClassCode, updated.ERPClassCode2, rule.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, taxonomy.ErrRulePairExists
		}
	}

	rule.ERPClassCode = updated.ERPClassCode
	rule.ERPClassCode2 = updated.ERPClassCode2
	rule.WebCategoryID = updated.WebCategoryID
	rule.Touch()

	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ActivateRule re-enables a rule, subject to the one-active-pair constraint
func (s *ClassificationService) ActivateRule(ctx context.Context, id uuid.UUID) (*taxonomy.CategoryRule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rule.IsActive {
		exists, err := s.rules.ExistsActivePair(ctx, rule.ERPClassCode, rule.ERPClassCode2, rule.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, taxonomy.ErrRulePairExists
		}
	}
	rule.Activate()
	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeactivateRule disables a rule without deleting it
func (s *ClassificationService) DeactivateRule(ctx context.Context, id uuid.UUID) (*taxonomy.CategoryRule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rule.Deactivate()
	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a rule permanently
func (s *ClassificationService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.rules.FindByID(ctx, id); err != nil {
		return err
	}
	return s.rules.Delete(ctx, id)
}

// ListRules returns all rules, or only the active ones
func (s *ClassificationService) ListRules(ctx context.Context, activeOnly bool) ([]taxonomy.CategoryRule, error) {
	if activeOnly {
		return s.rules.FindActive(ctx)
	}
	return s.rules.FindAll(ctx)
}

// ---------------------------------------------------------------------------
// Cache-backed loads
// ---------------------------------------------------------------------------

func (s *ClassificationService) loadTable(ctx context.Context) (taxonomy.CodeTable, error) {
	if table, ok := s.cache.GetTable(ctx); ok {
		return table, nil
	}
	table, err := s.codes.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetTable(ctx, table)
	return table, nil
}

func (s *ClassificationService) loadEntries(ctx context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, error) {
	if entries, ok := s.cache.GetEntries(ctx, kind); ok {
		return entries, nil
	}
	entries, err := s.entries.FindByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	s.cache.SetEntries(ctx, kind, entries)
	return entries, nil
}
