package taxonomy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/backend/internal/domain/taxonomy"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeEntryRepo struct {
	entries map[taxonomy.Kind][]taxonomy.Entry
	loads   int
}

func (f *fakeEntryRepo) FindByKind(_ context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, error) {
	f.loads++
	return f.entries[kind], nil
}

func (f *fakeEntryRepo) SaveAll(_ context.Context, kind taxonomy.Kind, entries []taxonomy.Entry) error {
	if f.entries == nil {
		f.entries = make(map[taxonomy.Kind][]taxonomy.Entry)
	}
	f.entries[kind] = entries
	return nil
}

type fakeCodeTableRepo struct {
	table taxonomy.CodeTable
	loads int
}

func (f *fakeCodeTableRepo) Load(_ context.Context) (taxonomy.CodeTable, error) {
	f.loads++
	return f.table, nil
}

func (f *fakeCodeTableRepo) SaveMapping(_ context.Context, kind taxonomy.Kind, erpCode, webID string) error {
	if f.table == nil {
		f.table = make(taxonomy.CodeTable)
	}
	if f.table[kind] == nil {
		f.table[kind] = make(map[string]string)
	}
	f.table[kind][erpCode] = webID
	return nil
}

func (f *fakeCodeTableRepo) DeleteMapping(_ context.Context, kind taxonomy.Kind, erpCode string) error {
	delete(f.table[kind], erpCode)
	return nil
}

type fakeRuleRepo struct {
	rules map[uuid.UUID]taxonomy.CategoryRule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[uuid.UUID]taxonomy.CategoryRule)}
}

func (f *fakeRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*taxonomy.CategoryRule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return nil, taxonomy.ErrRuleNotFound
	}
	out := rule
	return &out, nil
}

func (f *fakeRuleRepo) FindAll(_ context.Context) ([]taxonomy.CategoryRule, error) {
	out := make([]taxonomy.CategoryRule, 0, len(f.rules))
	for _, rule := range f.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (f *fakeRuleRepo) FindActive(_ context.Context) ([]taxonomy.CategoryRule, error) {
	var out []taxonomy.CategoryRule
	for _, rule := range f.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) ExistsActivePair(_ context.Context, code string, code2 *string, excludeID uuid.UUID) (bool, error) {
	for _, rule := range f.rules {
		if rule.ID == excludeID || !rule.IsActive || rule.ERPClassCode != code {
			continue
		}
		if (rule.ERPClassCode2 == nil) != (code2 == nil) {
			continue
		}
		if code2 == nil || *rule.ERPClassCode2 == *code2 {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRuleRepo) Save(_ context.Context, rule *taxonomy.CategoryRule) error {
	f.rules[rule.ID] = *rule
	return nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.rules, id)
	return nil
}

// memCache is a map-backed TaxonomyCache for tests
type memCache struct {
	entries map[taxonomy.Kind][]taxonomy.Entry
	table   taxonomy.CodeTable
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[taxonomy.Kind][]taxonomy.Entry)}
}

func (c *memCache) GetEntries(_ context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, bool) {
	entries, ok := c.entries[kind]
	return entries, ok
}

func (c *memCache) SetEntries(_ context.Context, kind taxonomy.Kind, entries []taxonomy.Entry) {
	c.entries[kind] = entries
}

func (c *memCache) InvalidateEntries(_ context.Context, kind taxonomy.Kind) {
	delete(c.entries, kind)
}

func (c *memCache) GetTable(_ context.Context) (taxonomy.CodeTable, bool) {
	if c.table == nil {
		return nil, false
	}
	return c.table, true
}

func (c *memCache) SetTable(_ context.Context, table taxonomy.CodeTable) {
	c.table = table
}

func (c *memCache) InvalidateTable(_ context.Context) {
	c.table = nil
}

var _ TaxonomyCache = (*memCache)(nil)

func newService() (*ClassificationService, *fakeEntryRepo, *fakeCodeTableRepo, *fakeRuleRepo, *memCache) {
	entries := &fakeEntryRepo{entries: make(map[taxonomy.Kind][]taxonomy.Entry)}
	codes := &fakeCodeTableRepo{table: make(taxonomy.CodeTable)}
	rules := newFakeRuleRepo()
	cache := newMemCache()
	return NewClassificationService(entries, codes, rules, cache), entries, codes, rules, cache
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestClassificationService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Table entry wins over entry fallback", func(t *testing.T) {
		svc, entries, codes, _, _ := newService()
		entries.entries[taxonomy.KindBrand] = []taxonomy.Entry{{ID: "brand-99", Code: "DELL", Name: "Dell"}}
		codes.table = taxonomy.CodeTable{taxonomy.KindBrand: {"DELL": "brand-42"}}

		id, ok, err := svc.Resolve(ctx, taxonomy.KindBrand, "dell")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "brand-42", id)
	})

	t.Run("Miss is not an error", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		_, ok, err := svc.Resolve(ctx, taxonomy.KindBrand, "UNKNOWN")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Second resolve is served from cache", func(t *testing.T) {
		svc, entries, codes, _, _ := newService()
		entries.entries[taxonomy.KindBrand] = []taxonomy.Entry{{ID: "brand-1", Code: "HP", Name: "HP"}}

		_, _, err := svc.Resolve(ctx, taxonomy.KindBrand, "HP")
		require.NoError(t, err)
		_, _, err = svc.Resolve(ctx, taxonomy.KindBrand, "HP")
		require.NoError(t, err)

		assert.Equal(t, 1, entries.loads)
		assert.Equal(t, 1, codes.loads)
	})

	t.Run("Saving a mapping invalidates the cached table", func(t *testing.T) {
		svc, entries, _, _, _ := newService()
		entries.entries[taxonomy.KindBrand] = []taxonomy.Entry{}

		_, ok, err := svc.Resolve(ctx, taxonomy.KindBrand, "acer")
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, svc.SaveMapping(ctx, taxonomy.KindBrand, " acer ", "brand-7"))

		id, ok, err := svc.Resolve(ctx, taxonomy.KindBrand, "ACER")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "brand-7", id)
	})

	t.Run("Refreshing entries invalidates the cached entries", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		_, ok, err := svc.Resolve(ctx, taxonomy.KindCategory, "MON")
		require.NoError(t, err)
		require.False(t, ok)

		fresh := []taxonomy.Entry{{ID: "cat-3", Code: "MON", Name: "Monitors"}}
		require.NoError(t, svc.RefreshEntries(ctx, taxonomy.KindCategory, fresh))

		id, ok, err := svc.Resolve(ctx, taxonomy.KindCategory, "mon")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "cat-3", id)
	})
}

func TestClassificationService_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("Uses the active rule set", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		_, err := svc.CreateRule(ctx, RuleRequest{ERPClassCode: "MOR", WebCategoryID: strPtr("cat-broad")})
		require.NoError(t, err)
		_, err = svc.CreateRule(ctx, RuleRequest{ERPClassCode: "MOR", ERPClassCode2: strPtr("21"), WebCategoryID: strPtr("cat-specific")})
		require.NoError(t, err)

		id, err := svc.Classify(ctx, "MOR", strPtr("21"))
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, "cat-specific", *id)
	})

	t.Run("No rule yields nil", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		id, err := svc.Classify(ctx, "XXX", nil)
		require.NoError(t, err)
		assert.Nil(t, id)
	})
}

func TestClassificationService_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("Duplicate active pair rejected", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		_, err := svc.CreateRule(ctx, RuleRequest{ERPClassCode: "MOR", WebCategoryID: strPtr("cat-a")})
		require.NoError(t, err)

		_, err = svc.CreateRule(ctx, RuleRequest{ERPClassCode: " mor ", WebCategoryID: strPtr("cat-b")})
		assert.ErrorIs(t, err, taxonomy.ErrRulePairExists)
	})

	t.Run("Deactivated pair can be claimed by a new rule", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		first, err := svc.CreateRule(ctx, RuleRequest{ERPClassCode: "MOR", WebCategoryID: strPtr("cat-a")})
		require.NoError(t, err)
		_, err = svc.DeactivateRule(ctx, first.ID)
		require.NoError(t, err)

		_, err = svc.CreateRule(ctx, RuleRequest{ERPClassCode: "MOR", WebCategoryID: strPtr("cat-b")})
		require.NoError(t, err)

		_, err = svc.ActivateRule(ctx, first.ID)
		assert.ErrorIs(t, err, taxonomy.ErrRulePairExists)
	})

	t.Run("Update moves a rule to a free pair", func(t *testing.T) {
		svc, _, _, rules, _ := newService()
		rule, err := svc.CreateRule(ctx, RuleRequest{ERPClassCode: "MOR", WebCategoryID: strPtr("cat-a")})
		require.NoError(t, err)

		updated, err := svc.UpdateRule(ctx, rule.ID, RuleRequest{ERPClassCode: "MOR", ERPClassCode2: strPtr("21"), WebCategoryID: strPtr("cat-a")})
		require.NoError(t, err)
		require.NotNil(t, updated.ERPClassCode2)
		assert.Equal(t, "21", *updated.ERPClassCode2)
		assert.Len(t, rules.rules, 1)
	})

	t.Run("Delete unknown rule", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		err := svc.DeleteRule(ctx, uuid.New())
		assert.ErrorIs(t, err, taxonomy.ErrRuleNotFound)
	})

	t.Run("ListRules filters by activity", func(t *testing.T) {
		svc, _, _, _, _ := newService()
		_, err := svc.CreateRule(ctx, RuleRequest{ERPClassCode: "AAA", WebCategoryID: strPtr("cat-a")})
		require.NoError(t, err)
		inactive, err := svc.CreateRule(ctx, RuleRequest{ERPClassCode: "BBB", WebCategoryID: strPtr("cat-b")})
		require.NoError(t, err)
		_, err = svc.DeactivateRule(ctx, inactive.ID)
		require.NoError(t, err)

		all, err := svc.ListRules(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		activeOnly, err := svc.ListRules(ctx, true)
		require.NoError(t, err)
		require.Len(t, activeOnly, 1)
		assert.Equal(t, "AAA", activeOnly[0].ERPClassCode)
	})
}
