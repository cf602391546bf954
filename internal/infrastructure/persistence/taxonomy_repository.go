package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailops/backend/internal/domain/taxonomy"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
)

// ---------------------------------------------------------------------------
// GormTaxonomyEntryRepository
// ---------------------------------------------------------------------------

// GormTaxonomyEntryRepository implements EntryRepository using GORM
type GormTaxonomyEntryRepository struct {
	db *gorm.DB
}

// NewGormTaxonomyEntryRepository creates a new GormTaxonomyEntryRepository
func NewGormTaxonomyEntryRepository(db *gorm.DB) *GormTaxonomyEntryRepository {
	return &GormTaxonomyEntryRepository{db: db}
}

// FindByKind returns all entries of a taxonomy kind, in catalog order
func (r *GormTaxonomyEntryRepository) FindByKind(ctx context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, error) {
	var entryModels []models.TaxonomyEntryModel
	if err := r.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Order("position ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]taxonomy.Entry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = model.ToDomain()
	}
	return entries, nil
}

// SaveAll replaces the stored entries for a kind with a fresh snapshot.
// Position records the catalog order so FindByKind can reproduce it.
func (r *GormTaxonomyEntryRepository) SaveAll(ctx context.Context, kind taxonomy.Kind, entries []taxonomy.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ?", string(kind)).
			Delete(&models.TaxonomyEntryModel{}).Error; err != nil {
			return err
		}

		if len(entries) == 0 {
			return nil
		}

		now := time.Now()
		entryModels := make([]models.TaxonomyEntryModel, len(entries))
		for i, entry := range entries {
			entryModels[i] = models.TaxonomyEntryModel{
				Kind:      string(kind),
				EntryID:   entry.ID,
				Code:      entry.Code,
				Name:      entry.Name,
				Position:  i,
				UpdatedAt: now,
			}
		}
		return tx.Create(&entryModels).Error
	})
}

// ---------------------------------------------------------------------------
// GormCodeTableRepository
// ---------------------------------------------------------------------------

// GormCodeTableRepository implements CodeTableRepository using GORM
type GormCodeTableRepository struct {
	db *gorm.DB
}

// NewGormCodeTableRepository creates a new GormCodeTableRepository
func NewGormCodeTableRepository(db *gorm.DB) *GormCodeTableRepository {
	return &GormCodeTableRepository{db: db}
}

// Load returns the full code table
func (r *GormCodeTableRepository) Load(ctx context.Context) (taxonomy.CodeTable, error) {
	var mappingModels []models.CodeMappingModel
	if err := r.db.WithContext(ctx).Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	table := taxonomy.CodeTable{}
	for _, model := range mappingModels {
		kind := taxonomy.Kind(model.Kind)
		if table[kind] == nil {
			table[kind] = make(map[string]string)
		}
		table[kind][model.ERPCode] = model.WebID
	}
	return table, nil
}

// SaveMapping creates or updates one table row
func (r *GormCodeTableRepository) SaveMapping(ctx context.Context, kind taxonomy.Kind, erpCode, webID string) error {
	model := models.CodeMappingModel{
		Kind:      string(kind),
		ERPCode:   erpCode,
		WebID:     webID,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "erp_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"web_id", "updated_at"}),
		}).
		Create(&model).Error
}

// DeleteMapping removes one table row
func (r *GormCodeTableRepository) DeleteMapping(ctx context.Context, kind taxonomy.Kind, erpCode string) error {
	return r.db.WithContext(ctx).
		Where("kind = ? AND erp_code = ?", string(kind), erpCode).
		Delete(&models.CodeMappingModel{}).Error
}

// ---------------------------------------------------------------------------
// GormCategoryRuleRepository
// ---------------------------------------------------------------------------

// GormCategoryRuleRepository implements CategoryRuleRepository using GORM
type GormCategoryRuleRepository struct {
	db *gorm.DB
}

// NewGormCategoryRuleRepository creates a new GormCategoryRuleRepository
func NewGormCategoryRuleRepository(db *gorm.DB) *GormCategoryRuleRepository {
	return &GormCategoryRuleRepository{db: db}
}

// FindByID finds a rule by its ID
func (r *GormCategoryRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*taxonomy.CategoryRule, error) {
	var model models.CategoryRuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taxonomy.ErrRuleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all rules, newest first
func (r *GormCategoryRuleRepository) FindAll(ctx context.Context) ([]taxonomy.CategoryRule, error) {
	return r.findRules(ctx, r.db.WithContext(ctx))
}

// FindActive returns only active rules
func (r *GormCategoryRuleRepository) FindActive(ctx context.Context) ([]taxonomy.CategoryRule, error) {
	return r.findRules(ctx, r.db.WithContext(ctx).Where("is_active = ?", true))
}

func (r *GormCategoryRuleRepository) findRules(ctx context.Context, query *gorm.DB) ([]taxonomy.CategoryRule, error) {
	var ruleModels []models.CategoryRuleModel
	if err := query.Order("created_at DESC").Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	rules := make([]taxonomy.CategoryRule, len(ruleModels))
	for i, model := range ruleModels {
		rules[i] = *model.ToDomain()
	}
	return rules, nil
}

// ExistsActivePair reports whether an active rule already claims the code
// pair. A nil erpClassCode2 only collides with other nil-code2 rules.
func (r *GormCategoryRuleRepository) ExistsActivePair(ctx context.Context, erpClassCode string, erpClassCode2 *string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CategoryRuleModel{}).
		Where("erp_class_code = ? AND is_active = ?", erpClassCode, true)

	if erpClassCode2 == nil {
		query = query.Where("erp_class_code2 IS NULL")
	} else {
		query = query.Where("erp_class_code2 = ?", *erpClassCode2)
	}

	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a rule
func (r *GormCategoryRuleRepository) Save(ctx context.Context, rule *taxonomy.CategoryRule) error {
	model := models.CategoryRuleModelFromDomain(rule)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// Delete deletes a rule
func (r *GormCategoryRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CategoryRuleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return taxonomy.ErrRuleNotFound
	}
	return nil
}

// Ensure the repositories implement their domain interfaces
var (
	_ taxonomy.EntryRepository        = (*GormTaxonomyEntryRepository)(nil)
	_ taxonomy.CodeTableRepository    = (*GormCodeTableRepository)(nil)
	_ taxonomy.CategoryRuleRepository = (*GormCategoryRuleRepository)(nil)
)
