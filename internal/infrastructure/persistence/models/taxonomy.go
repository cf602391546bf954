package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailops/backend/internal/domain/taxonomy"
)

// TaxonomyEntryModel is the stored snapshot of one Web taxonomy entry.
// Position preserves the catalog order the resolver's fallback depends on.
type TaxonomyEntryModel struct {
	Kind      string    `gorm:"type:varchar(20);primary_key"`
	EntryID   string    `gorm:"type:varchar(100);primary_key;column:entry_id"`
	Code      string    `gorm:"type:varchar(100);not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Position  int       `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaxonomyEntryModel) TableName() string {
	return "taxonomy_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *TaxonomyEntryModel) ToDomain() taxonomy.Entry {
	return taxonomy.Entry{
		ID:   m.EntryID,
		Code: m.Code,
		Name: m.Name,
	}
}

// CodeMappingModel is one row of the curated ERP-code mapping table
type CodeMappingModel struct {
	Kind      string    `gorm:"type:varchar(20);primary_key"`
	ERPCode   string    `gorm:"type:varchar(100);primary_key;column:erp_code"`
	WebID     string    `gorm:"type:varchar(100);not null;column:web_id"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CodeMappingModel) TableName() string {
	return "taxonomy_code_mappings"
}

// CategoryRuleModel is the persistence model for the CategoryRule entity
type CategoryRuleModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	ERPClassCode  string    `gorm:"type:varchar(50);not null;column:erp_class_code;index:idx_category_rule_code"`
	ERPClassCode2 *string   `gorm:"type:varchar(50);column:erp_class_code2"`
	WebCategoryID *string   `gorm:"type:varchar(100);column:web_category_id"`
	IsActive      bool      `gorm:"not null;default:true;index:idx_category_rule_active"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryRuleModel) TableName() string {
	return "category_rules"
}

// ToDomain converts the persistence model to a domain CategoryRule
func (m *CategoryRuleModel) ToDomain() *taxonomy.CategoryRule {
	return &taxonomy.CategoryRule{
		ID:            m.ID,
		ERPClassCode:  m.ERPClassCode,
		ERPClassCode2: m.ERPClassCode2,
		WebCategoryID: m.WebCategoryID,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CategoryRule
func (m *CategoryRuleModel) FromDomain(r *taxonomy.CategoryRule) {
	m.ID = r.ID
	m.ERPClassCode = r.ERPClassCode
	m.ERPClassCode2 = r.ERPClassCode2
	m.WebCategoryID = r.WebCategoryID
	m.IsActive = r.IsActive
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}

// CategoryRuleModelFromDomain creates a new persistence model from a domain
// CategoryRule
func CategoryRuleModelFromDomain(r *taxonomy.CategoryRule) *CategoryRuleModel {
	m := &CategoryRuleModel{}
	m.FromDomain(r)
	return m
}
