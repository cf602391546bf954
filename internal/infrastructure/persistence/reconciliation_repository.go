package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailops/backend/internal/domain/reconciliation"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
)

// GormRecordRepository implements RecordRepository using GORM
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// ---------------------------------------------------------------------------
// RecordReader implementation
// ---------------------------------------------------------------------------

// FindByID finds a record by its ID
func (r *GormRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconciliation.ReconciliationRecord, error) {
	var model models.ReconciliationRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconciliation.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySourceCode finds the record holding a source code in the given
// system's reference slot
func (r *GormRecordRepository) FindBySourceCode(ctx context.Context, system reconciliation.SourceSystem, code string) (*reconciliation.ReconciliationRecord, error) {
	column, err := sourceCodeColumn(system)
	if err != nil {
		return nil, err
	}

	var model models.ReconciliationRecordModel
	if err := r.db.WithContext(ctx).First(&model, column+" = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconciliation.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ---------------------------------------------------------------------------
// RecordFinder implementation
// ---------------------------------------------------------------------------

// FindAll finds records matching the filter, paginated
func (r *GormRecordRepository) FindAll(ctx context.Context, filter reconciliation.RecordFilter) ([]reconciliation.ReconciliationRecord, error) {
	var recordModels []models.ReconciliationRecordModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ReconciliationRecordModel{}), filter)

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]reconciliation.ReconciliationRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// Count counts records matching the filter
func (r *GormRecordRepository) Count(ctx context.Context, filter reconciliation.RecordFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ReconciliationRecordModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// RecordWriter implementation
// ---------------------------------------------------------------------------

// Save creates or updates a record
func (r *GormRecordRepository) Save(ctx context.Context, record *reconciliation.ReconciliationRecord) error {
	model := models.ReconciliationRecordModelFromDomain(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// SaveWithVersion updates a record only if the stored version still matches
// the version the caller read. A lost race surfaces as ErrConcurrentConfirm;
// the row is left exactly as the winner wrote it.
func (r *GormRecordRepository) SaveWithVersion(ctx context.Context, record *reconciliation.ReconciliationRecord, expectedVersion int) error {
	model := models.ReconciliationRecordModelFromDomain(record)
	model.Version = expectedVersion + 1

	result := r.db.WithContext(ctx).
		Model(&models.ReconciliationRecordModel{}).
		Where("id = ? AND version = ?", record.ID, expectedVersion).
		Updates(map[string]any{
			"web_code":      model.WebCode,
			"erp_code":      model.ERPCode,
			"ledger_code":   model.LedgerCode,
			"web_ref":       model.WebRefJSON,
			"erp_ref":       model.ERPRefJSON,
			"ledger_ref":    model.LedgerRefJSON,
			"status":        model.Status,
			"conflicts":     model.ConflictsJSON,
			"has_conflicts": model.HasConflicts,
			"sync_config":   model.SyncConfigJSON,
			"notes":         model.Notes,
			"version":       model.Version,
			"confirmed_at":  model.ConfirmedAt,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconciliation.ErrConcurrentConfirm
	}

	record.Version = model.Version
	return nil
}

// Delete deletes a record
func (r *GormRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ReconciliationRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconciliation.ErrRecordNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Filter helpers
// ---------------------------------------------------------------------------

// applyFilter applies filter options to the query
func (r *GormRecordRepository) applyFilter(query *gorm.DB, filter reconciliation.RecordFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query.Order("created_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRecordRepository) applyFilterWithoutPagination(query *gorm.DB, filter reconciliation.RecordFilter) *gorm.DB {
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", string(*filter.Status))
	}

	if filter.HasConflicts != nil {
		query = query.Where("has_conflicts = ?", *filter.HasConflicts)
	}

	// Search by source code (escape LIKE special characters)
	if filter.SearchKeyword != "" {
		pattern := "%" + escapeLikePattern(filter.SearchKeyword) + "%"
		query = query.Where("web_code ILIKE ? OR erp_code ILIKE ? OR ledger_code ILIKE ?",
			pattern, pattern, pattern)
	}

	return query
}

// sourceCodeColumn maps a source system to its extracted code column
func sourceCodeColumn(system reconciliation.SourceSystem) (string, error) {
	switch system {
	case reconciliation.SourceSystemWeb:
		return "web_code", nil
	case reconciliation.SourceSystemERP:
		return "erp_code", nil
	case reconciliation.SourceSystemLedger:
		return "ledger_code", nil
	default:
		return "", reconciliation.ErrInvalidSourceSystem
	}
}

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// Ensure GormRecordRepository implements RecordRepository
var _ reconciliation.RecordRepository = (*GormRecordRepository)(nil)
