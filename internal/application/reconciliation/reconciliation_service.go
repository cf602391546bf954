package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/reconciliation"
)

// ReconciliationService drives reconciliation passes and the mapping
// workflow over persisted records. The domain engine stays pure; this
// service is the only place where detection results and workflow
// transitions are written back.
type ReconciliationService struct {
	records reconciliation.RecordRepository
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(records reconciliation.RecordRepository) *ReconciliationService {
	return &ReconciliationService{records: records}
}

// ---------------------------------------------------------------------------
// Reconciliation pass
// ---------------------------------------------------------------------------

// Reconcile runs one reconciliation pass for a single logical product.
// The caller supplies fresh SourceRecords from every system that currently
// reports the product. The record is created on first sight, its source
// snapshots are replaced, conflicts are recomputed from scratch and the
// result is persisted. Confirmation status is never changed here.
func (s *ReconciliationService) Reconcile(ctx context.Context, sources []reconciliation.SourceRecord) (*reconciliation.ReconciliationRecord, error) {
	if len(sources) == 0 {
		return nil, reconciliation.ErrNoSourceReference
	}
	for i := range sources {
		if err := sources[i].Validate(); err != nil {
			return nil, err
		}
	}

	record, err := s.locate(ctx, sources)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record, err = reconciliation.NewReconciliationRecord(sources[0])
		if err != nil {
			return nil, err
		}
		sources = sources[1:]
	}

	for _, source := range sources {
		if err := s.guardCrossLink(ctx, record, source); err != nil {
			return nil, err
		}
		if err := record.AttachSource(source); err != nil {
			return nil, err
		}
	}

	record.ApplyConflicts(reconciliation.DetectConflicts(record))

	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// PreviewConflicts recomputes conflicts for a record without persisting
// anything, for what-if display.
func (s *ReconciliationService) PreviewConflicts(ctx context.Context, recordID uuid.UUID) ([]reconciliation.ConflictFlag, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return reconciliation.DetectConflicts(record), nil
}

// ---------------------------------------------------------------------------
// Mapping workflow
// ---------------------------------------------------------------------------

// LinkRecord attaches operator-chosen ERP and/or LEDGER counterparts (or a
// Web entry) to a record, creating the record when none of the supplied
// codes has been seen before. Conflicts are recomputed against the new
// linkage before saving.
func (s *ReconciliationService) LinkRecord(ctx context.Context, req LinkRequest) (*reconciliation.ReconciliationRecord, error) {
	sources := req.sources()
	if len(sources) == 0 {
		return nil, reconciliation.ErrNoSourceReference
	}

	var record *reconciliation.ReconciliationRecord
	var err error
	if req.RecordID != nil {
		record, err = s.records.FindByID(ctx, *req.RecordID)
		if err != nil {
			return nil, err
		}
	} else {
		record, err = s.locate(ctx, sources)
		if err != nil {
			return nil, err
		}
	}
	if record == nil {
		record, err = reconciliation.NewReconciliationRecord(sources[0])
		if err != nil {
			return nil, err
		}
		sources = sources[1:]
	}

	for _, source := range sources {
		if err := s.guardCrossLink(ctx, record, source); err != nil {
			return nil, err
		}
		if err := record.AttachSource(source); err != nil {
			return nil, err
		}
	}

	record.ApplyConflicts(reconciliation.DetectConflicts(record))

	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ConfirmMapping locks the identifier correspondence and persists the sync
// config as authoritative. Confirms racing on the same record are serialized
// through an optimistic version check: the losing operator receives
// ErrConcurrentConfirm and must re-fetch before retrying. The record is
// never partially mutated on failure.
func (s *ReconciliationService) ConfirmMapping(ctx context.Context, recordID uuid.UUID, cfg reconciliation.SyncConfig) (*reconciliation.ReconciliationRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	expectedVersion := record.Version
	if err := record.Confirm(cfg); err != nil {
		return nil, err
	}
	record.ApplyConflicts(reconciliation.DetectConflicts(record))

	if err := s.records.SaveWithVersion(ctx, record, expectedVersion); err != nil {
		return nil, err
	}
	return record, nil
}

// UnlockMapping reverts a confirmed record to LINKED for editing
func (s *ReconciliationService) UnlockMapping(ctx context.Context, recordID uuid.UUID) (*reconciliation.ReconciliationRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := record.Unlock(); err != nil {
		return nil, err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RemoveLinkage severs the ERP/LEDGER references and drops the sync config
func (s *ReconciliationService) RemoveLinkage(ctx context.Context, recordID uuid.UUID) (*reconciliation.ReconciliationRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	record.RemoveLinkage()
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateNotes replaces the operator annotation on a record
func (s *ReconciliationService) UpdateNotes(ctx context.Context, recordID uuid.UUID, notes string) (*reconciliation.ReconciliationRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	record.Notes = notes
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// GetRecord retrieves a record by ID
func (s *ReconciliationService) GetRecord(ctx context.Context, recordID uuid.UUID) (*reconciliation.ReconciliationRecord, error) {
	return s.records.FindByID(ctx, recordID)
}

// ListRecords lists records with filtering and pagination
func (s *ReconciliationService) ListRecords(ctx context.Context, filter reconciliation.RecordFilter) ([]reconciliation.ReconciliationRecord, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	records, err := s.records.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.records.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return records, count, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// locate finds the existing record owning any of the supplied source codes
func (s *ReconciliationService) locate(ctx context.Context, sources []reconciliation.SourceRecord) (*reconciliation.ReconciliationRecord, error) {
	for _, source := range sources {
		record, err := s.records.FindBySourceCode(ctx, source.System, source.Code)
		if err == nil {
			return record, nil
		}
		if err != reconciliation.ErrRecordNotFound {
			return nil, err
		}
	}
	return nil, nil
}

// guardCrossLink rejects attaching a source code that another record already
// owns; a code belongs to exactly one logical product.
func (s *ReconciliationService) guardCrossLink(ctx context.Context, record *reconciliation.ReconciliationRecord, source reconciliation.SourceRecord) error {
	owner, err := s.records.FindBySourceCode(ctx, source.System, source.Code)
	if err != nil {
		if err == reconciliation.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if owner.ID != record.ID {
		return reconciliation.ErrRecordAlreadyLinked
	}
	return nil
}
