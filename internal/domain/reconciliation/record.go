package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ReconciliationRecord Errors
// ---------------------------------------------------------------------------

var (
	ErrRecordNotFound      = errors.New("reconciliation: record not found")
	ErrIncompleteMapping   = errors.New("reconciliation: cannot confirm mapping without an ERP reference")
	ErrNotConfirmed        = errors.New("reconciliation: record is not confirmed")
	ErrConcurrentConfirm   = errors.New("reconciliation: record was modified by another operator, re-fetch and retry")
	ErrNoSourceReference   = errors.New("reconciliation: at least one source reference is required")
	ErrRecordAlreadyLinked = errors.New("reconciliation: source code is already linked to another record")
)

// ---------------------------------------------------------------------------
// MappingStatus
// ---------------------------------------------------------------------------

// MappingStatus is the lifecycle state of a record's cross-system linkage.
// CONFLICTED is intentionally not a persisted status: it is an overlay that
// external surfaces derive from a LINKED record with a non-empty conflict
// set, avoiding a dual source of truth.
type MappingStatus string

const (
	// MappingStatusUnlinked indicates no non-Web counterpart is attached yet
	MappingStatusUnlinked MappingStatus = "UNLINKED"
	// MappingStatusLinked indicates an ERP (and optionally LEDGER) counterpart is attached
	MappingStatusLinked MappingStatus = "LINKED"
	// MappingStatusConfirmed indicates an operator locked the correspondence
	MappingStatusConfirmed MappingStatus = "CONFIRMED"
)

// IsValid returns true if the status is valid
func (s MappingStatus) IsValid() bool {
	switch s {
	case MappingStatusUnlinked, MappingStatusLinked, MappingStatusConfirmed:
		return true
	default:
		return false
	}
}

// String returns the string representation of MappingStatus
func (s MappingStatus) String() string {
	return string(s)
}

// DisplayStatus is the status rendered by operator-facing surfaces.
// It extends MappingStatus with the CONFLICTED overlay.
type DisplayStatus string

const (
	DisplayStatusUnlinked   DisplayStatus = "UNLINKED"
	DisplayStatusLinked     DisplayStatus = "LINKED"
	DisplayStatusConflicted DisplayStatus = "CONFLICTED"
	DisplayStatusConfirmed  DisplayStatus = "CONFIRMED"
)

// ---------------------------------------------------------------------------
// ReconciliationRecord Entity
// ---------------------------------------------------------------------------

// ReconciliationRecord is the durable unit representing one logical product's
// cross-system linkage, its detected conflicts and its confirmation status.
// It is created the first time any source system reports an unseen product
// code and is never deleted automatically; only an explicit operator action
// severs the linkage.
type ReconciliationRecord struct {
	// ID is the stable identity of the logical product
	ID uuid.UUID
	// WebRef is the Web catalog view; nil means "not yet created on Web"
	WebRef *SourceRecord
	// ERPRef is the ERP view; nil means not linked to ERP
	ERPRef *SourceRecord
	// LedgerRef is the accounting view; nil means not linked to LEDGER
	LedgerRef *SourceRecord
	// Status is derived by the workflow methods, never set directly
	Status MappingStatus
	// Conflicts is the result of the most recent detection pass
	Conflicts []ConflictFlag
	// SyncConfig is present once a mapping exists
	SyncConfig *SyncConfig
	// Notes is a free-text operator annotation
	Notes string
	// Version supports optimistic locking on confirm
	Version int
	// ConfirmedAt is when the mapping was last confirmed
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewReconciliationRecord creates a record from the first sighting of a
// logical product in any source system.
func NewReconciliationRecord(source SourceRecord) (*ReconciliationRecord, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	record := &ReconciliationRecord{
		ID:        uuid.New(),
		Status:    MappingStatusUnlinked,
		Conflicts: make([]ConflictFlag, 0),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	record.setRef(&source)
	record.refreshStatus()
	return record, nil
}

// AttachSource attaches or replaces the record's view of one source system.
// Attaching a non-Web source to an UNLINKED record moves it to LINKED; a
// record holding only a Web reference stays UNLINKED. A CONFIRMED record
// keeps its status: fresh source data updates the snapshot for conflict
// detection but never silently reverts the confirmation.
func (r *ReconciliationRecord) AttachSource(source SourceRecord) error {
	if err := source.Validate(); err != nil {
		return err
	}
	r.setRef(&source)
	r.refreshStatus()
	r.UpdatedAt = time.Now()
	return nil
}

// Ref returns the record's view of the given system, or nil
func (r *ReconciliationRecord) Ref(system SourceSystem) *SourceRecord {
	switch system {
	case SourceSystemWeb:
		return r.WebRef
	case SourceSystemERP:
		return r.ERPRef
	case SourceSystemLedger:
		return r.LedgerRef
	default:
		return nil
	}
}

// Confirm locks the correspondence between the Web entry and its ERP (and
// optional LEDGER) counterparts and persists the sync config as
// authoritative. An ERP reference is required; outstanding conflicts are not,
// because price/stock drift is an operational fact to fix separately, not a
// reason to block identity confirmation.
func (r *ReconciliationRecord) Confirm(cfg SyncConfig) error {
	if r.ERPRef == nil {
		return ErrIncompleteMapping
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	now := time.Now()
	r.SyncConfig = &cfg
	r.Status = MappingStatusConfirmed
	r.ConfirmedAt = &now
	r.UpdatedAt = now
	return nil
}

// Unlock reverts a confirmed record to LINKED so an operator can edit the
// mapping. It is never triggered automatically.
func (r *ReconciliationRecord) Unlock() error {
	if r.Status != MappingStatusConfirmed {
		return ErrNotConfirmed
	}
	r.Status = MappingStatusLinked
	r.ConfirmedAt = nil
	r.UpdatedAt = time.Now()
	return nil
}

// RemoveLinkage severs the ERP and LEDGER references and drops the sync
// config, reverting the record toward UNLINKED. The Web reference and the
// record itself survive.
func (r *ReconciliationRecord) RemoveLinkage() {
	r.ERPRef = nil
	r.LedgerRef = nil
	r.SyncConfig = nil
	r.ConfirmedAt = nil
	r.Status = MappingStatusUnlinked
	r.Conflicts = make([]ConflictFlag, 0)
	r.UpdatedAt = time.Now()
}

// ApplyConflicts replaces the record's conflict set with a freshly detected
// one. CONFIRMED status is sticky: new conflicts after confirmation are
// surfaced as badges but do not downgrade the status.
func (r *ReconciliationRecord) ApplyConflicts(flags []ConflictFlag) {
	if flags == nil {
		flags = make([]ConflictFlag, 0)
	}
	r.Conflicts = flags
	r.UpdatedAt = time.Now()
}

// HasConflicts returns true if the last detection pass found divergences
func (r *ReconciliationRecord) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// DisplayStatus derives the status rendered by operator-facing surfaces:
// a LINKED record with conflicts renders as CONFLICTED; a CONFIRMED record
// with conflicts stays CONFIRMED and carries conflict badges instead.
func (r *ReconciliationRecord) DisplayStatus() DisplayStatus {
	if r.Status == MappingStatusLinked && r.HasConflicts() {
		return DisplayStatusConflicted
	}
	return DisplayStatus(r.Status)
}

// setRef places the source into the slot matching its system
func (r *ReconciliationRecord) setRef(source *SourceRecord) {
	switch source.System {
	case SourceSystemWeb:
		r.WebRef = source
	case SourceSystemERP:
		r.ERPRef = source
	case SourceSystemLedger:
		r.LedgerRef = source
	}
}

// refreshStatus derives UNLINKED/LINKED from the attached references.
// CONFIRMED is left untouched; only Unlock or RemoveLinkage leave it.
func (r *ReconciliationRecord) refreshStatus() {
	if r.Status == MappingStatusConfirmed {
		return
	}
	if r.ERPRef != nil || r.LedgerRef != nil {
		r.Status = MappingStatusLinked
		return
	}
	r.Status = MappingStatusUnlinked
}

// ---------------------------------------------------------------------------
// RecordRepository Interface
// ---------------------------------------------------------------------------

// RecordReader defines the interface for reading reconciliation records
type RecordReader interface {
	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ReconciliationRecord, error)

	// FindBySourceCode finds the record holding the given code for a system
	FindBySourceCode(ctx context.Context, system SourceSystem, code string) (*ReconciliationRecord, error)
}

// RecordFinder defines the interface for searching reconciliation records
type RecordFinder interface {
	// FindAll finds records matching the filter
	FindAll(ctx context.Context, filter RecordFilter) ([]ReconciliationRecord, error)

	// Count counts records matching the filter
	Count(ctx context.Context, filter RecordFilter) (int64, error)
}

// RecordWriter defines the interface for persisting reconciliation records
type RecordWriter interface {
	// Save creates or updates a record
	Save(ctx context.Context, record *ReconciliationRecord) error

	// SaveWithVersion updates a record only if the stored version still
	// matches expectedVersion, incrementing the version on success.
	// Returns ErrConcurrentConfirm when another writer got there first.
	SaveWithVersion(ctx context.Context, record *ReconciliationRecord, expectedVersion int) error

	// Delete removes a record entirely (operator action only)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordRepository defines the full interface for record persistence
type RecordRepository interface {
	RecordReader
	RecordFinder
	RecordWriter
}

// RecordFilter defines filter criteria for reconciliation records
type RecordFilter struct {
	// Status filters by persisted status (optional)
	Status *MappingStatus
	// HasConflicts filters by conflict presence (optional)
	HasConflicts *bool
	// SearchKeyword searches in source codes and names (optional)
	SearchKeyword string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}
