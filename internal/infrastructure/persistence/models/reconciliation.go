package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/retailops/backend/internal/domain/reconciliation"
)

// ReconciliationRecordModel is the persistence model for the
// ReconciliationRecord aggregate. Source snapshots, conflicts and the sync
// config are stored as JSON documents; the per-system codes are extracted
// into indexed columns for lookup and uniqueness.
type ReconciliationRecordModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	WebCode        *string    `gorm:"type:varchar(100);column:web_code;uniqueIndex:idx_recon_web_code"`
	ERPCode        *string    `gorm:"type:varchar(100);column:erp_code;uniqueIndex:idx_recon_erp_code"`
	LedgerCode     *string    `gorm:"type:varchar(100);column:ledger_code;uniqueIndex:idx_recon_ledger_code"`
	WebRefJSON     *string    `gorm:"type:jsonb;column:web_ref"`
	ERPRefJSON     *string    `gorm:"type:jsonb;column:erp_ref"`
	LedgerRefJSON  *string    `gorm:"type:jsonb;column:ledger_ref"`
	Status         string     `gorm:"type:varchar(20);not null;index:idx_recon_status"`
	ConflictsJSON  string     `gorm:"type:jsonb;column:conflicts"`
	HasConflicts   bool       `gorm:"not null;default:false;index:idx_recon_has_conflicts"`
	SyncConfigJSON *string    `gorm:"type:jsonb;column:sync_config"`
	Notes          string     `gorm:"type:text"`
	Version        int        `gorm:"not null;default:1"`
	ConfirmedAt    *time.Time `gorm:"column:confirmed_at"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReconciliationRecordModel) TableName() string {
	return "reconciliation_records"
}

// ToDomain converts the persistence model to a domain ReconciliationRecord
func (m *ReconciliationRecordModel) ToDomain() *reconciliation.ReconciliationRecord {
	record := &reconciliation.ReconciliationRecord{
		ID:          m.ID,
		Status:      reconciliation.MappingStatus(m.Status),
		Conflicts:   make([]reconciliation.ConflictFlag, 0),
		Notes:       m.Notes,
		Version:     m.Version,
		ConfirmedAt: m.ConfirmedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	record.WebRef = unmarshalRef(m.WebRefJSON)
	record.ERPRef = unmarshalRef(m.ERPRefJSON)
	record.LedgerRef = unmarshalRef(m.LedgerRefJSON)

	if m.ConflictsJSON != "" {
		var flags []reconciliation.ConflictFlag
		if err := json.Unmarshal([]byte(m.ConflictsJSON), &flags); err == nil {
			record.Conflicts = flags
		}
	}

	if m.SyncConfigJSON != nil && *m.SyncConfigJSON != "" {
		var cfg reconciliation.SyncConfig
		if err := json.Unmarshal([]byte(*m.SyncConfigJSON), &cfg); err == nil {
			record.SyncConfig = &cfg
		}
	}

	return record
}

// FromDomain populates the persistence model from a domain ReconciliationRecord
func (m *ReconciliationRecordModel) FromDomain(r *reconciliation.ReconciliationRecord) {
	m.ID = r.ID
	m.Status = string(r.Status)
	m.Notes = r.Notes
	m.Version = r.Version
	m.ConfirmedAt = r.ConfirmedAt
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt

	m.WebCode, m.WebRefJSON = marshalRef(r.WebRef)
	m.ERPCode, m.ERPRefJSON = marshalRef(r.ERPRef)
	m.LedgerCode, m.LedgerRefJSON = marshalRef(r.LedgerRef)

	m.HasConflicts = len(r.Conflicts) > 0
	if jsonBytes, err := json.Marshal(r.Conflicts); err == nil {
		m.ConflictsJSON = string(jsonBytes)
	} else {
		m.ConflictsJSON = "[]"
	}

	m.SyncConfigJSON = nil
	if r.SyncConfig != nil {
		if jsonBytes, err := json.Marshal(r.SyncConfig); err == nil {
			s := string(jsonBytes)
			m.SyncConfigJSON = &s
		}
	}
}

// ReconciliationRecordModelFromDomain creates a new persistence model from a
// domain ReconciliationRecord
func ReconciliationRecordModelFromDomain(r *reconciliation.ReconciliationRecord) *ReconciliationRecordModel {
	m := &ReconciliationRecordModel{}
	m.FromDomain(r)
	return m
}

func marshalRef(ref *reconciliation.SourceRecord) (code *string, doc *string) {
	if ref == nil {
		return nil, nil
	}
	c := ref.Code
	code = &c
	if jsonBytes, err := json.Marshal(ref); err == nil {
		s := string(jsonBytes)
		doc = &s
	}
	return code, doc
}

func unmarshalRef(doc *string) *reconciliation.SourceRecord {
	if doc == nil || *doc == "" {
		return nil
	}
	var ref reconciliation.SourceRecord
	if err := json.Unmarshal([]byte(*doc), &ref); err != nil {
		return nil
	}
	return &ref
}
