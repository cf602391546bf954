package reconciliation

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/reconciliation"
)

// LinkRequest carries an operator's linkage choice. RecordID pins the target
// record; when nil the record is located through the supplied source codes
// and created if none match.
type LinkRequest struct {
	RecordID *uuid.UUID
	Web      *reconciliation.SourceRecord
	ERP      *reconciliation.SourceRecord
	Ledger   *reconciliation.SourceRecord
}

// sources returns the non-nil references in WEB, ERP, LEDGER order
func (r LinkRequest) sources() []reconciliation.SourceRecord {
	var out []reconciliation.SourceRecord
	if r.Web != nil {
		out = append(out, *r.Web)
	}
	if r.ERP != nil {
		out = append(out, *r.ERP)
	}
	if r.Ledger != nil {
		out = append(out, *r.Ledger)
	}
	return out
}
