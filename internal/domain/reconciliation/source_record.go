package reconciliation

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// SourceRecord Errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidSourceSystem = errors.New("reconciliation: invalid source system")
	ErrEmptySourceCode     = errors.New("reconciliation: source record code is required")
	ErrSystemMismatch      = errors.New("reconciliation: source record system does not match reference slot")
)

// ---------------------------------------------------------------------------
// SourceSystem
// ---------------------------------------------------------------------------

// SourceSystem identifies which external system a SourceRecord came from.
type SourceSystem string

const (
	// SourceSystemWeb is the customer-facing web catalog
	SourceSystemWeb SourceSystem = "WEB"
	// SourceSystemERP is the inventory/ordering system (stock and wholesale price truth)
	SourceSystemERP SourceSystem = "ERP"
	// SourceSystemLedger is the accounting system (read-only secondary source)
	SourceSystemLedger SourceSystem = "LEDGER"
)

// IsValid returns true if the source system is valid
func (s SourceSystem) IsValid() bool {
	switch s {
	case SourceSystemWeb, SourceSystemERP, SourceSystemLedger:
		return true
	default:
		return false
	}
}

// String returns the string representation of SourceSystem
func (s SourceSystem) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SourceRecord Value Object
// ---------------------------------------------------------------------------

// SourceRecord is one system's view of a logical product, supplied fresh by
// the external catalog/ERP-sync layer on every reconciliation pass. The
// engine never persists SourceRecords on its own; only the snapshot attached
// to a ReconciliationRecord is stored, for display and diffing.
type SourceRecord struct {
	// System identifies the originating system
	System SourceSystem `json:"system"`
	// Code is the identifier in that system's namespace
	// (Web numeric id / SKU, ERP product code, LEDGER code)
	Code string `json:"code"`
	// Name is the display name in that system
	Name string `json:"name"`
	// Price is the system-local price
	Price decimal.Decimal `json:"price"`
	// Stock is the system-local total stock figure
	Stock decimal.Decimal `json:"stock"`
	// ClassificationCodes holds 1-3 raw classification strings (ERP only),
	// used for brand/category resolution when creating a Web entry
	ClassificationCodes []string `json:"classification_codes,omitempty"`
	// WarehouseStock holds per-warehouse stock quantities (ERP only);
	// aggregated via SyncConfig.Warehouses into the effective stock figure
	WarehouseStock map[string]decimal.Decimal `json:"warehouse_stock,omitempty"`
	// PriceTiers holds per-tier prices (ERP only); a missing tier is treated
	// as null when resolving the effective price
	PriceTiers map[string]decimal.Decimal `json:"price_tiers,omitempty"`
}

// Validate validates the source record
func (r *SourceRecord) Validate() error {
	if !r.System.IsValid() {
		return ErrInvalidSourceSystem
	}
	if r.Code == "" {
		return ErrEmptySourceCode
	}
	return nil
}
