package reconciliation

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// ConflictField
// ---------------------------------------------------------------------------

// ConflictField identifies which field of a linked pair diverged.
type ConflictField string

const (
	// ConflictFieldPrice indicates a price divergence
	ConflictFieldPrice ConflictField = "PRICE"
	// ConflictFieldStock indicates a stock quantity divergence
	ConflictFieldStock ConflictField = "STOCK"
	// ConflictFieldIdentifier indicates a SKU/code divergence
	ConflictFieldIdentifier ConflictField = "IDENTIFIER"
)

// IsValid returns true if the conflict field is valid
func (f ConflictField) IsValid() bool {
	switch f {
	case ConflictFieldPrice, ConflictFieldStock, ConflictFieldIdentifier:
		return true
	default:
		return false
	}
}

// String returns the string representation of ConflictField
func (f ConflictField) String() string {
	return string(f)
}

// ---------------------------------------------------------------------------
// ConflictFlag Value Object
// ---------------------------------------------------------------------------

// ConflictFlag records one detected divergence between two linked sources.
// A flag only ever exists between two present sources; a record cannot
// conflict with an absent source.
type ConflictFlag struct {
	// Field is the diverging field
	Field ConflictField `json:"field"`
	// SourceA and SourceB identify the two systems being compared
	SourceA SourceSystem `json:"source_a"`
	SourceB SourceSystem `json:"source_b"`
	// ValueA and ValueB are the diverging values, rendered for display
	ValueA string `json:"value_a"`
	ValueB string `json:"value_b"`
	// Magnitude is the absolute numeric difference; zero for identifier conflicts
	Magnitude decimal.Decimal `json:"magnitude"`
}

// ---------------------------------------------------------------------------
// Conflict detection
// ---------------------------------------------------------------------------

// DetectConflicts compares the linked sources of a record and returns the
// full set of divergences. It is pure and deterministic: the result replaces
// the record's conflict set on every pass, it is never merged into it.
//
// Rules, evaluated only when both sides of a pair are present:
//   - IDENTIFIER: Web SKU vs ERP product code, copy-exact comparison
//   - PRICE: Web price vs effective ERP price, exact decimal equality
//   - STOCK: Web stock vs effective ERP stock, exact decimal equality
//
// When no effective ERP price exists (all configured tiers null/zero) the
// price comparison is skipped entirely rather than treated as a zero-price
// conflict.
func DetectConflicts(record *ReconciliationRecord) []ConflictFlag {
	flags := make([]ConflictFlag, 0)

	web := record.WebRef
	erp := record.ERPRef
	if web == nil || erp == nil {
		return flags
	}

	if web.Code != erp.Code {
		flags = append(flags, ConflictFlag{
			Field:     ConflictFieldIdentifier,
			SourceA:   SourceSystemWeb,
			SourceB:   SourceSystemERP,
			ValueA:    web.Code,
			ValueB:    erp.Code,
			Magnitude: decimal.Zero,
		})
	}

	if erpPrice, ok := effectiveERPPrice(record); ok {
		if !web.Price.Equal(erpPrice) {
			flags = append(flags, ConflictFlag{
				Field:     ConflictFieldPrice,
				SourceA:   SourceSystemWeb,
				SourceB:   SourceSystemERP,
				ValueA:    web.Price.String(),
				ValueB:    erpPrice.String(),
				Magnitude: web.Price.Sub(erpPrice).Abs(),
			})
		}
	}

	erpStock := effectiveERPStock(record)
	if !web.Stock.Equal(erpStock) {
		flags = append(flags, ConflictFlag{
			Field:     ConflictFieldStock,
			SourceA:   SourceSystemWeb,
			SourceB:   SourceSystemERP,
			ValueA:    web.Stock.String(),
			ValueB:    erpStock.String(),
			Magnitude: web.Stock.Sub(erpStock).Abs(),
		})
	}

	return flags
}

// effectiveERPPrice resolves the ERP price to compare against. With a sync
// config the price priority list decides; without one the ERP record's flat
// price is used, with zero treated as "no price reported".
func effectiveERPPrice(record *ReconciliationRecord) (decimal.Decimal, bool) {
	erp := record.ERPRef
	if record.SyncConfig != nil {
		return record.SyncConfig.EffectivePrice(erp.PriceTiers)
	}
	if erp.Price.IsZero() {
		return decimal.Zero, false
	}
	return erp.Price, true
}

// effectiveERPStock resolves the ERP stock figure to compare against. With a
// sync config only the configured warehouses count; without one the ERP
// record's flat stock figure is used.
func effectiveERPStock(record *ReconciliationRecord) decimal.Decimal {
	erp := record.ERPRef
	if record.SyncConfig != nil {
		return record.SyncConfig.EffectiveStock(erp.WarehouseStock)
	}
	return erp.Stock
}
