package reconciliation

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNoWarehouses    = errors.New("reconciliation: sync config requires at least one warehouse")
	ErrNoPricePriority = errors.New("reconciliation: sync config requires at least one price tier")
)

// ---------------------------------------------------------------------------
// SyncConfig Value Object
// ---------------------------------------------------------------------------

// SyncConfig parameterizes how "the ERP value" is computed for a mapping when
// ERP exposes multiple warehouses and price tiers. It is persisted alongside
// the mapping once the correspondence is confirmed.
type SyncConfig struct {
	// Warehouses is the set of ERP warehouse codes whose stock quantities are
	// summed to produce the effective ERP stock figure
	Warehouses []string `json:"warehouses"`
	// PricePriority is the ordered list of ERP price-tier identifiers; the
	// first tier with a non-null, non-zero value is the effective ERP price
	PricePriority []string `json:"price_priority"`
}

// NewSyncConfig creates a SyncConfig, de-duplicating both lists while
// preserving the caller's order.
func NewSyncConfig(warehouses, pricePriority []string) (SyncConfig, error) {
	cfg := SyncConfig{
		Warehouses:    dedupe(warehouses),
		PricePriority: dedupe(pricePriority),
	}
	if err := cfg.Validate(); err != nil {
		return SyncConfig{}, err
	}
	return cfg, nil
}

// Validate validates the sync config
func (c SyncConfig) Validate() error {
	if len(c.Warehouses) == 0 {
		return ErrNoWarehouses
	}
	if len(c.PricePriority) == 0 {
		return ErrNoPricePriority
	}
	return nil
}

// EffectiveStock sums the stock quantities of the configured warehouses.
// A warehouse code with no reported stock contributes zero; a stale code in
// the config is not an error because a warehouse may stop reporting after the
// config was saved.
func (c SyncConfig) EffectiveStock(warehouseStock map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, w := range c.Warehouses {
		if qty, ok := warehouseStock[w]; ok {
			total = total.Add(qty)
		}
	}
	return total
}

// EffectivePrice walks the price priority list and returns the first tier
// with a non-null, non-zero value. The second return value is false when
// every configured tier is missing or zero; callers must then skip price
// comparison instead of treating the price as zero.
func (c SyncConfig) EffectivePrice(priceTiers map[string]decimal.Decimal) (decimal.Decimal, bool) {
	for _, tier := range c.PricePriority {
		price, ok := priceTiers[tier]
		if ok && !price.IsZero() {
			return price, true
		}
	}
	return decimal.Zero, false
}

// dedupe removes duplicates while preserving first-seen order
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
