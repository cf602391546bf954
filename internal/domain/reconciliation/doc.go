// Package reconciliation contains the cross-system product reconciliation
// engine: the ReconciliationRecord aggregate linking one logical product
// across the Web catalog, the ERP inventory system and the LEDGER accounting
// system, the conflict detector that compares price/stock/identifier fields
// between linked sources, and the sync configuration that collapses ERP's
// multiple warehouses and price tiers into single effective figures.
//
// The engine is deliberately side-effect free: every operation is a pure
// computation over already-fetched SourceRecords. Persistence and transport
// live in the infrastructure and interfaces layers.
package reconciliation
