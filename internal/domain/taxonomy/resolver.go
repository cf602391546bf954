// Package taxonomy maps ERP classification codes onto Web catalog taxonomy
// identifiers: a deterministic code table with a name-similarity-free exact
// fallback, plus an administrator-maintained category rule engine for
// bulk-style categorization.
package taxonomy

import (
	"context"
	"strings"
)

// ---------------------------------------------------------------------------
// Kind
// ---------------------------------------------------------------------------

// Kind identifies which Web taxonomy a code resolves into.
type Kind string

const (
	// KindBrand resolves ERP brand codes to Web brand ids
	KindBrand Kind = "BRAND"
	// KindCategory resolves ERP category codes to Web category ids
	KindCategory Kind = "CATEGORY"
)

// IsValid returns true if the kind is valid
func (k Kind) IsValid() bool {
	switch k {
	case KindBrand, KindCategory:
		return true
	default:
		return false
	}
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// ---------------------------------------------------------------------------
// Entry and CodeTable
// ---------------------------------------------------------------------------

// Entry is one Web taxonomy entry (a brand or a category) as exposed by the
// Web catalog service.
type Entry struct {
	// ID is the Web-side taxonomy identifier
	ID string `json:"id"`
	// Code is the Web-side short code
	Code string `json:"code"`
	// Name is the display name
	Name string `json:"name"`
}

// CodeTable is the hand-maintained mapping from normalized ERP codes to Web
// taxonomy ids, keyed by kind. It is loaded data, not a compiled constant, so
// it can be updated without a rebuild and substituted in tests.
type CodeTable map[Kind]map[string]string

// Lookup returns the Web id for a normalized ERP code, if present
func (t CodeTable) Lookup(kind Kind, normalizedCode string) (string, bool) {
	byCode, ok := t[kind]
	if !ok {
		return "", false
	}
	id, ok := byCode[normalizedCode]
	return id, ok
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolver translates an ERP classification code into a Web taxonomy id.
//
// Resolution order:
//  1. the explicit code table, which is authoritative and skips the fallback
//  2. an exact, case-insensitive match against the Web taxonomy's code or
//     name, first match in input order
//
// There is deliberately no partial, substring or edit-distance matching: a
// coincidental near-match would silently mis-categorize a product. A miss is
// not an error; the caller surfaces "unclassified" to the operator.
type Resolver struct {
	table CodeTable
}

// NewResolver creates a resolver backed by the given code table
func NewResolver(table CodeTable) *Resolver {
	if table == nil {
		table = CodeTable{}
	}
	return &Resolver{table: table}
}

// Resolve maps an ERP code to a Web taxonomy id. The boolean is false when
// neither the table nor the fallback produced a match.
func (r *Resolver) Resolve(kind Kind, erpCode string, webTaxonomy []Entry) (string, bool) {
	normalized := NormalizeCode(erpCode)
	if normalized == "" {
		return "", false
	}

	if id, ok := r.table.Lookup(kind, normalized); ok {
		return id, true
	}

	for _, entry := range webTaxonomy {
		if strings.EqualFold(entry.Code, normalized) || strings.EqualFold(entry.Name, normalized) {
			return entry.ID, true
		}
	}
	return "", false
}

// NormalizeCode uppercases and trims an ERP classification code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// EntryRepository provides the Web taxonomy lists consumed by the resolver
type EntryRepository interface {
	// FindByKind returns all entries of a taxonomy kind, in catalog order
	FindByKind(ctx context.Context, kind Kind) ([]Entry, error)

	// SaveAll replaces the stored entries for a kind with a fresh snapshot
	SaveAll(ctx context.Context, kind Kind, entries []Entry) error
}

// CodeTableRepository provides the hand-maintained ERP-code mapping table
type CodeTableRepository interface {
	// Load returns the full code table
	Load(ctx context.Context) (CodeTable, error)

	// SaveMapping creates or updates one table row
	SaveMapping(ctx context.Context, kind Kind, erpCode, webID string) error

	// DeleteMapping removes one table row
	DeleteMapping(ctx context.Context, kind Kind, erpCode string) error
}
