package taxonomy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// CategoryRule Errors
// ---------------------------------------------------------------------------

var (
	ErrAmbiguousRule      = errors.New("taxonomy: multiple active rules match the same code pair, fix the rule data before retrying")
	ErrRuleNotFound       = errors.New("taxonomy: category rule not found")
	ErrRuleEmptyClassCode = errors.New("taxonomy: rule requires an ERP class code")
	ErrRulePairExists     = errors.New("taxonomy: an active rule for this code pair already exists")
)

// ---------------------------------------------------------------------------
// CategoryRule Entity
// ---------------------------------------------------------------------------

// CategoryRule maps an ERP classification-code pair to a Web category id.
// Rules are administrator-maintained and act as an override/alternative to
// the code-table resolver for bulk categorization.
//
// Invariant: the pair (ERPClassCode, ERPClassCode2) is unique among active
// rules. Two active rules must never resolve the same pair.
type CategoryRule struct {
	// ID is the unique identifier of this rule
	ID uuid.UUID
	// ERPClassCode is the primary ERP classification code, normalized
	ERPClassCode string
	// ERPClassCode2 is an optional secondary discriminator; nil matches any
	ERPClassCode2 *string
	// WebCategoryID is the target Web category; nil means "explicitly
	// unmapped, do not suggest"
	WebCategoryID *string
	// IsActive indicates whether the rule participates in classification
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCategoryRule creates an active rule, normalizing the class codes
func NewCategoryRule(erpClassCode string, erpClassCode2 *string, webCategoryID *string) (*CategoryRule, error) {
	code := NormalizeCode(erpClassCode)
	if code == "" {
		return nil, ErrRuleEmptyClassCode
	}

	var code2 *string
	if erpClassCode2 != nil {
		normalized := NormalizeCode(*erpClassCode2)
		if normalized != "" {
			code2 = &normalized
		}
	}

	now := time.Now()
	return &CategoryRule{
		ID:            uuid.New(),
		ERPClassCode:  code,
		ERPClassCode2: code2,
		WebCategoryID: webCategoryID,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Activate activates the rule
func (r *CategoryRule) Activate() {
	r.IsActive = true
	r.UpdatedAt = time.Now()
}

// Deactivate deactivates the rule
func (r *CategoryRule) Deactivate() {
	r.IsActive = false
	r.UpdatedAt = time.Now()
}

// Touch bumps the update timestamp
func (r *CategoryRule) Touch() {
	r.UpdatedAt = time.Now()
}

// matches reports whether this rule applies to the code pair and how
// specifically: an exact secondary-code match is more specific than a rule
// with no secondary code.
func (r *CategoryRule) matches(code string, code2 *string) (matched bool, exact bool) {
	if !r.IsActive || r.ERPClassCode != code {
		return false, false
	}
	if r.ERPClassCode2 == nil {
		return true, false
	}
	if code2 != nil && *r.ERPClassCode2 == *code2 {
		return true, true
	}
	return false, false
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// MatchRule selects the active rule governing the given ERP code pair.
// The most specific rule wins: an exact (code, code2) match beats a rule
// that only constrains the primary code. A tie at the same specificity is a
// data-integrity violation of the uniqueness invariant and yields
// ErrAmbiguousRule instead of guessing between admin-entered rules.
// No matching rule returns (nil, nil).
func MatchRule(erpCode string, erpCode2 *string, rules []CategoryRule) (*CategoryRule, error) {
	code := NormalizeCode(erpCode)
	var code2 *string
	if erpCode2 != nil {
		normalized := NormalizeCode(*erpCode2)
		if normalized != "" {
			code2 = &normalized
		}
	}

	var exactMatch, primaryMatch *CategoryRule
	for i := range rules {
		rule := &rules[i]
		matched, exact := rule.matches(code, code2)
		if !matched {
			continue
		}
		if exact {
			if exactMatch != nil {
				return nil, ErrAmbiguousRule
			}
			exactMatch = rule
		} else {
			if primaryMatch != nil {
				return nil, ErrAmbiguousRule
			}
			primaryMatch = rule
		}
	}

	if exactMatch != nil {
		return exactMatch, nil
	}
	return primaryMatch, nil
}

// Classify resolves an ERP code pair to a Web category id via the active
// rule set. A nil result with nil error means either no rule matched or the
// matching rule is explicitly unmapped; both render as "needs attention"
// rather than a guess.
func Classify(erpCode string, erpCode2 *string, rules []CategoryRule) (*string, error) {
	rule, err := MatchRule(erpCode, erpCode2, rules)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, nil
	}
	return rule.WebCategoryID, nil
}

// ---------------------------------------------------------------------------
// CategoryRuleRepository Interface
// ---------------------------------------------------------------------------

// CategoryRuleRepository defines the interface for rule persistence
type CategoryRuleRepository interface {
	// FindByID finds a rule by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CategoryRule, error)

	// FindAll returns every rule, active or not
	FindAll(ctx context.Context) ([]CategoryRule, error)

	// FindActive returns the active rule set consumed at classification time
	FindActive(ctx context.Context) ([]CategoryRule, error)

	// ExistsActivePair reports whether another active rule already claims the
	// code pair, excluding the given rule id
	ExistsActivePair(ctx context.Context, erpClassCode string, erpClassCode2 *string, excludeID uuid.UUID) (bool, error)

	// Save creates or updates a rule
	Save(ctx context.Context, rule *CategoryRule) error

	// Delete removes a rule
	Delete(ctx context.Context, id uuid.UUID) error
}
