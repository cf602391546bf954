package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	taxapp "github.com/retailops/backend/internal/application/taxonomy"
	"github.com/retailops/backend/internal/domain/taxonomy"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// TaxonomyHandler handles taxonomy resolution and rule management requests
type TaxonomyHandler struct {
	BaseHandler
	service *taxapp.ClassificationService
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(service *taxapp.ClassificationService) *TaxonomyHandler {
	return &TaxonomyHandler{service: service}
}

// ============================================================================
// Request/Response DTOs
// ============================================================================

// ResolveRequest asks for the web taxonomy id behind an ERP code
type ResolveRequest struct {
	Kind string `form:"kind" binding:"required,oneof=BRAND CATEGORY"`
	Code string `form:"code" binding:"required"`
}

// ResolveResponse carries a resolution outcome; Matched false renders as
// "unclassified" in the console
type ResolveResponse struct {
	WebID   string `json:"web_id,omitempty"`
	Matched bool   `json:"matched"`
}

// SaveMappingRequest upserts one curated code table row
type SaveMappingRequest struct {
	Kind    string `json:"kind" binding:"required,oneof=BRAND CATEGORY"`
	ERPCode string `json:"erp_code" binding:"required"`
	WebID   string `json:"web_id" binding:"required"`
}

// EntryPayload is one web taxonomy entry in a refresh request
type EntryPayload struct {
	ID   string `json:"id" binding:"required"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// RefreshEntriesRequest replaces the stored snapshot for a kind
type RefreshEntriesRequest struct {
	Entries []EntryPayload `json:"entries" binding:"required,dive"`
}

// ClassifyRequest asks for a category suggestion for an ERP class code pair
type ClassifyRequest struct {
	ERPClassCode  string  `json:"erp_class_code" binding:"required"`
	ERPClassCode2 *string `json:"erp_class_code2"`
}

// ClassifyResponse carries the suggested web category, nil when no active
// rule applies
type ClassifyResponse struct {
	WebCategoryID *string `json:"web_category_id"`
}

// RulePayload carries the writable fields of a category rule
type RulePayload struct {
	ERPClassCode  string  `json:"erp_class_code" binding:"required"`
	ERPClassCode2 *string `json:"erp_class_code2"`
	WebCategoryID *string `json:"web_category_id"`
}

// RuleResponse is the operator-facing view of a category rule
type RuleResponse struct {
	ID            string    `json:"id"`
	ERPClassCode  string    `json:"erp_class_code"`
	ERPClassCode2 *string   `json:"erp_class_code2,omitempty"`
	WebCategoryID *string   `json:"web_category_id,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toRuleResponse(r *taxonomy.CategoryRule) RuleResponse {
	return RuleResponse{
		ID:            r.ID.String(),
		ERPClassCode:  r.ERPClassCode,
		ERPClassCode2: r.ERPClassCode2,
		WebCategoryID: r.WebCategoryID,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ============================================================================
// Resolution and mapping handlers
// ============================================================================

// Resolve maps an ERP code onto a web taxonomy id
func (h *TaxonomyHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	webID, matched, err := h.service.Resolve(c.Request.Context(), taxonomy.Kind(req.Kind), req.Code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ResolveResponse{WebID: webID, Matched: matched})
}

// SaveMapping upserts one curated code table row
func (h *TaxonomyHandler) SaveMapping(c *gin.Context) {
	var req SaveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.SaveMapping(c.Request.Context(), taxonomy.Kind(req.Kind), req.ERPCode, req.WebID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteMapping removes one curated code table row
func (h *TaxonomyHandler) DeleteMapping(c *gin.Context) {
	kind := taxonomy.Kind(c.Param("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "Invalid taxonomy kind")
		return
	}

	if err := h.service.DeleteMapping(c.Request.Context(), kind, c.Param("code")); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListEntries returns the stored web taxonomy entries for a kind
func (h *TaxonomyHandler) ListEntries(c *gin.Context) {
	kind := taxonomy.Kind(c.Param("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "Invalid taxonomy kind")
		return
	}

	entries, err := h.service.GetEntries(c.Request.Context(), kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// RefreshEntries replaces the stored snapshot for a kind after a catalog pull
func (h *TaxonomyHandler) RefreshEntries(c *gin.Context) {
	kind := taxonomy.Kind(c.Param("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "Invalid taxonomy kind")
		return
	}

	var req RefreshEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entries := make([]taxonomy.Entry, len(req.Entries))
	for i, p := range req.Entries {
		entries[i] = taxonomy.Entry{ID: p.ID, Code: p.Code, Name: p.Name}
	}

	if err := h.service.RefreshEntries(c.Request.Context(), kind, entries); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Classify suggests a web category for an ERP class code pair
func (h *TaxonomyHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	webCategoryID, err := h.service.Classify(c.Request.Context(), req.ERPClassCode, req.ERPClassCode2)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ClassifyResponse{WebCategoryID: webCategoryID})
}

// ============================================================================
// Rule management handlers
// ============================================================================

// CreateRule creates an active category rule
func (h *TaxonomyHandler) CreateRule(c *gin.Context) {
	var req RulePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), taxapp.RuleRequest{
		ERPClassCode:  req.ERPClassCode,
		ERPClassCode2: req.ERPClassCode2,
		WebCategoryID: req.WebCategoryID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toRuleResponse(rule))
}

// ListRules returns all rules, or only the active set
func (h *TaxonomyHandler) ListRules(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"

	rules, err := h.service.ListRules(c.Request.Context(), activeOnly)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]RuleResponse, len(rules))
	for i := range rules {
		responses[i] = toRuleResponse(&rules[i])
	}

	h.Success(c, responses)
}

// UpdateRule rewrites a rule's code pair and target category
func (h *TaxonomyHandler) UpdateRule(c *gin.Context) {
	id, ok := h.ruleID(c)
	if !ok {
		return
	}

	var req RulePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), id, taxapp.RuleRequest{
		ERPClassCode:  req.ERPClassCode,
		ERPClassCode2: req.ERPClassCode2,
		WebCategoryID: req.WebCategoryID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRuleResponse(rule))
}

// ActivateRule re-enables a rule, re-checking pair uniqueness
func (h *TaxonomyHandler) ActivateRule(c *gin.Context) {
	id, ok := h.ruleID(c)
	if !ok {
		return
	}

	rule, err := h.service.ActivateRule(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRuleResponse(rule))
}

// DeactivateRule removes a rule from the active set without deleting it
func (h *TaxonomyHandler) DeactivateRule(c *gin.Context) {
	id, ok := h.ruleID(c)
	if !ok {
		return
	}

	rule, err := h.service.DeactivateRule(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRuleResponse(rule))
}

// DeleteRule removes a rule entirely
func (h *TaxonomyHandler) DeleteRule(c *gin.Context) {
	id, ok := h.ruleID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteRule(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ruleID parses the :id path parameter, responding with 400 on failure
func (h *TaxonomyHandler) ruleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidationFormat), dto.ErrCodeValidationFormat, "Invalid rule ID")
		return uuid.Nil, false
	}
	return id, true
}
