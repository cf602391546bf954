package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	reconapp "github.com/retailops/backend/internal/application/reconciliation"
	"github.com/retailops/backend/internal/domain/reconciliation"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// ReconciliationHandler handles reconciliation record HTTP requests
type ReconciliationHandler struct {
	BaseHandler
	service *reconapp.ReconciliationService

	defaultWarehouses    []string
	defaultPricePriority []string
	maxPageSize          int
}

// ReconciliationHandlerConfig carries the operator-tunable handler settings
type ReconciliationHandlerConfig struct {
	// DefaultWarehouses is used when a confirm request omits warehouses
	DefaultWarehouses []string
	// DefaultPricePriority is used when a confirm request omits price tiers
	DefaultPricePriority []string
	// MaxPageSize caps list page sizes
	MaxPageSize int
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(service *reconapp.ReconciliationService, cfg ReconciliationHandlerConfig) *ReconciliationHandler {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}
	return &ReconciliationHandler{
		service:              service,
		defaultWarehouses:    cfg.DefaultWarehouses,
		defaultPricePriority: cfg.DefaultPricePriority,
		maxPageSize:          cfg.MaxPageSize,
	}
}

// ============================================================================
// Request/Response DTOs
// ============================================================================

// SourceRecordPayload is one source system's view of a product
type SourceRecordPayload struct {
	System              string                     `json:"system" binding:"required"`
	Code                string                     `json:"code" binding:"required"`
	Name                string                     `json:"name"`
	Price               decimal.Decimal            `json:"price"`
	Stock               decimal.Decimal            `json:"stock"`
	ClassificationCodes []string                   `json:"classification_codes"`
	WarehouseStock      map[string]decimal.Decimal `json:"warehouse_stock"`
	PriceTiers          map[string]decimal.Decimal `json:"price_tiers"`
}

func (p SourceRecordPayload) toDomain() reconciliation.SourceRecord {
	return reconciliation.SourceRecord{
		System:              reconciliation.SourceSystem(p.System),
		Code:                p.Code,
		Name:                p.Name,
		Price:               p.Price,
		Stock:               p.Stock,
		ClassificationCodes: p.ClassificationCodes,
		WarehouseStock:      p.WarehouseStock,
		PriceTiers:          p.PriceTiers,
	}
}

// ReconcileRequest carries one pass of source feeds for a logical product
type ReconcileRequest struct {
	Sources []SourceRecordPayload `json:"sources" binding:"required,min=1,dive"`
}

// LinkRecordRequest attaches sources to an existing or new record
type LinkRecordRequest struct {
	RecordID *string              `json:"record_id" binding:"omitempty,uuid"`
	Web      *SourceRecordPayload `json:"web"`
	ERP      *SourceRecordPayload `json:"erp"`
	Ledger   *SourceRecordPayload `json:"ledger"`
}

// ConfirmMappingRequest locks a record's correspondence. Omitted lists fall
// back to the configured defaults.
type ConfirmMappingRequest struct {
	Warehouses    []string `json:"warehouses"`
	PricePriority []string `json:"price_priority"`
}

// UpdateNotesRequest replaces a record's operator annotation
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// ListRecordsRequest carries the list filter query parameters
type ListRecordsRequest struct {
	Status       string `form:"status" binding:"omitempty,oneof=UNLINKED LINKED CONFIRMED"`
	HasConflicts *bool  `form:"has_conflicts"`
	Search       string `form:"search"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1"`
}

// RecordResponse is the operator-facing view of a reconciliation record
type RecordResponse struct {
	ID            string                        `json:"id"`
	WebRef        *reconciliation.SourceRecord  `json:"web_ref,omitempty"`
	ERPRef        *reconciliation.SourceRecord  `json:"erp_ref,omitempty"`
	LedgerRef     *reconciliation.SourceRecord  `json:"ledger_ref,omitempty"`
	Status        string                        `json:"status"`
	DisplayStatus string                        `json:"display_status"`
	Conflicts     []reconciliation.ConflictFlag `json:"conflicts"`
	SyncConfig    *reconciliation.SyncConfig    `json:"sync_config,omitempty"`
	Notes         string                        `json:"notes"`
	Version       int                           `json:"version"`
	ConfirmedAt   *time.Time                    `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

func toRecordResponse(r *reconciliation.ReconciliationRecord) RecordResponse {
	return RecordResponse{
		ID:            r.ID.String(),
		WebRef:        r.WebRef,
		ERPRef:        r.ERPRef,
		LedgerRef:     r.LedgerRef,
		Status:        string(r.Status),
		DisplayStatus: string(r.DisplayStatus()),
		Conflicts:     r.Conflicts,
		SyncConfig:    r.SyncConfig,
		Notes:         r.Notes,
		Version:       r.Version,
		ConfirmedAt:   r.ConfirmedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ConflictsResponse is a freshly detected conflict set for one record
type ConflictsResponse struct {
	RecordID  string                        `json:"record_id"`
	Conflicts []reconciliation.ConflictFlag `json:"conflicts"`
}

// ============================================================================
// Handlers
// ============================================================================

// Reconcile ingests one pass of source feeds, locating or creating the
// record, refreshing its linkage and replacing its conflict set
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sources := make([]reconciliation.SourceRecord, len(req.Sources))
	for i, p := range req.Sources {
		sources[i] = p.toDomain()
	}

	record, err := h.service.Reconcile(c.Request.Context(), sources)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordResponse(record))
}

// List returns records matching the filter, paginated
func (h *ReconciliationHandler) List(c *gin.Context) {
	var req ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if req.PageSize > h.maxPageSize {
		req.PageSize = h.maxPageSize
	}

	filter := reconciliation.RecordFilter{
		HasConflicts:  req.HasConflicts,
		SearchKeyword: req.Search,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	if req.Status != "" {
		status := reconciliation.MappingStatus(req.Status)
		filter.Status = &status
	}

	records, total, err := h.service.ListRecords(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]RecordResponse, len(records))
	for i := range records {
		responses[i] = toRecordResponse(&records[i])
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// GetByID returns a single record
func (h *ReconciliationHandler) GetByID(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordResponse(record))
}

// PreviewConflicts re-runs detection for a record without persisting
func (h *ReconciliationHandler) PreviewConflicts(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	flags, err := h.service.PreviewConflicts(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ConflictsResponse{RecordID: id.String(), Conflicts: flags})
}

// Link attaches sources to a record chosen by ID, or located by code, or
// freshly created
func (h *ReconciliationHandler) Link(c *gin.Context) {
	var req LinkRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	linkReq := reconapp.LinkRequest{}
	if req.RecordID != nil {
		id, err := uuid.Parse(*req.RecordID)
		if err != nil {
			h.BadRequest(c, "Invalid record_id")
			return
		}
		linkReq.RecordID = &id
	}
	if req.Web != nil {
		source := req.Web.toDomain()
		linkReq.Web = &source
	}
	if req.ERP != nil {
		source := req.ERP.toDomain()
		linkReq.ERP = &source
	}
	if req.Ledger != nil {
		source := req.Ledger.toDomain()
		linkReq.Ledger = &source
	}

	record, err := h.service.LinkRecord(c.Request.Context(), linkReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordResponse(record))
}

// Confirm locks a record's correspondence with the given sync config
func (h *ReconciliationHandler) Confirm(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	var req ConfirmMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	warehouses := req.Warehouses
	if len(warehouses) == 0 {
		warehouses = h.defaultWarehouses
	}
	pricePriority := req.PricePriority
	if len(pricePriority) == 0 {
		pricePriority = h.defaultPricePriority
	}

	cfg, err := reconciliation.NewSyncConfig(warehouses, pricePriority)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	record, err := h.service.ConfirmMapping(c.Request.Context(), id, cfg)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordResponse(record))
}

// Unlock reverts a confirmed record to LINKED for editing
func (h *ReconciliationHandler) Unlock(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	record, err := h.service.UnlockMapping(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordResponse(record))
}

// RemoveLinkage severs the non-Web references of a record
func (h *ReconciliationHandler) RemoveLinkage(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	record, err := h.service.RemoveLinkage(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordResponse(record))
}

// UpdateNotes replaces a record's operator annotation
func (h *ReconciliationHandler) UpdateNotes(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.service.UpdateNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRecordResponse(record))
}

// recordID parses the :id path parameter, responding with 400 on failure
func (h *ReconciliationHandler) recordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidationFormat), dto.ErrCodeValidationFormat, "Invalid record ID")
		return uuid.Nil, false
	}
	return id, true
}
