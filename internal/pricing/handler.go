package pricing

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/richxcame/fare-engine/pkg/common"
)

// PricingService is the behaviour the HTTP layer needs
type PricingService interface {
	Estimate(ctx context.Context, req fare.TripRequest) (*EstimateResponse, error)
	EstimateBatch(ctx context.Context, req fare.TripRequest, variants []string) (*BatchEstimateResponse, error)
	ActiveConfig(ctx context.Context) (*ConfigVersion, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*ConfigVersion, error)
	ListVersions(ctx context.Context, limit, offset int) ([]*ConfigVersion, int64, error)
	ListAudit(ctx context.Context, limit, offset int) ([]*AuditEntry, int64, error)
	UpdateConfig(ctx context.Context, actor string, req *UpdateConfigRequest) (*ConfigVersion, error)
	ActivateVersion(ctx context.Context, id uuid.UUID, actor, reason string) (*ConfigVersion, error)
}

var _ PricingService = (*Service)(nil)

// Handler handles HTTP requests for pricing
type Handler struct {
	service PricingService
}

// NewHandler creates a new pricing handler
func NewHandler(service PricingService) *Handler {
	return &Handler{service: service}
}

// Estimate returns the itemized fare of one trip
func (h *Handler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError(err.Error(), fare.ErrInvalidInput))
		return
	}

	trip, err := req.ToTripRequest()
	if err != nil {
		h.handleError(c, err, "failed to calculate estimate")
		return
	}

	estimate, err := h.service.Estimate(c.Request.Context(), trip)
	if err != nil {
		h.handleError(c, err, "failed to calculate estimate")
		return
	}

	common.SuccessResponse(c, estimate)
}

// EstimateBatch quotes one trip across several variants
func (h *Handler) EstimateBatch(c *gin.Context) {
	var req BatchEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError(err.Error(), fare.ErrInvalidInput))
		return
	}

	trip, err := req.ToTripRequest()
	if err != nil {
		h.handleError(c, err, "failed to calculate estimates")
		return
	}

	estimates, err := h.service.EstimateBatch(c.Request.Context(), trip, req.Variants)
	if err != nil {
		h.handleError(c, err, "failed to calculate estimates")
		return
	}

	common.SuccessResponse(c, estimates)
}

// GetConfig returns the active configuration
func (h *Handler) GetConfig(c *gin.Context) {
	v, err := h.service.ActiveConfig(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "failed to load pricing configuration")
		return
	}
	common.SuccessResponse(c, v)
}

// GetVersion returns one stored version
func (h *Handler) GetVersion(c *gin.Context) {
	id, ok := common.ParseUUIDParam(c, "id", "version ID")
	if !ok {
		return
	}

	v, err := h.service.GetVersion(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "failed to load pricing version")
		return
	}
	common.SuccessResponse(c, v)
}

// ListVersions returns the version history
func (h *Handler) ListVersions(c *gin.Context) {
	limit, offset := common.ParsePagination(c, 20, 100)

	versions, total, err := h.service.ListVersions(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err, "failed to list pricing versions")
		return
	}

	common.SuccessResponseWithMeta(c, versions, &common.Meta{Limit: limit, Offset: offset, Total: total})
}

// ListAudit returns the configuration audit trail
func (h *Handler) ListAudit(c *gin.Context) {
	limit, offset := common.ParsePagination(c, 20, 100)

	entries, total, err := h.service.ListAudit(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err, "failed to list pricing audit entries")
		return
	}

	common.SuccessResponseWithMeta(c, entries, &common.Meta{Limit: limit, Offset: offset, Total: total})
}

// UpdateConfig applies an administrative patch and activates the result
func (h *Handler) UpdateConfig(c *gin.Context) {
	req, err := DecodeUpdateRequest(c.Request.Body)
	if err != nil {
		h.handleError(c, err, "failed to update pricing configuration")
		return
	}

	v, err := h.service.UpdateConfig(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.handleError(c, err, "failed to update pricing configuration")
		return
	}

	common.CreatedResponse(c, v)
}

// ActivateVersion re-activates a stored version
func (h *Handler) ActivateVersion(c *gin.Context) {
	id, ok := common.ParseUUIDParam(c, "id", "version ID")
	if !ok {
		return
	}

	var req ActivateRequest
	if c.Request.ContentLength > 0 && !common.BindJSON(c, &req) {
		return
	}

	v, err := h.service.ActivateVersion(c.Request.Context(), id, actorFrom(c), req.Reason)
	if err != nil {
		h.handleError(c, err, "failed to activate pricing version")
		return
	}

	common.SuccessResponse(c, v)
}

// handleError maps domain errors onto the API error envelope
func (h *Handler) handleError(c *gin.Context, err error, fallback string) {
	var inputErr *fare.InputError
	switch {
	case errors.As(err, &inputErr):
		err = common.NewBadRequestError(inputErr.Error(), err).
			WithFields(map[string]string{inputErr.Field: inputErr.Reason})
	case errors.Is(err, fare.ErrInvalidInput):
		err = common.NewBadRequestError(err.Error(), err)
	case errors.Is(err, fare.ErrConfigurationMissing):
		err = common.NewServiceUnavailableError("no active pricing configuration", err)
	case errors.Is(err, ErrInvalidPatch):
		err = common.NewUnprocessableError(err.Error(), err)
	case errors.Is(err, ErrVersionNotFound):
		err = common.NewNotFoundError("pricing version not found", err)
	case errors.Is(err, ErrVersionConflict):
		err = common.NewConflictError("active pricing version changed, reload and retry")
	}
	common.HandleServiceError(c, err, fallback)
}

func actorFrom(c *gin.Context) string {
	if actor := c.GetString("actor"); actor != "" {
		return actor
	}
	return "admin"
}

// RegisterRoutes registers the public pricing routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	pricing := rg.Group("/pricing")
	{
		pricing.POST("/estimate", h.Estimate)
		pricing.POST("/estimate/batch", h.EstimateBatch)
		pricing.GET("/config", h.GetConfig)
		pricing.GET("/versions", h.ListVersions)
		pricing.GET("/versions/:id", h.GetVersion)
	}
}

// RegisterAdminRoutes registers the configuration management routes. rg is
// expected to carry the admin authentication middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/pricing")
	{
		admin.PATCH("/config", h.UpdateConfig)
		admin.POST("/versions/:id/activate", h.ActivateVersion)
		admin.GET("/audit", h.ListAudit)
	}
}
