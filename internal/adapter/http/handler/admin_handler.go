package handler

import (
	"gig-escrow/internal/adapter/http/dto"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
	"gig-escrow/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles dispute resolution and fee endpoints.
type AdminHandler struct {
	escrowSvc ports.OrderEscrow
	feeSvc    ports.FeePolicy
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(escrowSvc ports.OrderEscrow, feeSvc ports.FeePolicy) *AdminHandler {
	return &AdminHandler{escrowSvc: escrowSvc, feeSvc: feeSvc}
}

// ResolveDispute handles POST /api/v1/admin/orders/:id/resolve.
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := pathID(c, "id", apperror.ErrOrderNotFound())
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.escrowSvc.ResolveDispute(c.Request.Context(), caller, id, *req.FavorSeller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toOrderResponse(order))
}

// SetFee handles PUT /api/v1/admin/fee.
func (h *AdminHandler) SetFee(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.feeSvc.SetPlatformFee(c.Request.Context(), caller, *req.FeeBps); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FeeResponse{FeeBps: *req.FeeBps})
}

// GetFee handles GET /api/v1/fee.
func (h *AdminHandler) GetFee(c *gin.Context) {
	bps, err := h.feeSvc.PlatformFee(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FeeResponse{FeeBps: bps})
}
