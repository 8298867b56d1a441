package handler

import (
	"encoding/json"
	"strconv"

	"gig-escrow/internal/adapter/http/dto"
	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
	"gig-escrow/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReportingHandler handles seller analytics and event log endpoints.
type ReportingHandler struct {
	reportingSvc ports.ReportingService
}

// NewReportingHandler creates a new ReportingHandler.
func NewReportingHandler(reportingSvc ports.ReportingService) *ReportingHandler {
	return &ReportingHandler{reportingSvc: reportingSvc}
}

// SellerStats handles GET /api/v1/sellers/:id/stats.
func (h *ReportingHandler) SellerStats(c *gin.Context) {
	seller, err := identityParam(c, c.Param("id"), "seller")
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.reportingSvc.SellerStats(c.Request.Context(), seller)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SellerStatsResponse{
		Seller:          stats.Seller.String(),
		Credential:      toCredentialResponse(stats.Credential),
		TotalGigs:       stats.TotalGigs,
		ActiveGigs:      stats.ActiveGigs,
		TotalOrders:     stats.Orders.Total,
		PendingOrders:   stats.Orders.Pending,
		CompletedOrders: stats.Orders.Completed,
		DisputedOrders:  stats.Orders.Disputed,
		RefundedOrders:  stats.Orders.Refunded,
		TotalEarnings:   domain.AmountString(stats.Orders.Earnings),
		TotalFeesPaid:   domain.AmountString(stats.Orders.FeesPaid),
	})
}

// ListEvents handles GET /api/v1/events?after=&limit=.
func (h *ReportingHandler) ListEvents(c *gin.Context) {
	after, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("after must be a non-negative integer"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	events, err := h.reportingSvc.ListEvents(c.Request.Context(), after, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := dto.EventListResponse{
		Items:     make([]dto.EventResponse, 0, len(events)),
		NextAfter: after,
	}
	for _, e := range events {
		out.Items = append(out.Items, dto.EventResponse{
			Seq:       e.Seq,
			Type:      string(e.Type),
			Payload:   json.RawMessage(e.Payload),
			PrevHash:  e.PrevHash,
			Hash:      e.Hash,
			CreatedAt: e.CreatedAt.Format(timeLayout),
		})
		out.NextAfter = e.Seq
	}
	response.OK(c, out)
}

// VerifyChain handles GET /api/v1/events/verify.
func (h *ReportingHandler) VerifyChain(c *gin.Context) {
	verified, err := h.reportingSvc.VerifyEventChain(c.Request.Context())
	if err != nil {
		response.OK(c, dto.ChainStatusResponse{Valid: false, Verified: verified, Error: err.Error()})
		return
	}
	response.OK(c, dto.ChainStatusResponse{Valid: true, Verified: verified})
}
