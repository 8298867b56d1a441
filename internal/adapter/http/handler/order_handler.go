package handler

import (
	"gig-escrow/internal/adapter/http/dto"
	"gig-escrow/internal/adapter/http/middleware"
	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
	"gig-escrow/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	escrowSvc ports.OrderEscrow
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(escrowSvc ports.OrderEscrow) *OrderHandler {
	return &OrderHandler{escrowSvc: escrowSvc}
}

// Place handles POST /api/v1/orders.
func (h *OrderHandler) Place(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	order, err := h.escrowSvc.PlaceOrder(c.Request.Context(), caller, req.GigID, req.Requirements)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, order.ID)
	response.Created(c, toOrderResponse(order))
}

// Get handles GET /api/v1/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id", apperror.ErrOrderNotFound())
	if err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.escrowSvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toOrderResponse(order))
}

// List handles GET /api/v1/orders?buyer=&seller=&status=&offset=&limit=.
func (h *OrderHandler) List(c *gin.Context) {
	buyer, err := optionalIdentity(c, "buyer")
	if err != nil {
		response.Error(c, err)
		return
	}
	seller, err := optionalIdentity(c, "seller")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := domain.OrderFilter{Buyer: buyer, Seller: seller}
	if s := c.Query("status"); s != "" {
		status := domain.OrderStatus(s)
		if !status.Valid() {
			response.Error(c, apperror.Validation("unknown order status"))
			return
		}
		filter.Status = status
	}

	page := pageQuery(c)
	orders, total, err := h.escrowSvc.ListOrders(c.Request.Context(), filter, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderResponse(o))
	}
	response.Paged(c, items, total, page.Offset, page.Limit)
}

// Deliver handles POST /api/v1/orders/:id/deliver.
func (h *OrderHandler) Deliver(c *gin.Context) {
	caller, id, ok := h.orderCall(c)
	if !ok {
		return
	}

	var req dto.DeliverWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.escrowSvc.DeliverWork(c.Request.Context(), caller, id, req.DeliverableRef)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toOrderResponse(order))
}

// Approve handles POST /api/v1/orders/:id/approve.
func (h *OrderHandler) Approve(c *gin.Context) {
	caller, id, ok := h.orderCall(c)
	if !ok {
		return
	}

	var req dto.ApproveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.escrowSvc.ApproveOrder(c.Request.Context(), caller, id, req.Rating)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toOrderResponse(order))
}

// Reject handles POST /api/v1/orders/:id/reject.
func (h *OrderHandler) Reject(c *gin.Context) {
	caller, id, ok := h.orderCall(c)
	if !ok {
		return
	}

	var req dto.RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	order, err := h.escrowSvc.RejectOrder(c.Request.Context(), caller, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toOrderResponse(order))
}

// orderCall resolves the caller and order id shared by lifecycle routes,
// writing the error response itself.
func (h *OrderHandler) orderCall(c *gin.Context) (domain.Address, uint64, bool) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return "", 0, false
	}
	id, err := pathID(c, "id", apperror.ErrOrderNotFound())
	if err != nil {
		response.Error(c, err)
		return "", 0, false
	}
	return caller, id, true
}

func toOrderResponse(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:             o.ID,
		GigID:          o.GigID,
		Buyer:          o.Buyer.String(),
		Seller:         o.Seller.String(),
		Price:          domain.AmountString(o.Price),
		Requirements:   o.Requirements,
		Status:         string(o.Status),
		DeliverableRef: o.DeliverableRef,
		Rating:         o.Rating,
		RejectReason:   o.RejectReason,
		FeePaid:        domain.AmountString(o.FeePaid),
		SellerPayout:   domain.AmountString(o.SellerPayout),
		CreatedAt:      o.CreatedAt.Format(timeLayout),
		UpdatedAt:      o.UpdatedAt.Format(timeLayout),
	}
}
