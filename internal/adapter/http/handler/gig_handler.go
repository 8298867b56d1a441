package handler

import (
	"strconv"

	"gig-escrow/internal/adapter/http/dto"
	"gig-escrow/internal/adapter/http/middleware"
	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
	"gig-escrow/pkg/response"

	"github.com/gin-gonic/gin"
)

// GigHandler handles gig catalogue endpoints.
type GigHandler struct {
	gigSvc ports.GigRegistry
}

// NewGigHandler creates a new GigHandler.
func NewGigHandler(gigSvc ports.GigRegistry) *GigHandler {
	return &GigHandler{gigSvc: gigSvc}
}

// Create handles POST /api/v1/gigs.
func (h *GigHandler) Create(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	price, err := domain.ParseAmount(req.Price)
	if err != nil {
		response.Error(c, apperror.ErrInvalidGig("Price must be a base-10 integer"))
		return
	}

	gig, err := h.gigSvc.CreateGig(c.Request.Context(), caller, ports.CreateGigRequest{
		Title:             req.Title,
		Description:       req.Description,
		AIModel:           req.AIModel,
		Price:             price,
		DeliveryTimeHours: req.DeliveryTimeHours,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, gig.ID)
	response.Created(c, toGigResponse(gig))
}

// Get handles GET /api/v1/gigs/:id.
func (h *GigHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id", apperror.ErrGigNotFound())
	if err != nil {
		response.Error(c, err)
		return
	}

	gig, err := h.gigSvc.GetGig(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toGigResponse(gig))
}

// Toggle handles POST /api/v1/gigs/:id/toggle.
func (h *GigHandler) Toggle(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := pathID(c, "id", apperror.ErrGigNotFound())
	if err != nil {
		response.Error(c, err)
		return
	}

	gig, err := h.gigSvc.ToggleActive(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toGigResponse(gig))
}

// List handles GET /api/v1/gigs?seller=&active=&offset=&limit=.
func (h *GigHandler) List(c *gin.Context) {
	seller, err := optionalIdentity(c, "seller")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := domain.GigFilter{Seller: seller}
	if a := c.Query("active"); a != "" {
		active, err := strconv.ParseBool(a)
		if err != nil {
			response.Error(c, apperror.Validation("active must be a boolean"))
			return
		}
		filter.ActiveOnly = active
	}

	page := pageQuery(c)
	gigs, total, err := h.gigSvc.ListGigs(c.Request.Context(), filter, page)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.GigResponse, 0, len(gigs))
	for _, g := range gigs {
		items = append(items, toGigResponse(g))
	}
	response.Paged(c, items, total, page.Offset, page.Limit)
}

func toGigResponse(g *domain.Gig) dto.GigResponse {
	return dto.GigResponse{
		ID:                g.ID,
		Seller:            g.Seller.String(),
		Title:             g.Title,
		Description:       g.Description,
		AIModel:           g.AIModel,
		Price:             domain.AmountString(g.Price),
		DeliveryTimeHours: g.DeliveryTimeHours,
		IsActive:          g.IsActive,
		CreatedAt:         g.CreatedAt.Format(timeLayout),
		UpdatedAt:         g.UpdatedAt.Format(timeLayout),
	}
}
