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

// CredentialHandler handles seller credential endpoints.
type CredentialHandler struct {
	reputationSvc ports.ReputationRegistry
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(reputationSvc ports.ReputationRegistry) *CredentialHandler {
	return &CredentialHandler{reputationSvc: reputationSvc}
}

// Mint handles POST /api/v1/credentials.
func (h *CredentialHandler) Mint(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	cred, err := h.reputationSvc.MintCredential(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, cred.ID)
	response.Created(c, toCredentialResponse(cred))
}

// Get handles GET /api/v1/credentials/:holder.
func (h *CredentialHandler) Get(c *gin.Context) {
	holder, err := identityParam(c, c.Param("holder"), "holder")
	if err != nil {
		response.Error(c, err)
		return
	}

	cred, err := h.reputationSvc.GetCredential(c.Request.Context(), holder)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toCredentialResponse(cred))
}

func toCredentialResponse(cred *domain.Credential) *dto.CredentialResponse {
	if cred == nil {
		return nil
	}
	return &dto.CredentialResponse{
		ID:                 cred.ID,
		Holder:             cred.Holder.String(),
		TotalJobs:          cred.TotalJobs,
		SuccessfulJobs:     cred.SuccessfulJobs,
		RatingSum:          cred.RatingSum,
		RatingCount:        cred.RatingCount,
		AverageRatingCenti: cred.AverageRatingCenti(),
		SuccessRateBps:     cred.SuccessRateBps(),
		TotalEarned:        domain.AmountString(cred.TotalEarned),
		CreatedAt:          cred.CreatedAt.Format(timeLayout),
	}
}
