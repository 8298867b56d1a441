package handler

import (
	"gig-escrow/internal/adapter/http/dto"
	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"
	"gig-escrow/pkg/apperror"
	"gig-escrow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
)

// TokenHandler handles ledger endpoints.
type TokenHandler struct {
	ledgerSvc ports.TokenLedger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(ledgerSvc ports.TokenLedger) *TokenHandler {
	return &TokenHandler{ledgerSvc: ledgerSvc}
}

// Mint handles POST /api/v1/token/mint.
func (h *TokenHandler) Mint(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	to, amount, err := parseTransfer(req.To, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.ledgerSvc.Mint(c.Request.Context(), caller, to, amount); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.LedgerWriteResponse{To: to.String(), Amount: amount.Dec()})
}

// Transfer handles POST /api/v1/token/transfer.
func (h *TokenHandler) Transfer(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	to, amount, err := parseTransfer(req.To, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.ledgerSvc.Transfer(c.Request.Context(), caller, to, amount); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.LedgerWriteResponse{From: caller.String(), To: to.String(), Amount: amount.Dec()})
}

// Approve handles POST /api/v1/token/approve.
func (h *TokenHandler) Approve(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	spender, amount, err := parseTransfer(req.Spender, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.ledgerSvc.Approve(c.Request.Context(), caller, spender, amount); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.AllowanceResponse{Owner: caller.String(), Spender: spender.String(), Allowance: amount.Dec()})
}

// TransferFrom handles POST /api/v1/token/transfer-from.
func (h *TokenHandler) TransferFrom(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferFromRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		response.Error(c, apperror.Validation("from must be a valid identity"))
		return
	}
	to, amount, err := parseTransfer(req.To, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.ledgerSvc.TransferFrom(c.Request.Context(), caller, from, to, amount); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.LedgerWriteResponse{From: from.String(), To: to.String(), Amount: amount.Dec()})
}

// Supply handles GET /api/v1/token/supply.
func (h *TokenHandler) Supply(c *gin.Context) {
	supply, err := h.ledgerSvc.TotalSupply(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SupplyResponse{TotalSupply: domain.AmountString(supply)})
}

// Balance handles GET /api/v1/accounts/:id/balance.
func (h *TokenHandler) Balance(c *gin.Context) {
	owner, err := identityParam(c, c.Param("id"), "account")
	if err != nil {
		response.Error(c, err)
		return
	}

	balance, err := h.ledgerSvc.BalanceOf(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceResponse{Owner: owner.String(), Balance: domain.AmountString(balance)})
}

// Allowance handles GET /api/v1/accounts/:id/allowance/:spender.
func (h *TokenHandler) Allowance(c *gin.Context) {
	owner, err := identityParam(c, c.Param("id"), "owner")
	if err != nil {
		response.Error(c, err)
		return
	}
	spender, err := identityParam(c, c.Param("spender"), "spender")
	if err != nil {
		response.Error(c, err)
		return
	}

	allowance, err := h.ledgerSvc.Allowance(c.Request.Context(), owner, spender)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.AllowanceResponse{
		Owner:     owner.String(),
		Spender:   spender.String(),
		Allowance: domain.AmountString(allowance),
	})
}

// parseTransfer converts validated request strings into domain values.
func parseTransfer(rawAddr, rawAmount string) (domain.Address, *uint256.Int, error) {
	addr, err := domain.ParseAddress(rawAddr)
	if err != nil {
		return "", nil, apperror.Validation("identity must be 0x followed by 40 hex characters")
	}
	amount, err := domain.ParseAmount(rawAmount)
	if err != nil {
		return "", nil, apperror.ErrInvalidAmount()
	}
	return addr, amount, nil
}
