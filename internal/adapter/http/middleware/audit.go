package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// It maps the matched route template and method to an audit action.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		resourceID := c.Param("id")
		if v, ok := c.Get(CtxResourceID); ok {
			resourceID = fmt.Sprint(v)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			Actor:        Caller(c),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == "/api/v1/credentials" && method == http.MethodPost:
		return domain.AuditActionMintCredential, "credential"
	case route == "/api/v1/gigs" && method == http.MethodPost:
		return domain.AuditActionCreateGig, "gig"
	case route == "/api/v1/gigs/:id/toggle" && method == http.MethodPost:
		return domain.AuditActionToggleGig, "gig"
	case route == "/api/v1/orders" && method == http.MethodPost:
		return domain.AuditActionPlaceOrder, "order"
	case route == "/api/v1/orders/:id/deliver" && method == http.MethodPost:
		return domain.AuditActionDeliverWork, "order"
	case route == "/api/v1/orders/:id/approve" && method == http.MethodPost:
		return domain.AuditActionApproveOrder, "order"
	case route == "/api/v1/orders/:id/reject" && method == http.MethodPost:
		return domain.AuditActionRejectOrder, "order"
	case route == "/api/v1/admin/orders/:id/resolve" && method == http.MethodPost:
		return domain.AuditActionResolveDispute, "order"
	case route == "/api/v1/admin/fee" && method == http.MethodPut:
		return domain.AuditActionSetFee, "settings"
	case route == "/api/v1/token/mint" && method == http.MethodPost:
		return domain.AuditActionMint, "token"
	case route == "/api/v1/token/transfer" && method == http.MethodPost:
		return domain.AuditActionTransfer, "token"
	case route == "/api/v1/token/approve" && method == http.MethodPost:
		return domain.AuditActionApprove, "token"
	case route == "/api/v1/token/transfer-from" && method == http.MethodPost:
		return domain.AuditActionTransferFrom, "token"
	}
	return "", ""
}
