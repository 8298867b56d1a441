package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditLog_OrderApproved(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAudit := mocks.NewMockAuditService(ctrl)

	done := make(chan struct{})
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) {
			assert.Equal(t, domain.AuditActionApproveOrder, log.Action)
			assert.Equal(t, "order", log.ResourceType)
			assert.Equal(t, "12", log.ResourceID)
			assert.Equal(t, testBuyer, log.Actor)
			close(done)
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/orders/:id/approve", func(c *gin.Context) {
		c.Set(CtxCaller, testBuyer)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders/12/approve", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("audit not called")
	}
}

func TestAuditLog_CreatedResourceID(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAudit := mocks.NewMockAuditService(ctrl)

	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, log *domain.AuditLog) {
			assert.Equal(t, domain.AuditActionCreateGig, log.Action)
			assert.Equal(t, "7", log.ResourceID)
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/gigs", func(c *gin.Context) {
		c.Set(CtxResourceID, uint64(7))
		c.JSON(http.StatusCreated, gin.H{"id": 7})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/gigs", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuditLog_SkipsReadsAndFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAudit := mocks.NewMockAuditService(ctrl)
	// No expectations: Log must not be called.

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.GET("/api/v1/gigs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	r.POST("/api/v1/orders", func(c *gin.Context) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error_code": "LED_002"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/gigs", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestMapRouteToAction(t *testing.T) {
	tests := []struct {
		route    string
		method   string
		action   domain.AuditAction
		resource string
	}{
		{"/api/v1/credentials", "POST", domain.AuditActionMintCredential, "credential"},
		{"/api/v1/gigs", "POST", domain.AuditActionCreateGig, "gig"},
		{"/api/v1/gigs/:id/toggle", "POST", domain.AuditActionToggleGig, "gig"},
		{"/api/v1/orders", "POST", domain.AuditActionPlaceOrder, "order"},
		{"/api/v1/orders/:id/deliver", "POST", domain.AuditActionDeliverWork, "order"},
		{"/api/v1/orders/:id/reject", "POST", domain.AuditActionRejectOrder, "order"},
		{"/api/v1/admin/orders/:id/resolve", "POST", domain.AuditActionResolveDispute, "order"},
		{"/api/v1/admin/fee", "PUT", domain.AuditActionSetFee, "settings"},
		{"/api/v1/token/mint", "POST", domain.AuditActionMint, "token"},
		{"/api/v1/token/transfer-from", "POST", domain.AuditActionTransferFrom, "token"},
		{"/api/v1/admin/fee", "POST", "", ""},
		{"/unknown", "POST", "", ""},
	}

	for _, tc := range tests {
		action, resource := mapRouteToAction(tc.route, tc.method)
		assert.Equal(t, tc.action, action, "route=%s method=%s", tc.route, tc.method)
		assert.Equal(t, tc.resource, resource, "route=%s method=%s", tc.route, tc.method)
	}
}
