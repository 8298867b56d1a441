package service

import (
	"context"
	"testing"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports/mocks"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			if log.Action != domain.AuditActionPlaceOrder {
				t.Errorf("expected PLACE_ORDER, got %s", log.Action)
			}
			if log.Actor != testBuyer {
				t.Errorf("expected actor %s, got %s", testBuyer, log.Actor)
			}
			close(done)
			return nil
		},
	)

	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Actor:        testBuyer,
		Action:       domain.AuditActionPlaceOrder,
		ResourceType: "order",
		ResourceID:   "1",
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})

	select {
	case <-done:
		// OK
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, newTestLogger())

	// Should not panic
	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Actor:        testAdmin,
		Action:       domain.AuditActionSetFee,
		ResourceType: "settings",
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})

	time.Sleep(50 * time.Millisecond) // let goroutine run
}
