package integration

import (
	"context"
	"sync"

	"gig-escrow/internal/core/domain"
)

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.RWMutex
	entries []*domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, log)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- In-Memory Webhook Repo ---

type inMemoryWebhookRepo struct {
	mu   sync.RWMutex
	logs map[uint64][]domain.WebhookDeliveryLog
}

func newInMemoryWebhookRepo() *inMemoryWebhookRepo {
	return &inMemoryWebhookRepo{logs: make(map[uint64][]domain.WebhookDeliveryLog)}
}

func (r *inMemoryWebhookRepo) Create(ctx context.Context, log *domain.WebhookDeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.EventSeq] = append(r.logs[log.EventSeq], *log)
	return nil
}

func (r *inMemoryWebhookRepo) Update(ctx context.Context, log *domain.WebhookDeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.logs[log.EventSeq]
	for i := range entries {
		if entries[i].ID == log.ID {
			entries[i] = *log
			return nil
		}
	}
	r.logs[log.EventSeq] = append(entries, *log)
	return nil
}

func (r *inMemoryWebhookRepo) GetByEventSeq(ctx context.Context, seq uint64) ([]domain.WebhookDeliveryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.WebhookDeliveryLog(nil), r.logs[seq]...), nil
}
