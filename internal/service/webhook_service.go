package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// defaultWebhookRetryIntervals is the wait before each retry after the first attempt.
var defaultWebhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// Webhook request headers.
const (
	HeaderWebhookSignature = "X-Signature"
	HeaderWebhookTimestamp = "X-Timestamp"
	HeaderWebhookEventSeq  = "X-Event-Seq"
)

// WebhookPayload is the JSON body posted to the configured webhook URL.
type WebhookPayload struct {
	Seq       uint64           `json:"seq"`
	EventType domain.EventType `json:"event_type"`
	Data      json.RawMessage  `json:"data"`
	Hash      string           `json:"hash"`
	PrevHash  string           `json:"prev_hash"`
	Timestamp int64            `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// webhookQueueSize bounds events waiting for the delivery worker.
const webhookQueueSize = 4096

// webhookService implements ports.EventPublisher by posting every committed
// event to one URL, signed by a ports.DeliverySigner. A single worker drains
// the queue, so events reach the receiver in the order they were published.
type webhookService struct {
	url        string
	secret     string
	repo       ports.WebhookRepository
	signer     ports.DeliverySigner
	httpClient HTTPClient
	retries    []time.Duration
	now        func() time.Time
	log        zerolog.Logger

	queue chan *domain.Event
	start sync.Once
}

// NewWebhookService creates a new webhook publisher. repo may be nil.
// An empty url disables delivery.
func NewWebhookService(
	url string,
	secret string,
	repo ports.WebhookRepository,
	signer ports.DeliverySigner,
	httpClient HTTPClient,
	log zerolog.Logger,
) ports.EventPublisher {
	return &webhookService{
		url:        url,
		secret:     secret,
		repo:       repo,
		signer:     signer,
		httpClient: httpClient,
		retries:    defaultWebhookRetryIntervals,
		now:        time.Now,
		log:        log,
		queue:      make(chan *domain.Event, webhookQueueSize),
	}
}

// Publish enqueues events for the delivery worker and returns without
// waiting on the network. A full queue drops the remaining events; the
// event log stays the durable record.
func (s *webhookService) Publish(ctx context.Context, events []*domain.Event) error {
	if s.url == "" {
		s.log.Debug().Int("events", len(events)).Msg("webhook: no webhook URL configured, skipping")
		return nil
	}
	if len(events) == 0 {
		return nil
	}

	s.start.Do(func() { go s.run() })
	for _, e := range events {
		select {
		case s.queue <- e.Clone():
		default:
			return fmt.Errorf("webhook queue full, dropped events from seq %d", e.Seq)
		}
	}
	return nil
}

func (s *webhookService) run() {
	for e := range s.queue {
		s.deliverWithRetries(e)
	}
}

// sign builds the body for one attempt. Each attempt carries a fresh
// timestamp so late retries stay inside the receiver's tolerance window.
func (s *webhookService) sign(e *domain.Event) ([]byte, string, int64, error) {
	ts := s.now().Unix()
	body, err := json.Marshal(WebhookPayload{
		Seq:       e.Seq,
		EventType: e.Type,
		Data:      e.Payload,
		Hash:      e.Hash,
		PrevHash:  e.PrevHash,
		Timestamp: ts,
	})
	if err != nil {
		return nil, "", 0, err
	}
	return body, s.signer.Sign(s.secret, ts, body), ts, nil
}

// deliverWithRetries attempts to deliver one event, sleeping between attempts.
func (s *webhookService) deliverWithRetries(e *domain.Event) {
	body, _, _, err := s.sign(e)
	if err != nil {
		s.log.Error().Err(err).Uint64("seq", e.Seq).Msg("webhook: failed to marshal payload")
		return
	}

	now := s.now()
	entry := &domain.WebhookDeliveryLog{
		ID:         uuid.New(),
		EventSeq:   e.Seq,
		EventType:  e.Type,
		WebhookURL: s.url,
		Payload:    string(body),
		Status:     domain.WebhookStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.record(entry, true)

	for attempt := 0; attempt <= len(s.retries); attempt++ {
		if attempt > 0 {
			time.Sleep(s.retries[attempt-1])
		}
		entry.Attempt = attempt + 1

		body, signature, ts, err := s.sign(e)
		if err != nil {
			s.log.Error().Err(err).Uint64("seq", e.Seq).Msg("webhook: failed to marshal payload")
			return
		}
		entry.Payload = string(body)

		status, err := s.post(body, signature, ts, e.Seq)
		if err == nil && status >= 200 && status < 300 {
			entry.Status = domain.WebhookStatusDelivered
			entry.HTTPStatus = &status
			entry.LastError = nil
			entry.NextRetryAt = nil
			entry.UpdatedAt = s.now()
			s.record(entry, false)
			s.log.Info().Uint64("seq", e.Seq).Int("attempt", entry.Attempt).Int("status", status).Msg("webhook: delivered successfully")
			return
		}

		if err == nil {
			err = fmt.Errorf("non-2xx response: %d", status)
			entry.HTTPStatus = &status
		}
		msg := err.Error()
		entry.LastError = &msg
		entry.UpdatedAt = s.now()
		if attempt < len(s.retries) {
			next := entry.UpdatedAt.Add(s.retries[attempt])
			entry.NextRetryAt = &next
		} else {
			entry.NextRetryAt = nil
			entry.Status = domain.WebhookStatusFailed
		}
		s.record(entry, false)
		s.log.Warn().Err(err).Uint64("seq", e.Seq).Int("attempt", entry.Attempt).Msg("webhook: delivery failed")
	}

	s.log.Error().Uint64("seq", e.Seq).Msg("webhook: all retry attempts exhausted")
}

func (s *webhookService) post(body []byte, signature string, timestamp int64, seq uint64) (int, error) {
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWebhookSignature, signature)
	req.Header.Set(HeaderWebhookTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderWebhookEventSeq, strconv.FormatUint(seq, 10))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (s *webhookService) record(entry *domain.WebhookDeliveryLog, create bool) {
	if s.repo == nil {
		return
	}
	var err error
	if create {
		err = s.repo.Create(context.Background(), entry)
	} else {
		err = s.repo.Update(context.Background(), entry)
	}
	if err != nil {
		s.log.Warn().Err(err).Uint64("seq", entry.EventSeq).Msg("webhook: failed to persist delivery log")
	}
}
