package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockHTTPClient implements HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func okResponse() *http.Response {
	return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(""))}
}

func testEvent(seq uint64, typ domain.EventType) *domain.Event {
	payload := []byte(`{"order_id":1}`)
	return &domain.Event{
		Seq:      seq,
		Type:     typ,
		Payload:  payload,
		PrevHash: domain.GenesisHash,
		Hash:     domain.ChainHash(domain.GenesisHash, typ, payload),
	}
}

func TestWebhookService_Publish_SignsAndDelivers(t *testing.T) {
	var (
		capturedReq  *http.Request
		capturedBody []byte
	)
	delivered := make(chan struct{}, 1)
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			capturedReq = req
			capturedBody, _ = io.ReadAll(req.Body)
			delivered <- struct{}{}
			return okResponse(), nil
		},
	}

	sig := NewHMACDeliverySigner(DefaultSignatureTolerance)
	svc := NewWebhookService("https://hooks.example.com/escrow", "hook-secret", nil, sig, httpClient, newTestLogger())

	err := svc.Publish(context.Background(), []*domain.Event{testEvent(7, domain.EventOrderPlaced)})
	assert.NoError(t, err)

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook delivery timed out")
	}

	require.NotNil(t, capturedReq)
	assert.Equal(t, "application/json", capturedReq.Header.Get("Content-Type"))
	assert.Equal(t, "7", capturedReq.Header.Get(HeaderWebhookEventSeq))

	ts, err := strconv.ParseInt(capturedReq.Header.Get(HeaderWebhookTimestamp), 10, 64)
	require.NoError(t, err)
	assert.NoError(t, sig.Verify("hook-secret", ts, capturedBody, capturedReq.Header.Get(HeaderWebhookSignature), time.Now()))

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(capturedBody, &payload))
	assert.Equal(t, uint64(7), payload.Seq)
	assert.Equal(t, domain.EventOrderPlaced, payload.EventType)
	assert.JSONEq(t, `{"order_id":1}`, string(payload.Data))
}

func TestWebhookService_Publish_NoURL(t *testing.T) {
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}

	svc := NewWebhookService("", "secret", nil, NewHMACDeliverySigner(0), httpClient, newTestLogger())

	err := svc.Publish(context.Background(), []*domain.Event{testEvent(1, domain.EventTransfer)})
	assert.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
}

func TestWebhookService_Publish_PreservesOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seqs []string
	)
	done := make(chan struct{})
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			seqs = append(seqs, req.Header.Get(HeaderWebhookEventSeq))
			if len(seqs) == 3 {
				close(done)
			}
			mu.Unlock()
			return okResponse(), nil
		},
	}

	svc := NewWebhookService("https://hooks.example.com", "s", nil, NewHMACDeliverySigner(0), httpClient, newTestLogger())
	err := svc.Publish(context.Background(), []*domain.Event{
		testEvent(1, domain.EventTransfer),
		testEvent(2, domain.EventTransfer),
		testEvent(3, domain.EventOrderPlaced),
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook delivery timed out")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3"}, seqs)
}

func TestWebhookService_RetriesThenRecordsDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockWebhookRepository(ctrl)

	var attempts int
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("connection refused")
			}
			if attempts == 2 {
				return &http.Response{StatusCode: 503, Body: io.NopCloser(strings.NewReader(""))}, nil
			}
			return okResponse(), nil
		},
	}

	done := make(chan struct{})
	var statuses []domain.WebhookStatus
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, log *domain.WebhookDeliveryLog) error {
			statuses = append(statuses, log.Status)
			return nil
		})
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(_ context.Context, log *domain.WebhookDeliveryLog) error {
			statuses = append(statuses, log.Status)
			if log.Status == domain.WebhookStatusDelivered {
				assert.Equal(t, 3, log.Attempt)
				require.NotNil(t, log.HTTPStatus)
				assert.Equal(t, 200, *log.HTTPStatus)
				close(done)
			}
			return nil
		})

	svc := NewWebhookService("https://hooks.example.com", "s", mockRepo, NewHMACDeliverySigner(0), httpClient, newTestLogger()).(*webhookService)
	svc.retries = []time.Duration{time.Millisecond, time.Millisecond}

	require.NoError(t, svc.Publish(context.Background(), []*domain.Event{testEvent(1, domain.EventOrderApproved)}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook delivery timed out")
	}
	assert.Equal(t, []domain.WebhookStatus{
		domain.WebhookStatusPending,
		domain.WebhookStatusPending,
		domain.WebhookStatusPending,
		domain.WebhookStatusDelivered,
	}, statuses)
}

func TestWebhookService_ExhaustedRetriesMarkFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockWebhookRepository(ctrl)
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader(""))}, nil
		},
	}

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
		func(_ context.Context, log *domain.WebhookDeliveryLog) error {
			if log.Attempt == 2 {
				assert.Equal(t, domain.WebhookStatusFailed, log.Status)
				assert.Nil(t, log.NextRetryAt)
				require.NotNil(t, log.LastError)
				assert.Contains(t, *log.LastError, "500")
				close(done)
			}
			return nil
		})

	svc := NewWebhookService("https://hooks.example.com", "s", mockRepo, NewHMACDeliverySigner(0), httpClient, newTestLogger()).(*webhookService)
	svc.retries = []time.Duration{time.Millisecond}

	require.NoError(t, svc.Publish(context.Background(), []*domain.Event{testEvent(1, domain.EventTransfer)}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook failure not recorded in time")
	}
}

func TestWebhookService_LateRetryStillVerifies(t *testing.T) {
	type sent struct {
		ts   int64
		sig  string
		body []byte
		at   time.Time
	}
	var (
		mu       sync.Mutex
		attempts int
		requests []sent
	)
	base := time.Unix(1_700_000_000, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return base.Add(time.Duration(attempts) * 10 * time.Minute)
	}
	done := make(chan struct{})
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			ts, err := strconv.ParseInt(req.Header.Get(HeaderWebhookTimestamp), 10, 64)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			requests = append(requests, sent{
				ts:   ts,
				sig:  req.Header.Get(HeaderWebhookSignature),
				body: body,
				at:   base.Add(time.Duration(attempts) * 10 * time.Minute),
			})
			attempts++
			if attempts < 6 {
				return &http.Response{StatusCode: 503, Body: io.NopCloser(strings.NewReader(""))}, nil
			}
			close(done)
			return okResponse(), nil
		},
	}

	signer := NewHMACDeliverySigner(DefaultSignatureTolerance)
	svc := NewWebhookService("https://hooks.example.com", "hook-secret", nil, signer, httpClient, newTestLogger()).(*webhookService)
	svc.retries = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond}
	svc.now = clock

	require.NoError(t, svc.Publish(context.Background(), []*domain.Event{testEvent(4, domain.EventOrderApproved)}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook delivery timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 6)
	for i, r := range requests {
		assert.NoError(t, signer.Verify("hook-secret", r.ts, r.body, r.sig, r.at), "attempt %d", i+1)
		if i > 0 {
			assert.Greater(t, r.ts, requests[i-1].ts)
		}
	}

	// The first attempt's signature is stale by the time the last one is sent.
	first, last := requests[0], requests[5]
	assert.ErrorIs(t, signer.Verify("hook-secret", first.ts, first.body, first.sig, last.at), ErrSignatureExpired)
}

func TestWebhookService_OrderHoldsAcrossPublishCalls(t *testing.T) {
	var (
		mu   sync.Mutex
		seqs []string
	)
	firstAttempt := make(chan struct{})
	done := make(chan struct{})
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			seqs = append(seqs, req.Header.Get(HeaderWebhookEventSeq))
			switch len(seqs) {
			case 1:
				close(firstAttempt)
				return &http.Response{StatusCode: 503, Body: io.NopCloser(strings.NewReader(""))}, nil
			case 3:
				close(done)
			}
			return okResponse(), nil
		},
	}

	svc := NewWebhookService("https://hooks.example.com", "s", nil, NewHMACDeliverySigner(0), httpClient, newTestLogger()).(*webhookService)
	svc.retries = []time.Duration{20 * time.Millisecond}

	require.NoError(t, svc.Publish(context.Background(), []*domain.Event{testEvent(1, domain.EventOrderPlaced)}))
	select {
	case <-firstAttempt:
	case <-time.After(2 * time.Second):
		t.Fatal("first attempt not sent")
	}
	require.NoError(t, svc.Publish(context.Background(), []*domain.Event{testEvent(2, domain.EventWorkDelivered)}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook delivery timed out")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"1", "1", "2"}, seqs)
}
