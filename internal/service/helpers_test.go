package service_test

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"motoka/internal/entity"
	"motoka/internal/gateway"
	mock_gateway "motoka/internal/gateway/mock"
	mock_logger "motoka/pkg/logger/mock"
	mock_metric "motoka/pkg/metric/mock"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory PaymentStore whose CompareAndTransition is atomic
// under a mutex, mirroring the conditional UPDATE of the postgres store.
type memStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*entity.Payment
}

func newMemStore(payments ...*entity.Payment) *memStore {
	s := &memStore{payments: make(map[uuid.UUID]*entity.Payment)}
	for _, p := range payments {
		cp := *p
		s.payments[p.ID] = &cp
	}
	return s
}

func (s *memStore) Create(_ context.Context, payment *entity.Payment) (*entity.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *payment
	cp.ID = uuid.New()
	cp.TransactionID = "MTK-" + gofakeit.LetterN(20)
	cp.Slug = gofakeit.LetterN(32)
	cp.Status = entity.PaymentPending
	s.payments[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (s *memStore) FindByTransactionOrProviderReference(_ context.Context, key string) (*entity.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.TransactionID == key || (p.ProviderReference != nil && *p.ProviderReference == key) {
			out := *p
			return &out, nil
		}
	}
	return nil, entity.ErrDataNotFound
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, entity.ErrDataNotFound
	}
	out := *p
	return &out, nil
}

func (s *memStore) GetBySlug(_ context.Context, slug string) (*entity.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.Slug == slug {
			out := *p
			return &out, nil
		}
	}
	return nil, entity.ErrDataNotFound
}

func (s *memStore) CompareAndTransition(
	_ context.Context,
	id uuid.UUID,
	expected []entity.PaymentStatus,
	next entity.PaymentStatus,
	patch entity.PaymentPatch,
) (*entity.Payment, bool, error) {
	if err := entity.ValidateTransition(expected, next); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, false, entity.ErrDataNotFound
	}
	if !slices.Contains(expected, p.Status) {
		out := *p
		return &out, false, nil
	}

	p.Status = next
	p.UpdatedAt = time.Now()
	if patch.RawResponse != nil {
		p.RawResponse = patch.RawResponse
	}
	if p.ProviderReference == nil && patch.ProviderReference != nil {
		ref := *patch.ProviderReference
		p.ProviderReference = &ref
	}
	if next == entity.PaymentCompleted && p.CompletedAt == nil {
		now := time.Now()
		p.CompletedAt = &now
	}

	out := *p
	return &out, true, nil
}

func (s *memStore) ListPendingForSweep(_ context.Context, createdAfter time.Time, limit int) ([]*entity.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Payment
	for _, p := range s.payments {
		if p.Status == entity.PaymentPending && p.ProviderReference != nil && p.CreatedAt.After(createdAfter) {
			cp := *p
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) status(id uuid.UUID) entity.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[id].Status
}

type countingDispatcher struct {
	calls atomic.Int32
	err   error
}

func (d *countingDispatcher) DispatchCompletion(_ context.Context, payment *entity.Payment) (*entity.Order, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return &entity.Order{ID: uuid.New(), PaymentID: payment.ID, OrderType: entity.OrderGeneral}, nil
}

func newLogger(ctrl *gomock.Controller) *mock_logger.MockLogger {
	log := mock_logger.NewMockLogger(ctrl)
	log.EXPECT().Ctx(gomock.Any()).Return(log).AnyTimes()
	log.EXPECT().LogAttrs(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func newReconcileMetrics(ctrl *gomock.Controller) *mock_metric.MockReconcile {
	m := mock_metric.NewMockReconcile(ctrl)
	m.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.EXPECT().Noop(gomock.Any(), gomock.Any()).AnyTimes()
	m.EXPECT().EffectFailed(gomock.Any()).AnyTimes()
	return m
}

func newAdapter(ctrl *gomock.Controller, name string) *mock_gateway.MockAdapter {
	a := mock_gateway.NewMockAdapter(ctrl)
	a.EXPECT().Name().Return(name).AnyTimes()
	return a
}

func newRegistry(t *testing.T, adapters ...gateway.Adapter) *gateway.Registry {
	t.Helper()

	r, err := gateway.NewRegistry(gateway.Paystack, adapters...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return r
}

func generateFakePayment(status entity.PaymentStatus, amount string) *entity.Payment {
	total := decimal.RequireFromString(amount)
	ref := gofakeit.LetterN(12)

	return &entity.Payment{
		ID:                uuid.New(),
		TransactionID:     "MTK-" + gofakeit.LetterN(20),
		Slug:              gofakeit.LetterN(32),
		UserID:            uuid.New(),
		ResourceType:      entity.ResourceVehicle,
		ResourceID:        uuid.New(),
		Amount:            total,
		Currency:          "NGN",
		Status:            status,
		Gateway:           gateway.Paystack,
		ProviderReference: &ref,
		LineItems: []entity.LineItem{
			{FeeID: gofakeit.Int64(), Name: gofakeit.ProductName(), Amount: total},
		},
		Metadata:  entity.PaymentMetadata{DeliveryFee: decimal.Zero},
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func gatewayResult(p *entity.Payment, status entity.ResultStatus, amount string) *entity.GatewayResult {
	r := &entity.GatewayResult{
		Gateway:        p.Gateway,
		TransactionID:  p.TransactionID,
		Status:         status,
		ProviderStatus: string(status),
		Raw:            json.RawMessage(`{"status":"` + string(status) + `"}`),
		Timestamp:      time.Now(),
	}
	if amount != "" {
		a := decimal.RequireFromString(amount)
		r.ReportedAmount = &a
	}
	return r
}

// cancelOnTransition cancels the trigger's context as soon as a transition
// is won, the way a disconnecting client or an expiring sweep budget would.
type cancelOnTransition struct {
	*memStore
	cancel context.CancelFunc
}

func (s *cancelOnTransition) CompareAndTransition(
	ctx context.Context,
	id uuid.UUID,
	expected []entity.PaymentStatus,
	next entity.PaymentStatus,
	patch entity.PaymentPatch,
) (*entity.Payment, bool, error) {
	updated, changed, err := s.memStore.CompareAndTransition(ctx, id, expected, next, patch)
	if changed {
		s.cancel()
	}
	return updated, changed, err
}

// ctxDispatcher fails like the real dispatcher does on a done context.
type ctxDispatcher struct {
	countingDispatcher
}

func (d *ctxDispatcher) DispatchCompletion(ctx context.Context, payment *entity.Payment) (*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.countingDispatcher.DispatchCompletion(ctx, payment)
}
