package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"motoka/internal/entity"
	"motoka/internal/service"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func newEngine(
	t *testing.T,
	store service.PaymentStore,
	dispatcher service.CompletionDispatcher,
) *service.Engine {
	t.Helper()

	ctrl := gomock.NewController(t)
	registry := newRegistry(t, newAdapter(ctrl, "paystack"))

	return service.NewEngine(store, registry, dispatcher, newReconcileMetrics(ctrl), newLogger(ctrl))
}

func TestEngine_Reconcile(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		desc           string
		initial        entity.PaymentStatus
		amount         string
		result         func(p *entity.Payment) *entity.GatewayResult
		expectedStatus entity.PaymentStatus
		expectedChange bool
		dispatchCalls  int32
	}{
		{
			desc:    "Pending success completes and dispatches",
			initial: entity.PaymentPending,
			amount:  "19700",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultSuccess, "19700.00")
			},
			expectedStatus: entity.PaymentCompleted,
			expectedChange: true,
			dispatchCalls:  1,
		},
		{
			desc:    "Failed payment recovers on later success",
			initial: entity.PaymentFailed,
			amount:  "5000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultSuccess, "5000")
			},
			expectedStatus: entity.PaymentCompleted,
			expectedChange: true,
			dispatchCalls:  1,
		},
		{
			desc:    "Completed payment never regresses to failed",
			initial: entity.PaymentCompleted,
			amount:  "5000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultFailed, "")
			},
			expectedStatus: entity.PaymentCompleted,
		},
		{
			desc:    "Repeated success on completed payment does not dispatch",
			initial: entity.PaymentCompleted,
			amount:  "5000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultSuccess, "5000")
			},
			expectedStatus: entity.PaymentCompleted,
		},
		{
			desc:    "Tampered amount marks payment suspicious",
			initial: entity.PaymentPending,
			amount:  "45000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultSuccess, "500")
			},
			expectedStatus: entity.PaymentSuspicious,
			expectedChange: true,
		},
		{
			desc:    "Success without reported amount marks payment suspicious",
			initial: entity.PaymentPending,
			amount:  "3000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultSuccess, "")
			},
			expectedStatus: entity.PaymentSuspicious,
			expectedChange: true,
		},
		{
			desc:    "Failure on pending payment marks failed",
			initial: entity.PaymentPending,
			amount:  "3000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultFailed, "")
			},
			expectedStatus: entity.PaymentFailed,
			expectedChange: true,
		},
		{
			desc:    "Unknown result is a no-op",
			initial: entity.PaymentPending,
			amount:  "3000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultUnknown, "")
			},
			expectedStatus: entity.PaymentPending,
		},
		{
			desc:    "Pending result is a no-op",
			initial: entity.PaymentPending,
			amount:  "3000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				return gatewayResult(p, entity.ResultPending, "")
			},
			expectedStatus: entity.PaymentPending,
		},
		{
			desc:    "Result from another gateway is discarded",
			initial: entity.PaymentPending,
			amount:  "3000",
			result: func(p *entity.Payment) *entity.GatewayResult {
				r := gatewayResult(p, entity.ResultSuccess, "3000")
				r.Gateway = "monicredit"
				return r
			},
			expectedStatus: entity.PaymentPending,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			payment := generateFakePayment(tc.initial, tc.amount)
			store := newMemStore(payment)
			dispatcher := &countingDispatcher{}
			engine := newEngine(t, store, dispatcher)

			outcome, err := engine.Reconcile(ctx, service.TriggerWebhook, tc.result(payment))

			require.NoError(t, err)
			require.NotNil(t, outcome.Payment)
			require.Equal(t, tc.expectedChange, outcome.Changed)
			require.Equal(t, tc.expectedStatus, store.status(payment.ID))
			require.Equal(t, tc.dispatchCalls, dispatcher.calls.Load())
		})
	}
}

func TestEngine_Reconcile_UnknownPayment(t *testing.T) {
	store := newMemStore()
	dispatcher := &countingDispatcher{}
	engine := newEngine(t, store, dispatcher)

	payment := generateFakePayment(entity.PaymentPending, "100")
	outcome, err := engine.Reconcile(context.Background(), service.TriggerWebhook,
		gatewayResult(payment, entity.ResultSuccess, "100"))

	require.NoError(t, err)
	require.Nil(t, outcome.Payment)
	require.Zero(t, dispatcher.calls.Load())
}

func TestEngine_Reconcile_ConcurrentTriggersDispatchOnce(t *testing.T) {
	ctx := context.Background()
	payment := generateFakePayment(entity.PaymentPending, "19700")
	store := newMemStore(payment)
	dispatcher := &countingDispatcher{}
	engine := newEngine(t, store, dispatcher)

	triggers := []service.Trigger{service.TriggerVerify, service.TriggerWebhook, service.TriggerSweep}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
	)
	for i := range 30 {
		wg.Add(1)
		go func(trigger service.Trigger) {
			defer wg.Done()
			outcome, err := engine.Reconcile(ctx, trigger, gatewayResult(payment, entity.ResultSuccess, "19700"))
			if err != nil {
				t.Errorf("reconcile: %v", err)
				return
			}
			if outcome.Changed {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}(triggers[i%len(triggers)])
	}
	wg.Wait()

	require.Equal(t, 1, changed)
	require.Equal(t, int32(1), dispatcher.calls.Load())
	require.Equal(t, entity.PaymentCompleted, store.status(payment.ID))
}

func TestEngine_Reconcile_DispatchFailureKeepsCompleted(t *testing.T) {
	payment := generateFakePayment(entity.PaymentPending, "700")
	store := newMemStore(payment)
	dispatcher := &countingDispatcher{err: entity.ErrResourceNotFound}
	engine := newEngine(t, store, dispatcher)

	outcome, err := engine.Reconcile(context.Background(), service.TriggerSweep,
		gatewayResult(payment, entity.ResultSuccess, "700"))

	require.NoError(t, err)
	require.True(t, outcome.Changed)
	require.Nil(t, outcome.Order)
	require.Equal(t, entity.PaymentCompleted, store.status(payment.ID))
}

func TestEngine_Reconcile_CallerCancellationDoesNotSkipEffects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payment := generateFakePayment(entity.PaymentPending, "19700")
	store := &cancelOnTransition{memStore: newMemStore(payment), cancel: cancel}
	dispatcher := &ctxDispatcher{}
	engine := newEngine(t, store, dispatcher)

	outcome, err := engine.Reconcile(ctx, service.TriggerVerify, gatewayResult(payment, entity.ResultSuccess, "19700"))

	require.NoError(t, err)
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.True(t, outcome.Changed)
	require.NotNil(t, outcome.Order)
	require.Equal(t, int32(1), dispatcher.calls.Load())
	require.Equal(t, entity.PaymentCompleted, store.status(payment.ID))
}

func TestEngine_Reconcile_AlreadyCancelledCallerStillApplies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payment := generateFakePayment(entity.PaymentPending, "700")
	store := newMemStore(payment)
	dispatcher := &ctxDispatcher{}
	engine := newEngine(t, store, dispatcher)

	outcome, err := engine.Reconcile(ctx, service.TriggerSweep, gatewayResult(payment, entity.ResultSuccess, "700"))

	require.NoError(t, err)
	require.NotNil(t, outcome.Order)
	require.Equal(t, int32(1), dispatcher.calls.Load())
}

func TestEngine_Dispute(t *testing.T) {
	testCases := []struct {
		desc     string
		initial  entity.PaymentStatus
		expected entity.PaymentStatus
	}{
		{desc: "Completed becomes disputed", initial: entity.PaymentCompleted, expected: entity.PaymentDisputed},
		{desc: "Pending ignores dispute", initial: entity.PaymentPending, expected: entity.PaymentPending},
		{desc: "Failed ignores dispute", initial: entity.PaymentFailed, expected: entity.PaymentFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			payment := generateFakePayment(tc.initial, "1000")
			store := newMemStore(payment)
			engine := newEngine(t, store, &countingDispatcher{})

			_, err := engine.Dispute(context.Background(), service.TriggerWebhook, payment.TransactionID, nil)

			require.NoError(t, err)
			require.Equal(t, tc.expected, store.status(payment.ID))
		})
	}
}

func TestEngine_VerifyAndReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("Gateway error leaves payment untouched", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		payment := generateFakePayment(entity.PaymentPending, "2500")
		store := newMemStore(payment)
		adapter := newAdapter(ctrl, "paystack")
		adapter.EXPECT().VerifyCharge(gomock.Any(), payment.TransactionID).
			Return(nil, entity.ErrGatewayUnavailable).Times(1)

		engine := service.NewEngine(store, newRegistry(t, adapter), &countingDispatcher{},
			newReconcileMetrics(ctrl), newLogger(ctrl))

		outcome, err := engine.VerifyAndReconcile(ctx, service.TriggerSweep, payment)

		require.True(t, errors.Is(err, entity.ErrGatewayUnavailable))
		require.Equal(t, entity.PaymentPending, outcome.Payment.Status)
		require.Equal(t, entity.PaymentPending, store.status(payment.ID))
	})

	t.Run("Verifies by transaction id and completes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		payment := generateFakePayment(entity.PaymentPending, "2500")
		store := newMemStore(payment)
		adapter := newAdapter(ctrl, "paystack")
		adapter.EXPECT().VerifyCharge(gomock.Any(), payment.TransactionID).
			Return(gatewayResult(payment, entity.ResultSuccess, "2500"), nil).Times(1)
		dispatcher := &countingDispatcher{}

		engine := service.NewEngine(store, newRegistry(t, adapter), dispatcher,
			newReconcileMetrics(ctrl), newLogger(ctrl))

		outcome, err := engine.VerifyAndReconcile(ctx, service.TriggerVerify, payment)

		require.NoError(t, err)
		require.True(t, outcome.Changed)
		require.NotNil(t, outcome.Order)
		require.Equal(t, int32(1), dispatcher.calls.Load())
	})

	t.Run("Unknown gateway", func(t *testing.T) {
		payment := generateFakePayment(entity.PaymentPending, "2500")
		payment.Gateway = "flutterwave"
		engine := newEngine(t, newMemStore(payment), &countingDispatcher{})

		_, err := engine.VerifyAndReconcile(ctx, service.TriggerSweep, payment)

		require.True(t, errors.Is(err, entity.ErrUnknownGateway))
	})
}
