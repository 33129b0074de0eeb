package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"motoka/internal/entity"
	"motoka/internal/gateway"
	"motoka/pkg/logger"
	"motoka/pkg/metric"
)

type Trigger string

// _reconcileTimeout bounds the transition and completion effects once they run
// detached from the trigger's context.
const _reconcileTimeout = 30 * time.Second

const (
	TriggerVerify   Trigger = "verify"
	TriggerWebhook  Trigger = "webhook"
	TriggerSweep    Trigger = "sweep"
	TriggerOperator Trigger = "operator"
)

type CompletionDispatcher interface {
	DispatchCompletion(ctx context.Context, payment *entity.Payment) (*entity.Order, error)
}

// Outcome describes what a reconciliation did to the stored payment.
// Payment is nil when the result referenced no known payment.
type Outcome struct {
	Payment *entity.Payment
	Changed bool
	Order   *entity.Order
}

// Engine is the single decision point for payment status. Every trigger feeds
// it normalized gateway results; status only moves through CompareAndTransition
// and completion effects run only for the caller that won the transition.
type Engine struct {
	payments   PaymentStore
	gateways   *gateway.Registry
	dispatcher CompletionDispatcher
	metrics    metric.Reconcile
	logger     logger.Logger
}

func NewEngine(
	payments PaymentStore,
	gateways *gateway.Registry,
	dispatcher CompletionDispatcher,
	metrics metric.Reconcile,
	logger logger.Logger,
) *Engine {
	return &Engine{
		payments:   payments,
		gateways:   gateways,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Reconcile applies a normalized gateway result to the stored payment. It runs
// detached from ctx's cancellation, bounded by its own timeout.
func (e *Engine) Reconcile(
	ctx context.Context,
	trigger Trigger,
	result *entity.GatewayResult,
) (*Outcome, error) {
	const op = "service.Engine.Reconcile"
	log := e.logger.Ctx(ctx)

	if result == nil {
		return nil, fmt.Errorf("%s: nil result: %w", op, entity.ErrInvalidData)
	}

	// The gateway has already answered. From here on the caller going away must
	// not leave a completed payment without its order.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), _reconcileTimeout)
	defer cancel()

	payment, err := e.payments.FindByTransactionOrProviderReference(ctx, result.TransactionID)
	if errors.Is(err, entity.ErrDataNotFound) && result.ProviderReference != "" {
		payment, err = e.payments.FindByTransactionOrProviderReference(ctx, result.ProviderReference)
	}
	if errors.Is(err, entity.ErrDataNotFound) {
		log.LogAttrs(ctx, logger.WarnLevel, "gateway result for unknown payment discarded",
			logger.String("op", op),
			logger.String("trigger", string(trigger)),
			logger.String("transaction_id", result.TransactionID),
			logger.String("gateway", result.Gateway),
		)
		e.metrics.Noop(string(trigger), "not_found")
		return &Outcome{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: lookup payment: %w", op, err)
	}

	if result.Gateway != "" && result.Gateway != payment.Gateway {
		log.LogAttrs(ctx, logger.WarnLevel, "gateway result from a different gateway discarded",
			logger.String("op", op),
			logger.String("trigger", string(trigger)),
			logger.String("transaction_id", payment.TransactionID),
			logger.String("payment_gateway", payment.Gateway),
			logger.String("result_gateway", result.Gateway),
		)
		e.metrics.Noop(string(trigger), "gateway_mismatch")
		return &Outcome{Payment: payment}, nil
	}

	switch result.Status {
	case entity.ResultSuccess:
		return e.applySuccess(ctx, trigger, payment, result)
	case entity.ResultFailed:
		return e.transition(ctx, trigger, payment,
			[]entity.PaymentStatus{entity.PaymentPending}, entity.PaymentFailed, patchFrom(result))
	default:
		log.LogAttrs(ctx, logger.DebugLevel, "gateway result does not move payment",
			logger.String("op", op),
			logger.String("trigger", string(trigger)),
			logger.String("transaction_id", payment.TransactionID),
			logger.String("result_status", string(result.Status)),
			logger.String("provider_status", result.ProviderStatus),
		)
		e.metrics.Noop(string(trigger), string(result.Status))
		return &Outcome{Payment: payment}, nil
	}
}

func (e *Engine) applySuccess(
	ctx context.Context,
	trigger Trigger,
	payment *entity.Payment,
	result *entity.GatewayResult,
) (*Outcome, error) {
	const op = "service.Engine.applySuccess"

	if result.ReportedAmount == nil || !result.ReportedAmount.Equal(payment.Amount) {
		reported := "none"
		if result.ReportedAmount != nil {
			reported = result.ReportedAmount.String()
		}
		e.logger.Ctx(ctx).LogAttrs(ctx, logger.ErrorLevel, "gateway reported amount does not match payment",
			logger.String("op", op),
			logger.String("trigger", string(trigger)),
			logger.String("transaction_id", payment.TransactionID),
			logger.String("gateway", payment.Gateway),
			logger.String("expected_amount", payment.Amount.String()),
			logger.String("reported_amount", reported),
		)
		return e.transition(ctx, trigger, payment,
			[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentFailed},
			entity.PaymentSuspicious, patchFrom(result))
	}

	outcome, err := e.transition(ctx, trigger, payment,
		[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentFailed},
		entity.PaymentCompleted, patchFrom(result))
	if err != nil || !outcome.Changed {
		return outcome, err
	}

	order, err := e.dispatcher.DispatchCompletion(ctx, outcome.Payment)
	if err != nil {
		// The payment stays completed; the operator CLI can re-run the effects.
		e.logger.Ctx(ctx).LogAttrs(ctx, logger.ErrorLevel, "completion effects failed",
			logger.String("op", op),
			logger.String("trigger", string(trigger)),
			logger.String("payment_id", payment.ID.String()),
			logger.String("transaction_id", payment.TransactionID),
			logger.String("user_id", payment.UserID.String()),
			logger.String("resource_type", string(payment.ResourceType)),
			logger.String("resource_id", payment.ResourceID.String()),
			logger.Any("error", err),
		)
		return outcome, nil
	}
	outcome.Order = order

	return outcome, nil
}

func (e *Engine) transition(
	ctx context.Context,
	trigger Trigger,
	payment *entity.Payment,
	expected []entity.PaymentStatus,
	next entity.PaymentStatus,
	patch entity.PaymentPatch,
) (*Outcome, error) {
	const op = "service.Engine.transition"

	updated, changed, err := e.payments.CompareAndTransition(ctx, payment.ID, expected, next, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, payment.Status, next, err)
	}

	if !changed {
		e.metrics.Noop(string(trigger), "already_"+string(updated.Status))
		e.logger.Ctx(ctx).LogAttrs(ctx, logger.DebugLevel, "transition not applied",
			logger.String("op", op),
			logger.String("trigger", string(trigger)),
			logger.String("transaction_id", payment.TransactionID),
			logger.String("current_status", string(updated.Status)),
			logger.String("target_status", string(next)),
		)
		return &Outcome{Payment: updated}, nil
	}

	e.metrics.Transition(string(trigger), string(payment.Status), string(next))
	e.logger.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "payment status changed",
		logger.String("op", op),
		logger.String("trigger", string(trigger)),
		logger.String("transaction_id", payment.TransactionID),
		logger.String("from", string(payment.Status)),
		logger.String("to", string(next)),
	)

	return &Outcome{Payment: updated, Changed: true}, nil
}

// Dispute marks a completed payment as disputed. Disputes for payments in any
// other status are ignored.
func (e *Engine) Dispute(
	ctx context.Context,
	trigger Trigger,
	reference string,
	raw json.RawMessage,
) (*Outcome, error) {
	const op = "service.Engine.Dispute"

	payment, err := e.payments.FindByTransactionOrProviderReference(ctx, reference)
	if errors.Is(err, entity.ErrDataNotFound) {
		e.logger.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "dispute for unknown payment discarded",
			logger.String("op", op),
			logger.String("reference", reference),
		)
		e.metrics.Noop(string(trigger), "not_found")
		return &Outcome{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: lookup payment: %w", op, err)
	}

	return e.transition(ctx, trigger, payment,
		[]entity.PaymentStatus{entity.PaymentCompleted}, entity.PaymentDisputed,
		entity.PaymentPatch{RawResponse: raw})
}

// VerifyAndReconcile asks the payment's own gateway for the charge status and
// feeds the answer to Reconcile. A gateway error leaves the payment untouched.
func (e *Engine) VerifyAndReconcile(
	ctx context.Context,
	trigger Trigger,
	payment *entity.Payment,
) (*Outcome, error) {
	const op = "service.Engine.VerifyAndReconcile"

	adapter, err := e.gateways.Get(payment.Gateway)
	if err != nil {
		return &Outcome{Payment: payment}, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	result, err := adapter.VerifyCharge(ctx, payment.TransactionID)
	if err != nil {
		e.metrics.Noop(string(trigger), "gateway_error")
		e.logger.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "gateway verification failed",
			logger.String("op", op),
			logger.String("trigger", string(trigger)),
			logger.String("transaction_id", payment.TransactionID),
			logger.String("gateway", payment.Gateway),
			logger.String("duration", time.Since(start).String()),
			logger.Any("error", err),
		)
		return &Outcome{Payment: payment}, fmt.Errorf("%s: %w", op, err)
	}

	return e.Reconcile(ctx, trigger, result)
}

func patchFrom(result *entity.GatewayResult) entity.PaymentPatch {
	patch := entity.PaymentPatch{RawResponse: result.Raw}
	if result.ProviderReference != "" {
		ref := result.ProviderReference
		patch.ProviderReference = &ref
	}
	return patch
}
