package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/internal/gateway"
	"motoka/pkg/cache"
	"motoka/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	_slowOperationThreshold = 200 * time.Millisecond

	_verifyUnavailableMessage = "We could not confirm this payment with the gateway right now. Please try again shortly."
)

type (
	Caller struct {
		UserID uuid.UUID
		Email  string
		Name   string
		Phone  string
	}

	DeliveryRequest struct {
		Address string
		Contact string
		StateID int64
		LGAID   *int64
	}

	InitializeRequest struct {
		ResourceType entity.ResourceType
		ResourceSlug string
		FeeIDs       []int64
		Gateway      string
		LicenseYears int
		Delivery     *DeliveryRequest
		Metadata     map[string]string
	}

	InitializeResult struct {
		Payment    *entity.Payment
		Initiation *entity.ChargeInitiation
	}

	VerifyResult struct {
		Payment *entity.Payment
		Order   *entity.Order
		Message string
	}

	Receipt struct {
		Payment *entity.Payment
		Order   *entity.Order
	}

	PaymentService struct {
		payments   PaymentStore
		orders     OrderRepository
		resources  ResourceRepository
		fees       FeeRepository
		engine     *Engine
		dispatcher CompletionDispatcher
		gateways   *gateway.Registry
		feeCache   cache.Cache[int64, entity.FeeSchedule]
		feeTTL     time.Duration
		cfg        config.Payment
		logger     logger.Logger
	}
)

func NewPaymentService(
	payments PaymentStore,
	orders OrderRepository,
	resources ResourceRepository,
	fees FeeRepository,
	engine *Engine,
	dispatcher CompletionDispatcher,
	gateways *gateway.Registry,
	feeCache cache.Cache[int64, entity.FeeSchedule],
	feeTTL time.Duration,
	cfg config.Payment,
	logger logger.Logger,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		orders:     orders,
		resources:  resources,
		fees:       fees,
		engine:     engine,
		dispatcher: dispatcher,
		gateways:   gateways,
		feeCache:   feeCache,
		feeTTL:     feeTTL,
		cfg:        cfg,
		logger:     logger,
	}
}

// InitializePayment prices the requested fees server-side, stores a pending
// payment and opens a charge with the chosen gateway.
func (s *PaymentService) InitializePayment(
	ctx context.Context,
	caller Caller,
	req *InitializeRequest,
) (*InitializeResult, error) {
	const op = "service.InitializePayment"
	log := s.logger.Ctx(ctx)

	startTime := time.Now()
	defer s.warnIfSlow(ctx, op, startTime)

	adapter, err := s.resolveGateway(req.Gateway)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resource, err := s.resources.GetBySlug(ctx, req.ResourceType, req.ResourceSlug)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: resource %q: %w", op, req.ResourceSlug, entity.ErrInvalidData)
		}
		return nil, fmt.Errorf("%s: resolve resource: %w", op, err)
	}
	if resource.UserID != caller.UserID {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrForbidden)
	}

	years, err := s.licenseYears(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.priceLineItems(ctx, req.FeeIDs, years)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metadata := entity.PaymentMetadata{
		DeliveryFee:  decimal.Zero,
		LicenseYears: years,
		Extra:        req.Metadata,
	}
	if req.Delivery != nil {
		fee, feeErr := s.fees.GetDeliveryFee(ctx, req.Delivery.StateID, req.Delivery.LGAID)
		if feeErr != nil {
			if errors.Is(feeErr, entity.ErrDataNotFound) {
				return nil, fmt.Errorf("%s: %w", op, entity.ErrDeliveryFeeNotConfigured)
			}
			return nil, fmt.Errorf("%s: delivery fee: %w", op, feeErr)
		}
		stateID := req.Delivery.StateID
		metadata.DeliveryAddress = req.Delivery.Address
		metadata.DeliveryContact = req.Delivery.Contact
		metadata.StateID = &stateID
		metadata.LGAID = req.Delivery.LGAID
		metadata.DeliveryFee = fee.Amount
	}

	draft := &entity.Payment{
		UserID:       caller.UserID,
		ResourceType: resource.Type,
		ResourceID:   resource.ID,
		Currency:     s.cfg.Currency,
		Status:       entity.PaymentPending,
		Gateway:      adapter.Name(),
		LineItems:    items,
		Metadata:     metadata,
	}
	draft.Amount = draft.ExpectedAmount()

	payment, err := s.payments.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("%s: create payment: %w", op, err)
	}

	initiation, err := adapter.InitiateCharge(ctx, &entity.ChargeRequest{
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Customer: entity.Customer{
			ID:    caller.UserID,
			Email: caller.Email,
			Name:  caller.Name,
			Phone: caller.Phone,
		},
		LineItems:   payment.LineItems,
		CallbackURL: s.callbackURL(payment.TransactionID),
		Metadata: map[string]string{
			"payment_slug":  payment.Slug,
			"resource_type": string(payment.ResourceType),
			"resource_id":   payment.ResourceID.String(),
		},
	})
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "charge initiation failed",
			logger.String("op", op),
			logger.String("transaction_id", payment.TransactionID),
			logger.String("gateway", adapter.Name()),
			logger.Any("error", err),
		)
		return nil, fmt.Errorf("%s: initiate charge: %w", op, err)
	}

	ref := initiation.ProviderReference
	updated, _, err := s.payments.CompareAndTransition(ctx, payment.ID,
		[]entity.PaymentStatus{entity.PaymentPending}, entity.PaymentPending,
		entity.PaymentPatch{RawResponse: initiation.Raw, ProviderReference: &ref})
	if err != nil {
		return nil, fmt.Errorf("%s: record provider reference: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "payment initialized",
		logger.String("op", op),
		logger.String("transaction_id", updated.TransactionID),
		logger.String("gateway", updated.Gateway),
		logger.String("amount", updated.Amount.String()),
		logger.Int("line_items", len(updated.LineItems)),
	)

	return &InitializeResult{Payment: updated, Initiation: initiation}, nil
}

func (s *PaymentService) resolveGateway(name string) (gateway.Adapter, error) {
	if name == "" {
		return s.gateways.Default(), nil
	}
	return s.gateways.Get(name)
}

func (s *PaymentService) licenseYears(req *InitializeRequest) (int, error) {
	if req.LicenseYears == 0 {
		return 1, nil
	}
	if req.ResourceType != entity.ResourceLicense && req.LicenseYears != 1 {
		return 0, fmt.Errorf("license years apply to licenses only: %w", entity.ErrInvalidData)
	}
	if req.LicenseYears < 1 || req.LicenseYears > s.cfg.MaxLicenseYears {
		return 0, fmt.Errorf("license years %d outside 1..%d: %w",
			req.LicenseYears, s.cfg.MaxLicenseYears, entity.ErrInvalidData)
	}
	return req.LicenseYears, nil
}

func (s *PaymentService) priceLineItems(ctx context.Context, feeIDs []int64, years int) ([]entity.LineItem, error) {
	if len(feeIDs) == 0 {
		return nil, fmt.Errorf("no fees selected: %w", entity.ErrInvalidData)
	}

	seen := make(map[int64]struct{}, len(feeIDs))
	items := make([]entity.LineItem, 0, len(feeIDs))
	multiplier := decimal.NewFromInt(int64(years))

	for _, id := range feeIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("fee %d selected twice: %w", id, entity.ErrInvalidData)
		}
		seen[id] = struct{}{}

		fee, err := s.feeCache.GetOrLoad(ctx, id, s.feeTTL, s.loadFee)
		if err != nil {
			if errors.Is(err, entity.ErrDataNotFound) {
				return nil, fmt.Errorf("fee %d: %w", id, entity.ErrUnknownFee)
			}
			return nil, fmt.Errorf("fee %d: %w", id, err)
		}
		if !fee.Active {
			return nil, fmt.Errorf("fee %d: %w", id, entity.ErrUnknownFee)
		}

		item := entity.LineItem{FeeID: fee.ID, Name: fee.Name, Amount: fee.Amount}
		if years > 1 {
			item.Amount = fee.Amount.Mul(multiplier)
			item.Name = fee.Name + " (" + strconv.Itoa(years) + " years)"
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *PaymentService) loadFee(ctx context.Context, id int64) (entity.FeeSchedule, error) {
	fee, err := s.fees.GetFeeSchedule(ctx, id)
	if err != nil {
		return entity.FeeSchedule{}, err
	}
	return *fee, nil
}

func (s *PaymentService) callbackURL(transactionID string) string {
	return strings.TrimRight(s.cfg.CallbackBaseURL, "/") +
		"/payment/callback?transaction_id=" + url.QueryEscape(transactionID)
}

// VerifyPayment is the synchronous trigger used when the customer returns from
// the gateway. Ownership is checked before the gateway is contacted; a gateway
// failure returns the stored status with a generic message.
func (s *PaymentService) VerifyPayment(
	ctx context.Context,
	caller Caller,
	transactionID string,
) (*VerifyResult, error) {
	const op = "service.VerifyPayment"

	startTime := time.Now()
	defer s.warnIfSlow(ctx, op, startTime)

	payment, err := s.payments.FindByTransactionOrProviderReference(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !payment.OwnedBy(caller.UserID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrForbidden)
	}

	result := &VerifyResult{Payment: payment}

	if payment.Status == entity.PaymentPending || payment.Status == entity.PaymentFailed {
		outcome, verifyErr := s.engine.VerifyAndReconcile(ctx, TriggerVerify, payment)
		switch {
		case verifyErr != nil:
			result.Message = _verifyUnavailableMessage
			return result, nil
		case outcome.Payment != nil:
			result.Payment = outcome.Payment
			result.Order = outcome.Order
		}
	}

	if result.Payment.Status == entity.PaymentCompleted && result.Order == nil {
		order, orderErr := s.orders.GetByPaymentID(ctx, nil, result.Payment.ID)
		if orderErr != nil && !errors.Is(orderErr, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: load order: %w", op, orderErr)
		}
		result.Order = order
	}

	result.Message = statusMessage(result.Payment.Status)
	return result, nil
}

func statusMessage(status entity.PaymentStatus) string {
	switch status {
	case entity.PaymentCompleted:
		return "Payment successful."
	case entity.PaymentFailed:
		return "Payment failed."
	case entity.PaymentPending:
		return "Payment is still being processed."
	case entity.PaymentDisputed:
		return "Payment is under dispute."
	case entity.PaymentSuspicious:
		return "Payment is under review."
	default:
		return ""
	}
}

// HandleWebhook authenticates and applies a gateway notification. Once the
// signature is valid and the event parses, the webhook is acknowledged even if
// the payment cannot be confirmed; the sweep picks those up later.
func (s *PaymentService) HandleWebhook(
	ctx context.Context,
	gatewayName string,
	rawBody []byte,
	signature string,
) error {
	const op = "service.HandleWebhook"
	log := s.logger.Ctx(ctx)

	adapter, err := s.resolveGateway(gatewayName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !adapter.VerifyWebhookSignature(rawBody, signature) {
		log.LogAttrs(ctx, logger.WarnLevel, "webhook signature rejected",
			logger.String("op", op),
			logger.String("gateway", adapter.Name()),
		)
		return fmt.Errorf("%s: %w", op, entity.ErrInvalidSignature)
	}

	event, err := adapter.ParseWebhookEvent(rawBody)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrMalformedWebhook, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "webhook received",
		logger.String("op", op),
		logger.String("gateway", adapter.Name()),
		logger.String("event_type", event.Type),
		logger.String("reference", event.Reference),
	)

	switch event.Kind {
	case entity.WebhookChargeSuccess, entity.WebhookChargeFailed:
		result, verifyErr := adapter.VerifyCharge(ctx, event.Reference)
		if verifyErr != nil {
			log.LogAttrs(ctx, logger.WarnLevel, "webhook charge could not be verified",
				logger.String("op", op),
				logger.String("gateway", adapter.Name()),
				logger.String("reference", event.Reference),
				logger.Any("error", verifyErr),
			)
			return nil
		}
		if _, err = s.engine.Reconcile(ctx, TriggerWebhook, result); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	case entity.WebhookDispute:
		if _, err = s.engine.Dispute(ctx, TriggerWebhook, event.Reference, event.Raw); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	default:
		log.LogAttrs(ctx, logger.InfoLevel, "webhook event ignored",
			logger.String("op", op),
			logger.String("gateway", adapter.Name()),
			logger.String("event_type", event.Type),
		)
	}

	return nil
}

// WebhookSignatureHeader names the request header that carries gatewayName's
// webhook signature. An empty name means the default gateway.
func (s *PaymentService) WebhookSignatureHeader(gatewayName string) (string, error) {
	adapter, err := s.resolveGateway(gatewayName)
	if err != nil {
		return "", fmt.Errorf("service.WebhookSignatureHeader: %w", err)
	}
	return adapter.SignatureHeader(), nil
}

func (s *PaymentService) GetReceipt(ctx context.Context, caller Caller, slug string) (*Receipt, error) {
	const op = "service.GetReceipt"

	payment, err := s.payments.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !payment.OwnedBy(caller.UserID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrForbidden)
	}

	receipt := &Receipt{Payment: payment}
	order, err := s.orders.GetByPaymentID(ctx, nil, payment.ID)
	switch {
	case err == nil:
		receipt.Order = order
	case !errors.Is(err, entity.ErrDataNotFound):
		return nil, fmt.Errorf("%s: load order: %w", op, err)
	}

	return receipt, nil
}

// Reverify re-checks a payment with its gateway on behalf of an operator.
func (s *PaymentService) Reverify(ctx context.Context, transactionID string) (*Outcome, error) {
	const op = "service.Reverify"

	payment, err := s.payments.FindByTransactionOrProviderReference(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	outcome, err := s.engine.VerifyAndReconcile(ctx, TriggerOperator, payment)
	if err != nil {
		return outcome, fmt.Errorf("%s: %w", op, err)
	}
	return outcome, nil
}

// Redispatch re-runs completion effects for a completed payment whose effects
// did not finish. Effects that already ran are not repeated.
func (s *PaymentService) Redispatch(ctx context.Context, transactionID string) (*entity.Order, error) {
	const op = "service.Redispatch"

	payment, err := s.payments.FindByTransactionOrProviderReference(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payment.Status != entity.PaymentCompleted {
		return nil, fmt.Errorf("%s: payment is %s: %w", op, payment.Status, entity.ErrInvalidData)
	}

	order, err := s.dispatcher.DispatchCompletion(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *PaymentService) warnIfSlow(ctx context.Context, op string, startTime time.Time) {
	duration := time.Since(startTime)
	if duration > _slowOperationThreshold {
		s.logger.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "slow service operation",
			logger.String("op", op),
			logger.String("duration", duration.String()),
		)
	}
}
