package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motoka/internal/entity"
	"motoka/pkg/logger"
	"motoka/pkg/metric"
	"motoka/pkg/storage/postgres"
	"motoka/pkg/storage/postgres/transaction"

	"github.com/google/uuid"
)

const (
	_stepResolveResource = "resolve_resource"
	_stepOrder           = "activate_and_order"
	_stepReminder        = "reminder"
	_stepNotification    = "notification"
	_stepPublish         = "publish"
)

// Dispatcher runs the effects of a completed payment. It is safe to call more
// than once for the same payment: the order is keyed by payment id and the
// remaining effects only run for the call that created it.
type Dispatcher struct {
	resources     ResourceRepository
	orders        OrderRepository
	reminders     ReminderRepository
	notifications NotificationRepository
	publisher     EventPublisher
	txManager     transaction.Manager
	metrics       metric.Reconcile
	logger        logger.Logger
	now           func() time.Time
}

func NewDispatcher(
	resources ResourceRepository,
	orders OrderRepository,
	reminders ReminderRepository,
	notifications NotificationRepository,
	publisher EventPublisher,
	txManager transaction.Manager,
	metrics metric.Reconcile,
	logger logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		resources:     resources,
		orders:        orders,
		reminders:     reminders,
		notifications: notifications,
		publisher:     publisher,
		txManager:     txManager,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

func (d *Dispatcher) DispatchCompletion(ctx context.Context, payment *entity.Payment) (*entity.Order, error) {
	const op = "service.Dispatcher.DispatchCompletion"
	log := d.logger.Ctx(ctx)

	if payment.Status != entity.PaymentCompleted {
		return nil, fmt.Errorf("%s: payment %s is %s: %w",
			op, payment.TransactionID, payment.Status, entity.ErrInvalidData)
	}

	resource, err := d.resources.GetByID(ctx, nil, payment.ResourceType, payment.ResourceID)
	if err != nil {
		d.metrics.EffectFailed(_stepResolveResource)
		if errors.Is(err, entity.ErrDataNotFound) {
			log.LogAttrs(ctx, logger.ErrorLevel, "owning resource of completed payment not found",
				logger.String("op", op),
				logger.String("payment_id", payment.ID.String()),
				logger.String("transaction_id", payment.TransactionID),
				logger.String("resource_type", string(payment.ResourceType)),
				logger.String("resource_id", payment.ResourceID.String()),
			)
			return nil, fmt.Errorf("%s: %w", op, entity.ErrResourceNotFound)
		}
		return nil, fmt.Errorf("%s: resolve resource: %w", op, err)
	}

	order, created, err := d.activateAndOrder(ctx, payment, resource)
	if err != nil {
		d.metrics.EffectFailed(_stepOrder)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !created {
		log.LogAttrs(ctx, logger.InfoLevel, "order already exists for payment",
			logger.String("op", op),
			logger.String("payment_id", payment.ID.String()),
			logger.String("order_id", order.ID.String()),
		)
		return order, nil
	}

	log.LogAttrs(ctx, logger.InfoLevel, "order created for completed payment",
		logger.String("op", op),
		logger.String("payment_id", payment.ID.String()),
		logger.String("order_id", order.ID.String()),
		logger.String("order_type", string(order.OrderType)),
	)

	now := d.now()
	d.applyReminder(ctx, payment, resource, now)
	d.notify(ctx, payment, resource, now)
	d.publish(ctx, payment, order, now)

	return order, nil
}

func (d *Dispatcher) activateAndOrder(
	ctx context.Context,
	payment *entity.Payment,
	resource *entity.Resource,
) (*entity.Order, bool, error) {
	const operation = "DispatchCompletion"

	var (
		order   *entity.Order
		created bool
	)

	err := d.txManager.ExecuteInTransaction(ctx, operation, func(tx postgres.QueryExecuter) error {
		order, created = nil, false

		if err := d.resources.Activate(ctx, tx, resource.Type, resource.ID); err != nil {
			return transaction.HandleError(operation, "activate resource", err)
		}

		existing, err := d.orders.GetByPaymentID(ctx, tx, payment.ID)
		if err == nil {
			order = existing
			return nil
		}
		if !errors.Is(err, entity.ErrDataNotFound) {
			return transaction.HandleError(operation, "check order", err)
		}

		order, err = d.orders.Create(ctx, tx, newOrder(payment))
		if errors.Is(err, entity.ErrConflictingData) {
			order, err = d.orders.GetByPaymentID(ctx, tx, payment.ID)
			if err != nil {
				return transaction.HandleError(operation, "reload order", err)
			}
			return nil
		}
		if err != nil {
			return transaction.HandleError(operation, "create order", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return order, created, nil
}

func newOrder(payment *entity.Payment) *entity.Order {
	return &entity.Order{
		ID:              uuid.New(),
		PaymentID:       payment.ID,
		UserID:          payment.UserID,
		ResourceType:    payment.ResourceType,
		ResourceID:      payment.ResourceID,
		OrderType:       ClassifyOrder(payment.ResourceType, payment.LineItems),
		Amount:          payment.Amount,
		DeliveryAddress: payment.Metadata.DeliveryAddress,
		DeliveryContact: payment.Metadata.DeliveryContact,
		StateID:         payment.Metadata.StateID,
		LGAID:           payment.Metadata.LGAID,
		DeliveryFee:     payment.Metadata.DeliveryFee,
		Status:          entity.OrderStatusPending,
	}
}

func (d *Dispatcher) applyReminder(
	ctx context.Context,
	payment *entity.Payment,
	resource *entity.Resource,
	now time.Time,
) {
	const op = "service.Dispatcher.applyReminder"

	plan := PlanReminder(resource, now)

	var err error
	switch plan.Action {
	case ReminderDelete:
		err = d.reminders.Delete(ctx, resource.Type, resource.ID)
	case ReminderUpsert:
		err = d.reminders.Upsert(ctx, plan.Reminder)
	default:
		return
	}

	if err != nil {
		d.metrics.EffectFailed(_stepReminder)
		d.logger.Ctx(ctx).LogAttrs(ctx, logger.ErrorLevel, "reminder update failed",
			logger.String("op", op),
			logger.String("payment_id", payment.ID.String()),
			logger.String("resource_id", resource.ID.String()),
			logger.Any("error", err),
		)
	}
}

func (d *Dispatcher) notify(
	ctx context.Context,
	payment *entity.Payment,
	resource *entity.Resource,
	now time.Time,
) {
	const op = "service.Dispatcher.notify"

	n := BuildNotification(payment, resource, now)
	n.ID = uuid.New()

	if err := d.notifications.Create(ctx, n); err != nil {
		d.metrics.EffectFailed(_stepNotification)
		d.logger.Ctx(ctx).LogAttrs(ctx, logger.ErrorLevel, "notification insert failed",
			logger.String("op", op),
			logger.String("payment_id", payment.ID.String()),
			logger.String("user_id", payment.UserID.String()),
			logger.Any("error", err),
		)
	}
}

func (d *Dispatcher) publish(
	ctx context.Context,
	payment *entity.Payment,
	order *entity.Order,
	now time.Time,
) {
	const op = "service.Dispatcher.publish"

	event := &entity.PaymentCompletedEvent{
		EventID:       uuid.New(),
		Type:          entity.EventPaymentCompleted,
		PaymentID:     payment.ID,
		TransactionID: payment.TransactionID,
		OrderID:       order.ID,
		OrderType:     order.OrderType,
		UserID:        payment.UserID,
		ResourceType:  payment.ResourceType,
		ResourceID:    payment.ResourceID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		OccurredAt:    now.UTC(),
	}

	if err := d.publisher.PublishPaymentCompleted(ctx, event); err != nil {
		d.metrics.EffectFailed(_stepPublish)
		d.logger.Ctx(ctx).LogAttrs(ctx, logger.ErrorLevel, "payment completed event not published",
			logger.String("op", op),
			logger.String("payment_id", payment.ID.String()),
			logger.String("order_id", order.ID.String()),
			logger.Any("error", err),
		)
	}
}
