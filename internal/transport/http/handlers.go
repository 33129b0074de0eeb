package httpt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"motoka/internal/entity"
	"motoka/internal/service"
	"motoka/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	_defaultContextTimeout = 2 * time.Second
	// Gateway round trips dominate initialize, verify and webhook handling.
	_gatewayContextTimeout = 30 * time.Second

	_maxWebhookBodyBytes = 1 << 20
)

// @Summary Initialize payment
// @Description Prices the selected fees, creates a pending payment and opens a charge with the gateway
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httpt.InitializeRequest true "Resource, fees and optional delivery"
// @Success 200 {object} httpt.InitializeResponse
// @Failure 400 {object} httpt.ErrorResponse "Unknown resource, fee or delivery location"
// @Failure 401 {object} httpt.ErrorResponse
// @Failure 403 {object} httpt.ErrorResponse "Resource belongs to another user"
// @Failure 500 {object} httpt.ErrorResponse "Gateway unreachable or misconfigured"
// @Router /payment/initialize [post]
func (h *PaymentHandler) initializePaymentHandler(c *gin.Context) {
	const op = "transport.initializePaymentHandler"

	var req InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, op, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), _gatewayContextTimeout)
	defer cancel()

	result, err := h.svc.InitializePayment(ctx, callerFrom(c), toServiceInitializeRequest(&req))
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	h.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "payment initialized",
		logger.String("transaction_id", result.Payment.TransactionID),
	)

	c.JSON(http.StatusOK, InitializeResponse{
		AuthorizationURL:  result.Initiation.AuthorizationURL,
		AccessCode:        result.Initiation.AccessCode,
		ProviderReference: result.Initiation.ProviderReference,
		Total:             result.Payment.Amount,
		Payment:           toPaymentSummary(result.Payment),
	})
}

func toServiceInitializeRequest(req *InitializeRequest) *service.InitializeRequest {
	out := &service.InitializeRequest{
		ResourceType: entity.ResourceType(req.ResourceType),
		ResourceSlug: req.ResourceSlug,
		FeeIDs:       req.FeeIDs,
		Gateway:      req.Gateway,
		LicenseYears: req.LicenseYears,
		Metadata:     req.Metadata,
	}
	if req.Delivery != nil {
		out.Delivery = &service.DeliveryRequest{
			Address: req.Delivery.Address,
			Contact: req.Delivery.Contact,
			StateID: req.Delivery.StateID,
			LGAID:   req.Delivery.LGAID,
		}
	}
	return out
}

// @Summary Verify payment
// @Description Confirms the payment with its gateway and returns the current status
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param transaction_id path string true "Transaction ID or provider reference"
// @Success 200 {object} httpt.VerifyResponse
// @Failure 401 {object} httpt.ErrorResponse
// @Failure 403 {object} httpt.ErrorResponse "Payment belongs to another user"
// @Failure 404 {object} httpt.ErrorResponse "Payment not found"
// @Router /payment/verify/{transaction_id} [post]
func (h *PaymentHandler) verifyPaymentHandler(c *gin.Context) {
	const op = "transport.verifyPaymentHandler"

	transactionID := c.Param("transaction_id")
	if transactionID == "" || len(transactionID) > 128 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid transaction id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), _gatewayContextTimeout)
	defer cancel()

	result, err := h.svc.VerifyPayment(ctx, callerFrom(c), transactionID)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Status:  string(result.Payment.Status),
		Message: result.Message,
		Payment: toPaymentSummary(result.Payment),
		Order:   toOrderSummary(result.Order),
	})
}

// @Summary Gateway webhook
// @Description Receives signed event notifications from a payment gateway
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param gateway path string false "Gateway name; the default gateway when omitted"
// @Success 200 {object} httpt.SuccessResponse
// @Failure 400 {object} httpt.ErrorResponse "Invalid signature or payload"
// @Router /payment/webhook/{gateway} [post]
func (h *PaymentHandler) webhookHandler(c *gin.Context) {
	const op = "transport.webhookHandler"

	gatewayName := c.Param("gateway")

	header, err := h.svc.WebhookSignatureHeader(gatewayName)
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, _maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Payload too large"})
			return
		}
		h.handleBindError(c, op, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), _gatewayContextTimeout)
	defer cancel()

	if err = h.svc.HandleWebhook(ctx, gatewayName, body, c.GetHeader(header)); err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}

// @Summary Payment receipt
// @Description Returns a payment and its order by receipt slug
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Receipt slug"
// @Success 200 {object} httpt.ReceiptResponse
// @Failure 401 {object} httpt.ErrorResponse
// @Failure 403 {object} httpt.ErrorResponse
// @Failure 404 {object} httpt.ErrorResponse
// @Router /payment/receipt/{slug} [get]
func (h *PaymentHandler) receiptHandler(c *gin.Context) {
	const op = "transport.receiptHandler"

	ctx, cancel := context.WithTimeout(c.Request.Context(), _defaultContextTimeout)
	defer cancel()

	receipt, err := h.svc.GetReceipt(ctx, callerFrom(c), c.Param("slug"))
	if err != nil {
		h.handleServiceError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, ReceiptResponse{
		Payment: toPaymentSummary(receipt.Payment),
		Order:   toOrderSummary(receipt.Order),
	})
}
