package httpt

import (
	"context"
	"errors"
	"net/http"

	"motoka/internal/entity"
	"motoka/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h *PaymentHandler) handleServiceError(c *gin.Context, err error, op string) {
	ctx := c.Request.Context()
	log := h.log.Ctx(ctx)

	status, message := errorStatus(err)

	level := logger.WarnLevel
	if status >= http.StatusInternalServerError {
		level = logger.ErrorLevel
	}
	log.LogAttrs(ctx, level, op+" failed",
		logger.Int("status", status),
		logger.Any("error", err),
		logger.String("path", c.Request.URL.Path),
		logger.String("client_ip", c.ClientIP()),
	)

	c.JSON(status, ErrorResponse{Error: message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, entity.ErrInvalidSignature):
		return http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, entity.ErrMalformedWebhook):
		return http.StatusBadRequest, "Malformed webhook payload"
	case errors.Is(err, entity.ErrUnknownFee):
		return http.StatusBadRequest, "Unknown or inactive fee"
	case errors.Is(err, entity.ErrDeliveryFeeNotConfigured):
		return http.StatusBadRequest, "Delivery is not available for this location"
	case errors.Is(err, entity.ErrUnknownGateway):
		return http.StatusBadRequest, "Unknown payment gateway"
	case errors.Is(err, entity.ErrInvalidData):
		return http.StatusBadRequest, "Invalid payment request"
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, entity.ErrDataNotFound):
		return http.StatusNotFound, "Payment not found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errors.Is(err, entity.ErrGatewayUnavailable), errors.Is(err, entity.ErrGatewayMisconfigured):
		return http.StatusInternalServerError, "Payment gateway is unavailable. Please try again later."
	default:
		return http.StatusInternalServerError, "Internal service error"
	}
}

func (h *PaymentHandler) handleBindError(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()

	h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid request body",
		logger.String("op", op),
		logger.Any("error", err),
		logger.String("client_ip", c.ClientIP()),
	)

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
}
