package httpt

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"motoka/internal/entity"
	"motoka/internal/service"
	"motoka/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	_requestIDHeader = "X-Request-ID"
	_callerKey       = "caller"

	_slowRequestThreshold = 200 * time.Millisecond
)

type callerClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

func (h *PaymentHandler) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(_requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = h.log.GenerateRequestID()
		}
		ctx := h.log.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(_requestIDHeader, requestID)

		c.Next()
	}
}

func (h *PaymentHandler) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		h.log.LogAttrs(c.Request.Context(), logger.InfoLevel, "HTTP request",
			logger.String("method", method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", statusCode),
			logger.String("duration", latency.String()),
			logger.String("client_ip", c.ClientIP()),
			logger.String("user_agent", c.Request.UserAgent()),
		)

		h.metrics.Request(method, path, statusCode, latency)

		if latency > _slowRequestThreshold {
			h.metrics.SlowRequest(method, path, statusCode, latency)
		}
	}
}

// authMiddleware resolves the caller from a bearer token issued by the
// platform's auth service.
func (h *PaymentHandler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := h.parseCaller(c.GetHeader("Authorization"))
		if err != nil {
			h.log.Ctx(c.Request.Context()).LogAttrs(c.Request.Context(), logger.WarnLevel, "request rejected",
				logger.String("path", c.Request.URL.Path),
				logger.String("client_ip", c.ClientIP()),
				logger.Any("error", err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}

		c.Set(_callerKey, caller)
		c.Next()
	}
}

func (h *PaymentHandler) parseCaller(header string) (service.Caller, error) {
	const op = "transport.http.parseCaller"

	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return service.Caller{}, fmt.Errorf("%s: missing bearer token: %w", op, entity.ErrUnauthorized)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if h.auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.auth.Issuer))
	}

	claims := &callerClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(h.auth.JWTSecret), nil
	}, opts...)
	if err != nil {
		return service.Caller{}, fmt.Errorf("%s: %w: %w", op, entity.ErrUnauthorized, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return service.Caller{}, fmt.Errorf("%s: subject: %w: %w", op, entity.ErrUnauthorized, err)
	}

	return service.Caller{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
		Phone:  claims.Phone,
	}, nil
}

func callerFrom(c *gin.Context) service.Caller {
	caller, _ := c.MustGet(_callerKey).(service.Caller)
	return caller
}
