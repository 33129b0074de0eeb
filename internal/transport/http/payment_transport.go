package httpt

//go:generate mockgen -source=payment_transport.go -destination=mock/service.go -package=mock_httpt

import (
	"context"

	"motoka/internal/config"
	"motoka/internal/service"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type PaymentService interface {
	InitializePayment(
		ctx context.Context,
		caller service.Caller,
		req *service.InitializeRequest,
	) (*service.InitializeResult, error)
	VerifyPayment(ctx context.Context, caller service.Caller, transactionID string) (*service.VerifyResult, error)
	HandleWebhook(ctx context.Context, gatewayName string, rawBody []byte, signature string) error
	WebhookSignatureHeader(gatewayName string) (string, error)
	GetReceipt(ctx context.Context, caller service.Caller, slug string) (*service.Receipt, error)
}

type PaymentHandler struct {
	svc     PaymentService
	auth    config.Auth
	log     logger.Logger
	metrics metric.HTTP
	router  *gin.Engine
}

func NewPaymentHandler(
	svc PaymentService,
	auth config.Auth,
	serviceName string,
	log logger.Logger,
	metrics metric.HTTP,
) *PaymentHandler {
	h := &PaymentHandler{
		svc:     svc,
		auth:    auth,
		log:     log,
		metrics: metrics,
	}

	router := gin.New()

	router.Use(otelgin.Middleware(serviceName))
	router.Use(h.requestIDMiddleware())
	router.Use(h.loggingMiddleware())
	router.Use(gin.Recovery())

	h.router = router

	h.setupRoutes()

	return h
}

func (h *PaymentHandler) Engine() *gin.Engine {
	return h.router
}
