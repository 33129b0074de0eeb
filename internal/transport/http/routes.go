package httpt

import (
	"net/http"

	_ "motoka/docs" // for swagger

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Motoka Payment Service API
// @version         1.0
// @description     Payment initialization, verification and gateway webhooks
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func (h *PaymentHandler) setupRoutes() {
	h.router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	v1 := h.router.Group("/api/v1")

	payment := v1.Group("/payment")
	{
		payment.POST("/webhook", h.webhookHandler)
		payment.POST("/webhook/:gateway", h.webhookHandler)

		authed := payment.Group("", h.authMiddleware())
		authed.POST("/initialize", h.initializePaymentHandler)
		authed.POST("/verify/:transaction_id", h.verifyPaymentHandler)
		authed.GET("/receipt/:slug", h.receiptHandler)
	}

	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
