package httpt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/internal/service"
	httpt "motoka/internal/transport/http"
	mock_httpt "motoka/internal/transport/http/mock"
	mock_logger "motoka/pkg/logger/mock"
	mock_metric "motoka/pkg/metric/mock"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-at-least-16-bytes"
	testIssuer = "motoka-auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHandler(t *testing.T) (*httpt.PaymentHandler, *mock_httpt.MockPaymentService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	svc := mock_httpt.NewMockPaymentService(ctrl)

	log := mock_logger.NewMockLogger(ctrl)
	log.EXPECT().Ctx(gomock.Any()).Return(log).AnyTimes()
	log.EXPECT().LogAttrs(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().GenerateRequestID().Return(uuid.NewString()).AnyTimes()
	log.EXPECT().WithRequestID(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) context.Context { return ctx }).AnyTimes()

	metrics := mock_metric.NewMockHTTP(ctrl)
	metrics.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	metrics.EXPECT().SlowRequest(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	h := httpt.NewPaymentHandler(svc, config.Auth{JWTSecret: testSecret, Issuer: testIssuer},
		"payment-service", log, metrics)

	return h, svc
}

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func callerToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	return signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": gofakeit.Email(),
		"name":  gofakeit.Name(),
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

func do(h *httpt.PaymentHandler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.Engine().ServeHTTP(w, req)
	return w
}

func fakePayment(userID uuid.UUID, status entity.PaymentStatus) *entity.Payment {
	ref := gofakeit.LetterN(12)
	return &entity.Payment{
		ID:                uuid.New(),
		TransactionID:     "MTK-" + gofakeit.LetterN(20),
		Slug:              gofakeit.LetterN(32),
		UserID:            userID,
		ResourceType:      entity.ResourceVehicle,
		ResourceID:        uuid.New(),
		Amount:            decimal.NewFromInt(19700),
		Currency:          "NGN",
		Status:            status,
		Gateway:           "paystack",
		ProviderReference: &ref,
		LineItems: []entity.LineItem{
			{FeeID: 1, Name: "Third Party Insurance", Amount: decimal.NewFromInt(15000)},
			{FeeID: 2, Name: "Road Worthiness", Amount: decimal.NewFromInt(4000)},
		},
		Metadata:  entity.PaymentMetadata{DeliveryFee: decimal.NewFromInt(700)},
		CreatedAt: time.Now().UTC(),
	}
}

func TestPaymentHandler_Initialize(t *testing.T) {
	userID := uuid.New()
	body := []byte(`{
		"resource_type": "vehicle",
		"resource_slug": "abc123",
		"fee_ids": [1, 2],
		"delivery": {"address": "12 Allen Avenue, Ikeja", "contact": "08030000000", "state_id": 25}
	}`)

	t.Run("Returns authorization payload", func(t *testing.T) {
		h, svc := newHandler(t)
		payment := fakePayment(userID, entity.PaymentPending)

		svc.EXPECT().InitializePayment(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, caller service.Caller, req *service.InitializeRequest) (*service.InitializeResult, error) {
				require.Equal(t, userID, caller.UserID)
				require.Equal(t, entity.ResourceVehicle, req.ResourceType)
				require.Equal(t, []int64{1, 2}, req.FeeIDs)
				require.NotNil(t, req.Delivery)
				require.Equal(t, int64(25), req.Delivery.StateID)
				return &service.InitializeResult{
					Payment: payment,
					Initiation: &entity.ChargeInitiation{
						ProviderReference: *payment.ProviderReference,
						AuthorizationURL:  "https://checkout.paystack.com/abc",
					},
				}, nil
			}).Times(1)

		w := do(h, http.MethodPost, "/api/v1/payment/initialize", callerToken(t, userID), body)

		require.Equal(t, http.StatusOK, w.Code)
		var resp httpt.InitializeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "https://checkout.paystack.com/abc", resp.AuthorizationURL)
		require.True(t, resp.Total.Equal(decimal.NewFromInt(19700)))
		require.Equal(t, payment.TransactionID, resp.Payment.TransactionID)
	})

	t.Run("Rejects invalid body before service", func(t *testing.T) {
		h, _ := newHandler(t)

		w := do(h, http.MethodPost, "/api/v1/payment/initialize", callerToken(t, userID),
			[]byte(`{"resource_type":"boat","resource_slug":"abc","fee_ids":[]}`))

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	testCases := []struct {
		desc     string
		err      error
		expected int
	}{
		{desc: "Unknown fee", err: entity.ErrUnknownFee, expected: http.StatusBadRequest},
		{desc: "Unknown resource", err: entity.ErrInvalidData, expected: http.StatusBadRequest},
		{desc: "No delivery fee", err: entity.ErrDeliveryFeeNotConfigured, expected: http.StatusBadRequest},
		{desc: "Not owner", err: entity.ErrForbidden, expected: http.StatusForbidden},
		{desc: "Gateway down", err: entity.ErrGatewayUnavailable, expected: http.StatusInternalServerError},
		{desc: "Gateway misconfigured", err: entity.ErrGatewayMisconfigured, expected: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, svc := newHandler(t)
			svc.EXPECT().InitializePayment(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, fmt.Errorf("service.InitializePayment: %w", tc.err)).Times(1)

			w := do(h, http.MethodPost, "/api/v1/payment/initialize", callerToken(t, userID), body)

			require.Equal(t, tc.expected, w.Code)
			require.NotContains(t, w.Body.String(), "service.InitializePayment")
		})
	}
}

func TestPaymentHandler_Auth(t *testing.T) {
	userID := uuid.New()
	valid := jwt.MapClaims{
		"sub": userID.String(),
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	with := func(key string, value any) jwt.MapClaims {
		claims := jwt.MapClaims{}
		for k, v := range valid {
			claims[k] = v
		}
		claims[key] = value
		return claims
	}

	testCases := []struct {
		desc  string
		token func(t *testing.T) string
	}{
		{desc: "Missing token", token: func(*testing.T) string { return "" }},
		{desc: "Expired", token: func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, with("exp", time.Now().Add(-time.Minute).Unix()))
		}},
		{desc: "No expiry", token: func(t *testing.T) string {
			claims := with("sub", userID.String())
			delete(claims, "exp")
			return signToken(t, jwt.SigningMethodHS256, claims)
		}},
		{desc: "Wrong issuer", token: func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, with("iss", "someone-else"))
		}},
		{desc: "Unexpected algorithm", token: func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS512, valid)
		}},
		{desc: "Subject is not a user id", token: func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, with("sub", "42"))
		}},
		{desc: "Tampered", token: func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, valid) + "x"
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, _ := newHandler(t)

			w := do(h, http.MethodPost, "/api/v1/payment/verify/MTK-ABC", tc.token(t), nil)

			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPaymentHandler_Verify(t *testing.T) {
	userID := uuid.New()

	t.Run("Completed with order", func(t *testing.T) {
		h, svc := newHandler(t)
		payment := fakePayment(userID, entity.PaymentCompleted)
		order := &entity.Order{
			ID:        uuid.New(),
			PaymentID: payment.ID,
			OrderType: entity.OrderInsurance,
			Amount:    payment.Amount,
			Status:    entity.OrderStatusPending,
		}

		svc.EXPECT().VerifyPayment(gomock.Any(), gomock.Any(), payment.TransactionID).
			Return(&service.VerifyResult{Payment: payment, Order: order, Message: "Payment successful."}, nil).Times(1)

		w := do(h, http.MethodPost, "/api/v1/payment/verify/"+payment.TransactionID, callerToken(t, userID), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp httpt.VerifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "completed", resp.Status)
		require.NotNil(t, resp.Order)
		require.Equal(t, "insurance", resp.Order.OrderType)
	})

	t.Run("Gateway unavailable keeps pending status", func(t *testing.T) {
		h, svc := newHandler(t)
		payment := fakePayment(userID, entity.PaymentPending)

		svc.EXPECT().VerifyPayment(gomock.Any(), gomock.Any(), payment.TransactionID).
			Return(&service.VerifyResult{Payment: payment, Message: "Please try again shortly."}, nil).Times(1)

		w := do(h, http.MethodPost, "/api/v1/payment/verify/"+payment.TransactionID, callerToken(t, userID), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp httpt.VerifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "pending", resp.Status)
		require.Nil(t, resp.Order)
	})

	t.Run("Not owner", func(t *testing.T) {
		h, svc := newHandler(t)
		svc.EXPECT().VerifyPayment(gomock.Any(), gomock.Any(), "MTK-OTHER").
			Return(nil, entity.ErrForbidden).Times(1)

		w := do(h, http.MethodPost, "/api/v1/payment/verify/MTK-OTHER", callerToken(t, userID), nil)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Not found", func(t *testing.T) {
		h, svc := newHandler(t)
		svc.EXPECT().VerifyPayment(gomock.Any(), gomock.Any(), "MTK-MISSING").
			Return(nil, entity.ErrDataNotFound).Times(1)

		w := do(h, http.MethodPost, "/api/v1/payment/verify/MTK-MISSING", callerToken(t, userID), nil)

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPaymentHandler_Webhook(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"MTK-ABC"}}`)

	t.Run("Default gateway", func(t *testing.T) {
		h, svc := newHandler(t)
		svc.EXPECT().WebhookSignatureHeader("").Return("X-Paystack-Signature", nil).Times(1)
		svc.EXPECT().HandleWebhook(gomock.Any(), "", body, "deadbeef").Return(nil).Times(1)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewReader(body))
		req.Header.Set("X-Paystack-Signature", "deadbeef")
		w := httptest.NewRecorder()
		h.Engine().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Named gateway", func(t *testing.T) {
		h, svc := newHandler(t)
		svc.EXPECT().WebhookSignatureHeader("monicredit").Return("X-Monicredit-Signature", nil).Times(1)
		svc.EXPECT().HandleWebhook(gomock.Any(), "monicredit", body, "cafe").Return(nil).Times(1)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook/monicredit", bytes.NewReader(body))
		req.Header.Set("X-Monicredit-Signature", "cafe")
		w := httptest.NewRecorder()
		h.Engine().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	testCases := []struct {
		desc     string
		err      error
		expected int
	}{
		{desc: "Bad signature", err: entity.ErrInvalidSignature, expected: http.StatusBadRequest},
		{desc: "Malformed", err: fmt.Errorf("%w: %w", entity.ErrMalformedWebhook, &json.SyntaxError{}), expected: http.StatusBadRequest},
		{desc: "Store failure asks for redelivery", err: fmt.Errorf("conn refused"), expected: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, svc := newHandler(t)
			svc.EXPECT().WebhookSignatureHeader("paystack").Return("X-Paystack-Signature", nil).Times(1)
			svc.EXPECT().HandleWebhook(gomock.Any(), "paystack", body, "").Return(tc.err).Times(1)

			w := do(h, http.MethodPost, "/api/v1/payment/webhook/paystack", "", body)

			require.Equal(t, tc.expected, w.Code)
		})
	}

	t.Run("Unknown gateway", func(t *testing.T) {
		h, svc := newHandler(t)
		svc.EXPECT().WebhookSignatureHeader("stripe").Return("", entity.ErrUnknownGateway).Times(1)

		w := do(h, http.MethodPost, "/api/v1/payment/webhook/stripe", "", body)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentHandler_Receipt(t *testing.T) {
	userID := uuid.New()
	h, svc := newHandler(t)
	payment := fakePayment(userID, entity.PaymentFailed)

	svc.EXPECT().GetReceipt(gomock.Any(), gomock.Any(), payment.Slug).
		Return(&service.Receipt{Payment: payment}, nil).Times(1)

	w := do(h, http.MethodGet, "/api/v1/payment/receipt/"+payment.Slug, callerToken(t, userID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp httpt.ReceiptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "failed", resp.Payment.Status)
	require.Len(t, resp.Payment.LineItems, 2)
}

func TestPaymentHandler_Health(t *testing.T) {
	h, _ := newHandler(t)

	w := do(h, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
}
