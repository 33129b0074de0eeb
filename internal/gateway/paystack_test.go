package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPaystackSecret = "sk_test_0123456789abcdef"

func newTestPaystack(t *testing.T, baseURL string) *PaystackAdapter {
	t.Helper()

	metrics, log := newTestDeps(t)
	a, err := NewPaystack(config.Paystack{
		Enabled:   true,
		BaseURL:   baseURL,
		SecretKey: testPaystackSecret,
		Timeout:   2 * time.Second,
	}, metrics, log)
	require.NoError(t, err)
	return a
}

func TestPaystack_InitiateCharge(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer "+testPaystackSecret, r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created",
			"data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"MTK-1"}}`))
	})

	a := newTestPaystack(t, srv.URL)
	init, err := a.InitiateCharge(context.Background(), &entity.ChargeRequest{
		TransactionID: "MTK-1",
		Amount:        decimal.RequireFromString("19700.50"),
		Currency:      "NGN",
		Customer:      entity.Customer{ID: uuid.New(), Email: gofakeit.Email()},
		CallbackURL:   "https://motoka.test/payment/callback",
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", init.ProviderReference)
	assert.Equal(t, "https://checkout.paystack.com/abc", init.AuthorizationURL)
	assert.Equal(t, "1970050", got["amount"])
	assert.Equal(t, "MTK-1", got["reference"])
}

func TestPaystack_VerifyCharge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantStatus entity.ResultStatus
		wantAmount string
	}{
		{
			name:       "success converts kobo",
			status:     http.StatusOK,
			body:       `{"status":true,"data":{"id":42,"status":"success","reference":"MTK-1","amount":1970000,"currency":"NGN"}}`,
			wantStatus: entity.ResultSuccess,
			wantAmount: "19700",
		},
		{
			name:       "failed",
			status:     http.StatusOK,
			body:       `{"status":true,"data":{"id":42,"status":"failed","reference":"MTK-1","amount":1970000}}`,
			wantStatus: entity.ResultFailed,
			wantAmount: "19700",
		},
		{
			name:       "abandoned stays pending",
			status:     http.StatusOK,
			body:       `{"status":true,"data":{"id":42,"status":"abandoned","reference":"MTK-1"}}`,
			wantStatus: entity.ResultPending,
		},
		{
			name:       "unrecognized status is unknown",
			status:     http.StatusOK,
			body:       `{"status":true,"data":{"id":42,"status":"mystery","reference":"MTK-1","amount":1970000}}`,
			wantStatus: entity.ResultUnknown,
			wantAmount: "19700",
		},
		{
			name:       "reference not found",
			status:     http.StatusBadRequest,
			body:       `{"status":false,"message":"Transaction reference not found"}`,
			wantStatus: entity.ResultUnknown,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `upstream down`,
			wantErr: entity.ErrGatewayUnavailable,
		},
		{
			name:    "bad credentials",
			status:  http.StatusUnauthorized,
			body:    `{"status":false,"message":"Invalid key"}`,
			wantErr: entity.ErrGatewayMisconfigured,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: entity.ErrGatewayUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/transaction/verify/MTK-1", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			res, err := newTestPaystack(t, srv.URL).VerifyCharge(context.Background(), "MTK-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, "MTK-1", res.TransactionID)
			if tt.wantAmount == "" {
				assert.Nil(t, res.ReportedAmount)
			} else {
				require.NotNil(t, res.ReportedAmount)
				assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(*res.ReportedAmount))
			}
		})
	}
}

func TestPaystack_VerifyCharge_Timeout(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})

	metrics, log := newTestDeps(t)
	a, err := NewPaystack(config.Paystack{BaseURL: srv.URL, SecretKey: testPaystackSecret, Timeout: 50 * time.Millisecond}, metrics, log)
	require.NoError(t, err)

	_, err = a.VerifyCharge(context.Background(), "MTK-1")
	require.ErrorIs(t, err, entity.ErrGatewayUnavailable)
}

func TestPaystack_WebhookSignature(t *testing.T) {
	t.Parallel()

	a := newTestPaystack(t, "http://unused")
	body := []byte(`{"event":"charge.success","data":{"reference":"MTK-1"}}`)
	valid := SignWebhook(testPaystackSecret, body)

	assert.Equal(t, "X-Paystack-Signature", a.SignatureHeader())
	assert.True(t, a.VerifyWebhookSignature(body, valid))
	assert.False(t, a.VerifyWebhookSignature(body, SignWebhook("other-secret", body)))
	assert.False(t, a.VerifyWebhookSignature(append(body, ' '), valid))
	assert.False(t, a.VerifyWebhookSignature(body, ""))
	assert.False(t, a.VerifyWebhookSignature(body, "not-hex"))
}

func TestPaystack_ParseWebhookEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantKind entity.WebhookKind
		wantRef  string
		wantErr  bool
	}{
		{name: "charge success", body: `{"event":"charge.success","data":{"reference":"MTK-1"}}`, wantKind: entity.WebhookChargeSuccess, wantRef: "MTK-1"},
		{name: "charge failed", body: `{"event":"charge.failed","data":{"reference":"MTK-2"}}`, wantKind: entity.WebhookChargeFailed, wantRef: "MTK-2"},
		{name: "dispute", body: `{"event":"charge.dispute.create","data":{"transaction":{"reference":"MTK-3"}}}`, wantKind: entity.WebhookDispute, wantRef: "MTK-3"},
		{name: "unhandled", body: `{"event":"transfer.success","data":{}}`, wantKind: entity.WebhookUnhandled},
		{name: "charge without reference", body: `{"event":"charge.success","data":{}}`, wantErr: true},
		{name: "not json", body: `event=charge.success`, wantErr: true},
		{name: "no event", body: `{"data":{"reference":"MTK-1"}}`, wantErr: true},
	}

	a := newTestPaystack(t, "http://unused")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, err := a.ParseWebhookEvent([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, entity.ErrMalformedWebhook)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, ev.Kind)
			assert.Equal(t, tt.wantRef, ev.Reference)
		})
	}
}
